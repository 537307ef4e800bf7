// Package events turns decoded serial lines from the dispenser controller
// into typed sensor events.
package events

// Event is the tagged variant produced by Classify. Exactly one concrete
// type is active per decoded line.
type Event interface {
	event()
}

// IdentityScanned is emitted when the controller reports a proximity tag.
type IdentityScanned struct {
	Tag string
}

// WeightReading is a load-cell sample in grams.
type WeightReading struct {
	Grams float64
}

// TemperatureReading is a temperature sample in degrees Celsius.
type TemperatureReading struct {
	Celsius float64
}

// DistanceReading is an ultrasonic distance sample in centimeters.
type DistanceReading struct {
	Centimeters float64
}

// FillLevel carries a container fill-level message verbatim.
type FillLevel struct {
	Raw string
}

// StockStatus reports the controller's stock assessment. LowStock marks the
// distinguished low-stock alert.
type StockStatus struct {
	Status   string
	LowStock bool
}

// MoistureReading pairs the raw sensor value with the derived percentage.
// Both captures must be present on the line or the reading is rejected.
type MoistureReading struct {
	Raw     int
	Percent int
}

// FingerprintResult reports the outcome of a biometric match attempt.
// FingerprintID is nil when no match was found.
type FingerprintResult struct {
	Matched       bool
	FingerprintID *int
	Log           string
}

// FingerprintLog carries a fingerprint session message that is not a result.
type FingerprintLog struct {
	Message string
}

// MonitoringStatusChanged reports that the controller started a monitoring
// session.
type MonitoringStatusChanged struct {
	Message string
}

// Unrecognized is the default case: the line matched no marker, or matched
// one but its captures failed to parse.
type Unrecognized struct {
	Raw string
}

func (IdentityScanned) event()         {}
func (WeightReading) event()           {}
func (TemperatureReading) event()      {}
func (DistanceReading) event()         {}
func (FillLevel) event()               {}
func (StockStatus) event()             {}
func (MoistureReading) event()         {}
func (FingerprintResult) event()       {}
func (FingerprintLog) event()          {}
func (MonitoringStatusChanged) event() {}
func (Unrecognized) event()            {}
