package events

import (
	"regexp"
	"strconv"
	"strings"
)

// Marker patterns, in precedence order. Some markers are substrings of other
// lines' contexts, so the cascade order in Classify is significant.
var (
	distancePattern    = regexp.MustCompile(`Distance.*?(\d+\.?\d*)\s*cm`)
	fingerprintIDPat   = regexp.MustCompile(`ID:\s*(\d+)`)
	identityPrefixPat  = regexp.MustCompile(`Card UID:|UID:|Default UID:`)
	weightPattern      = regexp.MustCompile(`Weight:\s*([\d.]+)`)
	temperaturePattern = regexp.MustCompile(`Temperature:\s*([\d.]+)`)
	moistureRawPattern = regexp.MustCompile(`Moisture Raw:\s*(\d+)`)
	moisturePctPattern = regexp.MustCompile(`Moisture:\s*(\d+)\s*%`)
)

// Classify maps one decoded line to exactly one event, first match wins.
// It is pure and total: capture failures on a matched marker degrade to
// Unrecognized, never panic.
//
//nolint:ireturn // tagged variant dispatch
func Classify(line string) Event {
	switch {
	case strings.Contains(line, "Distance"):
		return classifyDistance(line)

	case strings.Contains(line, "Fingerprint matching started"):
		return FingerprintLog{Message: line}

	case strings.Contains(line, "Fingerprint MATCHED"):
		return classifyFingerprintMatch(line)

	case strings.Contains(line, "Fingerprint NOT matched"), strings.Contains(line, "NOT MATCHED"):
		return FingerprintResult{Matched: false, Log: line}

	case strings.Contains(line, "Fill Level"):
		return FillLevel{Raw: line}

	case strings.Contains(line, "Stock Level"):
		return classifyStock(line)

	case strings.Contains(strings.ToLower(line), "low stock"):
		return StockStatus{Status: "low stock", LowStock: true}

	case strings.Contains(line, "Monitoring started"):
		return MonitoringStatusChanged{Message: line}

	case identityPrefixPat.MatchString(line):
		tag := strings.TrimSpace(identityPrefixPat.ReplaceAllString(line, ""))
		if tag == "" {
			return Unrecognized{Raw: line}
		}

		return IdentityScanned{Tag: tag}

	case strings.HasPrefix(line, "Weight:"):
		return classifyFloat(line, weightPattern, func(v float64) Event { return WeightReading{Grams: v} })

	case strings.HasPrefix(line, "Temperature:"):
		return classifyFloat(line, temperaturePattern, func(v float64) Event { return TemperatureReading{Celsius: v} })

	case strings.Contains(line, "Moisture"):
		return classifyMoisture(line)

	default:
		return Unrecognized{Raw: line}
	}
}

//nolint:ireturn // tagged variant dispatch
func classifyDistance(line string) Event {
	m := distancePattern.FindStringSubmatch(line)
	if m == nil {
		return Unrecognized{Raw: line}
	}

	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Unrecognized{Raw: line}
	}

	return DistanceReading{Centimeters: v}
}

//nolint:ireturn // tagged variant dispatch
func classifyFingerprintMatch(line string) Event {
	m := fingerprintIDPat.FindStringSubmatch(line)
	if m == nil {
		return FingerprintResult{Matched: true, Log: line}
	}

	id, err := strconv.Atoi(m[1])
	if err != nil {
		return FingerprintResult{Matched: true, Log: line}
	}

	return FingerprintResult{Matched: true, FingerprintID: &id, Log: line}
}

//nolint:ireturn // tagged variant dispatch
func classifyStock(line string) Event {
	_, after, found := strings.Cut(line, ":")
	if !found {
		return Unrecognized{Raw: line}
	}

	return StockStatus{Status: strings.TrimSpace(after)}
}

//nolint:ireturn // tagged variant dispatch
func classifyFloat(line string, pattern *regexp.Regexp, build func(float64) Event) Event {
	m := pattern.FindStringSubmatch(line)
	if m == nil {
		return Unrecognized{Raw: line}
	}

	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Unrecognized{Raw: line}
	}

	return build(v)
}

// classifyMoisture requires both the raw and percent captures. A line with
// only one of them is rejected whole, never a partial reading.
//
//nolint:ireturn // tagged variant dispatch
func classifyMoisture(line string) Event {
	rawMatch := moistureRawPattern.FindStringSubmatch(line)
	pctMatch := moisturePctPattern.FindStringSubmatch(line)

	if rawMatch == nil || pctMatch == nil {
		return Unrecognized{Raw: line}
	}

	raw, err := strconv.Atoi(rawMatch[1])
	if err != nil {
		return Unrecognized{Raw: line}
	}

	pct, err := strconv.Atoi(pctMatch[1])
	if err != nil {
		return Unrecognized{Raw: line}
	}

	return MoistureReading{Raw: raw, Percent: pct}
}
