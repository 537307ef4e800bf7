package bridge

// Broadcast payloads mirror what dashboard clients render.

type tagPayload struct {
	Tag string `json:"tag"`
}

type weightPayload struct {
	Grams float64 `json:"grams"`
}

type temperaturePayload struct {
	Celsius float64 `json:"celsius"`
}

// ultrasonicPayload multiplexes distance, fill-level and stock updates on one
// event, discriminated by Type.
type ultrasonicPayload struct {
	Type     string  `json:"type"`
	Distance float64 `json:"distance,omitempty"`
	Message  string  `json:"message,omitempty"`
	Status   string  `json:"status,omitempty"`
}

type moisturePayload struct {
	Raw     int `json:"raw"`
	Percent int `json:"percent"`
}

type moistureAlertPayload struct {
	Value   int    `json:"value"`
	Message string `json:"message"`
}

type messagePayload struct {
	Message string `json:"message"`
}

type fingerprintPayload struct {
	Success  bool   `json:"success"`
	FingerID *int   `json:"fingerId,omitempty"`
	Log      string `json:"log"`
}

// CommandResponse acknowledges a client command.
type CommandResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type thresholdUpdate struct {
	Value float64 `json:"value"`
	Tag   string  `json:"tag,omitempty"`
}
