package bridge

// Serial command tokens understood by the controller firmware. Spelling must
// match its command table bit-for-bit.
const (
	tokenPumpOn      = "ON"
	tokenMotorStart  = "START"
	tokenMotorStop   = "STOP"
	tokenServoLeft   = "LEFT"
	tokenServoRight  = "RIGHT"
	tokenScan        = "SCAN"
	tokenTempStart   = "TEMP"
	tokenTempStop    = "TSTOP"
	tokenUltraStart  = "ULTRA"
	tokenUltraStop   = "USTOP"
	tokenMoistStart  = "MOIST"
	tokenMoistStop   = "MSTOP"
	tokenFingerprint = "FP_MATCH"
	tokenNotify      = "SEND"
	tokenAlert       = "ALERT"
)

// stopSequence halts the motor and swings the grain gate closed. Written as
// one atomic sequence so the firmware never sees a partial command.
var stopSequence = []string{tokenMotorStop, tokenServoLeft}

// serialCommand maps one client intent to its serial tokens. Commands with a
// replyEvent acknowledge the issuing client, the rest are fire-and-forget.
type serialCommand struct {
	tokens      []string
	replyEvent  string
	replyMsg    string
	beginsCycle bool
}

var serialCommands = map[string]serialCommand{
	"dispenseWater": {
		tokens:      []string{tokenPumpOn},
		replyEvent:  "dispenseResponse",
		replyMsg:    "Water dispensing started!",
		beginsCycle: true,
	},
	// Grain gate opens before the motor starts, in that order.
	"dispenseGrains": {
		tokens:      []string{tokenServoRight, tokenMotorStart},
		replyEvent:  "dispenseGrainResponse",
		replyMsg:    "Grains dispensing started!",
		beginsCycle: true,
	},
	"scancard": {
		tokens:     []string{tokenScan},
		replyEvent: "scancardResponse",
		replyMsg:   "Scanning started!",
	},
	"checkTemperature": {tokens: []string{tokenTempStart}},
	"stopTemperature":  {tokens: []string{tokenTempStop}},
	"checkLevel":       {tokens: []string{tokenUltraStart}},
	"stopUltra":        {tokens: []string{tokenUltraStop}},
	"startMoisture":    {tokens: []string{tokenMoistStart}},
	"stopMoisture":     {tokens: []string{tokenMoistStop}},
	"startFingerprint": {tokens: []string{tokenFingerprint}},
	"servoLeft":        {tokens: []string{tokenServoLeft}},
	"servoRight":       {tokens: []string{tokenServoRight}},
	"sendNotification": {
		tokens:     []string{tokenNotify},
		replyEvent: "notificationResponse",
		replyMsg:   "Notification sent!",
	},
	"sendAlert": {
		tokens:     []string{tokenAlert},
		replyEvent: "alertResponse",
		replyMsg:   "Alert sent!",
	},
}
