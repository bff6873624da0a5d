package game

// Wire text used in FLG/ERR/OUT segments. These are the literal
// payload values seats negotiate and observe, not free text.
const (
	msgFlagDir = "FLG_DIR"
	msgOkay    = "okay"
	msgError   = "error"

	msgWaitSecond        = "wait for second client"
	msgInvalidData       = "INVALID_DATA"
	msgYouWon            = "you won"
	msgYouLost           = "you lost"
	msgOtherDisconnected = "other client disconnected"
)
