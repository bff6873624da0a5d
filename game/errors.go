package game

import "errors"

// ErrFlagRetriesExhausted is returned from HandleFrame when a seat has
// failed flag provisioning more times than the configured limit
// allows; the caller (the connection handler) must close the
// connection in response.
var ErrFlagRetriesExhausted = errors.New("game: flag provisioning retry limit exceeded")
