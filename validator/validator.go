// Package validator enforces the command policy a session applies to
// every CMD segment before it is relayed or checked as a win.
package validator

import (
	"errors"
	"flagrelay/config"
	"strings"
)

var (
	ErrCommandTooLong    = errors.New("validator: command exceeds maximum length")
	ErrCommandBanned     = errors.New("validator: command contains a banned token")
	ErrCommandNotAllowed = errors.New("validator: command is not on the allowed list")
)

// ValidateCommand checks cmd against the length limit, the banned
// substring list, and the allowed leading-command list. It is a pure
// function so it can be unit tested without a running session.
func ValidateCommand(cmd string, cfg config.Config) error {
	if len(cmd) > cfg.MaxCmdLen {
		return ErrCommandTooLong
	}
	for _, banned := range cfg.BannedTokens {
		if banned != "" && strings.Contains(cmd, banned) {
			return ErrCommandBanned
		}
	}
	leading := leadingToken(cmd)
	if leading == "" {
		return ErrCommandNotAllowed
	}
	for _, allowed := range cfg.AllowedCommands {
		if leading == allowed {
			return nil
		}
	}
	return ErrCommandNotAllowed
}

// ValidatePath checks a client-proposed flag directory against only
// the banned substring list; the allowed-command restriction does not
// apply to a path.
func ValidatePath(path string, cfg config.Config) error {
	for _, banned := range cfg.BannedTokens {
		if banned != "" && strings.Contains(path, banned) {
			return ErrCommandBanned
		}
	}
	return nil
}

func leadingToken(cmd string) string {
	trimmed := strings.TrimSpace(cmd)
	if trimmed == "" {
		return ""
	}
	fields := strings.Fields(trimmed)
	return fields[0]
}
