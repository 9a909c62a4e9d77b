package dcrrewards

import "decred.org/dcrwallet/v2/errors"

var (
	ErrNotLoaded             = errors.New("not_loaded")
	ErrVoteNotFound          = errors.New("vote_not_found")
	ErrAlreadyClaimed        = errors.New("already_claimed")
	ErrLoadDiscarded         = errors.New("load_discarded")
	ErrControllerClosed      = errors.New("controller_closed")
	ErrListenerAlreadyExist  = errors.New("listener_already_exists")
	ErrSettingsDatabaseInUse = errors.New("settings database is in use by another process")
)

func errInvalidLogLevel(level string) error {
	return errors.E(errors.Invalid, "invalid log level "+level)
}
