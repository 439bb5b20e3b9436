package alert

// Controller states.
const (
	StateIdle       = "idle"
	StatePresenting = "presenting"
	StateResolving  = "resolving"
)

// Resolution causes.
const (
	CauseUserAccept  = "user_accept"
	CauseUserDismiss = "user_dismiss"
	CauseAutoAccept  = "auto_accept"
	CauseTeardown    = "teardown"
)

// IsAccepting reports whether a cause results in an accept call to the
// marketplace. Dismiss and teardown never touch the backend.
func IsAccepting(cause string) bool {
	return cause == CauseUserAccept || cause == CauseAutoAccept
}

// IsAutomatic reports whether the resolution was machine-initiated.
func IsAutomatic(cause string) bool {
	return cause == CauseAutoAccept
}
