package marketplace

import "errors"

// Order is a pending order as returned by the marketplace API.
// Orders are observed, never mutated locally; status changes are
// requested through the accept/reject endpoints.
type Order struct {
	ID                string  `json:"id"`
	CustomerName      string  `json:"customer_name"`
	ItemsCount        int     `json:"items_count"`
	TotalAmount       float64 `json:"total_amount"`
	CreatedAt         string  `json:"created_at"`
	AutoAcceptSeconds int     `json:"auto_accept_seconds"`
	Status            string  `json:"status"`
}

// Action outcomes.
const (
	OutcomeAccepted       = "accepted"
	OutcomeRejected       = "rejected"
	OutcomeAlreadyHandled = "already_handled"
)

// ErrAuth indicates the session token was rejected (401). It is terminal
// for the polling session and is never retried by this client.
var ErrAuth = errors.New("marketplace: authentication rejected")

// IsAuthError reports whether err is (or wraps) an authentication failure.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuth)
}
