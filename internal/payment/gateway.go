package payment

import (
	"context"
	"encoding/json"
)

// Gateway opens hosted payment sessions and answers status queries. Each
// session is keyed by a transaction id derived from the order code plus the
// attempt ordinal, so retries are distinct gateway transactions.
type Gateway interface {
	// CreateSnapToken opens a hosted payment session for the gross amount
	// with the itemized breakdown and returns the session token.
	CreateSnapToken(ctx context.Context, transactionID string, items []ItemLine, customer CustomerInfo, grossAmount int) (string, *json.RawMessage, error)

	// GetTransactionStatus returns the gateway's current view of the
	// transaction. An unknown transaction yields ErrTransactionNotFound.
	GetTransactionStatus(ctx context.Context, transactionID string) (*GatewayStatus, error)
}
