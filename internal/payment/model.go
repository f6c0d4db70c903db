package payment

import (
	"encoding/json"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Payment is one attempt to collect money for an order. Attempts are
// append-only; the most recent row per order is the authoritative one.
type Payment struct {
	ID          uint
	OrderID     uint
	MethodID    uint
	Amount      int
	Status      Status
	SnapToken   *string
	RawResponse *json.RawMessage
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ItemLine is one row of the itemized breakdown shown on the hosted
// payment page. Shipping fees and discounts appear as synthetic lines,
// discounts with a negative price.
type ItemLine struct {
	ID           string `json:"id"`
	Price        int    `json:"price"`
	Quantity     int    `json:"quantity"`
	Name         string `json:"name"`
	MerchantName string `json:"merchant_name,omitempty"`
}

// CustomerInfo identifies the payer on the hosted payment page.
type CustomerInfo struct {
	Name  string `json:"first_name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// GatewayStatus is the gateway's view of one transaction.
type GatewayStatus struct {
	TransactionStatus string
	SettlementTime    *time.Time
}
