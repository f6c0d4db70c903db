package order

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusPaid       Status = "paid"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Order is one checkout, possibly spanning several stores. Its invoices and
// items are created with it and only ever transition status afterwards.
type Order struct {
	ID               uint
	UserID           uint
	Code             string
	Note             *string
	PaymentMethodID  uint
	ShippingMethodID uint
	Destination      Destination
	VoucherID        *uint
	VoucherAmount    int
	ShippingCost     int
	ShippingEstimate *string
	Status           Status
	PaidAt           *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Destination is the delivery address snapshot taken at checkout. All fields
// are nil for pickup orders.
type Destination struct {
	ID              *int
	Label           *string
	ProvinceName    *string
	CityName        *string
	DistrictName    *string
	SubdistrictName *string
	ZipCode         *string
	Address         *string
}

// Invoice is one store's share of an order.
type Invoice struct {
	ID               uint
	OrderID          uint
	StoreID          uint
	UserID           uint
	Code             string
	BaseAmount       int
	ShippingCost     int
	ShippingEstimate *string
	VoucherID        *uint
	VoucherAmount    int
	Amount           int
	DueDate          time.Time
	Status           Status
	PaidAt           *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Item is one book line inside a store's invoice. Unit prices are snapshots
// of the book at checkout time, not the cart's cached price.
type Item struct {
	ID                uint
	OrderID           uint
	StoreID           uint
	UserID            uint
	BookID            uint
	Quantity          int
	UnitBasePrice     int
	UnitDiscount      int
	UnitFinalPrice    int
	Subtotal          int
	FulfillmentStatus Status
	Rating            *int
	Review            *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ItemDetail is an item joined with the labels needed for payment
// breakdowns and order detail views.
type ItemDetail struct {
	Item
	BookSKU   string
	BookTitle string
	StoreName string
}

// InvoiceGroup is one store's slice of an order detail view.
type InvoiceGroup struct {
	Invoice Invoice      `json:"invoice"`
	Items   []ItemDetail `json:"items"`
}
