package store

import "time"

// Store is a vendor selling books on the marketplace. Each cart group in a
// checkout maps to one store and produces one invoice.
type Store struct {
	ID        uint
	Name      string
	Slug      string
	OriginID  int // carrier API origin id for shipping quotes
	Address   *string
	Phone     *string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
