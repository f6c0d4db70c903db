package book

import "time"

// Book is a catalog item. Prices are stored in whole rupiah.
// FinalPrice is the price after the book's own discount and is the snapshot
// taken into a checkout; cart-side cached prices are never trusted.
type Book struct {
	ID         uint
	StoreID    uint
	Title      string
	Author     string
	SKU        string
	SlicePrice int // base price before discount
	Discount   int // percentage, 0-100
	FinalPrice int
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
