package order

import "errors"

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrInvoiceNotFound     = errors.New("invoice not found")
	ErrOrderNotCancellable = errors.New("order can no longer be cancelled")
	ErrEmptyCart           = errors.New("checkout requires at least one cart group with items")
	ErrDestinationRequired = errors.New("courier shipping requires a destination and address")
)
