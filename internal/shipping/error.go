package shipping

import "errors"

var (
	ErrShippingUnavailable = errors.New("no shipping rate available for this route")
	ErrMethodNotFound      = errors.New("shipping method not found")
)
