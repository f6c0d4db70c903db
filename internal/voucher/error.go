package voucher

import "errors"

var (
	ErrVoucherNotFound  = errors.New("voucher not found")
	ErrVoucherInvalid   = errors.New("voucher not valid for this amount")
	ErrVoucherExhausted = errors.New("voucher usage limit reached")
)
