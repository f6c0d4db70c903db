package payment

import "errors"

var (
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrMethodNotFound       = errors.New("payment method not found")
	ErrGatewaySessionFailed = errors.New("failed to open payment gateway session")
	ErrTransactionNotFound  = errors.New("transaction not found at gateway")
)
