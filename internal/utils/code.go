package utils

import (
	"fmt"
	"strings"
	"time"
)

const codeTimestampLayout = "20060102150405"

// GenerateOrderCode builds the order code for a checkout started at now,
// e.g. SL-20250101093050.
func GenerateOrderCode(now time.Time) string {
	return "SL-" + now.Format(codeTimestampLayout)
}

// GenerateInvoiceCode builds a per-vendor invoice code. The cart group index
// disambiguates invoices created in the same second for the same order.
func GenerateInvoiceCode(now time.Time, groupIndex int) string {
	return fmt.Sprintf("INV-%s-%d", now.Format(codeTimestampLayout), groupIndex)
}

// GenerateRedemptionCode builds the unique code stored on a voucher
// redemption row.
func GenerateRedemptionCode(voucherCode string, userID uint, now time.Time) string {
	return strings.ToUpper(fmt.Sprintf("%s-%d-%s", voucherCode, userID, now.Format(codeTimestampLayout)))
}

// GatewayTransactionID derives the external transaction id for a payment
// attempt. The first attempt uses the bare order code; later attempts get an
// incrementing suffix so the gateway sees each one as a new transaction.
func GatewayTransactionID(orderCode string, attempt int) string {
	if attempt <= 0 {
		return orderCode
	}
	return fmt.Sprintf("%s-%d", orderCode, attempt)
}
