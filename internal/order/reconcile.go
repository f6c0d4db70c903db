package order

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"pustaka-be/internal/logger"
	"pustaka-be/internal/payment"
	"pustaka-be/internal/utils"
)

// Gateway transaction statuses that map to terminal payment states.
const (
	gatewaySettlement = "settlement"
	gatewayFailed     = "failed"
	gatewayExpire     = "expire"
)

// CheckPayment polls the gateway for the latest attempt and transitions
// payment, order, invoices and items accordingly. The idempotency guard
// makes repeated and concurrent calls for the same order converge: a
// terminal transition is applied at most once.
func (s *service) CheckPayment(ctx context.Context, orderCode string) (*payment.Payment, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CheckPayment"),
		zap.String("order_code", orderCode),
	)

	var result *payment.Payment
	err := s.uow.Do(ctx, func(r Repos) error {
		o, err := r.Orders.GetByCode(ctx, orderCode)
		if err != nil {
			return err
		}
		p, err := r.Payments.GetLatestByOrder(ctx, o.ID)
		if err != nil {
			return err
		}
		method, err := r.PaymentMethods.GetByID(ctx, p.MethodID)
		if err != nil {
			return err
		}

		// Offline methods have nothing to reconcile against.
		if !method.Kind.RequiresGateway() {
			result = p
			return nil
		}

		count, err := r.Payments.CountByOrder(ctx, o.ID)
		if err != nil {
			return err
		}
		transactionID := utils.GatewayTransactionID(o.Code, count-1)

		mapped := s.mapGatewayStatus(ctx, transactionID)

		// Guard: once the payment is completed and the order has moved past
		// pending, the transition already happened.
		if p.Status != payment.StatusCompleted || o.Status == StatusPending {
			switch mapped {
			case payment.StatusCompleted:
				if err := r.Payments.SetCompleted(ctx, p.ID); err != nil {
					return err
				}
				if err := r.Orders.SetPaidNow(ctx, o.ID, time.Now()); err != nil {
					return err
				}
				p.Status = payment.StatusCompleted
				log.Info("payment settled, order marked paid")
			case payment.StatusFailed:
				if err := r.Payments.SetFailed(ctx, p.ID); err != nil {
					return err
				}
				if err := r.Orders.SetCancelled(ctx, o.ID); err != nil {
					return err
				}
				p.Status = payment.StatusFailed
				log.Info("payment failed, order cancelled")
			}
		}

		result = p
		return nil
	})
	if err != nil {
		log.Error("payment reconciliation failed", zap.Error(err))
		return nil, err
	}
	return result, nil
}

// mapGatewayStatus translates the gateway's view into a payment status.
// A transaction the gateway does not know yet is still pending, not an
// error: the customer may simply not have opened the payment page.
func (s *service) mapGatewayStatus(ctx context.Context, transactionID string) payment.Status {
	log := logger.FromCtx(ctx).With(zap.String("transaction_id", transactionID))

	status, err := s.gateway.GetTransactionStatus(ctx, transactionID)
	if err != nil {
		if !errors.Is(err, payment.ErrTransactionNotFound) {
			log.Warn("gateway status query failed, treating as pending", zap.Error(err))
		}
		return payment.StatusPending
	}

	switch status.TransactionStatus {
	case gatewaySettlement:
		return payment.StatusCompleted
	case gatewayFailed, gatewayExpire:
		return payment.StatusFailed
	default:
		return payment.StatusPending
	}
}

// ConfirmPayment is the manual "I have paid" action: it resolves the order
// owning the payment and runs the same reconciliation.
func (s *service) ConfirmPayment(ctx context.Context, paymentID uint) error {
	var orderCode string
	err := s.uow.Do(ctx, func(r Repos) error {
		p, err := r.Payments.GetByID(ctx, paymentID)
		if err != nil {
			return err
		}
		o, err := r.Orders.GetByID(ctx, p.OrderID)
		if err != nil {
			return err
		}
		orderCode = o.Code
		return nil
	})
	if err != nil {
		return err
	}

	_, err = s.CheckPayment(ctx, orderCode)
	return err
}
