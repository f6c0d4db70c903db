package order

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"pustaka-be/internal/logger"
	"pustaka-be/internal/payment"
	"pustaka-be/internal/shipping"
	"pustaka-be/internal/user"
	"pustaka-be/internal/utils"
	"pustaka-be/internal/voucher"
)

// Shipping quotes use a flat parcel weight and one default courier for
// every store, matching the storefront's quote endpoint.
const (
	DefaultWeightGrams = 1000
	DefaultCourier     = "jne"

	invoiceDueAfter = 24 * time.Hour
)

type CartItemInput struct {
	BookID   uint `json:"book_id"`
	Quantity int  `json:"quantity"`
}

type CartGroupInput struct {
	StoreID     uint            `json:"store_id"`
	VoucherCode *string         `json:"voucher_code"`
	Items       []CartItemInput `json:"items"`
}

// CheckoutInput carries one checkout request. Exactly one customer source
// applies: CustomerID (staff checkout), Guest, or the authenticated UserID.
type CheckoutInput struct {
	UserID     uint
	CustomerID *uint
	Guest      *user.GuestInfo

	CartGroups       []CartGroupInput
	PaymentMethodID  uint
	ShippingMethodID uint
	Destination      Destination
	Note             *string
	VoucherCode      *string

	GuestCheckout bool
	StoreCheckout bool
}

type CheckoutResult struct {
	Order    *Order           `json:"order"`
	Invoices []Invoice        `json:"invoices"`
	Payment  *payment.Payment `json:"payment"`
}

type Service interface {
	// Checkout turns a cart into one order, one invoice per store and one
	// pending payment, atomically. Any failure leaves no rows behind.
	Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error)

	// CancelOrder cancels the order owning the invoice. Only pending orders
	// can be cancelled; cancelling an already cancelled order is a no-op.
	CancelOrder(ctx context.Context, invoiceID uint) error

	// ChangePaymentType opens a fresh gateway session for an existing order
	// and appends a new pending payment attempt.
	ChangePaymentType(ctx context.Context, orderCode string) (*payment.Payment, error)

	// CheckPayment reconciles the latest payment attempt against the
	// gateway and cascades order state. Safe to call repeatedly.
	CheckPayment(ctx context.Context, orderCode string) (*payment.Payment, error)

	// ConfirmPayment reconciles the order owning the given payment.
	ConfirmPayment(ctx context.Context, paymentID uint) error

	// GetOrderDetail returns the order with its per-store invoice groups
	// and payment attempts.
	GetOrderDetail(ctx context.Context, code string) (*OrderDetail, error)
}

type OrderDetail struct {
	Order    *Order            `json:"order"`
	Groups   []InvoiceGroup    `json:"groups"`
	Payments []payment.Payment `json:"payments"`
}

type service struct {
	uow      UnitOfWork
	resolver shipping.CostResolver
	gateway  payment.Gateway
}

func NewService(uow UnitOfWork, resolver shipping.CostResolver, gateway payment.Gateway) Service {
	return &service{uow: uow, resolver: resolver, gateway: gateway}
}

func (s *service) Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Checkout"),
	)

	if len(input.CartGroups) == 0 {
		return nil, ErrEmptyCart
	}
	for _, group := range input.CartGroups {
		if len(group.Items) == 0 {
			return nil, ErrEmptyCart
		}
	}

	var result *CheckoutResult
	err := s.uow.Do(ctx, func(r Repos) error {
		now := time.Now()

		// 1. Resolve the customer.
		customer, err := s.resolveCustomer(ctx, r, input)
		if err != nil {
			return err
		}

		// 2. Resolve the order-level voucher up front so a bad code fails
		// before any row is written.
		var orderVoucher *voucher.Voucher
		if input.VoucherCode != nil {
			orderVoucher, err = r.Vouchers.FindActiveByCode(ctx, *input.VoucherCode, nil, now)
			if err != nil {
				return err
			}
		}

		// 3. Resolve payment and shipping methods.
		paymentMethod, err := r.PaymentMethods.GetByID(ctx, input.PaymentMethodID)
		if err != nil {
			return err
		}
		shippingMethod, err := r.ShippingMethods.GetByID(ctx, input.ShippingMethodID)
		if err != nil {
			return err
		}

		courierDelivery := shippingMethod.Kind.RequiresDelivery()
		if courierDelivery && (input.Destination.ID == nil || input.Destination.Address == nil) {
			return ErrDestinationRequired
		}

		var (
			order         *Order
			invoices      []Invoice
			itemLines     []payment.ItemLine
			gross         int
			totalShipping int
		)

		// 4. Process each cart group in input order; the index suffixes the
		// invoice code.
		for idx, group := range input.CartGroups {
			st, err := r.Stores.GetByID(ctx, group.StoreID)
			if err != nil {
				return err
			}

			var shippingCost int
			var shippingEstimate *string
			if courierDelivery {
				quote, err := s.resolver.Quote(ctx, st.OriginID, *input.Destination.ID, DefaultWeightGrams, DefaultCourier)
				if err != nil {
					return err
				}
				shippingCost = quote.Cost
				if quote.Estimate != "" {
					estimate := quote.Estimate
					shippingEstimate = &estimate
				}
			}

			// The first group anchors the shared order shell.
			if order == nil {
				dest := Destination{}
				if courierDelivery {
					dest = input.Destination
				}
				order = &Order{
					UserID:           customer.ID,
					Code:             utils.GenerateOrderCode(now),
					Note:             input.Note,
					PaymentMethodID:  paymentMethod.ID,
					ShippingMethodID: shippingMethod.ID,
					Destination:      dest,
					ShippingEstimate: shippingEstimate,
					Status:           StatusPending,
				}
				if err := r.Orders.CreateOrder(ctx, order); err != nil {
					return err
				}
			}

			// Item rows snapshot the book's current price, never the cart's.
			subtotal := 0
			for _, cartItem := range group.Items {
				b, err := r.Books.GetByID(ctx, cartItem.BookID)
				if err != nil {
					return err
				}

				itemSubtotal := cartItem.Quantity * b.FinalPrice
				subtotal += itemSubtotal

				item := &Item{
					OrderID:           order.ID,
					StoreID:           st.ID,
					UserID:            customer.ID,
					BookID:            b.ID,
					Quantity:          cartItem.Quantity,
					UnitBasePrice:     b.SlicePrice,
					UnitDiscount:      b.Discount,
					UnitFinalPrice:    b.FinalPrice,
					Subtotal:          itemSubtotal,
					FulfillmentStatus: StatusPending,
				}
				if err := r.Orders.CreateItem(ctx, item); err != nil {
					return err
				}

				itemLines = append(itemLines, payment.ItemLine{
					ID:           strconv.FormatUint(uint64(b.ID), 10),
					Price:        b.FinalPrice,
					Quantity:     cartItem.Quantity,
					Name:         b.SKU,
					MerchantName: st.Name,
				})
			}

			inv := &Invoice{
				OrderID:          order.ID,
				StoreID:          st.ID,
				UserID:           customer.ID,
				Code:             utils.GenerateInvoiceCode(now, idx),
				BaseAmount:       subtotal,
				ShippingCost:     shippingCost,
				ShippingEstimate: shippingEstimate,
				Amount:           subtotal + shippingCost,
				DueDate:          now.Add(invoiceDueAfter),
				Status:           StatusPending,
			}
			if err := r.Orders.CreateInvoice(ctx, inv); err != nil {
				return err
			}

			// 5. Store voucher applies against the invoice's base amount;
			// shipping is never discountable.
			if group.VoucherCode != nil {
				storeVoucher, err := r.Vouchers.FindActiveByCode(ctx, *group.VoucherCode, &st.ID, now)
				if err != nil {
					return err
				}
				if !voucher.IsValid(storeVoucher, inv.BaseAmount, now) {
					return voucher.ErrVoucherInvalid
				}

				discount, err := s.redeemDiscount(ctx, r, storeVoucher, customer.ID, inv.BaseAmount, now)
				if err != nil {
					return err
				}

				if err := r.Orders.ApplyInvoiceVoucher(ctx, inv.ID, storeVoucher.ID, discount); err != nil {
					return err
				}
				inv.VoucherID = &storeVoucher.ID
				inv.VoucherAmount = discount
				inv.Amount -= discount

				if discount > 0 {
					itemLines = append(itemLines, payment.ItemLine{
						ID:           strconv.FormatUint(uint64(storeVoucher.ID), 10),
						Price:        -discount,
						Quantity:     1,
						Name:         "Discount - " + storeVoucher.Code,
						MerchantName: st.Name,
					})
				}
			}

			invoices = append(invoices, *inv)
			gross += inv.Amount
			totalShipping += shippingCost

			if shippingCost > 0 {
				itemLines = append(itemLines, payment.ItemLine{
					ID:           "shipping-" + strconv.Itoa(idx),
					Price:        shippingCost,
					Quantity:     1,
					Name:         "Biaya Pengiriman",
					MerchantName: st.Name,
				})
			}
		}

		if err := r.Orders.SetShippingCost(ctx, order.ID, totalShipping); err != nil {
			return err
		}
		order.ShippingCost = totalShipping

		// 6. The order voucher's base excludes shipping.
		if orderVoucher != nil {
			discountBase := gross - totalShipping
			if !voucher.IsValid(orderVoucher, discountBase, now) {
				return voucher.ErrVoucherInvalid
			}

			discount, err := s.redeemDiscount(ctx, r, orderVoucher, customer.ID, discountBase, now)
			if err != nil {
				return err
			}

			if err := r.Orders.ApplyOrderVoucher(ctx, order.ID, orderVoucher.ID, discount); err != nil {
				return err
			}
			order.VoucherID = &orderVoucher.ID
			order.VoucherAmount = discount
			gross -= discount
		}

		// 7. Open the gateway session inside the transaction span so a
		// session failure rolls everything back.
		p := &payment.Payment{
			OrderID:  order.ID,
			MethodID: paymentMethod.ID,
			Amount:   gross,
			Status:   payment.StatusPending,
		}
		if paymentMethod.Kind.RequiresGateway() {
			token, raw, err := s.gateway.CreateSnapToken(
				ctx,
				utils.GatewayTransactionID(order.Code, 0),
				itemLines,
				customerInfo(customer),
				gross,
			)
			if err != nil {
				return err
			}
			p.SnapToken = &token
			p.RawResponse = raw
		}
		if err := r.Payments.Create(ctx, p); err != nil {
			return err
		}

		result = &CheckoutResult{Order: order, Invoices: invoices, Payment: p}
		return nil
	})
	if err != nil {
		log.Error("checkout failed", zap.Error(err))
		return nil, err
	}

	log.Info("checkout completed",
		zap.String("order_code", result.Order.Code),
		zap.Int("invoices", len(result.Invoices)),
		zap.Int("amount", result.Payment.Amount),
	)
	return result, nil
}

func (s *service) resolveCustomer(ctx context.Context, r Repos, input CheckoutInput) (*user.User, error) {
	switch {
	case input.StoreCheckout && input.CustomerID != nil:
		return r.Users.GetByID(ctx, *input.CustomerID)
	case input.StoreCheckout && input.Guest != nil:
		return r.Users.GetOrCreateGuest(ctx, *input.Guest)
	case input.GuestCheckout:
		if input.Guest == nil {
			return nil, user.ErrUserNotFound
		}
		return r.Users.GetOrCreateGuest(ctx, *input.Guest)
	default:
		return r.Users.GetByID(ctx, input.UserID)
	}
}

// redeemDiscount books one voucher use and returns the discount to apply.
// A refused redemption (usage limit reached) yields a zero discount, not an
// error; the voucher stays linked for traceability.
func (s *service) redeemDiscount(ctx context.Context, r Repos, v *voucher.Voucher, userID uint, base int, now time.Time) (int, error) {
	redeemed, err := r.Vouchers.Redeem(ctx, v, userID, true, now)
	if err != nil {
		return 0, err
	}
	if !redeemed {
		return 0, nil
	}
	return voucher.ComputeDiscount(v, base), nil
}

func customerInfo(u *user.User) payment.CustomerInfo {
	info := payment.CustomerInfo{Name: u.Name, Email: u.Email}
	if u.Phone != nil {
		info.Phone = *u.Phone
	}
	return info
}

func (s *service) CancelOrder(ctx context.Context, invoiceID uint) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CancelOrder"),
		zap.Uint("invoice_id", invoiceID),
	)

	return s.uow.Do(ctx, func(r Repos) error {
		inv, err := r.Orders.GetInvoiceByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		o, err := r.Orders.GetByID(ctx, inv.OrderID)
		if err != nil {
			return err
		}

		switch o.Status {
		case StatusCancelled:
			// Already cancelled, nothing to do.
			return nil
		case StatusPending:
		default:
			log.Warn("refusing to cancel order past pending", zap.String("status", string(o.Status)))
			return ErrOrderNotCancellable
		}

		if err := r.Orders.SetCancelled(ctx, o.ID); err != nil {
			return err
		}
		log.Info("order cancelled", zap.String("order_code", o.Code))
		return nil
	})
}

func (s *service) ChangePaymentType(ctx context.Context, orderCode string) (*payment.Payment, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ChangePaymentType"),
		zap.String("order_code", orderCode),
	)

	var p *payment.Payment
	err := s.uow.Do(ctx, func(r Repos) error {
		o, err := r.Orders.GetByCode(ctx, orderCode)
		if err != nil {
			return err
		}
		customer, err := r.Users.GetByID(ctx, o.UserID)
		if err != nil {
			return err
		}
		method, err := r.PaymentMethods.GetByID(ctx, o.PaymentMethodID)
		if err != nil {
			return err
		}

		// Rebuild the breakdown from the persisted items.
		items, err := r.Orders.ListItems(ctx, o.ID)
		if err != nil {
			return err
		}
		var itemLines []payment.ItemLine
		for _, item := range items {
			itemLines = append(itemLines, payment.ItemLine{
				ID:           strconv.FormatUint(uint64(item.BookID), 10),
				Price:        item.UnitFinalPrice,
				Quantity:     item.Quantity,
				Name:         item.BookSKU,
				MerchantName: item.StoreName,
			})
		}
		if o.ShippingCost > 0 {
			itemLines = append(itemLines, payment.ItemLine{
				ID:       "shipping",
				Price:    o.ShippingCost,
				Quantity: 1,
				Name:     "Biaya Pengiriman",
			})
		}

		gross, err := r.Orders.SumInvoiceAmounts(ctx, o.ID)
		if err != nil {
			return err
		}

		// The attempt ordinal equals the number of existing payments, so the
		// gateway sees a fresh transaction id.
		count, err := r.Payments.CountByOrder(ctx, o.ID)
		if err != nil {
			return err
		}

		token, raw, err := s.gateway.CreateSnapToken(
			ctx,
			utils.GatewayTransactionID(o.Code, count),
			itemLines,
			customerInfo(customer),
			gross,
		)
		if err != nil {
			return err
		}

		p = &payment.Payment{
			OrderID:     o.ID,
			MethodID:    method.ID,
			Amount:      gross,
			Status:      payment.StatusPending,
			SnapToken:   &token,
			RawResponse: raw,
		}
		return r.Payments.Create(ctx, p)
	})
	if err != nil {
		log.Error("failed to change payment type", zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (s *service) GetOrderDetail(ctx context.Context, code string) (*OrderDetail, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "GetOrderDetail"),
		zap.String("order_code", code),
	)

	var detail *OrderDetail
	err := s.uow.Do(ctx, func(r Repos) error {
		o, err := r.Orders.GetByCode(ctx, code)
		if err != nil {
			return err
		}
		invoices, err := r.Orders.ListInvoices(ctx, o.ID)
		if err != nil {
			return err
		}
		items, err := r.Orders.ListItems(ctx, o.ID)
		if err != nil {
			return err
		}
		payments, err := r.Payments.ListByOrder(ctx, o.ID)
		if err != nil {
			return err
		}

		groups := make([]InvoiceGroup, 0, len(invoices))
		for _, inv := range invoices {
			group := InvoiceGroup{Invoice: inv}
			for _, item := range items {
				if item.StoreID == inv.StoreID {
					group.Items = append(group.Items, item)
				}
			}
			groups = append(groups, group)
		}

		detail = &OrderDetail{Order: o, Groups: groups, Payments: payments}
		return nil
	})
	if err != nil {
		log.Warn("failed to load order detail", zap.Error(err))
		return nil, err
	}
	return detail, nil
}
