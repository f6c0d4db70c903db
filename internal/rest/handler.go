package rest

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pustaka-be/internal/book"
	"pustaka-be/internal/logger"
	"pustaka-be/internal/order"
	"pustaka-be/internal/payment"
	"pustaka-be/internal/shipping"
	"pustaka-be/internal/store"
	"pustaka-be/internal/user"
	"pustaka-be/internal/utils"
	"pustaka-be/internal/voucher"
)

// Handler exposes the checkout pipeline over HTTP.
type Handler struct {
	orders   order.Service
	vouchers voucher.Service
	rates    shipping.CostResolver
	stores   store.Repository
}

func NewHandler(orders order.Service, vouchers voucher.Service, rates shipping.CostResolver, stores store.Repository) *Handler {
	return &Handler{orders: orders, vouchers: vouchers, rates: rates, stores: stores}
}

type checkoutRequest struct {
	CartGroups       []order.CartGroupInput `json:"cart_groups" binding:"required,min=1"`
	PaymentMethodID  uint                   `json:"payment_method_id" binding:"required"`
	ShippingMethodID uint                   `json:"shipping_method_id" binding:"required"`

	DestinationID    *int    `json:"destination_id"`
	DestinationLabel *string `json:"destination_label"`
	ProvinceName     *string `json:"province_name"`
	CityName         *string `json:"city_name"`
	DistrictName     *string `json:"district_name"`
	SubdistrictName  *string `json:"subdistrict_name"`
	ZipCode          *string `json:"zip_code"`
	Address          *string `json:"address"`

	Note        *string `json:"note"`
	VoucherCode *string `json:"voucher_code"`

	// guest checkout only
	GuestName  string `json:"guest_name"`
	GuestEmail string `json:"guest_email"`
	GuestPhone string `json:"guest_phone"`

	// staff checkout only
	CustomerID *uint `json:"customer_id"`
}

func (r checkoutRequest) destination() order.Destination {
	return order.Destination{
		ID:              r.DestinationID,
		Label:           r.DestinationLabel,
		ProvinceName:    r.ProvinceName,
		CityName:        r.CityName,
		DistrictName:    r.DistrictName,
		SubdistrictName: r.SubdistrictName,
		ZipCode:         r.ZipCode,
		Address:         r.Address,
	}
}

func (r checkoutRequest) guestInfo() *user.GuestInfo {
	if r.GuestName == "" && r.GuestEmail == "" {
		return nil
	}
	return &user.GuestInfo{Name: r.GuestName, Email: r.GuestEmail, Phone: r.GuestPhone}
}

func (r checkoutRequest) toInput() order.CheckoutInput {
	return order.CheckoutInput{
		CartGroups:       r.CartGroups,
		PaymentMethodID:  r.PaymentMethodID,
		ShippingMethodID: r.ShippingMethodID,
		Destination:      r.destination(),
		Note:             r.Note,
		VoucherCode:      r.VoucherCode,
	}
}

// Checkout handles POST /api/checkout for an authenticated customer.
func (h *Handler) Checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := req.toInput()
	input.UserID, _ = utils.GetUserIDFromContext(c.Request.Context())

	result, err := h.orders.Checkout(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// CheckoutGuest handles POST /api/checkout-guest. The guest identity is
// created, or reused by email, inside the checkout transaction.
func (h *Handler) CheckoutGuest(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.GuestName == "" || req.GuestEmail == "" || req.GuestPhone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "guest_name, guest_email and guest_phone are required"})
		return
	}

	input := req.toInput()
	input.Guest = req.guestInfo()
	input.GuestCheckout = true

	result, err := h.orders.Checkout(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// CheckoutStore handles POST /api/checkout-store: staff checking out on
// behalf of a registered customer (customer_id) or a walk-in guest.
func (h *Handler) CheckoutStore(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := req.toInput()
	input.UserID, _ = utils.GetUserIDFromContext(c.Request.Context())
	input.CustomerID = req.CustomerID
	input.Guest = req.guestInfo()
	input.StoreCheckout = true

	result, err := h.orders.Checkout(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type cancelOrderRequest struct {
	InvoiceID uint `json:"invoice_id" binding:"required"`
}

// CancelOrder handles POST /api/cancel-order.
func (h *Handler) CancelOrder(c *gin.Context) {
	var req cancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.orders.CancelOrder(c.Request.Context(), req.InvoiceID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order cancelled"})
}

// CheckPayment handles GET /api/check-payment and its guest variant. It
// reconciles the latest payment attempt against the gateway and returns it.
func (h *Handler) CheckPayment(c *gin.Context) {
	code := c.Query("order_code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order_code is required"})
		return
	}

	p, err := h.orders.CheckPayment(c.Request.Context(), code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": p})
}

type changePaymentTypeRequest struct {
	OrderCode string `json:"order_code" binding:"required"`
}

// ChangePaymentType handles PUT /api/change-payment-type: opens a fresh
// gateway session and appends a new pending payment attempt.
func (h *Handler) ChangePaymentType(c *gin.Context) {
	var req changePaymentTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.orders.ChangePaymentType(c.Request.Context(), req.OrderCode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": p})
}

type confirmPaymentRequest struct {
	PaymentID uint `json:"payment_id" binding:"required"`
}

// ConfirmPayment handles POST /api/confirm-payment: forces an immediate
// reconciliation of the order owning the given payment.
func (h *Handler) ConfirmPayment(c *gin.Context) {
	var req confirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.orders.ConfirmPayment(c.Request.Context(), req.PaymentID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "payment confirmed"})
}

// GetOrderDetail handles GET /api/orders/:code.
func (h *Handler) GetOrderDetail(c *gin.Context) {
	detail, err := h.orders.GetOrderDetail(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// GetVouchers handles GET /api/vouchers, optionally scoped by store_id.
func (h *Handler) GetVouchers(c *gin.Context) {
	storeID, err := optionalUintQuery(c, "store_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "store_id must be an integer"})
		return
	}
	userID, _ := utils.GetUserIDFromContext(c.Request.Context())

	vouchers, err := h.vouchers.GetVouchers(c.Request.Context(), storeID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vouchers": vouchers})
}

// CheckVoucher handles GET /api/check-voucher: validates a code against a
// prospective amount and returns the discount it would grant.
func (h *Handler) CheckVoucher(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}
	amount, err := strconv.Atoi(c.DefaultQuery("amount", "0"))
	if err != nil || amount < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a non-negative integer"})
		return
	}
	storeID, err := optionalUintQuery(c, "store_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "store_id must be an integer"})
		return
	}
	userID, _ := utils.GetUserIDFromContext(c.Request.Context())

	result, err := h.vouchers.CheckVoucher(c.Request.Context(), code, storeID, userID, amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Destinations handles GET /api/destinations: searches delivery areas via
// the carrier API, served from cache when warm.
func (h *Handler) Destinations(c *gin.Context) {
	search := c.Query("search")
	if search == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "search is required"})
		return
	}

	destinations, err := h.rates.Destinations(c.Request.Context(), search, 20)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"destinations": destinations})
}

type storeQuote struct {
	StoreID uint            `json:"store_id"`
	Quote   *shipping.Quote `json:"quote"`
}

// ShippingCost handles GET /api/shipping-cost: quotes every requested store
// against one destination. Stores with no usable rate are skipped; if none
// quotes, the route is reported unavailable.
func (h *Handler) ShippingCost(c *gin.Context) {
	destinationID, err := strconv.Atoi(c.Query("destination"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "destination must be an integer"})
		return
	}
	storeIDs, err := parseStoreIDs(c.Query("store_ids"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "store_ids must be a comma-separated list of integers"})
		return
	}

	ctx := c.Request.Context()
	quotes := make([]storeQuote, 0, len(storeIDs))
	for _, id := range storeIDs {
		st, err := h.stores.GetByID(ctx, id)
		if err != nil {
			respondError(c, err)
			return
		}

		q, err := h.rates.Quote(ctx, st.OriginID, destinationID, order.DefaultWeightGrams, order.DefaultCourier)
		if errors.Is(err, shipping.ErrShippingUnavailable) {
			continue
		}
		if err != nil {
			respondError(c, err)
			return
		}
		quotes = append(quotes, storeQuote{StoreID: st.ID, Quote: q})
	}

	if len(quotes) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": shipping.ErrShippingUnavailable.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"quotes": quotes})
}

func optionalUintQuery(c *gin.Context, name string) (*uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	id := uint(v)
	return &id, nil
}

func parseStoreIDs(raw string) ([]uint, error) {
	if raw == "" {
		return nil, errors.New("empty store_ids")
	}
	parts := strings.Split(raw, ",")
	ids := make([]uint, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, uint(v))
	}
	return ids, nil
}

// respondError maps domain sentinels onto HTTP statuses. Anything unmapped
// is a 500 and gets logged with its request id.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrDestinationRequired),
		errors.Is(err, order.ErrOrderNotCancellable),
		errors.Is(err, voucher.ErrVoucherInvalid):
		status = http.StatusBadRequest

	case errors.Is(err, voucher.ErrVoucherExhausted):
		status = http.StatusConflict

	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, order.ErrInvoiceNotFound),
		errors.Is(err, payment.ErrPaymentNotFound),
		errors.Is(err, payment.ErrMethodNotFound),
		errors.Is(err, shipping.ErrMethodNotFound),
		errors.Is(err, voucher.ErrVoucherNotFound),
		errors.Is(err, user.ErrUserNotFound),
		errors.Is(err, book.ErrBookNotFound),
		errors.Is(err, store.ErrStoreNotFound):
		status = http.StatusNotFound

	case errors.Is(err, shipping.ErrShippingUnavailable),
		errors.Is(err, payment.ErrGatewaySessionFailed):
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		logger.FromCtx(c.Request.Context()).Error("request failed",
			zap.String("layer", "rest"),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
