package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pustaka-be/internal/order"
	"pustaka-be/internal/payment"
	"pustaka-be/internal/shipping"
	"pustaka-be/internal/store"
	"pustaka-be/internal/utils"
	"pustaka-be/internal/voucher"
)

type mockOrderService struct{ mock.Mock }

func (m *mockOrderService) Checkout(ctx context.Context, input order.CheckoutInput) (*order.CheckoutResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.CheckoutResult), args.Error(1)
}

func (m *mockOrderService) CancelOrder(ctx context.Context, invoiceID uint) error {
	return m.Called(ctx, invoiceID).Error(0)
}

func (m *mockOrderService) ChangePaymentType(ctx context.Context, orderCode string) (*payment.Payment, error) {
	args := m.Called(ctx, orderCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *mockOrderService) CheckPayment(ctx context.Context, orderCode string) (*payment.Payment, error) {
	args := m.Called(ctx, orderCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *mockOrderService) ConfirmPayment(ctx context.Context, paymentID uint) error {
	return m.Called(ctx, paymentID).Error(0)
}

func (m *mockOrderService) GetOrderDetail(ctx context.Context, code string) (*order.OrderDetail, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.OrderDetail), args.Error(1)
}

type mockVoucherService struct{ mock.Mock }

func (m *mockVoucherService) GetVouchers(ctx context.Context, storeID *uint, userID uint) ([]voucher.VisibleVoucher, error) {
	args := m.Called(ctx, storeID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]voucher.VisibleVoucher), args.Error(1)
}

func (m *mockVoucherService) CheckVoucher(ctx context.Context, code string, storeID *uint, userID uint, amount int) (*voucher.CheckResult, error) {
	args := m.Called(ctx, code, storeID, userID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*voucher.CheckResult), args.Error(1)
}

type mockResolver struct{ mock.Mock }

func (m *mockResolver) Quote(ctx context.Context, originID, destinationID, weightGrams int, courier string) (*shipping.Quote, error) {
	args := m.Called(ctx, originID, destinationID, weightGrams, courier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.Quote), args.Error(1)
}

func (m *mockResolver) Destinations(ctx context.Context, search string, limit int) ([]shipping.Destination, error) {
	args := m.Called(ctx, search, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]shipping.Destination), args.Error(1)
}

type mockStoreRepo struct{ mock.Mock }

func (m *mockStoreRepo) GetByID(ctx context.Context, id uint) (*store.Store, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Store), args.Error(1)
}

type handlerFixture struct {
	orders   *mockOrderService
	vouchers *mockVoucherService
	rates    *mockResolver
	stores   *mockStoreRepo
	router   *gin.Engine
}

// newFixture registers the handler routes behind a stub identity, bypassing
// the auth middleware which is covered by its own tests.
func newFixture(userID uint) *handlerFixture {
	gin.SetMode(gin.TestMode)

	f := &handlerFixture{
		orders:   new(mockOrderService),
		vouchers: new(mockVoucherService),
		rates:    new(mockResolver),
		stores:   new(mockStoreRepo),
	}
	h := NewHandler(f.orders, f.vouchers, f.rates, f.stores)

	r := gin.New()
	if userID > 0 {
		r.Use(func(c *gin.Context) {
			ctx := utils.SetUserContext(c.Request.Context(), userID, "andi@example.com", "customer")
			c.Request = c.Request.WithContext(ctx)
		})
	}

	api := r.Group("/api")
	api.POST("/checkout", h.Checkout)
	api.POST("/checkout-guest", h.CheckoutGuest)
	api.POST("/checkout-store", h.CheckoutStore)
	api.POST("/cancel-order", h.CancelOrder)
	api.GET("/check-payment", h.CheckPayment)
	api.PUT("/change-payment-type", h.ChangePaymentType)
	api.POST("/confirm-payment", h.ConfirmPayment)
	api.GET("/orders/:code", h.GetOrderDetail)
	api.GET("/vouchers", h.GetVouchers)
	api.GET("/check-voucher", h.CheckVoucher)
	api.GET("/destinations", h.Destinations)
	api.GET("/shipping-cost", h.ShippingCost)

	f.router = r
	return f
}

func (f *handlerFixture) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func validCheckoutBody() map[string]any {
	return map[string]any{
		"cart_groups": []map[string]any{
			{
				"store_id": 7,
				"items": []map[string]any{
					{"book_id": 42, "quantity": 2},
				},
			},
		},
		"payment_method_id":  1,
		"shipping_method_id": 2,
		"destination_id":     114,
		"address":            "Jl. Melati No. 3",
	}
}

func TestCheckout(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		f := newFixture(9)

		result := &order.CheckoutResult{
			Order:    &order.Order{ID: 1, Code: "SL-20240310120000", UserID: 9},
			Invoices: []order.Invoice{{ID: 21, Code: "INV-20240310120000-1"}},
			Payment:  &payment.Payment{ID: 31, Amount: 15000, Status: payment.StatusPending},
		}
		f.orders.On("Checkout", mock.Anything, mock.MatchedBy(func(in order.CheckoutInput) bool {
			return in.UserID == 9 && !in.GuestCheckout && !in.StoreCheckout && len(in.CartGroups) == 1
		})).Return(result, nil)

		w := f.do(http.MethodPost, "/api/checkout", validCheckoutBody())

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), "SL-20240310120000")
		f.orders.AssertExpectations(t)
	})

	t.Run("missing cart groups", func(t *testing.T) {
		f := newFixture(9)

		body := validCheckoutBody()
		delete(body, "cart_groups")
		w := f.do(http.MethodPost, "/api/checkout", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		f.orders.AssertNotCalled(t, "Checkout", mock.Anything, mock.Anything)
	})

	t.Run("error mapping", func(t *testing.T) {
		cases := []struct {
			name string
			err  error
			want int
		}{
			{"empty cart", order.ErrEmptyCart, http.StatusBadRequest},
			{"destination required", order.ErrDestinationRequired, http.StatusBadRequest},
			{"voucher not found", voucher.ErrVoucherNotFound, http.StatusNotFound},
			{"voucher exhausted", voucher.ErrVoucherExhausted, http.StatusConflict},
			{"shipping unavailable", shipping.ErrShippingUnavailable, http.StatusBadGateway},
			{"gateway failed", payment.ErrGatewaySessionFailed, http.StatusBadGateway},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				f := newFixture(9)
				f.orders.On("Checkout", mock.Anything, mock.Anything).Return(nil, tc.err)

				w := f.do(http.MethodPost, "/api/checkout", validCheckoutBody())
				assert.Equal(t, tc.want, w.Code)
			})
		}
	})
}

func TestCheckoutGuest(t *testing.T) {
	t.Run("created with guest identity", func(t *testing.T) {
		f := newFixture(0)

		result := &order.CheckoutResult{
			Order:   &order.Order{ID: 1, Code: "SL-20240310120000"},
			Payment: &payment.Payment{ID: 31, Status: payment.StatusPending},
		}
		f.orders.On("Checkout", mock.Anything, mock.MatchedBy(func(in order.CheckoutInput) bool {
			return in.GuestCheckout && in.Guest != nil &&
				in.Guest.Email == "guest@example.com" && in.Guest.Name == "Tamu"
		})).Return(result, nil)

		body := validCheckoutBody()
		body["guest_name"] = "Tamu"
		body["guest_email"] = "guest@example.com"
		body["guest_phone"] = "0812000111"

		w := f.do(http.MethodPost, "/api/checkout-guest", body)

		require.Equal(t, http.StatusCreated, w.Code)
		f.orders.AssertExpectations(t)
	})

	t.Run("missing guest fields", func(t *testing.T) {
		f := newFixture(0)

		w := f.do(http.MethodPost, "/api/checkout-guest", validCheckoutBody())

		assert.Equal(t, http.StatusBadRequest, w.Code)
		f.orders.AssertNotCalled(t, "Checkout", mock.Anything, mock.Anything)
	})
}

func TestCheckoutStore(t *testing.T) {
	f := newFixture(3)

	result := &order.CheckoutResult{
		Order:   &order.Order{ID: 1, Code: "SL-20240310120000"},
		Payment: &payment.Payment{ID: 31, Status: payment.StatusPending},
	}
	f.orders.On("Checkout", mock.Anything, mock.MatchedBy(func(in order.CheckoutInput) bool {
		return in.StoreCheckout && in.UserID == 3 &&
			in.CustomerID != nil && *in.CustomerID == 12
	})).Return(result, nil)

	body := validCheckoutBody()
	body["customer_id"] = 12

	w := f.do(http.MethodPost, "/api/checkout-store", body)

	require.Equal(t, http.StatusCreated, w.Code)
	f.orders.AssertExpectations(t)
}

func TestCancelOrder(t *testing.T) {
	t.Run("cancelled", func(t *testing.T) {
		f := newFixture(9)
		f.orders.On("CancelOrder", mock.Anything, uint(21)).Return(nil)

		w := f.do(http.MethodPost, "/api/cancel-order", map[string]any{"invoice_id": 21})

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("already paid", func(t *testing.T) {
		f := newFixture(9)
		f.orders.On("CancelOrder", mock.Anything, uint(21)).Return(order.ErrOrderNotCancellable)

		w := f.do(http.MethodPost, "/api/cancel-order", map[string]any{"invoice_id": 21})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invoice not found", func(t *testing.T) {
		f := newFixture(9)
		f.orders.On("CancelOrder", mock.Anything, uint(99)).Return(order.ErrInvoiceNotFound)

		w := f.do(http.MethodPost, "/api/cancel-order", map[string]any{"invoice_id": 99})

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCheckPayment(t *testing.T) {
	t.Run("reconciled", func(t *testing.T) {
		f := newFixture(9)
		f.orders.On("CheckPayment", mock.Anything, "SL-20240310120000").
			Return(&payment.Payment{ID: 31, Status: payment.StatusCompleted}, nil)

		w := f.do(http.MethodGet, "/api/check-payment?order_code=SL-20240310120000", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "completed")
	})

	t.Run("missing code", func(t *testing.T) {
		f := newFixture(9)

		w := f.do(http.MethodGet, "/api/check-payment", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		f.orders.AssertNotCalled(t, "CheckPayment", mock.Anything, mock.Anything)
	})

	t.Run("order not found", func(t *testing.T) {
		f := newFixture(9)
		f.orders.On("CheckPayment", mock.Anything, "SL-missing").Return(nil, order.ErrOrderNotFound)

		w := f.do(http.MethodGet, "/api/check-payment?order_code=SL-missing", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestChangePaymentType(t *testing.T) {
	f := newFixture(9)

	token := "snap-new"
	f.orders.On("ChangePaymentType", mock.Anything, "SL-20240310120000").
		Return(&payment.Payment{ID: 32, SnapToken: &token, Status: payment.StatusPending}, nil)

	w := f.do(http.MethodPut, "/api/change-payment-type", map[string]any{"order_code": "SL-20240310120000"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "snap-new")
}

func TestConfirmPayment(t *testing.T) {
	f := newFixture(9)
	f.orders.On("ConfirmPayment", mock.Anything, uint(31)).Return(nil)

	w := f.do(http.MethodPost, "/api/confirm-payment", map[string]any{"payment_id": 31})

	assert.Equal(t, http.StatusOK, w.Code)
	f.orders.AssertExpectations(t)
}

func TestGetOrderDetail(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		f := newFixture(9)
		f.orders.On("GetOrderDetail", mock.Anything, "SL-20240310120000").
			Return(&order.OrderDetail{Order: &order.Order{ID: 1, Code: "SL-20240310120000"}}, nil)

		w := f.do(http.MethodGet, "/api/orders/SL-20240310120000", nil)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("not found", func(t *testing.T) {
		f := newFixture(9)
		f.orders.On("GetOrderDetail", mock.Anything, "SL-missing").Return(nil, order.ErrOrderNotFound)

		w := f.do(http.MethodGet, "/api/orders/SL-missing", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestGetVouchers(t *testing.T) {
	f := newFixture(9)

	storeID := uint(7)
	f.vouchers.On("GetVouchers", mock.Anything, &storeID, uint(9)).
		Return([]voucher.VisibleVoucher{{Voucher: voucher.Voucher{ID: 5, Code: "HEMAT10"}}}, nil)

	w := f.do(http.MethodGet, "/api/vouchers?store_id=7", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "HEMAT10")
}

func TestCheckVoucher(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		f := newFixture(9)
		f.vouchers.On("CheckVoucher", mock.Anything, "HEMAT10", (*uint)(nil), uint(9), 12000).
			Return(&voucher.CheckResult{Voucher: &voucher.Voucher{ID: 5, Code: "HEMAT10"}, Discount: 1200}, nil)

		w := f.do(http.MethodGet, "/api/check-voucher?code=HEMAT10&amount=12000", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "1200")
	})

	t.Run("unknown code", func(t *testing.T) {
		f := newFixture(9)
		f.vouchers.On("CheckVoucher", mock.Anything, "NOPE", (*uint)(nil), uint(9), 0).
			Return(nil, voucher.ErrVoucherNotFound)

		w := f.do(http.MethodGet, "/api/check-voucher?code=NOPE", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("exhausted", func(t *testing.T) {
		f := newFixture(9)
		f.vouchers.On("CheckVoucher", mock.Anything, "HEMAT10", (*uint)(nil), uint(9), 12000).
			Return(nil, voucher.ErrVoucherExhausted)

		w := f.do(http.MethodGet, "/api/check-voucher?code=HEMAT10&amount=12000", nil)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestDestinations(t *testing.T) {
	f := newFixture(0)

	f.rates.On("Destinations", mock.Anything, "bandung", 20).
		Return([]shipping.Destination{{ID: 114, Label: "Bandung, Jawa Barat"}}, nil)

	w := f.do(http.MethodGet, "/api/destinations?search=bandung", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Bandung")
}

func TestShippingCost(t *testing.T) {
	t.Run("skips stores without rates", func(t *testing.T) {
		f := newFixture(0)

		f.stores.On("GetByID", mock.Anything, uint(7)).Return(&store.Store{ID: 7, OriginID: 501}, nil)
		f.stores.On("GetByID", mock.Anything, uint(8)).Return(&store.Store{ID: 8, OriginID: 502}, nil)

		f.rates.On("Quote", mock.Anything, 501, 114, order.DefaultWeightGrams, order.DefaultCourier).
			Return(&shipping.Quote{Cost: 2000, Courier: "jne", Service: "REG"}, nil)
		f.rates.On("Quote", mock.Anything, 502, 114, order.DefaultWeightGrams, order.DefaultCourier).
			Return(nil, shipping.ErrShippingUnavailable)

		w := f.do(http.MethodGet, "/api/shipping-cost?destination=114&store_ids=7,8", nil)

		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Quotes []storeQuote `json:"quotes"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Quotes, 1)
		assert.Equal(t, uint(7), resp.Quotes[0].StoreID)
		assert.Equal(t, 2000, resp.Quotes[0].Quote.Cost)
	})

	t.Run("no store quotes", func(t *testing.T) {
		f := newFixture(0)

		f.stores.On("GetByID", mock.Anything, uint(7)).Return(&store.Store{ID: 7, OriginID: 501}, nil)
		f.rates.On("Quote", mock.Anything, 501, 114, order.DefaultWeightGrams, order.DefaultCourier).
			Return(nil, shipping.ErrShippingUnavailable)

		w := f.do(http.MethodGet, "/api/shipping-cost?destination=114&store_ids=7", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed store ids", func(t *testing.T) {
		f := newFixture(0)

		w := f.do(http.MethodGet, "/api/shipping-cost?destination=114&store_ids=7,x", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		f.stores.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})
}
