package rest

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"pustaka-be/internal/config"
	"pustaka-be/internal/logger"
	"pustaka-be/internal/middleware"
)

// NewRouter wires the HTTP surface. Guest routes sit outside the auth
// requirement; checkout and payment mutations run on the strict rate tier.
func NewRouter(cfg *config.Config, h *Handler) *gin.Engine {
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.GinMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Device-ID", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.Auth(cfg.SecretKey))

	api := r.Group("/api", middleware.RateLimit())

	// public + guest surface
	api.GET("/destinations", h.Destinations)
	api.GET("/shipping-cost", h.ShippingCost)
	api.POST("/checkout-guest", middleware.RateLimitStrict(), h.CheckoutGuest)
	api.GET("/check-payment-guest", h.CheckPayment)

	// authenticated surface
	authed := api.Group("", middleware.RequireAuth())
	authed.GET("/vouchers", h.GetVouchers)
	authed.GET("/check-voucher", h.CheckVoucher)
	authed.POST("/checkout", middleware.RateLimitStrict(), h.Checkout)
	authed.POST("/cancel-order", middleware.RateLimitStrict(), h.CancelOrder)
	authed.GET("/check-payment", h.CheckPayment)
	authed.PUT("/change-payment-type", middleware.RateLimitStrict(), h.ChangePaymentType)
	authed.POST("/confirm-payment", middleware.RateLimitStrict(), h.ConfirmPayment)
	authed.GET("/orders/:code", h.GetOrderDetail)

	// staff surface
	admin := api.Group("", middleware.RequireAuth(), middleware.RequireAdmin())
	admin.POST("/checkout-store", middleware.RateLimitStrict(), h.CheckoutStore)

	return r
}
