package api

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/kingsloob1/snipfair-app-sub000/internal/booking"
	"github.com/kingsloob1/snipfair-app-sub000/internal/domain"
	"github.com/kingsloob1/snipfair-app-sub000/internal/events"
	"github.com/kingsloob1/snipfair-app-sub000/internal/gateway"
	"github.com/kingsloob1/snipfair-app-sub000/internal/metrics"
	"github.com/kingsloob1/snipfair-app-sub000/internal/middleware"
	"github.com/kingsloob1/snipfair-app-sub000/internal/settings"
)

// Deps are the services the HTTP layer is built on
type Deps struct {
	DB        *gorm.DB
	Redis     *redis.Client
	JWTSecret string
	Settings  *settings.Store
	Booking   *booking.Service
	Gateway   *gateway.Service
	Hub       *events.Hub
}

// NewRouter wires every route
func NewRouter(d Deps) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.Metrics())

	db, rdb := d.DB, d.Redis
	jwt := middleware.JWTAuthMiddleware(d.JWTSecret)
	stylistOnly := middleware.RequireRole(db, domain.RoleStylist)
	customerOnly := middleware.RequireRole(db, domain.RoleCustomer)

	// Public routes
	r.POST("/user", RegisterHandler(db))
	r.POST("/user/login", LoginHandler(db, d.JWTSecret))
	r.GET("/ws", WebSocketHandler(d.Hub, d.JWTSecret))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.POST("/webhooks/gateway", GatewayWebhookHandler(d.Gateway))
	r.GET("/stylists/:id/portfolios", ListPortfoliosHandler(db))
	r.GET("/stylists/:id/reviews", ListReviewsHandler(db, rdb))

	// Wallet routes
	w := r.Group("/wallet", jwt)
	{
		w.POST("", CreateWalletHandler(db, rdb))
		w.GET("", GetWalletHandler(db, rdb))
		w.GET("/transactions", GetTransactionHistoryHandler(db, rdb))
		w.POST("/topup", TopupHandler(d.Gateway))
		w.POST("/tip", customerOnly, TipHandler(db, rdb, d.Hub))
		w.POST("/withdraw", stylistOnly, WithdrawHandler(db, rdb, d.Hub))
	}

	// Appointment routes
	a := r.Group("/appointments", jwt)
	{
		a.POST("", customerOnly, BookHandler(d.Booking))
		a.GET("", ListAppointmentsHandler(db))
		a.GET("/:id", GetAppointmentHandler(d.Booking))
		a.POST("/:id/approve", stylistOnly, ApproveHandler(d.Booking))
		a.POST("/:id/decline", stylistOnly, DeclineHandler(d.Booking))
		a.POST("/:id/cancel", CancelHandler(d.Booking))
		a.POST("/:id/reschedule", customerOnly, RescheduleHandler(d.Booking))
		a.POST("/:id/complete", stylistOnly, CompleteHandler(d.Booking))
		a.POST("/:id/dispute", customerOnly, OpenDisputeHandler(d.Booking))
		a.POST("/:id/review", customerOnly, CreateReviewHandler(db, rdb))
	}

	// Stylist routes
	p := r.Group("/portfolios", jwt, stylistOnly)
	{
		p.POST("", CreatePortfolioHandler(db))
		p.PUT("/:id", UpdatePortfolioHandler(db))
	}
	r.GET("/stylist/pouches", jwt, stylistOnly, PouchesHandler(d.Booking))

	// Rewards and messaging
	rw := r.Group("/rewards", jwt)
	{
		rw.GET("", GetRewardsHandler(db))
		rw.POST("/redeem", RedeemRewardsHandler(db, rdb, d.Settings, d.Hub))
	}
	cv := r.Group("/conversations", jwt)
	{
		cv.GET("", ListConversationsHandler(db))
		cv.POST("/messages", SendMessageHandler(db, d.Hub))
		cv.GET("/:id/messages", ListMessagesHandler(db))
	}

	// Admin routes
	admin := r.Group("/admin", jwt, middleware.AdminOnlyMiddleware(db))
	{
		admin.GET("/users", ListUsersHandler(db, rdb))
		admin.GET("/transactions", ListTransactionsHandler(db, rdb))
		admin.GET("/appointments", AdminListAppointmentsHandler(db))
		admin.GET("/disputes", ListDisputesHandler(db))
		admin.POST("/disputes/:id/resolve", ResolveDisputeHandler(d.Booking))
		admin.GET("/withdrawals", ListWithdrawalsHandler(db))
		admin.POST("/withdrawals/:id/approve", ReviewWithdrawalHandler(db, rdb, d.Hub, domain.WithdrawalApproved))
		admin.POST("/withdrawals/:id/reject", ReviewWithdrawalHandler(db, rdb, d.Hub, domain.WithdrawalRejected))
		admin.GET("/settings", GetSettingsHandler(d.Settings))
		admin.PUT("/settings", UpdateSettingsHandler(d.Settings))
	}
	return r
}
