// internal/app/router.go
package app

import (
	"context"
	"net/http"
	"time"

	adHandler "motormart-service/internal/handlers/ad"
	adminHandler "motormart-service/internal/handlers/admin"
	authHandler "motormart-service/internal/handlers/auth"
	boostHandler "motormart-service/internal/handlers/boost"
	discountHandler "motormart-service/internal/handlers/discount"
	favoriteHandler "motormart-service/internal/handlers/favorite"
	moderationHandler "motormart-service/internal/handlers/moderation"
	notifyHandler "motormart-service/internal/handlers/notification"
	paymentHandler "motormart-service/internal/handlers/payment"
	pricingHandler "motormart-service/internal/handlers/pricing"
	reviewHandler "motormart-service/internal/handlers/review"
	taxonomyHandler "motormart-service/internal/handlers/taxonomy"
	wsHandler "motormart-service/internal/handlers/websocket"
	"motormart-service/internal/middleware"
	"motormart-service/internal/repository/postgres"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	AuthHandler       *authHandler.AuthHandler
	NotifHandler      *notifyHandler.NotificationHandler
	TaxonomyHandler   *taxonomyHandler.TaxonomyHandler
	AdHandler         *adHandler.AdHandler
	PricingHandler    *pricingHandler.PricingHandler
	DiscountHandler   *discountHandler.DiscountHandler
	BoostHandler      *boostHandler.BoostHandler
	PaymentHandler    *paymentHandler.PaymentHandler
	ReviewHandler     *reviewHandler.ReviewHandler
	ModerationHandler *moderationHandler.ModerationHandler
	FavoriteHandler   *favoriteHandler.FavoriteHandler
	AdminHandler      *adminHandler.AdminHandler
	WSHandler         *wsHandler.WebSocketHandler
	AuthMiddleware    *middleware.AuthMiddleware
	DB                *postgres.DB
}

func SetupRouter(r *gin.Engine, h *Handlers) {
	api := r.Group("/api")
	auth := h.AuthMiddleware.Auth()
	admin := h.AuthMiddleware.AdminOnly()

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== WebSocket ====================
	r.GET("/ws", h.WSHandler.HandleConnection)

	// ==================== Auth ====================
	authPublic := api.Group("/auth")
	{
		authPublic.POST("/register", h.AuthHandler.Register)
		authPublic.POST("/login", h.AuthHandler.Login)
		authPublic.POST("/refresh", h.AuthHandler.Refresh)
		authPublic.POST("/social", h.AuthHandler.SocialLogin)
		authPublic.POST("/forgot-password", h.AuthHandler.ForgotPassword)
		authPublic.POST("/verify-otp", h.AuthHandler.VerifyOTP)
		authPublic.POST("/reset-password", h.AuthHandler.ResetPassword)
	}

	authProtected := api.Group("/auth")
	authProtected.Use(auth)
	{
		authProtected.POST("/logout", h.AuthHandler.Logout)
		authProtected.POST("/logout-all", h.AuthHandler.LogoutAll)
		authProtected.GET("/me", h.AuthHandler.Me)
		authProtected.PUT("/profile", h.AuthHandler.UpdateProfile)
		authProtected.PUT("/change-password", h.AuthHandler.ChangePassword)
	}

	// ==================== Vehicle Config ====================
	vehicleConfig := api.Group("/vehicle-config")
	vehicleConfig.Use(h.AuthMiddleware.OptionalAuth())
	{
		vehicleConfig.GET("/types", h.TaxonomyHandler.ListTypes)
		vehicleConfig.GET("/types/:id/brands", h.TaxonomyHandler.ListBrands)
		vehicleConfig.GET("/types/:id/attributes", h.TaxonomyHandler.ListAttributes)
		vehicleConfig.GET("/brands/:id/models", h.TaxonomyHandler.ListModels)
	}

	vehicleConfigAdmin := api.Group("/vehicle-config")
	vehicleConfigAdmin.Use(admin...)
	{
		vehicleConfigAdmin.POST("/types", h.TaxonomyHandler.CreateType)
		vehicleConfigAdmin.PUT("/types/:id", h.TaxonomyHandler.UpdateType)
		vehicleConfigAdmin.DELETE("/types/:id", h.TaxonomyHandler.DeleteType)

		vehicleConfigAdmin.POST("/brands", h.TaxonomyHandler.CreateBrand)
		vehicleConfigAdmin.PUT("/brands/:id", h.TaxonomyHandler.UpdateBrand)
		vehicleConfigAdmin.DELETE("/brands/:id", h.TaxonomyHandler.DeleteBrand)

		vehicleConfigAdmin.POST("/models", h.TaxonomyHandler.CreateModel)
		vehicleConfigAdmin.PUT("/models/:id", h.TaxonomyHandler.UpdateModel)
		vehicleConfigAdmin.DELETE("/models/:id", h.TaxonomyHandler.DeleteModel)

		vehicleConfigAdmin.POST("/attributes", h.TaxonomyHandler.CreateAttribute)
		vehicleConfigAdmin.PUT("/attributes/:id", h.TaxonomyHandler.UpdateAttribute)
		vehicleConfigAdmin.DELETE("/attributes/:id", h.TaxonomyHandler.DeleteAttribute)
	}

	// ==================== Car Ads ====================
	cars := api.Group("/cars")
	{
		cars.GET("", h.AdHandler.List)
		cars.GET("/featured", h.AdHandler.Featured)
		cars.GET("/mine", auth, h.AdHandler.ListMine)
		cars.GET("/:id", h.AuthMiddleware.OptionalAuth(), h.AdHandler.Get)

		carsAuth := cars.Group("")
		carsAuth.Use(auth)
		{
			carsAuth.POST("", h.AdHandler.Create)
			carsAuth.POST("/uploads/presign", h.AdHandler.PresignUpload)
			carsAuth.PUT("/:id", h.AdHandler.Update)
			carsAuth.POST("/:id/sold", h.AdHandler.MarkSold)
			carsAuth.POST("/:id/renew", h.AdHandler.Renew)
			carsAuth.DELETE("/:id", h.AdHandler.Delete)
		}
	}

	// ==================== Pricing ====================
	pricing := api.Group("/pricing")
	{
		pricing.GET("/packages", h.PricingHandler.ListPackages)
		pricing.GET("/boosts", h.PricingHandler.ListBoosts)
		pricing.GET("/items/:id/price", h.PricingHandler.GetPrice)

		pricingAuth := pricing.Group("")
		pricingAuth.Use(auth)
		{
			pricingAuth.GET("/my-package", h.PricingHandler.MyPackage)
			pricingAuth.GET("/usage", h.PricingHandler.Usage)
			pricingAuth.GET("/subscriptions", h.PricingHandler.MySubscriptions)
			pricingAuth.POST("/subscriptions/:id/cancel", h.PricingHandler.CancelSubscription)
		}

		pricingAdmin := pricing.Group("")
		pricingAdmin.Use(admin...)
		{
			pricingAdmin.GET("/items", h.PricingHandler.ListItems)
			pricingAdmin.GET("/items/:id", h.PricingHandler.GetItem)
			pricingAdmin.POST("/items", h.PricingHandler.CreateItem)
			pricingAdmin.PUT("/items/:id", h.PricingHandler.UpdateItem)
			pricingAdmin.DELETE("/items/:id", h.PricingHandler.DeleteItem)

			pricingAdmin.GET("/items/:id/rules", h.PricingHandler.ListRules)
			pricingAdmin.POST("/rules", h.PricingHandler.CreateRule)
			pricingAdmin.PUT("/rules/:id", h.PricingHandler.UpdateRule)
			pricingAdmin.DELETE("/rules/:id", h.PricingHandler.DeleteRule)

			pricingAdmin.PUT("/items/:id/features", h.PricingHandler.SetFeature)
			pricingAdmin.DELETE("/items/:id/features/:key", h.PricingHandler.DeleteFeature)
			pricingAdmin.POST("/items/:id/included-items", h.PricingHandler.AddIncludedItem)
			pricingAdmin.DELETE("/items/:id/included-items/:item_id", h.PricingHandler.RemoveIncludedItem)
			pricingAdmin.PUT("/items/:id/ad-limits", h.PricingHandler.SetAdLimit)
			pricingAdmin.DELETE("/items/:id/ad-limits/:type_id", h.PricingHandler.DeleteAdLimit)
		}
	}

	// ==================== Discounts ====================
	discounts := api.Group("/discounts")
	{
		discounts.GET("/preview", auth, h.DiscountHandler.Preview)

		discountsAdmin := discounts.Group("")
		discountsAdmin.Use(admin...)
		{
			discountsAdmin.GET("", h.DiscountHandler.List)
			discountsAdmin.GET("/:id", h.DiscountHandler.Get)
			discountsAdmin.POST("", h.DiscountHandler.Create)
			discountsAdmin.PUT("/:id", h.DiscountHandler.Update)
			discountsAdmin.DELETE("/:id", h.DiscountHandler.Delete)
		}
	}

	// ==================== Boosts ====================
	boosts := api.Group("/boosts")
	boosts.Use(auth)
	{
		boosts.GET("/ads/:id", h.BoostHandler.ListAdBoosts)
	}

	// ==================== Payments ====================
	payments := api.Group("/payment")
	{
		// Gateway server callback, authenticated by its signature
		payments.POST("/notify", h.PaymentHandler.Notify)

		paymentsAuth := payments.Group("")
		paymentsAuth.Use(auth)
		{
			paymentsAuth.POST("/initiate", h.PaymentHandler.Initiate)
			paymentsAuth.GET("/status/:order_id", h.PaymentHandler.GetStatus)
			paymentsAuth.GET("/mine", h.PaymentHandler.ListMine)
		}
	}

	// ==================== Reviews ====================
	reviews := api.Group("/reviews")
	{
		reviews.GET("/seller/:id", h.ReviewHandler.ListBySeller)
		reviews.POST("", auth, h.ReviewHandler.Create)
		reviews.PUT("/:id", auth, h.ReviewHandler.Update)
		reviews.DELETE("/:id", auth, h.ReviewHandler.Delete)
	}

	// ==================== Reports ====================
	reports := api.Group("/reports")
	{
		reports.POST("", auth, h.ModerationHandler.CreateReport)

		reportsAdmin := reports.Group("")
		reportsAdmin.Use(admin...)
		{
			reportsAdmin.GET("", h.ModerationHandler.ListReports)
			reportsAdmin.PUT("/:id/resolve", h.ModerationHandler.ResolveReport)
		}
	}

	// ==================== Complaints ====================
	complaints := api.Group("/complaints")
	{
		complaints.POST("", auth, h.ModerationHandler.CreateComplaint)
		complaints.GET("/mine", auth, h.ModerationHandler.ListMyComplaints)

		complaintsAdmin := complaints.Group("")
		complaintsAdmin.Use(admin...)
		{
			complaintsAdmin.GET("", h.ModerationHandler.ListComplaints)
			complaintsAdmin.PUT("/:id/respond", h.ModerationHandler.RespondComplaint)
		}
	}

	// ==================== Favorites ====================
	favorites := api.Group("/favorites")
	favorites.Use(auth)
	{
		favorites.GET("", h.FavoriteHandler.List)
		favorites.POST("/:ad_id", h.FavoriteHandler.Add)
		favorites.DELETE("/:ad_id", h.FavoriteHandler.Remove)
		favorites.GET("/:ad_id/status", h.FavoriteHandler.Status)
	}

	// ==================== Notifications ====================
	notifications := api.Group("/notifications")
	notifications.Use(auth)
	{
		notifications.GET("", h.NotifHandler.GetNotifications)
		notifications.GET("/summary", h.NotifHandler.GetSummary)
		notifications.GET("/:id", h.NotifHandler.GetNotification)
		notifications.PUT("/:id/read", h.NotifHandler.MarkAsRead)
		notifications.PUT("/read-all", h.NotifHandler.MarkAllAsRead)
		notifications.DELETE("/:id", h.NotifHandler.DeleteNotification)
	}

	// ==================== Admin ====================
	adminGroup := api.Group("/admin")
	adminGroup.Use(admin...)
	{
		adminGroup.GET("/stats", h.AdminHandler.Stats)
		adminGroup.GET("/users", h.AdminHandler.ListUsers)
		adminGroup.GET("/ads", h.AdHandler.ListAll)
		adminGroup.GET("/payments", h.PaymentHandler.ListAll)
		adminGroup.GET("/ws/stats", h.WSHandler.GetStats)

		adminGroup.POST("/users/:id/ban", h.ModerationHandler.BanUser)
		adminGroup.POST("/users/:id/unban", h.ModerationHandler.UnbanUser)
		adminGroup.POST("/ads/:id/approve", h.AdHandler.Approve)
		adminGroup.POST("/ads/:id/reject", h.AdHandler.Reject)
	}

	superAdmin := api.Group("/admin")
	superAdmin.Use(h.AuthMiddleware.SuperAdminOnly()...)
	{
		superAdmin.PUT("/users/:id/role", h.AdminHandler.ChangeRole)
	}
}
