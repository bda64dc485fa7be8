package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	authapi "movie-app/internal/api/auth"
	"movie-app/internal/api/billing"
	"movie-app/internal/api/httputil"
	stripewebhooks "movie-app/internal/api/stripewebhook"
	usersapi "movie-app/internal/api/users"
	"movie-app/internal/app/http/middleware"
	"movie-app/internal/pkg/metrics"
)

type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Deps is everything the route table needs. Google is nil when sign-in with
// Google is not configured.
type Deps struct {
	Auth     *authapi.Handler
	Google   *authapi.GoogleHandler
	Users    *usersapi.Handler
	Billing  *billing.Handler
	Webhook  *stripewebhooks.Handler
	Sessions middleware.SessionRestorer
	Health   HealthChecker
	Metrics  *metrics.Metrics
	Log      zerolog.Logger

	Cookie      httputil.CookieConfig
	CORSOrigin  string
	AuthLimiter *middleware.RateLimiter

	// TrustedProxies feeds gin's ClientIP; nil trusts no forwarding headers.
	TrustedProxies []string
}

// NewRouter builds the engine with the global middleware chain and all routes.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	if err := r.SetTrustedProxies(d.TrustedProxies); err != nil {
		d.Log.Error().Err(err).Strs("trusted_proxies", d.TrustedProxies).Msg("invalid trusted proxies, trusting none")
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(d.Log),
		middleware.Metrics(d.Metrics),
	)

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{d.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterRoutes(r, d)
	return r
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Raw body needed for signature verification: no sanitizer here.
	r.POST("/stripe/webhook", d.Webhook.Handle)
	r.GET("/health", health(d.Health))
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	public := r.Group("/auth")
	if d.AuthLimiter != nil {
		public.Use(d.AuthLimiter.Middleware())
	}
	public.Use(middleware.SanitizeFields("name"))
	public.POST("/register", d.Auth.Register)
	public.POST("/login", d.Auth.Login)
	public.POST("/logout", d.Auth.Logout)
	if d.Google != nil {
		public.GET("/google", d.Google.Start)
		public.GET("/google/callback", d.Google.Callback)
	}

	// Authenticated
	requireSession := middleware.RequireSession(d.Sessions, d.Cookie, d.Log)

	user := r.Group("/user", requireSession)
	user.GET("/profile", d.Users.Profile)
	user.PUT("/favorites", d.Users.UpdateFavorites)

	stripe := r.Group("/stripe", requireSession)
	stripe.POST("/checkout-success", d.Billing.CheckoutSuccess)
	stripe.POST("/create-checkout-session", d.Billing.CreateCheckoutSession)
	stripe.POST("/billing-portal", d.Billing.BillingPortal)
}

func health(h HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
