package app

import (
	"context"
	"net/http"

	"line-auth-web/internal/auth/handler"
	"line-auth-web/internal/auth/provider"
	"line-auth-web/internal/auth/provider/line"
	"line-auth-web/internal/auth/resolver"
	"line-auth-web/internal/config"
	"line-auth-web/internal/middleware"
	"line-auth-web/internal/session"
	"line-auth-web/internal/web"

	"github.com/gin-gonic/gin"
)

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	lineProvider, err := line.New(
		ctx,
		cfg.LineIssuer,
		cfg.LineClientID,
		cfg.LineClientSecret,
		cfg.CallbackURL("line"),
	)
	if err != nil {
		_ = infra.Close()
		return nil, nil, err
	}

	codec, err := session.NewCodec(cfg.AuthSecret)
	if err != nil {
		_ = infra.Close()
		return nil, nil, err
	}

	sessions := session.NewManager(codec, infra.Revocations(), session.Options{
		MaxAge:    cfg.SessionMaxAge,
		UpdateAge: cfg.SessionUpdateAge,
		Cookie: session.CookieOptions{
			Secure: cfg.SecureCookies(),
		},
	})

	router := buildRouter(
		provider.NewRegistry(lineProvider),
		sessions,
		infra.Resolver(),
		cfg.SecureCookies(),
	)

	return router, infra.Close, nil
}

func buildRouter(
	registry *provider.Registry,
	sessions *session.Manager,
	userResolver resolver.Resolver,
	secureCookies bool,
) *gin.Engine {

	// ----------------------------
	// Dependencies
	// ----------------------------

	authHandler := handler.NewHandler(registry, sessions, userResolver, secureCookies)
	authMiddleware := middleware.NewAuthMiddleware(sessions)
	pages := web.NewPages(registry.Names())

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.SecurityHeaders(middleware.LineAvatarHost),
		middleware.GinLoadSession(authMiddleware),
		middleware.RequestLogger(),
	)
	router.SetHTMLTemplate(web.Templates())

	// ----------------------------
	// Public Routes
	// ----------------------------

	authHandler.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.StaticFS("/static", web.Static())

	// ----------------------------
	// Protected Routes
	// ----------------------------

	protected := router.Group("/")
	protected.Use(middleware.GinRequireAuth(authMiddleware))

	pages.RegisterRoutes(router, protected)

	return router
}
