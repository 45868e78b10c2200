package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/course-platform/internal"
	"github.com/frahmantamala/course-platform/internal/auth"
	authPostgres "github.com/frahmantamala/course-platform/internal/auth/postgres"
	"github.com/frahmantamala/course-platform/internal/catalog"
	catalogPostgres "github.com/frahmantamala/course-platform/internal/catalog/postgres"
	"github.com/frahmantamala/course-platform/internal/entitlement"
	entitlementPostgres "github.com/frahmantamala/course-platform/internal/entitlement/postgres"
	"github.com/frahmantamala/course-platform/internal/favorite"
	favoritePostgres "github.com/frahmantamala/course-platform/internal/favorite/postgres"
	"github.com/frahmantamala/course-platform/internal/promocode"
	promocodePostgres "github.com/frahmantamala/course-platform/internal/promocode/postgres"
	"github.com/frahmantamala/course-platform/internal/transport/middleware"
	"github.com/frahmantamala/course-platform/internal/transport/rest"
	"github.com/frahmantamala/course-platform/internal/user"
	userPostgres "github.com/frahmantamala/course-platform/internal/user/postgres"
	"github.com/frahmantamala/course-platform/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config      *internal.Config
	DB          *sqlx.DB
	GormDB      *gorm.DB
	Router      *chi.Mux
	Handlers    rest.Handlers
	RateLimiter *middleware.ActivationRateLimiter
	Logger      *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, deps.Handlers, rest.Options{
		AllowedOrigins:      deps.Config.Server.AllowedOrigins,
		ActivationRateLimit: deps.RateLimiter,
	}, deps.Logger)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		deps.RateLimiter.Stop()
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Observability.Logging.Level, config.Observability.Logging.Format)
	lg := logger.L()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm connection: %w", err)
	}

	// repositories
	authRepo := authPostgres.NewRepository(gormDB)
	userRepo := userPostgres.NewUserRepository(gormDB)
	catalogRepo := catalogPostgres.NewCatalogRepository(gormDB)
	favoriteRepo := favoritePostgres.NewFavoriteRepository(gormDB)
	entitlementStore := entitlementPostgres.NewEntitlementStore(gormDB)
	promoRepo := promocodePostgres.NewPromoCodeRepository(gormDB)

	// services
	tokenGen := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authRepo, tokenGen)
	userService := user.NewService(userRepo, config.Security.BCryptCost, lg)
	catalogService := catalog.NewService(catalogRepo, lg)
	favoriteService := favorite.NewService(favoriteRepo, catalogService, lg)
	resolver := entitlement.NewResolver(entitlementStore, catalogService, config.Database.QueryTimeout, lg)
	grants := entitlement.NewGrants(entitlementStore, catalogService, config.Database.QueryTimeout, lg)
	promoService := promocode.NewService(promoRepo, catalogService, config.Database.QueryTimeout, lg)

	rateLimiter := middleware.NewActivationRateLimiter(
		config.Promo.ActivationRatePerSecond,
		config.Promo.ActivationBurst,
		lg,
	)

	return &Dependencies{
		Config: config,
		DB:     db,
		GormDB: gormDB,
		Router: chi.NewRouter(),
		Handlers: rest.Handlers{
			Auth:        auth.NewHandler(authService),
			User:        user.NewHandler(userService),
			Catalog:     catalog.NewHandler(catalogService),
			Favorite:    favorite.NewHandler(favoriteService),
			Entitlement: entitlement.NewHandler(resolver, grants),
			PromoCode:   promocode.NewHandler(promoService),
		},
		RateLimiter: rateLimiter,
		Logger:      lg,
	}, nil
}

// initDB opens and verifies the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
