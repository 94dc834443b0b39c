package main

import (
	"context"
	"fmt"
	"log"

	common_api "go-insight/internal/common/api"
	"go-insight/internal/config"
	"go-insight/internal/connectors"
	"go-insight/internal/database"
	"go-insight/internal/features/audit"
	cron_feature "go-insight/internal/features/cron"
	"go-insight/internal/features/dashboard"
	"go-insight/internal/features/report"
	"go-insight/internal/features/system"
	"go-insight/internal/features/widget"
	"go-insight/internal/logger"
	"go-insight/internal/middleware"
	"go-insight/pkg/utils"

	_ "go-insight/docs" // Import swagger docs

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Use custom CORS middleware
	app.Use(middleware.CORSMiddleware())

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),    // Cast to Interface
		fx.ResultTags(`group:"routes"`), // Add to Group
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	log.Printf("Registering %d routes...\n", len(routes))
	for i, route := range routes {
		log.Printf("Setting up route %d: %T\n", i+1, route)
		route.Setup(app)
	}
	log.Println("All routes registered successfully")
}

// RegisterAllRoutesWithAnnotation wraps RegisterAllRoutes with fx annotations
var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// NewQueryExecutor picks the executor backend from config: a SQL source when
// SQL_DRIVER is set, otherwise the Langfuse-compatible HTTP API.
func NewQueryExecutor(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) connectors.QueryExecutor {
	if cfg.SQLDriver != "" {
		conn := connectors.NewSQLConnector(cfg.SQLDriver)
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				logger.Info("connecting SQL executor", zap.String("driver", cfg.SQLDriver))
				return conn.Connect(ctx, cfg.SQLDSN)
			},
			OnStop: func(ctx context.Context) error {
				return conn.Disconnect(ctx)
			},
		})
		return conn
	}

	logger.Info("using Langfuse executor", zap.String("base_url", cfg.LangfuseBaseURL))
	return connectors.NewLangfuseConnector(connectors.LangfuseConfig{
		BaseURL:   cfg.LangfuseBaseURL,
		PublicKey: cfg.LangfusePublicKey,
		SecretKey: cfg.LangfuseSecretKey,
		ProjectID: cfg.LangfuseProjectID,
	})
}

// NewDashboardRefresher wires the refresher with the configured pacing.
func NewDashboardRefresher(widgets dashboard.WidgetLoader, pub dashboard.StatePublisher, cfg *config.Config, logger *zap.Logger) *dashboard.Refresher {
	return dashboard.NewRefresher(widgets, pub, cfg.RefreshPacing, logger)
}

// @title           go-insight API
// @version         1.0
// @description     Analytics widget and dashboard data service built on Fiber and Uber Fx.
// @termsOfService  http://swagger.io/terms/

// @contact.name    API Support

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host            localhost:8000
// @BasePath        /
func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Database
			database.NewDatabase,

			// Query executor
			NewQueryExecutor,

			// Initialize Repository
			audit.NewAuditRepository,
			widget.NewWidgetRepository,
			dashboard.NewDashboardRepository,
			cron_feature.NewCronRepository,

			audit.NewAuditService,
			widget.NewWidgetService,
			system.NewHub,
			NewDashboardRefresher,
			dashboard.NewDashboardService,
			cron_feature.NewCronService,
			report.NewReportService,

			// Interface Adapters to break circular dependencies and satisfy Fx
			func(s widget.WidgetService) dashboard.WidgetLoader { return s },
			func(h *system.Hub) dashboard.StatePublisher { return h },

			// Initialize Controller
			audit.NewAuditController,
			widget.NewWidgetController,
			dashboard.NewDashboardController,
			cron_feature.NewCronController,
			report.NewReportController,
			system.NewWebSocketController,

			// Initialize API Routes
			AsRoute(audit.NewAuditApi),
			AsRoute(widget.NewWidgetApi),
			AsRoute(dashboard.NewDashboardApi),
			AsRoute(cron_feature.NewCronApi),
			AsRoute(report.NewReportApi),
			AsRoute(system.NewHealthApi),
			AsRoute(system.NewSwaggerApi),
			AsRoute(system.NewWebSocketApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			func(cfg *config.Config) {
				utils.SetSecret(cfg.JWTSecret)
			},

			// Register Routes & Start
			RegisterAllRoutesWithAnnotation,
			StartServer,
			func(lc fx.Lifecycle, cronService cron_feature.CronService) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return cronService.InitializeScheduler(ctx)
					},
					OnStop: func(ctx context.Context) error {
						return cronService.StopScheduler()
					},
				})
			},
			func(lc fx.Lifecycle, refresher *dashboard.Refresher) {
				lc.Append(fx.Hook{
					OnStop: func(ctx context.Context) error {
						refresher.Stop()
						return nil
					},
				})
			},
		),
	)

	app.Run()
}
