package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sahar-erp/api/internal/auth"
	"github.com/sahar-erp/api/internal/config"
	"github.com/sahar-erp/api/internal/database"
	"github.com/sahar-erp/api/internal/enum"
	"github.com/sahar-erp/api/internal/events"
	"github.com/sahar-erp/api/internal/handler"
	"github.com/sahar-erp/api/internal/metrics"
	mw "github.com/sahar-erp/api/internal/middleware"
	"github.com/sahar-erp/api/internal/pos"
	"github.com/sahar-erp/api/internal/service"
	"github.com/sahar-erp/api/internal/session"
	"github.com/sahar-erp/api/internal/ws"
)

// Deps holds the long-lived services the routes are built from.
type Deps struct {
	Queries  *database.Queries
	Pool     handler.TxBeginner
	Hub      *ws.Hub
	Sessions *session.Manager
	// Publisher receives order events in addition to the hub. Nil publishes
	// to the hub only.
	Publisher events.Publisher
}

// New creates a Chi router with all application routes wired up.
// Applies authentication and role-based middleware as needed.
func New(cfg *config.Config, deps Deps) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", handler.IdempotencyKeyHeader},
		ExposedHeaders:   []string{mw.AccessTokenHeader, mw.SessionExpiresHeader, handler.ReplayedHeader},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	queries := deps.Queries
	publisher := events.Multi{deps.Hub.Publisher(ws.RoomKitchen, ws.RoomWebOrders)}
	if deps.Publisher != nil {
		publisher = append(publisher, deps.Publisher)
	}

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})
	r.Handle("/metrics", metrics.Handler())

	authHandler := handler.NewAuthHandler(queries, deps.Sessions, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	validate := wsTokenValidator(cfg.JWTSecret, deps.Sessions)
	r.Get("/ws/{room}", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(deps.Hub, validate, w, r)
	})

	menuHandler := handler.NewMenuHandler(queries)
	customers := service.NewCustomerDirectory(queries)
	customerHandler := handler.NewCustomerHandler(queries, customers)
	checkout := service.NewCheckoutService(queries, customers, publisher)
	posHandler := handler.NewPOSHandler(pos.NewRegistry(), queries, checkout)
	orderHandler := handler.NewOrderHandler(queries, publisher, cfg.Location)
	webOrderHandler := handler.NewWebOrderHandler(queries, publisher)
	inventoryHandler := handler.NewInventoryHandler(
		queries,
		deps.Pool,
		func(db database.DBTX) handler.InventoryTxStore {
			return database.New(db)
		},
		cfg.Location,
	)
	supplierHandler := handler.NewSupplierHandler(queries)
	recipeHandler := handler.NewRecipeHandler(queries)
	reportsHandler := handler.NewReportsHandler(queries, cfg.Location)
	expenseHandler := handler.NewExpenseHandler(queries, cfg.Location)

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret, deps.Sessions))

		authHandler.RegisterSessionRoutes(r)
		menuHandler.RegisterRoutes(r)
		customerHandler.RegisterRoutes(r)
		posHandler.RegisterRoutes(r)
		orderHandler.RegisterRoutes(r)
		webOrderHandler.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.RoleManager))
			menuHandler.RegisterManagerRoutes(r)
			customerHandler.RegisterManagerRoutes(r)
			inventoryHandler.RegisterManagerRoutes(r)
			supplierHandler.RegisterManagerRoutes(r)
			recipeHandler.RegisterManagerRoutes(r)
			reportsHandler.RegisterManagerRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.RoleAdmin))
			reportsHandler.RegisterAdminRoutes(r)
			expenseHandler.RegisterAdminRoutes(r)
		})
	})

	return r
}

// wsTokenValidator accepts a token only while its session is open.
func wsTokenValidator(secret string, sessions *session.Manager) ws.TokenValidator {
	return func(r *http.Request, token string) (*auth.Claims, error) {
		claims, err := auth.ValidateToken(secret, token)
		if err != nil {
			return nil, err
		}
		if _, err := sessions.Validate(r.Context(), claims.SessionID); err != nil {
			return nil, err
		}
		return claims, nil
	}
}
