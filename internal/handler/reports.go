package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sahar-erp/api/internal/database"
	"github.com/sahar-erp/api/internal/report"
)

// stockUsageLogLimit caps the log rows read for one stock usage report.
const stockUsageLogLimit = 10000

// ReportsStore defines the database methods needed by report handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ReportsStore interface {
	ListPaidOrdersSince(ctx context.Context, since time.Time) ([]database.Order, error)
	ListOrderLinesSince(ctx context.Context, since time.Time) ([]database.ListOrderLinesSinceRow, error)
	ListExpensesSince(ctx context.Context, since time.Time) ([]database.Expense, error)
	ListIngredients(ctx context.Context) ([]database.Ingredient, error)
	ListInventoryLog(ctx context.Context, arg database.ListInventoryLogParams) ([]database.ListInventoryLogRow, error)
}

// ReportsHandler handles report endpoints.
type ReportsHandler struct {
	store ReportsStore
	loc   *time.Location
	now   func() time.Time
}

// NewReportsHandler creates a new ReportsHandler. Periods start at midnight in loc.
func NewReportsHandler(store ReportsStore, loc *time.Location) *ReportsHandler {
	if loc == nil {
		loc = time.Local
	}
	return &ReportsHandler{store: store, loc: loc, now: time.Now}
}

// RegisterManagerRoutes registers the sales and stock reports.
func (h *ReportsHandler) RegisterManagerRoutes(r chi.Router) {
	r.Get("/reports/dashboard", h.Dashboard)
	r.Get("/reports/best-sellers", h.BestSellers)
	r.Get("/reports/payment-methods", h.PaymentMethods)
	r.Get("/reports/hourly-sales", h.HourlySales)
	r.Get("/reports/stock-usage", h.StockUsage)
}

// RegisterAdminRoutes registers the profit report.
func (h *ReportsHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/reports/finance", h.Finance)
}

// --- Response types ---

type dashboardResponse struct {
	Period       string          `json:"period"`
	Since        time.Time       `json:"since"`
	Revenue      string          `json:"revenue"`
	OrderCount   int             `json:"order_count"`
	AverageOrder string          `json:"average_order"`
	CashOrders   int             `json:"cash_orders"`
	OtherOrders  int             `json:"other_orders"`
	Recent       []orderResponse `json:"recent"`
}

type bestSellerResponse struct {
	MenuItemID int64  `json:"menu_item_id"`
	NameLocal  string `json:"name_local"`
	NameAlt    string `json:"name_alt"`
	Category   string `json:"category"`
	Quantity   int64  `json:"quantity"`
	Revenue    string `json:"revenue"`
	LineCount  int    `json:"line_count"`
}

type financeResponse struct {
	Period    string    `json:"period"`
	Since     time.Time `json:"since"`
	Income    string    `json:"income"`
	COGS      string    `json:"cogs"`
	Expenses  string    `json:"expenses"`
	NetProfit string    `json:"net_profit"`
}

type paymentMethodResponse struct {
	PaymentMethod string `json:"payment_method"`
	OrderCount    int    `json:"order_count"`
	Total         string `json:"total"`
}

type hourlySalesResponse struct {
	Hour       int    `json:"hour"`
	OrderCount int    `json:"order_count"`
	Total      string `json:"total"`
}

type stockUsageResponse struct {
	IngredientID int64  `json:"ingredient_id"`
	Name         string `json:"name"`
	Unit         string `json:"unit"`
	TotalUsed    string `json:"total_used"`
	TimesUsed    int    `json:"times_used"`
	Usage        string `json:"usage"`
}

// --- Handlers ---

// Dashboard returns headline sales figures for the period.
func (h *ReportsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	period, since, ok := h.period(w, r)
	if !ok {
		return
	}

	orders, err := h.store.ListPaidOrdersSince(r.Context(), since)
	if err != nil {
		slog.ErrorContext(r.Context(), "list paid orders", "period", period, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	d := report.BuildDashboard(orders, report.DefaultRecentOrders)
	writeJSON(w, http.StatusOK, dashboardResponse{
		Period:       period,
		Since:        since,
		Revenue:      d.Revenue.StringFixed(2),
		OrderCount:   d.OrderCount,
		AverageOrder: d.AverageOrder.StringFixed(2),
		CashOrders:   d.CashOrders,
		OtherOrders:  d.OtherOrders,
		Recent:       toOrderResponses(d.Recent),
	})
}

// BestSellers returns the menu items sold most by quantity.
func (h *ReportsHandler) BestSellers(w http.ResponseWriter, r *http.Request) {
	period, since, ok := h.period(w, r)
	if !ok {
		return
	}

	limit := report.DefaultBestSellerLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = v
	}

	lines, err := h.store.ListOrderLinesSince(r.Context(), since)
	if err != nil {
		slog.ErrorContext(r.Context(), "list order lines", "period", period, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items := report.BestSellers(lines, limit)
	resp := make([]bestSellerResponse, len(items))
	for i, b := range items {
		resp[i] = bestSellerResponse{
			MenuItemID: b.MenuItemID,
			NameLocal:  b.NameLocal,
			NameAlt:    b.NameAlt,
			Category:   b.Category,
			Quantity:   b.Quantity,
			Revenue:    b.Revenue.StringFixed(2),
			LineCount:  b.LineCount,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Finance returns income, cost of goods, expenses and net profit.
func (h *ReportsHandler) Finance(w http.ResponseWriter, r *http.Request) {
	period, since, ok := h.period(w, r)
	if !ok {
		return
	}

	orders, err := h.store.ListPaidOrdersSince(r.Context(), since)
	if err != nil {
		slog.ErrorContext(r.Context(), "list paid orders", "period", period, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	lines, err := h.store.ListOrderLinesSince(r.Context(), since)
	if err != nil {
		slog.ErrorContext(r.Context(), "list order lines", "period", period, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	expenses, err := h.store.ListExpensesSince(r.Context(), since)
	if err != nil {
		slog.ErrorContext(r.Context(), "list expenses", "period", period, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	f := report.BuildFinance(orders, lines, expenses)
	writeJSON(w, http.StatusOK, financeResponse{
		Period:    period,
		Since:     since,
		Income:    f.Income.StringFixed(2),
		COGS:      f.COGS.StringFixed(2),
		Expenses:  f.Expenses.StringFixed(2),
		NetProfit: f.NetProfit.StringFixed(2),
	})
}

// PaymentMethods returns takings per payment method.
func (h *ReportsHandler) PaymentMethods(w http.ResponseWriter, r *http.Request) {
	period, since, ok := h.period(w, r)
	if !ok {
		return
	}

	orders, err := h.store.ListPaidOrdersSince(r.Context(), since)
	if err != nil {
		slog.ErrorContext(r.Context(), "list paid orders", "period", period, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	totals := report.PaymentMethods(orders)
	resp := make([]paymentMethodResponse, len(totals))
	for i, p := range totals {
		resp[i] = paymentMethodResponse{
			PaymentMethod: p.Method,
			OrderCount:    p.Orders,
			Total:         p.Total.StringFixed(2),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// HourlySales returns takings per hour of day.
func (h *ReportsHandler) HourlySales(w http.ResponseWriter, r *http.Request) {
	period, since, ok := h.period(w, r)
	if !ok {
		return
	}

	orders, err := h.store.ListPaidOrdersSince(r.Context(), since)
	if err != nil {
		slog.ErrorContext(r.Context(), "list paid orders", "period", period, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	hours := report.Hourly(orders, h.loc)
	resp := make([]hourlySalesResponse, len(hours))
	for i, s := range hours {
		resp[i] = hourlySalesResponse{Hour: s.Hour, OrderCount: s.Orders, Total: s.Total.StringFixed(2)}
	}
	writeJSON(w, http.StatusOK, resp)
}

// StockUsage returns how much of each ingredient was consumed in the period.
// Query: period, sort (total_used, times_used, name), search.
func (h *ReportsHandler) StockUsage(w http.ResponseWriter, r *http.Request) {
	period, since, ok := h.period(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	sortBy := q.Get("sort")

	ingredients, err := h.store.ListIngredients(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "list ingredients", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	logs, err := h.store.ListInventoryLog(r.Context(), database.ListInventoryLogParams{
		Since: pgtype.Timestamptz{Time: since, Valid: true},
		Limit: stockUsageLogLimit,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "list inventory log", "period", period, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	usage, err := report.StockUsage(ingredients, logs, sortBy, q.Get("search"))
	if err != nil {
		if errors.Is(err, report.ErrInvalidSort) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		slog.ErrorContext(r.Context(), "stock usage", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]stockUsageResponse, len(usage))
	for i, u := range usage {
		resp[i] = stockUsageResponse{
			IngredientID: u.IngredientID,
			Name:         u.Name,
			Unit:         u.Unit,
			TotalUsed:    u.TotalUsed.String(),
			TimesUsed:    u.TimesUsed,
			Usage:        u.Band,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

// period resolves the ?period= query to its lower bound, writing a 400 when
// the value is unknown. An empty period means today.
func (h *ReportsHandler) period(w http.ResponseWriter, r *http.Request) (string, time.Time, bool) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = report.PeriodToday
	}
	since, err := report.Since(period, h.now(), h.loc)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return "", time.Time{}, false
	}
	return period, since, true
}
