package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sahar-erp/api/internal/database"
	"github.com/sahar-erp/api/internal/enum"
	"github.com/sahar-erp/api/internal/events"
	"github.com/sahar-erp/api/internal/report"
)

// OrderStore defines the database methods needed by order read/update handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	GetOrder(ctx context.Context, orderID int64) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrderLines(ctx context.Context, orderID int64) ([]database.ListOrderLinesRow, error)
	ListKitchenOrders(ctx context.Context) ([]database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
}

// OrderHandler handles order listing, the kitchen queue and status changes.
type OrderHandler struct {
	store     OrderStore
	publisher events.Publisher
	loc       *time.Location
	now       func() time.Time
}

func NewOrderHandler(store OrderStore, publisher events.Publisher, loc *time.Location) *OrderHandler {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &OrderHandler{store: store, publisher: publisher, loc: loc, now: time.Now}
}

// RegisterRoutes registers order endpoints.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/kitchen/orders", h.Kitchen)
	r.Get("/orders", h.List)
	r.Get("/orders/{id}", h.Get)
	r.Patch("/orders/{id}/status", h.UpdateStatus)
}

// --- Request / Response types ---

type updateStatusRequest struct {
	Status string `json:"status"`
}

type orderResponse struct {
	ID            int64     `json:"id"`
	CustomerName  string    `json:"customer_name"`
	Phone         string    `json:"phone"`
	TotalAmount   string    `json:"total_amount"`
	OrderSummary  string    `json:"order_summary"`
	Status        string    `json:"status"`
	PaymentMethod string    `json:"payment_method"`
	IsPaid        bool      `json:"is_paid"`
	OrderType     string    `json:"order_type"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type orderLineResponse struct {
	ID          int64   `json:"id"`
	MenuItemID  int64   `json:"menu_item_id"`
	NameLocal   string  `json:"name_local"`
	NameAlt     *string `json:"name_alt"`
	Quantity    int32   `json:"quantity"`
	PriceAtTime string  `json:"price_at_time"`
}

type orderDetailResponse struct {
	orderResponse
	Lines []orderLineResponse `json:"lines"`
}

func toOrderResponse(o database.Order) orderResponse {
	return orderResponse{
		ID:            o.OrderID,
		CustomerName:  o.CustomerName,
		Phone:         o.Phone,
		TotalAmount:   database.NumericString(o.TotalAmount),
		OrderSummary:  o.OrderSummary,
		Status:        o.Status,
		PaymentMethod: o.PaymentMethod,
		IsPaid:        o.IsPaid,
		OrderType:     o.OrderType,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func toOrderResponses(orders []database.Order) []orderResponse {
	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}
	return resp
}

func toOrderLineResponse(l database.ListOrderLinesRow) orderLineResponse {
	resp := orderLineResponse{
		ID:          l.ID,
		MenuItemID:  l.MenuItemID,
		NameLocal:   l.NameLocal,
		Quantity:    l.Quantity,
		PriceAtTime: database.NumericString(l.PriceAtTime),
	}
	if l.NameAlt.Valid {
		resp.NameAlt = &l.NameAlt.String
	}
	return resp
}

// --- Handlers ---

// Kitchen returns the paid orders still to be served, oldest first.
func (h *OrderHandler) Kitchen(w http.ResponseWriter, r *http.Request) {
	orders, err := h.store.ListKitchenOrders(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "list kitchen orders", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponses(orders))
}

// List returns orders newest first, filtered by status, type and period.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var arg database.ListOrdersParams

	if s := q.Get("status"); s != "" {
		if !isValidOrderStatus(s) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status filter"})
			return
		}
		arg.Status = pgtype.Text{String: s, Valid: true}
	}
	if s := q.Get("type"); s != "" {
		if s != enum.OrderTypePOS && s != enum.OrderTypeWebsite {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid type filter"})
			return
		}
		arg.OrderType = pgtype.Text{String: s, Valid: true}
	}
	if s := q.Get("period"); s != "" {
		since, err := report.Since(s, h.now(), h.loc)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		arg.Since = pgtype.Timestamptz{Time: since, Valid: true}
	}
	arg.Limit, arg.Offset = parsePagination(r, 50, 200)

	orders, err := h.store.ListOrders(r.Context(), arg)
	if err != nil {
		slog.ErrorContext(r.Context(), "list orders", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponses(orders))
}

// Get returns an order with its lines.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "order")
	if !ok {
		return
	}

	o, err := h.store.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		slog.ErrorContext(r.Context(), "get order", "order_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	lines, err := h.store.ListOrderLines(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "list order lines", "order_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := orderDetailResponse{orderResponse: toOrderResponse(o), Lines: make([]orderLineResponse, len(lines))}
	for i, l := range lines {
		resp.Lines[i] = toOrderLineResponse(l)
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateStatus moves an order along the kitchen board. The write is guarded
// on the status the caller saw, so a concurrent change answers 409.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "order")
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.Status = strings.TrimSpace(req.Status)
	if !isValidOrderStatus(req.Status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	current, err := h.store.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		slog.ErrorContext(r.Context(), "get order for status update", "order_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if !enum.CanTransition(current.Status, req.Status) {
		writeJSON(w, http.StatusConflict, map[string]string{
			"error": "cannot change status from " + current.Status + " to " + req.Status,
		})
		return
	}

	updated, err := h.store.UpdateOrderStatus(r.Context(), database.UpdateOrderStatusParams{
		OrderID:    id,
		FromStatus: current.Status,
		ToStatus:   req.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "order status changed, reload and retry"})
			return
		}
		slog.ErrorContext(r.Context(), "update order status", "order_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	publishOrder(r.Context(), h.publisher, events.TypeOrderUpdated, updated)
	writeJSON(w, http.StatusOK, toOrderResponse(updated))
}

// --- Helpers ---

func isValidOrderStatus(s string) bool {
	switch s {
	case enum.OrderStatusPending, enum.OrderStatusNew, enum.OrderStatusPreparing,
		enum.OrderStatusReady, enum.OrderStatusCompleted, enum.OrderStatusDelivered,
		enum.OrderStatusCancelled:
		return true
	}
	return false
}

// publishOrder notifies screens of an order change. Delivery failures are
// logged; the write they describe has already happened.
func publishOrder(ctx context.Context, p events.Publisher, eventType string, o database.Order) {
	e, err := events.New(eventType, toOrderResponse(o))
	if err != nil {
		slog.ErrorContext(ctx, "build order event", "order_id", o.OrderID, "error", err)
		return
	}
	if err := p.Publish(ctx, e); err != nil {
		slog.WarnContext(ctx, "publish order event", "order_id", o.OrderID, "type", eventType, "error", err)
	}
}
