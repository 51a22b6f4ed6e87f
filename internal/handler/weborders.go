package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/sahar-erp/api/internal/database"
	"github.com/sahar-erp/api/internal/events"
)

// WebOrderStore defines the database methods needed by web order handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type WebOrderStore interface {
	ListWebOrders(ctx context.Context) ([]database.Order, error)
	ConfirmWebOrder(ctx context.Context, orderID int64) (database.Order, error)
	CancelWebOrder(ctx context.Context, orderID int64) (database.Order, error)
}

// WebOrderHandler handles the queue of unpaid website orders.
type WebOrderHandler struct {
	store     WebOrderStore
	publisher events.Publisher
}

func NewWebOrderHandler(store WebOrderStore, publisher events.Publisher) *WebOrderHandler {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &WebOrderHandler{store: store, publisher: publisher}
}

// RegisterRoutes registers web order endpoints.
func (h *WebOrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/web-orders", h.List)
	r.Post("/web-orders/{id}/confirm", h.Confirm)
	r.Post("/web-orders/{id}/cancel", h.Cancel)
}

// List returns website orders still awaiting payment, newest first.
func (h *WebOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.store.ListWebOrders(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "list web orders", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponses(orders))
}

// Confirm marks a website order paid and sends it to the kitchen as New.
func (h *WebOrderHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, "confirm", h.store.ConfirmWebOrder, events.TypeOrderCreated)
}

// Cancel drops a website order from the queue.
func (h *WebOrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, "cancel", h.store.CancelWebOrder, events.TypeOrderUpdated)
}

func (h *WebOrderHandler) resolve(
	w http.ResponseWriter,
	r *http.Request,
	action string,
	apply func(context.Context, int64) (database.Order, error),
	eventType string,
) {
	id, ok := parseIDParam(w, r, "id", "order")
	if !ok {
		return
	}

	o, err := apply(r.Context(), id)
	if err != nil {
		// The update only matches unpaid website orders.
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "pending web order not found"})
			return
		}
		slog.ErrorContext(r.Context(), action+" web order", "order_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	publishOrder(r.Context(), h.publisher, eventType, o)
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}
