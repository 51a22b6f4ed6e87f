package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sahar-erp/api/internal/database"
	"github.com/sahar-erp/api/internal/enum"
	"github.com/sahar-erp/api/internal/pos"
	"github.com/sahar-erp/api/internal/service"
)

// IdempotencyKeyHeader lets a client pin a checkout attempt to its own key.
const IdempotencyKeyHeader = "Idempotency-Key"

// ReplayedHeader is set on a checkout response served from an earlier attempt.
const ReplayedHeader = "Idempotent-Replayed"

const maxRegisterIDLength = 64

// CatalogReader loads menu items for the cart. Satisfied by *database.Queries.
type CatalogReader interface {
	GetMenuItem(ctx context.Context, id int64) (database.MenuItem, error)
}

// CheckoutServicer runs checkouts. Satisfied by *service.CheckoutService.
type CheckoutServicer interface {
	Checkout(ctx context.Context, reg *pos.Register, req service.CheckoutRequest) (*service.CheckoutResult, error)
}

// POSHandler handles register cart and checkout endpoints.
type POSHandler struct {
	registers *pos.Registry
	catalog   CatalogReader
	checkout  CheckoutServicer
}

func NewPOSHandler(registers *pos.Registry, catalog CatalogReader, checkout CheckoutServicer) *POSHandler {
	return &POSHandler{registers: registers, catalog: catalog, checkout: checkout}
}

// RegisterRoutes registers the register endpoints.
func (h *POSHandler) RegisterRoutes(r chi.Router) {
	r.Route("/pos/registers/{rid}", func(r chi.Router) {
		r.Get("/cart", h.GetCart)
		r.Post("/cart/lines", h.AddLine)
		r.Delete("/cart/lines/{index}", h.RemoveLine)
		r.Delete("/cart", h.ClearCart)
		r.Post("/checkout", h.Checkout)
	})
}

// --- Request / Response types ---

type addLineRequest struct {
	MenuItemID int64   `json:"menu_item_id"`
	Sugar      *string `json:"sugar"`
	Note       string  `json:"note"`
}

type checkoutRequest struct {
	CustomerName  string `json:"customer_name"`
	Phone         string `json:"phone"`
	PaymentMethod string `json:"payment_method"`
}

type lineResponse struct {
	MenuItemID int64  `json:"menu_item_id"`
	Name       string `json:"name"`
	Quantity   int32  `json:"quantity"`
	UnitPrice  string `json:"unit_price"`
	Note       string `json:"note"`
}

type cartResponse struct {
	RegisterID string         `json:"register_id"`
	State      pos.State      `json:"state"`
	Lines      []lineResponse `json:"lines"`
	Total      string         `json:"total"`
	Summary    string         `json:"summary"`
}

type checkoutResponse struct {
	IdempotencyKey uuid.UUID      `json:"idempotency_key"`
	Order          orderResponse  `json:"order"`
	Lines          []lineResponse `json:"lines"`
}

func toLineResponse(l pos.Line) lineResponse {
	return lineResponse{
		MenuItemID: l.MenuItemID,
		Name:       l.Name,
		Quantity:   l.Quantity,
		UnitPrice:  l.UnitPrice.StringFixed(2),
		Note:       l.Note,
	}
}

func toLineResponses(c pos.Cart) []lineResponse {
	resp := make([]lineResponse, len(c))
	for i, l := range c {
		resp[i] = toLineResponse(l)
	}
	return resp
}

func toCartResponse(reg *pos.Register) cartResponse {
	cart, state := reg.Snapshot()
	return cartResponse{
		RegisterID: reg.ID(),
		State:      state,
		Lines:      toLineResponses(cart),
		Total:      cart.Total().StringFixed(2),
		Summary:    cart.Summary(),
	}
}

// --- Handlers ---

// GetCart returns the register's cart and checkout state.
func (h *POSHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	reg, ok := h.register(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(reg))
}

// AddLine appends a menu item to the cart at its current effective price.
// When sugar is supplied the note is built from the sugar level and free text;
// otherwise note is stored as sent.
func (h *POSHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	reg, ok := h.register(w, r)
	if !ok {
		return
	}

	var req addLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.MenuItemID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "menu_item_id is required"})
		return
	}

	note := req.Note
	if req.Sugar != nil {
		if *req.Sugar != "" && !enum.ValidSugarLevel(*req.Sugar) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid sugar level"})
			return
		}
		note = pos.BuildNote(*req.Sugar, req.Note)
	}

	m, err := h.catalog.GetMenuItem(r.Context(), req.MenuItemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		slog.ErrorContext(r.Context(), "get menu item for cart", "menu_item_id", req.MenuItemID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	item, err := pos.CatalogItemFromMenu(m)
	if err != nil {
		slog.ErrorContext(r.Context(), "convert menu item", "menu_item_id", m.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	_, added, err := reg.AddLine(item, note)
	if err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}
	if !added {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "menu item is unavailable"})
		return
	}

	writeJSON(w, http.StatusCreated, toCartResponse(reg))
}

// RemoveLine drops the line at the given position. An index past the end
// leaves the cart unchanged.
func (h *POSHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	reg, ok := h.register(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid line index"})
		return
	}

	if _, err := reg.RemoveLine(index); err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, toCartResponse(reg))
}

// ClearCart empties the cart without checking out.
func (h *POSHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	reg, ok := h.register(w, r)
	if !ok {
		return
	}

	if err := reg.Clear(); err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Checkout converts the cart into a paid order. An empty cart answers 204
// and writes nothing.
func (h *POSHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	reg, ok := h.register(w, r)
	if !ok {
		return
	}

	var key uuid.UUID
	if s := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader)); s != "" {
		k, err := uuid.Parse(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + IdempotencyKeyHeader + " header"})
			return
		}
		key = k
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	res, err := h.checkout.Checkout(r.Context(), reg, service.CheckoutRequest{
		IdempotencyKey: key,
		CustomerName:   req.CustomerName,
		Phone:          req.Phone,
		PaymentMethod:  req.PaymentMethod,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPaymentMethod):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "payment_method must be Cash, Visa or Wallet"})
		case errors.Is(err, pos.ErrCheckoutInProgress):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrIdempotencyKeyReused):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		default:
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "checkout failed"})
		}
		return
	}

	if res.Skipped {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := checkoutResponse{
		IdempotencyKey: res.IdempotencyKey,
		Order:          toOrderResponse(res.Order),
		Lines:          toLineResponses(res.Lines),
	}
	if res.Replayed {
		w.Header().Set(ReplayedHeader, "true")
		writeJSON(w, http.StatusOK, resp)
		return
	}
	slog.InfoContext(r.Context(), "checkout completed",
		"register_id", reg.ID(),
		"order_id", res.Order.OrderID,
		"total", database.NumericString(res.Order.TotalAmount),
	)
	writeJSON(w, http.StatusCreated, resp)
}

// --- Helpers ---

func (h *POSHandler) register(w http.ResponseWriter, r *http.Request) (*pos.Register, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "rid"))
	if id == "" || len(id) > maxRegisterIDLength {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid register ID"})
		return nil, false
	}
	return h.registers.Get(id), true
}
