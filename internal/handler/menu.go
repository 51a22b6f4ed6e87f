package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sahar-erp/api/internal/database"
	"github.com/sahar-erp/api/internal/pos"
	"github.com/shopspring/decimal"
)

// MenuStore defines the database methods needed by menu handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type MenuStore interface {
	ListMenuItems(ctx context.Context, arg database.ListMenuItemsParams) ([]database.MenuItem, error)
	GetMenuItem(ctx context.Context, id int64) (database.MenuItem, error)
	CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
	UpdateMenuItem(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error)
	SetMenuItemAvailability(ctx context.Context, arg database.SetMenuItemAvailabilityParams) (database.MenuItem, error)
}

// MenuHandler handles menu catalog endpoints.
type MenuHandler struct {
	store MenuStore
}

func NewMenuHandler(store MenuStore) *MenuHandler {
	return &MenuHandler{store: store}
}

// RegisterRoutes registers the read-only menu endpoints used at the registers.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/menu", h.List)
	r.Get("/menu/{id}", h.Get)
}

// RegisterManagerRoutes registers menu maintenance endpoints.
func (h *MenuHandler) RegisterManagerRoutes(r chi.Router) {
	r.Post("/menu", h.Create)
	r.Put("/menu/{id}", h.Update)
	r.Patch("/menu/{id}/availability", h.SetAvailability)
}

// --- Request / Response types ---

type menuItemRequest struct {
	NameLocal     string  `json:"name_local"`
	NameAlt       string  `json:"name_alt"`
	Category      string  `json:"category"`
	Price         string  `json:"price"`
	DiscountPrice *string `json:"discount_price"`
	Cost          string  `json:"cost"`
	IsAvailable   *bool   `json:"is_available"`
	IsFeatured    bool    `json:"is_featured"`
	ImageRef      string  `json:"image_ref"`
}

type availabilityRequest struct {
	IsAvailable *bool `json:"is_available"`
}

type menuItemResponse struct {
	ID             int64     `json:"id"`
	NameLocal      string    `json:"name_local"`
	NameAlt        *string   `json:"name_alt"`
	Category       string    `json:"category"`
	Price          string    `json:"price"`
	DiscountPrice  *string   `json:"discount_price"`
	EffectivePrice string    `json:"effective_price"`
	Cost           string    `json:"cost"`
	IsAvailable    bool      `json:"is_available"`
	IsFeatured     bool      `json:"is_featured"`
	ImageRef       *string   `json:"image_ref"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toMenuItemResponse(m database.MenuItem) menuItemResponse {
	resp := menuItemResponse{
		ID:             m.ID,
		NameLocal:      m.NameLocal,
		Category:       m.Category,
		Price:          database.NumericString(m.Price),
		EffectivePrice: database.NumericString(m.Price),
		Cost:           database.NumericString(m.Cost),
		IsAvailable:    m.IsAvailable,
		IsFeatured:     m.IsFeatured,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if m.NameAlt.Valid {
		resp.NameAlt = &m.NameAlt.String
	}
	if m.DiscountPrice.Valid {
		s := database.NumericString(m.DiscountPrice)
		resp.DiscountPrice = &s
	}
	if m.ImageRef.Valid {
		resp.ImageRef = &m.ImageRef.String
	}
	if item, err := pos.CatalogItemFromMenu(m); err == nil {
		resp.EffectivePrice = item.EffectivePrice().StringFixed(2)
	}
	return resp
}

// menuParams validates a create/update body. The returned message is empty
// when the body is valid.
type menuParams struct {
	nameLocal     string
	nameAlt       pgtype.Text
	category      string
	price         pgtype.Numeric
	discountPrice pgtype.Numeric
	cost          pgtype.Numeric
	isAvailable   bool
	isFeatured    bool
	imageRef      pgtype.Text
}

func parseMenuItemRequest(req menuItemRequest) (menuParams, string) {
	var p menuParams
	p.nameLocal = strings.TrimSpace(req.NameLocal)
	p.category = strings.TrimSpace(req.Category)
	if p.nameLocal == "" {
		return p, "name_local is required"
	}
	if p.category == "" {
		return p, "category is required"
	}

	var err error
	if p.price, err = parsePrice(req.Price); err != nil {
		return p, "invalid price"
	}
	if req.DiscountPrice != nil && *req.DiscountPrice != "" {
		if p.discountPrice, err = parsePrice(*req.DiscountPrice); err != nil {
			return p, "invalid discount_price"
		}
	}
	if req.Cost == "" {
		req.Cost = "0"
	}
	if p.cost, err = parsePrice(req.Cost); err != nil {
		return p, "invalid cost"
	}

	if s := strings.TrimSpace(req.NameAlt); s != "" {
		p.nameAlt = pgtype.Text{String: s, Valid: true}
	}
	if s := strings.TrimSpace(req.ImageRef); s != "" {
		p.imageRef = pgtype.Text{String: s, Valid: true}
	}
	p.isAvailable = true
	if req.IsAvailable != nil {
		p.isAvailable = *req.IsAvailable
	}
	p.isFeatured = req.IsFeatured
	return p, ""
}

// --- Handlers ---

// List returns menu items, optionally filtered by category, search text and availability.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var arg database.ListMenuItemsParams
	if s := strings.TrimSpace(q.Get("category")); s != "" {
		arg.Category = pgtype.Text{String: s, Valid: true}
	}
	if s := strings.TrimSpace(q.Get("search")); s != "" {
		arg.Search = pgtype.Text{String: s, Valid: true}
	}
	if s := q.Get("available"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid available filter"})
			return
		}
		arg.AvailableOnly = v
	}

	items, err := h.store.ListMenuItems(r.Context(), arg)
	if err != nil {
		slog.ErrorContext(r.Context(), "list menu items", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]menuItemResponse, len(items))
	for i, m := range items {
		resp[i] = toMenuItemResponse(m)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single menu item.
func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "menu item")
	if !ok {
		return
	}

	item, err := h.store.GetMenuItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		slog.ErrorContext(r.Context(), "get menu item", "menu_item_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// Create adds a menu item.
func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	p, msg := parseMenuItemRequest(req)
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	item, err := h.store.CreateMenuItem(r.Context(), database.CreateMenuItemParams{
		NameLocal:     p.nameLocal,
		NameAlt:       p.nameAlt,
		Category:      p.category,
		Price:         p.price,
		DiscountPrice: p.discountPrice,
		Cost:          p.cost,
		IsAvailable:   p.isAvailable,
		IsFeatured:    p.isFeatured,
		ImageRef:      p.imageRef,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "create menu item", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toMenuItemResponse(item))
}

// Update replaces every editable field of a menu item.
func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "menu item")
	if !ok {
		return
	}

	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	p, msg := parseMenuItemRequest(req)
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	item, err := h.store.UpdateMenuItem(r.Context(), database.UpdateMenuItemParams{
		ID:            id,
		NameLocal:     p.nameLocal,
		NameAlt:       p.nameAlt,
		Category:      p.category,
		Price:         p.price,
		DiscountPrice: p.discountPrice,
		Cost:          p.cost,
		IsAvailable:   p.isAvailable,
		IsFeatured:    p.isFeatured,
		ImageRef:      p.imageRef,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		slog.ErrorContext(r.Context(), "update menu item", "menu_item_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// SetAvailability marks a menu item in or out of stock.
func (h *MenuHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "menu item")
	if !ok {
		return
	}

	var req availabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.IsAvailable == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "is_available is required"})
		return
	}

	item, err := h.store.SetMenuItemAvailability(r.Context(), database.SetMenuItemAvailabilityParams{
		ID:          id,
		IsAvailable: *req.IsAvailable,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		slog.ErrorContext(r.Context(), "set menu availability", "menu_item_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// --- Helpers ---

// parsePrice parses a non-negative money amount.
func parsePrice(s string) (pgtype.Numeric, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return pgtype.Numeric{}, err
	}
	if d.IsNegative() {
		return pgtype.Numeric{}, errors.New("negative amount")
	}
	return database.DecimalToNumeric(d), nil
}

// parseIDParam reads a positive integer URL parameter, writing a 400 when it is malformed.
func parseIDParam(w http.ResponseWriter, r *http.Request, name, what string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + what + " ID"})
		return 0, false
	}
	return id, true
}
