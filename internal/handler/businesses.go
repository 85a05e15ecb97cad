package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/caterlink/api/internal/catalog"
	"github.com/caterlink/api/internal/database"
	"github.com/caterlink/api/internal/enum"
	"github.com/caterlink/api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// BusinessStore defines the database methods needed by business handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type BusinessStore interface {
	CreateBusiness(ctx context.Context, arg database.CreateBusinessParams) (database.Business, error)
	GetBusiness(ctx context.Context, id uuid.UUID) (database.Business, error)
	GetBusinessByOwner(ctx context.Context, ownerID uuid.UUID) (database.Business, error)
	ListVerifiedBusinesses(ctx context.Context, arg database.ListVerifiedBusinessesParams) ([]database.Business, error)
	UpdateBusinessVerification(ctx context.Context, arg database.UpdateBusinessVerificationParams) (database.Business, error)
	CreateBusinessMenuItem(ctx context.Context, arg database.CreateBusinessMenuItemParams) (database.BusinessMenuItem, error)
	ListBusinessMenuItems(ctx context.Context, businessID uuid.UUID) ([]database.BusinessMenuItem, error)
	DeleteBusinessMenuItem(ctx context.Context, arg database.DeleteBusinessMenuItemParams) (uuid.UUID, error)
}

// BusinessHandler handles caterer profile, discovery, and menu endpoints.
type BusinessHandler struct {
	store BusinessStore
}

// NewBusinessHandler creates a new BusinessHandler.
func NewBusinessHandler(store BusinessStore) *BusinessHandler {
	return &BusinessHandler{store: store}
}

// RegisterRoutes registers business endpoints on the given Chi router.
func (h *BusinessHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.With(middleware.RequireRole(enum.UserRoleBusiness)).Post("/", h.Create)
	r.With(middleware.RequireRole(enum.UserRoleBusiness)).Get("/me", h.GetMine)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Get("/catalog", h.Catalog)
		r.With(middleware.RequireRole(enum.UserRoleAdmin)).Patch("/verification", h.UpdateVerification)
	})
	r.Route("/me/menu-items", func(r chi.Router) {
		r.Use(middleware.RequireRole(enum.UserRoleBusiness))
		r.Get("/", h.ListMenuItems)
		r.Post("/", h.CreateMenuItem)
		r.Delete("/{id}", h.DeleteMenuItem)
	})
}

// --- Request / Response types ---

type createBusinessRequest struct {
	Name        string `json:"name"`
	Cuisine     string `json:"cuisine"`
	City        string `json:"city"`
	Description string `json:"description"`
}

type updateVerificationRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

type createMenuItemRequest struct {
	Category      string `json:"category"`
	Name          string `json:"name"`
	IsVeg         bool   `json:"is_veg"`
	PricePerPlate string `json:"price_per_plate"`
}

type businessResponse struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	Cuisine            string    `json:"cuisine"`
	City               string    `json:"city"`
	Description        *string   `json:"description"`
	VerificationStatus string    `json:"verification_status"`
	TotalOrders        int32     `json:"total_orders"`
	CreatedAt          time.Time `json:"created_at"`
}

type menuItemResponse struct {
	ID            uuid.UUID `json:"id"`
	Category      string    `json:"category"`
	Name          string    `json:"name"`
	IsVeg         bool      `json:"is_veg"`
	PricePerPlate *string   `json:"price_per_plate"`
}

type catalogCategoryResponse struct {
	Name   string                `json:"name"`
	Dishes []catalogDishResponse `json:"dishes"`
}

type catalogDishResponse struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	IsVeg    bool   `json:"is_veg"`
}

func toBusinessResponse(b database.Business) businessResponse {
	resp := businessResponse{
		ID:                 b.ID,
		Name:               b.Name,
		Cuisine:            b.Cuisine,
		City:               b.City,
		VerificationStatus: b.VerificationStatus,
		TotalOrders:        b.TotalOrders,
		CreatedAt:          b.CreatedAt,
	}
	if b.Description.Valid {
		resp.Description = &b.Description.String
	}
	return resp
}

func toMenuItemResponse(m database.BusinessMenuItem) menuItemResponse {
	resp := menuItemResponse{
		ID:       m.ID,
		Category: m.Category,
		Name:     m.Name,
		IsVeg:    m.IsVeg,
	}
	if m.PricePerPlate.Valid {
		if val, err := m.PricePerPlate.Value(); err == nil && val != nil {
			s := val.(string)
			resp.PricePerPlate = &s
		}
	}
	return resp
}

// --- Handlers ---

// Create registers the caller's catering business. One business per account;
// verification starts PENDING.
func (h *BusinessHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req createBusinessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" || req.Cuisine == "" || req.City == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name, cuisine, and city are required"})
		return
	}

	description := pgtype.Text{}
	if req.Description != "" {
		description = pgtype.Text{String: req.Description, Valid: true}
	}

	business, err := h.store.CreateBusiness(r.Context(), database.CreateBusinessParams{
		OwnerID:     claims.UserID,
		Name:        req.Name,
		Cuisine:     req.Cuisine,
		City:        req.City,
		Description: description,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "a business is already registered for this account"})
			return
		}
		log.Printf("ERROR: create business: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toBusinessResponse(business))
}

// List is caterer discovery: verified businesses, optionally filtered by
// cuisine and city, busiest first.
func (h *BusinessHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 100 {
		limit = 100
	}

	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	cuisine := pgtype.Text{}
	if s := r.URL.Query().Get("cuisine"); s != "" {
		cuisine = pgtype.Text{String: s, Valid: true}
	}
	city := pgtype.Text{}
	if s := r.URL.Query().Get("city"); s != "" {
		city = pgtype.Text{String: s, Valid: true}
	}

	businesses, err := h.store.ListVerifiedBusinesses(r.Context(), database.ListVerifiedBusinessesParams{
		Limit:   int32(limit),
		Offset:  int32(offset),
		Cuisine: cuisine,
		City:    city,
	})
	if err != nil {
		log.Printf("ERROR: list businesses: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]businessResponse, len(businesses))
	for i, b := range businesses {
		resp[i] = toBusinessResponse(b)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns one business profile.
func (h *BusinessHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid business ID"})
		return
	}

	business, err := h.store.GetBusiness(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "business not found"})
			return
		}
		log.Printf("ERROR: get business: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toBusinessResponse(business))
}

// GetMine returns the caller's own business profile.
func (h *BusinessHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	business, err := h.store.GetBusinessByOwner(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no business registered for this account"})
			return
		}
		log.Printf("ERROR: get own business: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toBusinessResponse(business))
}

// Catalog returns the dish-picker catalog for an order targeting this
// business: its configured menu when present (default catalog otherwise),
// filtered by the food_preference query parameter.
func (h *BusinessHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid business ID"})
		return
	}

	items, err := h.store.ListBusinessMenuItems(r.Context(), id)
	if err != nil {
		log.Printf("ERROR: list menu items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	c := catalog.ForBusiness(items, r.URL.Query().Get("food_preference"))

	var resp []catalogCategoryResponse
	for _, cat := range c.Categories() {
		dishes := make([]catalogDishResponse, len(cat.Dishes))
		for i, d := range cat.Dishes {
			dishes[i] = catalogDishResponse{Name: d.Name, Category: d.Category, IsVeg: d.IsVeg}
		}
		resp = append(resp, catalogCategoryResponse{Name: cat.Name, Dishes: dishes})
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateVerification records the marketplace's verification decision.
func (h *BusinessHandler) UpdateVerification(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid business ID"})
		return
	}

	var req updateVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	switch req.Status {
	case enum.VerificationVerified, enum.VerificationRejected, enum.VerificationPending:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid verification status"})
		return
	}

	note := pgtype.Text{}
	if req.Note != "" {
		note = pgtype.Text{String: req.Note, Valid: true}
	}

	business, err := h.store.UpdateBusinessVerification(r.Context(), database.UpdateBusinessVerificationParams{
		ID:                 id,
		VerificationStatus: req.Status,
		VerificationNote:   note,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "business not found"})
			return
		}
		log.Printf("ERROR: update verification: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toBusinessResponse(business))
}

// ListMenuItems returns the caller's configured menu.
func (h *BusinessHandler) ListMenuItems(w http.ResponseWriter, r *http.Request) {
	business, ok := h.ownBusiness(w, r)
	if !ok {
		return
	}

	items, err := h.store.ListBusinessMenuItems(r.Context(), business.ID)
	if err != nil {
		log.Printf("ERROR: list menu items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]menuItemResponse, len(items))
	for i, m := range items {
		resp[i] = toMenuItemResponse(m)
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateMenuItem adds a dish to the caller's configured menu.
func (h *BusinessHandler) CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	business, ok := h.ownBusiness(w, r)
	if !ok {
		return
	}

	var req createMenuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" || req.Category == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name and category are required"})
		return
	}

	price := pgtype.Numeric{}
	if req.PricePerPlate != "" {
		d, err := decimal.NewFromString(req.PricePerPlate)
		if err != nil || d.IsNegative() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price_per_plate"})
			return
		}
		_ = price.Scan(d.StringFixed(2))
	}

	item, err := h.store.CreateBusinessMenuItem(r.Context(), database.CreateBusinessMenuItemParams{
		BusinessID:    business.ID,
		Category:      req.Category,
		Name:          req.Name,
		IsVeg:         req.IsVeg,
		PricePerPlate: price,
	})
	if err != nil {
		log.Printf("ERROR: create menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toMenuItemResponse(item))
}

// DeleteMenuItem removes a dish from the caller's configured menu.
func (h *BusinessHandler) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	business, ok := h.ownBusiness(w, r)
	if !ok {
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	if _, err := h.store.DeleteBusinessMenuItem(r.Context(), database.DeleteBusinessMenuItemParams{
		ID:         itemID,
		BusinessID: business.ID,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: delete menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ownBusiness resolves the caller's business, writing the error response on
// failure.
func (h *BusinessHandler) ownBusiness(w http.ResponseWriter, r *http.Request) (database.Business, bool) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return database.Business{}, false
	}

	business, err := h.store.GetBusinessByOwner(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no business registered for this account"})
			return database.Business{}, false
		}
		log.Printf("ERROR: get own business: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return database.Business{}, false
	}
	return business, true
}
