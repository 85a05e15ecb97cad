package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/caterlink/api/internal/catalog"
	"github.com/caterlink/api/internal/database"
	"github.com/caterlink/api/internal/draft"
	"github.com/caterlink/api/internal/enum"
	"github.com/caterlink/api/internal/middleware"
	"github.com/caterlink/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	SubmitOrder(ctx context.Context, req service.SubmitOrderRequest) (*service.SubmitOrderResult, error)
}

// OrderStore defines the database methods needed by order read/update
// handlers. Satisfied by *database.Queries.
type OrderStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrdersByCustomer(ctx context.Context, arg database.ListOrdersByCustomerParams) ([]database.Order, error)
	ListOrdersByBusiness(ctx context.Context, arg database.ListOrdersByBusinessParams) ([]database.Order, error)
	ListOrderSessions(ctx context.Context, orderID uuid.UUID) ([]database.OrderSession, error)
	ListOrderSessionItems(ctx context.Context, sessionID uuid.UUID) ([]database.OrderSessionItem, error)
	ListBusinessMenuItems(ctx context.Context, businessID uuid.UUID) ([]database.BusinessMenuItem, error)
	GetBusinessByOwner(ctx context.Context, ownerID uuid.UUID) (database.Business, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (database.User, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	IsOrderParticipant(ctx context.Context, arg database.IsOrderParticipantParams) (bool, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc   OrderServicer
	store OrderStore
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, store OrderStore) *OrderHandler {
	return &OrderHandler{svc: svc, store: store}
}

// RegisterRoutes registers order endpoints on the given Chi router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireRole(enum.UserRoleCustomer)).Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/menu.html", h.ExportMenu)
	r.Patch("/{id}/status", h.UpdateStatus)
}

// --- Request / Response types ---

type createOrderRequest struct {
	BusinessID     string           `json:"business_id"`
	EventType      string           `json:"event_type"`
	FoodPreference string           `json:"food_preference"`
	Cuisine        string           `json:"cuisine"`
	Venue          string           `json:"venue"`
	ServiceType    string           `json:"service_type"`
	Notes          string           `json:"notes"`
	Days           []createOrderDay `json:"days"`
}

type createOrderDay struct {
	Date     string                  `json:"date"` // DD/MM/YYYY
	Sessions []createOrderDaySession `json:"sessions"`
}

type createOrderDaySession struct {
	Name           string `json:"name"`
	Time           string `json:"time"`
	NumberOfPeople int32  `json:"number_of_people"`
	ServingType    string `json:"serving_type"`
	MenuNotes      string `json:"menu_notes"`
}

type createOrderResponse struct {
	OrderID        uuid.UUID `json:"order_id"`
	OrderNumber    string    `json:"order_number"`
	Status         string    `json:"status"`
	NumberOfPeople int32     `json:"number_of_people"`
	Advisories     []string  `json:"advisories,omitempty"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type orderResponse struct {
	ID             uuid.UUID              `json:"id"`
	OrderNumber    string                 `json:"order_number"`
	BusinessID     uuid.UUID              `json:"business_id"`
	EventType      *string                `json:"event_type"`
	FoodPreference *string                `json:"food_preference"`
	Cuisine        *string                `json:"cuisine"`
	ServiceType    string                 `json:"service_type"`
	Venue          *string                `json:"venue"`
	NumberOfPeople int32                  `json:"number_of_people"`
	Status         string                 `json:"status"`
	Notes          *string                `json:"notes"`
	EstimatedTotal *string                `json:"estimated_total"`
	CreatedAt      time.Time              `json:"created_at"`
	Sessions       []orderSessionResponse `json:"sessions,omitempty"`
}

type orderSessionResponse struct {
	SessionName    string              `json:"session_name"`
	Date           string              `json:"date"`
	Time           *string             `json:"time"`
	NumberOfPeople int32               `json:"number_of_people"`
	ServingType    *string             `json:"serving_type"`
	MenuItems      []orderItemResponse `json:"menu_items"`
}

type orderItemResponse struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	IsVeg    bool   `json:"is_veg"`
}

func toOrderResponse(o database.Order) orderResponse {
	resp := orderResponse{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		BusinessID:     o.BusinessID,
		ServiceType:    o.ServiceType,
		NumberOfPeople: o.NumberOfPeople,
		Status:         o.Status,
		CreatedAt:      o.CreatedAt,
	}
	if o.EventType.Valid {
		resp.EventType = &o.EventType.String
	}
	if o.FoodPreference.Valid {
		resp.FoodPreference = &o.FoodPreference.String
	}
	if o.Cuisine.Valid {
		resp.Cuisine = &o.Cuisine.String
	}
	if o.Venue.Valid {
		resp.Venue = &o.Venue.String
	}
	if o.Notes.Valid {
		resp.Notes = &o.Notes.String
	}
	if o.EstimatedTotal.Valid {
		if val, err := o.EstimatedTotal.Value(); err == nil && val != nil {
			s := val.(string)
			resp.EstimatedTotal = &s
		}
	}
	return resp
}

// --- Handlers ---

// Create accepts the accumulated order draft and submits it: dates are
// re-validated, menu notes parsed against the business catalog, and the order
// persisted with its sessions and items in one transaction.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	// Re-validate every day server-side; the first invalid day blocks the
	// whole submission. A day always carries at least one session, so an
	// empty sessions array is a malformed request, not an empty draft.
	for i, day := range req.Days {
		check := draft.CheckDate(day.Date)
		if check.State != draft.DateValid {
			msg := check.Message
			if msg == "" {
				msg = "Sorry, enter correct data"
			}
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": fmt.Sprintf("day %d: %s", i+1, msg),
			})
			return
		}
		if len(day.Sessions) == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": fmt.Sprintf("day %d: at least one session is required", i+1),
			})
			return
		}
	}

	// Pick the catalog: the business's configured menu when present,
	// filtered by the order's food preference.
	dishCatalog := catalog.Default()
	if req.BusinessID != "" {
		if businessID, err := uuid.Parse(req.BusinessID); err == nil {
			items, err := h.store.ListBusinessMenuItems(r.Context(), businessID)
			if err != nil {
				log.Printf("ERROR: list menu items: %v", err)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
				return
			}
			dishCatalog = catalog.ForBusiness(items, req.FoodPreference)
		}
	}

	// Rebuild the editor state from the request and finalize it into the
	// draft context the mapper consumes.
	editor := draft.NewEditor()
	for i, day := range req.Days {
		if i > 0 {
			editor.AddDay()
		}
		editor.SetDate(i, day.Date)
		for j, sess := range day.Sessions {
			if j > 0 {
				editor.AddSession(i)
			}
			editor.Days[i].Sessions[j] = draft.EditorSession{
				Name:           sess.Name,
				Time:           sess.Time,
				NumberOfPeople: sess.NumberOfPeople,
				ServingType:    sess.ServingType,
				MenuNotes:      sess.MenuNotes,
			}
		}
	}
	sessions, advisories := editor.Finalize(dishCatalog)

	orderDraft := draft.NewContext()
	orderDraft.SetEventType(req.EventType)
	orderDraft.SetFoodPreference(req.FoodPreference)
	orderDraft.SetCuisine(req.Cuisine)
	orderDraft.SetVenue(req.Venue)
	orderDraft.SetBusinessID(req.BusinessID)
	orderDraft.SetServiceType(req.ServiceType)
	if len(req.Days) > 0 {
		orderDraft.SetSessions(sessions)
	}

	// The token carries only the email; the account's full name lives in
	// the users table. Best effort: a missing name falls back to the email
	// local part downstream.
	var userName string
	if user, err := h.store.GetUserByID(r.Context(), claims.UserID); err == nil {
		userName = user.FullName
	} else {
		log.Printf("ERROR: load user for order submission: %v", err)
	}

	result, err := h.svc.SubmitOrder(r.Context(), service.SubmitOrderRequest{
		UserID:    claims.UserID,
		UserName:  userName,
		UserEmail: claims.Email,
		Notes:     req.Notes,
		Draft:     orderDraft,
	})
	if err != nil {
		if isSubmissionValidationError(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: submit order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	// The draft is consumed exactly once: reset only after confirmed
	// success so a failed submission can be retried as-is.
	orderDraft.Reset()

	writeJSON(w, http.StatusCreated, createOrderResponse{
		OrderID:        result.Order.ID,
		OrderNumber:    result.Order.OrderNumber,
		Status:         result.Order.Status,
		NumberOfPeople: result.Order.NumberOfPeople,
		Advisories:     advisories,
	})
}

func isSubmissionValidationError(err error) bool {
	return errors.Is(err, service.ErrNoServiceType) ||
		errors.Is(err, service.ErrNoBusiness) ||
		errors.Is(err, service.ErrNoSessions) ||
		errors.Is(err, service.ErrInvalidBusinessID) ||
		errors.Is(err, service.ErrBusinessNotFound) ||
		errors.Is(err, service.ErrNotVerified)
}

// List returns the caller's orders: a customer sees orders they placed, a
// business sees incoming orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

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

	var orders []database.Order
	var err error
	switch claims.Role {
	case enum.UserRoleBusiness:
		business, berr := h.store.GetBusinessByOwner(r.Context(), claims.UserID)
		if berr != nil {
			if errors.Is(berr, pgx.ErrNoRows) {
				writeJSON(w, http.StatusOK, []orderResponse{})
				return
			}
			log.Printf("ERROR: get own business: %v", berr)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		orders, err = h.store.ListOrdersByBusiness(r.Context(), database.ListOrdersByBusinessParams{
			BusinessID: business.ID,
			Limit:      int32(limit),
			Offset:     int32(offset),
		})
	default:
		orders, err = h.store.ListOrdersByCustomer(r.Context(), database.ListOrdersByCustomerParams{
			CreatedBy: claims.UserID,
			Limit:     int32(limit),
			Offset:    int32(offset),
		})
	}
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns one order with its sessions and items. Participants only.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	ok, err := h.store.IsOrderParticipant(r.Context(), database.IsOrderParticipantParams{
		OrderID: orderID,
		UserID:  claims.UserID,
	})
	if err != nil {
		log.Printf("ERROR: order access check: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := toOrderResponse(order)
	sessions, err := h.store.ListOrderSessions(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list order sessions: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	for _, s := range sessions {
		sr := orderSessionResponse{
			SessionName:    s.SessionName,
			Date:           s.SessionDate,
			NumberOfPeople: s.NumberOfPeople,
		}
		if s.SessionTime.Valid {
			sr.Time = &s.SessionTime.String
		}
		if s.ServingType.Valid {
			sr.ServingType = &s.ServingType.String
		}

		items, err := h.store.ListOrderSessionItems(r.Context(), s.ID)
		if err != nil {
			log.Printf("ERROR: list session items: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		sr.MenuItems = make([]orderItemResponse, len(items))
		for i, it := range items {
			sr.MenuItems[i] = orderItemResponse{Name: it.Name, Category: it.Category, IsVeg: it.IsVeg}
		}
		resp.Sessions = append(resp.Sessions, sr)
	}

	writeJSON(w, http.StatusOK, resp)
}

// UpdateStatus advances the order lifecycle. The business moves orders
// forward; the customer may only cancel while still PENDING.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	ok, err := h.store.IsOrderParticipant(r.Context(), database.IsOrderParticipantParams{
		OrderID: orderID,
		UserID:  claims.UserID,
	})
	if err != nil {
		log.Printf("ERROR: order access check: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if !validTransition(order.Status, req.Status, claims.Role) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": fmt.Sprintf("cannot move order from %s to %s", order.Status, req.Status),
		})
		return
	}

	updated, err := h.store.UpdateOrderStatus(r.Context(), database.UpdateOrderStatusParams{
		ID:     orderID,
		Status: req.Status,
	})
	if err != nil {
		log.Printf("ERROR: update order status: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(updated))
}

// validTransition encodes the status chain per role.
func validTransition(from, to, role string) bool {
	switch role {
	case enum.UserRoleCustomer:
		return from == enum.OrderStatusPending && to == enum.OrderStatusCancelled
	case enum.UserRoleBusiness:
		switch from {
		case enum.OrderStatusPending:
			return to == enum.OrderStatusAccepted || to == enum.OrderStatusRejected
		case enum.OrderStatusAccepted:
			return to == enum.OrderStatusInProgress || to == enum.OrderStatusCancelled
		case enum.OrderStatusInProgress:
			return to == enum.OrderStatusCompleted
		}
	}
	return false
}
