package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/caterlink/api/internal/database"
	"github.com/caterlink/api/internal/middleware"
	"github.com/caterlink/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ChatStore defines the database methods needed by chat handlers.
// Satisfied by *database.Queries.
type ChatStore interface {
	CreateChatMessage(ctx context.Context, arg database.CreateChatMessageParams) (database.ChatMessage, error)
	ListChatMessagesByOrder(ctx context.Context, orderID uuid.UUID) ([]database.ChatMessage, error)
	MarkChatMessagesRead(ctx context.Context, arg database.MarkChatMessagesReadParams) error
	IsOrderParticipant(ctx context.Context, arg database.IsOrderParticipantParams) (bool, error)
}

// Broadcaster pushes an event to every socket attached to an order's room.
// Satisfied by *ws.Hub.
type Broadcaster interface {
	BroadcastToOrder(orderID uuid.UUID, event ws.Event)
}

// ChatHandler handles the per-order chat endpoints. Messages are sent over
// plain HTTP; the websocket delivers them to the other side.
type ChatHandler struct {
	store ChatStore
	hub   Broadcaster
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(store ChatStore, hub Broadcaster) *ChatHandler {
	return &ChatHandler{store: store, hub: hub}
}

// RegisterRoutes registers chat endpoints on the given Chi router. Mounted
// under /orders/{id}.
func (h *ChatHandler) RegisterRoutes(r chi.Router) {
	r.Get("/{id}/messages", h.ListMessages)
	r.Post("/{id}/messages", h.SendMessage)
}

type sendMessageRequest struct {
	Message string `json:"message"`
}

type chatMessageResponse struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"order_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func toChatMessageResponse(m database.ChatMessage) chatMessageResponse {
	return chatMessageResponse{
		ID:        m.ID,
		OrderID:   m.OrderID,
		SenderID:  m.SenderID,
		Message:   m.Message,
		IsRead:    m.IsRead,
		CreatedAt: m.CreatedAt,
	}
}

// ListMessages returns the order's conversation oldest first and marks the
// other party's messages as read.
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	orderID, ok := h.authorizeOrder(w, r, claims.UserID)
	if !ok {
		return
	}

	messages, err := h.store.ListChatMessagesByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list chat messages: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if err := h.store.MarkChatMessagesRead(r.Context(), database.MarkChatMessagesReadParams{
		OrderID:  orderID,
		ReaderID: claims.UserID,
	}); err != nil {
		// Read receipts are best effort; the conversation still loads.
		log.Printf("ERROR: mark messages read: %v", err)
	}

	resp := make([]chatMessageResponse, len(messages))
	for i, m := range messages {
		resp[i] = toChatMessageResponse(m)
	}
	writeJSON(w, http.StatusOK, resp)
}

// SendMessage persists a chat message and pushes it to the order's room.
// Blank messages are rejected after trimming.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	orderID, ok := h.authorizeOrder(w, r, claims.UserID)
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	text := strings.TrimSpace(req.Message)
	if text == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message is required"})
		return
	}

	msg, err := h.store.CreateChatMessage(r.Context(), database.CreateChatMessageParams{
		OrderID:  orderID,
		SenderID: claims.UserID,
		Message:  text,
	})
	if err != nil {
		log.Printf("ERROR: create chat message: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	payload, err := json.Marshal(toChatMessageResponse(msg))
	if err != nil {
		log.Printf("ERROR: marshal chat event: %v", err)
	} else {
		h.hub.BroadcastToOrder(orderID, ws.Event{Type: "chat.message", Payload: payload})
	}

	writeJSON(w, http.StatusCreated, toChatMessageResponse(msg))
}

// authorizeOrder parses the order ID from the URL and checks the caller is a
// participant. Writes the error response itself when authorization fails.
func (h *ChatHandler) authorizeOrder(w http.ResponseWriter, r *http.Request, userID uuid.UUID) (uuid.UUID, bool) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return uuid.Nil, false
	}

	ok, err := h.store.IsOrderParticipant(r.Context(), database.IsOrderParticipantParams{
		OrderID: orderID,
		UserID:  userID,
	})
	if err != nil {
		log.Printf("ERROR: order access check: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return uuid.Nil, false
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return uuid.Nil, false
	}
	return orderID, true
}
