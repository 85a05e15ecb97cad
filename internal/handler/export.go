package handler

import (
	"embed"
	"errors"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/caterlink/api/internal/database"
	"github.com/caterlink/api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

//go:embed templates/menu.html
var menuTemplates embed.FS

var menuTmpl = template.Must(template.ParseFS(menuTemplates, "templates/menu.html"))

type menuPage struct {
	OrderNumber string
	EventType   string
	Venue       string
	GeneratedAt string
	Sessions    []menuPageSession
}

type menuPageSession struct {
	Name           string
	Date           string
	Time           string
	NumberOfPeople int32
	ServingType    string
	Categories     []menuPageCategory
}

type menuPageCategory struct {
	Name  string
	Items []menuPageItem
}

type menuPageItem struct {
	Name  string
	IsVeg bool
}

// ExportMenu renders the order's menu as a printable HTML page, sessions in
// order with dishes grouped by category. Participants only.
func (h *OrderHandler) ExportMenu(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid order ID", http.StatusBadRequest)
		return
	}

	ok, err := h.store.IsOrderParticipant(r.Context(), database.IsOrderParticipantParams{
		OrderID: orderID,
		UserID:  claims.UserID,
	})
	if err != nil {
		log.Printf("ERROR: order access check: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, "order not found", http.StatusNotFound)
			return
		}
		log.Printf("ERROR: get order: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	page := menuPage{
		OrderNumber: order.OrderNumber,
		GeneratedAt: time.Now().Format("2 January 2006"),
	}
	if order.EventType.Valid {
		page.EventType = order.EventType.String
	}
	if order.Venue.Valid {
		page.Venue = order.Venue.String
	}

	sessions, err := h.store.ListOrderSessions(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list order sessions: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	for _, s := range sessions {
		ps := menuPageSession{
			Name:           s.SessionName,
			Date:           s.SessionDate,
			NumberOfPeople: s.NumberOfPeople,
		}
		if s.SessionTime.Valid {
			ps.Time = s.SessionTime.String
		}
		if s.ServingType.Valid {
			ps.ServingType = s.ServingType.String
		}

		items, err := h.store.ListOrderSessionItems(r.Context(), s.ID)
		if err != nil {
			log.Printf("ERROR: list session items: %v", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		// Group by category, first appearance wins the ordering.
		index := make(map[string]int)
		for _, it := range items {
			i, seen := index[it.Category]
			if !seen {
				i = len(ps.Categories)
				index[it.Category] = i
				ps.Categories = append(ps.Categories, menuPageCategory{Name: it.Category})
			}
			ps.Categories[i].Items = append(ps.Categories[i].Items, menuPageItem{Name: it.Name, IsVeg: it.IsVeg})
		}
		page.Sessions = append(page.Sessions, ps)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := menuTmpl.Execute(w, page); err != nil {
		log.Printf("ERROR: render menu: %v", err)
	}
}
