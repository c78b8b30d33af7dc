package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/cimillas/charity-raffle/internal/app"
	"github.com/cimillas/charity-raffle/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// RaffleLister is the minimal interface needed for the public catalog.
type RaffleLister interface {
	ListOpenRaffles(ctx context.Context) ([]app.OpenRaffle, error)
}

// EntryCreator is the minimal interface needed to start a ticket checkout.
type EntryCreator interface {
	CreateEntry(ctx context.Context, in app.CreateEntryInput) (app.CheckoutResult, error)
}

type raffleResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	TicketPrice int64     `json:"ticket_price"`
	MaxTickets  *int      `json:"max_tickets"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	IsActive    bool      `json:"is_active"`
	WinnerID    *string   `json:"winner_id"`
	EventID     *string   `json:"event_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toRaffleResponse(r domain.Raffle) raffleResponse {
	return raffleResponse{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		TicketPrice: r.TicketPrice,
		MaxTickets:  r.MaxTickets,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		IsActive:    r.IsActive,
		WinnerID:    r.WinnerID,
		EventID:     r.EventID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type openRaffleResponse struct {
	raffleResponse
	Phase            string `json:"phase"`
	TicketsSold      int    `json:"tickets_sold"`
	TicketsRemaining *int   `json:"tickets_remaining"`
}

// HandleListRaffles serves GET /raffles.
func HandleListRaffles(svc RaffleLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raffles, err := svc.ListOpenRaffles(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		resp := make([]openRaffleResponse, 0, len(raffles))
		for _, item := range raffles {
			resp = append(resp, openRaffleResponse{
				raffleResponse:   toRaffleResponse(item.Raffle),
				Phase:            string(item.Phase),
				TicketsSold:      item.TicketsSold,
				TicketsRemaining: item.TicketsRemaining,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// idempotencyHeader lets a client resubmit a checkout and get the first one back.
const idempotencyHeader = "Idempotency-Key"

const maxIdempotencyKeyLen = 200

type checkoutRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Email       string `json:"email" validate:"required,email,max=254"`
	Phone       string `json:"phone" validate:"omitempty,max=50"`
	TicketCount int    `json:"ticket_count" validate:"required,min=1,max=1000"`
}

type checkoutResponse struct {
	EntryID     string `json:"entry_id"`
	Status      string `json:"status"`
	TicketCount int    `json:"ticket_count"`
	TotalAmount int64  `json:"total_amount"`
	URL         string `json:"url"`
}

// HandleCreateCheckout serves POST /raffles/{id}/checkout.
func HandleCreateCheckout(svc EntryCreator, v *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
		if len(key) > maxIdempotencyKeyLen {
			writeError(w, http.StatusBadRequest, codeValidationFailed, idempotencyHeader+" is too long")
			return
		}

		var req checkoutRequest
		if !decodeAndValidate(w, r, v, &req) {
			return
		}

		res, err := svc.CreateEntry(r.Context(), app.CreateEntryInput{
			RaffleID: mux.Vars(r)["id"],
			Participant: domain.Participant{
				Name:  req.Name,
				Email: req.Email,
				Phone: req.Phone,
			},
			TicketCount:    req.TicketCount,
			IdempotencyKey: key,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		status := http.StatusCreated
		if res.Replayed {
			status = http.StatusOK
		}
		writeJSON(w, status, checkoutResponse{
			EntryID:     res.Entry.ID,
			Status:      string(res.Entry.Status),
			TicketCount: res.Entry.TicketCount,
			TotalAmount: res.TotalAmount,
			URL:         res.RedirectURL,
		})
	}
}
