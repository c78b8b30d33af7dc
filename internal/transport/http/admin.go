package http

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/cimillas/charity-raffle/internal/app"
	"github.com/cimillas/charity-raffle/internal/domain"
	"github.com/cimillas/charity-raffle/internal/draw"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// AdminRaffleService is the minimal interface needed for back-office raffle endpoints.
type AdminRaffleService interface {
	CreateRaffle(ctx context.Context, in app.CreateRaffleInput) (domain.Raffle, error)
	UpdateRaffle(ctx context.Context, in app.UpdateRaffleInput) (domain.Raffle, error)
	DeleteRaffle(ctx context.Context, raffleID string) error
	ListRaffles(ctx context.Context) ([]domain.RaffleStats, error)
	GetRaffle(ctx context.Context, raffleID string) (app.RaffleDetail, error)
	ExportEntries(ctx context.Context, raffleID string, w io.Writer) error
}

// WinnerService is the minimal interface needed for draw endpoints.
type WinnerService interface {
	DrawWinner(ctx context.Context, raffleID string) (app.DrawResult, error)
	SetWinner(ctx context.Context, raffleID, entryID string) (domain.Raffle, error)
	ClearWinner(ctx context.Context, raffleID string) (domain.Raffle, error)
}

type entryResponse struct {
	ID            string     `json:"id"`
	RaffleID      string     `json:"raffle_id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone,omitempty"`
	TicketCount   int        `json:"ticket_count"`
	PaymentStatus string     `json:"payment_status"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at"`
}

func toEntryResponse(e domain.Entry) entryResponse {
	return entryResponse{
		ID:            e.ID,
		RaffleID:      e.RaffleID,
		Name:          e.Participant.Name,
		Email:         e.Participant.Email,
		Phone:         e.Participant.Phone,
		TicketCount:   e.TicketCount,
		PaymentStatus: string(e.Status),
		CreatedAt:     e.CreatedAt,
		CompletedAt:   e.CompletedAt,
	}
}

type raffleStatsResponse struct {
	raffleResponse
	EntryCount     int `json:"entry_count"`
	CompletedCount int `json:"completed_count"`
	TicketsSold    int `json:"tickets_sold"`
}

type raffleDetailResponse struct {
	raffleResponse
	TicketsSold int             `json:"tickets_sold"`
	Entries     []entryResponse `json:"entries"`
}

type createRaffleRequest struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=5000"`
	TicketPrice int64     `json:"ticket_price" validate:"min=0"`
	MaxTickets  *int      `json:"max_tickets" validate:"omitempty,min=1"`
	StartDate   time.Time `json:"start_date" validate:"required"`
	EndDate     time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
	IsActive    *bool     `json:"is_active"`
	EventID     *string   `json:"event_id"`
}

type updateRaffleRequest struct {
	Title           *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description     *string    `json:"description" validate:"omitempty,max=5000"`
	TicketPrice     *int64     `json:"ticket_price" validate:"omitempty,min=1"`
	MaxTickets      *int       `json:"max_tickets" validate:"omitempty,min=1"`
	ClearMaxTickets bool       `json:"clear_max_tickets"`
	StartDate       *time.Time `json:"start_date"`
	EndDate         *time.Time `json:"end_date"`
	IsActive        *bool      `json:"is_active"`
	EventID         *string    `json:"event_id"`
}

// HandleAdminListRaffles serves GET /admin/raffles.
func HandleAdminListRaffles(svc AdminRaffleService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.ListRaffles(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		resp := make([]raffleStatsResponse, 0, len(stats))
		for _, st := range stats {
			resp = append(resp, raffleStatsResponse{
				raffleResponse: toRaffleResponse(st.Raffle),
				EntryCount:     st.EntryCount,
				CompletedCount: st.CompletedCount,
				TicketsSold:    st.TicketsSold,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleAdminCreateRaffle serves POST /admin/raffles.
func HandleAdminCreateRaffle(svc AdminRaffleService, v *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRaffleRequest
		if !decodeAndValidate(w, r, v, &req) {
			return
		}
		raffle, err := svc.CreateRaffle(r.Context(), app.CreateRaffleInput{
			Title:       req.Title,
			Description: req.Description,
			TicketPrice: req.TicketPrice,
			MaxTickets:  req.MaxTickets,
			StartDate:   req.StartDate,
			EndDate:     req.EndDate,
			IsActive:    req.IsActive,
			EventID:     req.EventID,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toRaffleResponse(raffle))
	}
}

// HandleAdminGetRaffle serves GET /admin/raffles/{id}.
func HandleAdminGetRaffle(svc AdminRaffleService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		detail, err := svc.GetRaffle(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			writeServiceError(w, err)
			return
		}
		entries := make([]entryResponse, 0, len(detail.Entries))
		for _, e := range detail.Entries {
			entries = append(entries, toEntryResponse(e))
		}
		writeJSON(w, http.StatusOK, raffleDetailResponse{
			raffleResponse: toRaffleResponse(detail.Raffle),
			TicketsSold:    detail.TicketsSold,
			Entries:        entries,
		})
	}
}

// HandleAdminUpdateRaffle serves PATCH /admin/raffles/{id}.
func HandleAdminUpdateRaffle(svc AdminRaffleService, v *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateRaffleRequest
		if !decodeAndValidate(w, r, v, &req) {
			return
		}
		raffle, err := svc.UpdateRaffle(r.Context(), app.UpdateRaffleInput{
			ID:              mux.Vars(r)["id"],
			Title:           req.Title,
			Description:     req.Description,
			TicketPrice:     req.TicketPrice,
			MaxTickets:      req.MaxTickets,
			ClearMaxTickets: req.ClearMaxTickets,
			StartDate:       req.StartDate,
			EndDate:         req.EndDate,
			IsActive:        req.IsActive,
			EventID:         req.EventID,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRaffleResponse(raffle))
	}
}

// HandleAdminDeleteRaffle serves DELETE /admin/raffles/{id}.
func HandleAdminDeleteRaffle(svc AdminRaffleService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteRaffle(r.Context(), mux.Vars(r)["id"]); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleAdminExportEntries serves GET /admin/raffles/{id}/entries.csv.
func HandleAdminExportEntries(svc AdminRaffleService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		var buf bytes.Buffer
		if err := svc.ExportEntries(r.Context(), id, &buf); err != nil {
			writeServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="raffle-`+id+`-entries.csv"`)
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)
	}
}

type drawEntryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	TicketCount int    `json:"ticket_count"`
}

type drawResponse struct {
	RaffleID string              `json:"raffle_id"`
	Ticket   int                 `json:"ticket"`
	Total    int                 `json:"total"`
	Winner   entryResponse       `json:"winner"`
	Entries  []drawEntryResponse `json:"entries"`
	Wheel    draw.Wheel          `json:"wheel"`
}

// HandleAdminDraw serves POST /admin/raffles/{id}/draw. The result is a
// proposal; nothing is stored until the winner is PUT.
func HandleAdminDraw(svc WinnerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.DrawWinner(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			writeServiceError(w, err)
			return
		}
		entries := make([]drawEntryResponse, 0, len(res.Entries))
		for _, e := range res.Entries {
			entries = append(entries, drawEntryResponse{ID: e.ID, Name: e.Participant.Name, TicketCount: e.TicketCount})
		}
		writeJSON(w, http.StatusOK, drawResponse{
			RaffleID: res.Raffle.ID,
			Ticket:   res.Ticket,
			Total:    res.Total,
			Winner:   toEntryResponse(res.Winner),
			Entries:  entries,
			Wheel:    res.Wheel,
		})
	}
}

type setWinnerRequest struct {
	EntryID string `json:"entry_id" validate:"required"`
}

// HandleAdminSetWinner serves PUT /admin/raffles/{id}/winner.
func HandleAdminSetWinner(svc WinnerService, v *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req setWinnerRequest
		if !decodeAndValidate(w, r, v, &req) {
			return
		}
		raffle, err := svc.SetWinner(r.Context(), mux.Vars(r)["id"], req.EntryID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRaffleResponse(raffle))
	}
}

// HandleAdminClearWinner serves DELETE /admin/raffles/{id}/winner.
func HandleAdminClearWinner(svc WinnerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raffle, err := svc.ClearWinner(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRaffleResponse(raffle))
	}
}
