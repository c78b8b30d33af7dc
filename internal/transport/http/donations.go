package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/cimillas/charity-raffle/internal/app"
	"github.com/cimillas/charity-raffle/internal/domain"
	"github.com/go-playground/validator/v10"
)

type DonationService interface {
	CreateCheckout(ctx context.Context, in app.CreateDonationInput) (string, error)
	ListDonations(ctx context.Context, limit int) ([]domain.Donation, error)
}

type donationCheckoutRequest struct {
	Amount int64  `json:"amount" validate:"required,min=100"`
	Email  string `json:"email" validate:"omitempty,email"`
}

type urlResponse struct {
	URL string `json:"url"`
}

// HandleDonationCheckout serves POST /donations/checkout.
func HandleDonationCheckout(svc DonationService, v *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req donationCheckoutRequest
		if !decodeAndValidate(w, r, v, &req) {
			return
		}
		url, err := svc.CreateCheckout(r.Context(), app.CreateDonationInput{Amount: req.Amount, Email: req.Email})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, urlResponse{URL: url})
	}
}

type donationResponse struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Amount     int64     `json:"amount"`
	Currency   string    `json:"currency"`
	DonorEmail string    `json:"donor_email"`
	DonorName  string    `json:"donor_name"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// HandleListDonations serves GET /admin/donations?limit=N.
func HandleListDonations(svc DonationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, codeInvalidRequest, "limit must be a non-negative integer")
				return
			}
			limit = n
		}

		donations, err := svc.ListDonations(r.Context(), limit)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		resp := make([]donationResponse, 0, len(donations))
		for _, d := range donations {
			resp = append(resp, donationResponse{
				ID:         d.ID,
				SessionID:  d.SessionID,
				Amount:     d.Amount,
				Currency:   d.Currency,
				DonorEmail: d.DonorEmail,
				DonorName:  d.DonorName,
				Status:     d.Status,
				CreatedAt:  d.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
