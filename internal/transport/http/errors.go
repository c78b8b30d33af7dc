package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cimillas/charity-raffle/internal/domain"
)

const (
	codeMethodNotAllowed   = "method_not_allowed"
	codeNotFound           = "not_found"
	codeInvalidRequestBody = "invalid_request_body"
	codeValidationFailed   = "validation_failed"
	codeInvalidRequest     = "invalid_request"
	codeInvalidID          = "invalid_id"
	codeInvalidTicketCount = "invalid_ticket_count"
	codeParticipantMissing = "participant_required"
	codeInvalidRaffle      = "invalid_raffle"
	codeInvalidDonation    = "invalid_donation"
	codeInvalidSignature   = "invalid_signature"
	codeRaffleNotFound     = "raffle_not_found"
	codeEntryNotFound      = "entry_not_found"
	codeRaffleNotOpen      = "raffle_not_open"
	codeSoldOut            = "sold_out"
	codeIdempotency        = "idempotency_conflict"
	codeNoEligibleEntries  = "no_eligible_entries"
	codeInvalidWinner      = "invalid_winner"
	codePaymentUnavailable = "payment_unavailable"
	codeUnauthorized       = "unauthorized"
	codeInvalidCredentials = "invalid_credentials"
	codeAdminDisabled      = "admin_disabled"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorMapping struct {
	target error
	status int
	code   string
}

// Order matters: the first match wins.
var serviceErrors = []errorMapping{
	{domain.ErrInvalidTicketCount, http.StatusBadRequest, codeInvalidTicketCount},
	{domain.ErrParticipantRequired, http.StatusBadRequest, codeParticipantMissing},
	{domain.ErrInvalidID, http.StatusBadRequest, codeInvalidID},
	{domain.ErrTitleRequired, http.StatusBadRequest, codeInvalidRaffle},
	{domain.ErrInvalidTicketPrice, http.StatusBadRequest, codeInvalidRaffle},
	{domain.ErrInvalidMaxTickets, http.StatusBadRequest, codeInvalidRaffle},
	{domain.ErrInvalidSaleWindow, http.StatusBadRequest, codeInvalidRaffle},
	{domain.ErrInvalidDonation, http.StatusBadRequest, codeInvalidDonation},
	{domain.ErrInvalidSignature, http.StatusBadRequest, codeInvalidSignature},
	{domain.ErrInvalidRequest, http.StatusBadRequest, codeInvalidRequest},
	{domain.ErrRaffleNotFound, http.StatusNotFound, codeRaffleNotFound},
	{domain.ErrEntryNotFound, http.StatusNotFound, codeEntryNotFound},
	{domain.ErrRaffleNotOpen, http.StatusConflict, codeRaffleNotOpen},
	{domain.ErrSoldOut, http.StatusConflict, codeSoldOut},
	{domain.ErrIdempotencyConflict, http.StatusConflict, codeIdempotency},
	{domain.ErrNoEligibleEntries, http.StatusConflict, codeNoEligibleEntries},
	{domain.ErrInvalidWinner, http.StatusUnprocessableEntity, codeInvalidWinner},
	{domain.ErrPaymentCollaborator, http.StatusBadGateway, codePaymentUnavailable},
}

// writeServiceError maps a service error onto the response taxonomy. The body
// carries the sentinel's message, never the wrapped detail.
func writeServiceError(w http.ResponseWriter, err error) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.target) {
			writeError(w, m.status, m.code, m.target.Error())
			return
		}
	}
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
