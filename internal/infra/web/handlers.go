package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"gym-membership-platform/internal/domain"
	"gym-membership-platform/internal/domain/model"
	gw "gym-membership-platform/internal/infra/payment"
)

// httpStatus maps the error taxonomy onto response codes. Unexpected errors
// fall through to 500; the core never swallows them.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyCompleted),
		errors.Is(err, domain.ErrActiveMembershipExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrPaymentMethodNotConfigured),
		errors.Is(err, domain.ErrUnknownItemType):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrGatewayRequestFailed):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrLockNotAcquired):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := httpStatus(err)
	if code == http.StatusInternalServerError {
		s.log.Error().Err(err).Msg("request failed")
		http.Error(w, "internal error", code)
		return
	}
	http.Error(w, err.Error(), code)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type createCashPaymentRequest struct {
	ItemID     string  `json:"item_id"`
	ItemType   string  `json:"item_type"`
	PaymentBy  string  `json:"payment_by"`
	ReceivedBy *string `json:"received_by"`
	Notes      string  `json:"notes"`
	GymID      string  `json:"gym_id"`
}

func (s *Server) handleCreateCashPayment(w http.ResponseWriter, r *http.Request) {
	var req createCashPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	p, err := s.paymentUC.CreateCashPayment(r.Context(), req.ItemID, model.ItemType(req.ItemType), req.PaymentBy, req.ReceivedBy, req.Notes, req.GymID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

type confirmCashPaymentRequest struct {
	ReceivedBy string `json:"received_by"`
}

func (s *Server) handleConfirmCashPayment(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentID")
	var req confirmCashPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	p, err := s.paymentUC.ConfirmCashPayment(r.Context(), paymentID, req.ReceivedBy)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type createGatewayLinkRequest struct {
	ItemID    string `json:"item_id"`
	ItemType  string `json:"item_type"`
	PaymentBy string `json:"payment_by"`
}

func (s *Server) handleCreateGatewayLink(w http.ResponseWriter, r *http.Request) {
	var req createGatewayLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	link, err := s.paymentUC.CreateGatewayPaymentLink(r.Context(), req.ItemID, model.ItemType(req.ItemType), req.PaymentBy)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"payment_id":  link.PaymentID,
		"payment_url": link.PaymentURL,
	})
}

func (s *Server) handleGatewayCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid callback payload", http.StatusBadRequest)
		return
	}
	cb := gw.ParseCallback(r.Form)
	result, err := s.paymentUC.VerifyGatewayPayment(r.Context(), cb)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyCompleted) && result != nil {
			// Replayed callback: report the terminal state, nothing changed.
			writeJSON(w, http.StatusOK, map[string]any{
				"status":   result.Status,
				"amount":   result.Amount,
				"currency": result.Currency,
				"replayed": true,
			})
			return
		}
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         result.Status,
		"amount":         result.Amount,
		"currency":       result.Currency,
		"failure_reason": result.FailureReason,
	})
}

type createGymRequest struct {
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

// handleCreateGym provisions a tenant and rescans the sweep schedules so the
// new gym's expiration job is registered immediately.
func (s *Server) handleCreateGym(w http.ResponseWriter, r *http.Request) {
	var req createGymRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	g, err := model.NewGym(uuid.NewString(), req.Name, req.Timezone)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.gyms.Save(r.Context(), nil, g); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.scheduler.Resync(r.Context()); err != nil {
		s.log.Error().Err(err).Msg("failed to resync tenant schedules")
	}
	writeJSON(w, http.StatusCreated, g)
}
