package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/arjunnair/tiffinbox-backend/api/responses"
	"github.com/arjunnair/tiffinbox-backend/api/validators"
	"github.com/arjunnair/tiffinbox-backend/internal/settlement"
	"github.com/arjunnair/tiffinbox-backend/pkg/logger"
)

type createIntentRequest struct {
	OrderID        string             `json:"orderId" validate:"required,uuid"`
	Amount         float64            `json:"amount" validate:"required,gt=0"`
	CategoryTotals map[string]float64 `json:"categoryTotals" validate:"required,min=1"`
}

type createTransfersRequest struct {
	PaymentIntentID string             `json:"paymentIntentId" validate:"required"`
	OrderID         string             `json:"orderId" validate:"required,uuid"`
	CategoryTotals  map[string]float64 `json:"categoryTotals" validate:"required,min=1"`
}

type createTransfersResponse struct {
	Success bool `json:"success"`
}

// PaymentCreateIntent runs settlement phase A and hands the client secret
// back for interactive confirmation.
func PaymentCreateIntent(svc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createIntentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateIntent(r.Context(), settlement.CreateIntentInput{
			OrderID:        uuid.MustParse(payload.OrderID),
			Amount:         payload.Amount,
			CategoryTotals: payload.CategoryTotals,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// PaymentCreateTransfers runs settlement phase B after the charge succeeded.
func PaymentCreateTransfers(svc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createTransfersRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err := svc.CreateTransfers(r.Context(), settlement.CreateTransfersInput{
			PaymentIntentID: payload.PaymentIntentID,
			OrderID:         uuid.MustParse(payload.OrderID),
			CategoryTotals:  payload.CategoryTotals,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, createTransfersResponse{Success: true})
	}
}
