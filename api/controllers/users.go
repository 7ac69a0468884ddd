package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/arjunnair/tiffinbox-backend/api/responses"
	"github.com/arjunnair/tiffinbox-backend/api/validators"
	"github.com/arjunnair/tiffinbox-backend/internal/users"
	"github.com/arjunnair/tiffinbox-backend/pkg/logger"
)

type linkPhoneRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	UserID      string `json:"userId" validate:"required,uuid"`
}

type linkPhoneResponse struct {
	Success bool `json:"success"`
}

// UsersLinkPhone attaches a verified phone number to the user record.
func UsersLinkPhone(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload linkPhoneRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := svc.LinkPhone(r.Context(), uuid.MustParse(payload.UserID), payload.PhoneNumber); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, linkPhoneResponse{Success: true})
	}
}
