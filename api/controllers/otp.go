package controllers

import (
	"context"
	"net/http"

	"github.com/arjunnair/tiffinbox-backend/api/responses"
	"github.com/arjunnair/tiffinbox-backend/api/validators"
	"github.com/arjunnair/tiffinbox-backend/internal/otp"
	"github.com/arjunnair/tiffinbox-backend/internal/users"
	pkgerrors "github.com/arjunnair/tiffinbox-backend/pkg/errors"
	"github.com/arjunnair/tiffinbox-backend/pkg/logger"
)

type otpSendRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required"`
}

type otpVerifyRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	OTP         string `json:"otp" validate:"required"`
}

type otpStatusResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

// OTPSend triggers a verification code to the given phone number.
func OTPSend(svc otp.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload otpSendRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := svc.Send(r.Context(), payload.PhoneNumber)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, otpStatusResponse{Success: true, Status: status})
	}
}

// OTPVerify checks a code. Success reports the provider's verdict; a wrong
// code is a successful check with approved=false, not an error. An approved
// check stamps the login timestamp on the account linked to the number.
func OTPVerify(svc otp.Service, usersSvc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload otpVerifyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		approved, status, err := svc.Verify(r.Context(), payload.PhoneNumber, payload.OTP)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if approved && usersSvc != nil {
			recordVerifiedLogin(r.Context(), usersSvc, payload.PhoneNumber, logg)
		}

		responses.WriteSuccess(w, otpStatusResponse{Success: approved, Status: status})
	}
}

// recordVerifiedLogin is best-effort: numbers verify before they are linked to
// an account, so a missing user is expected and other failures must not turn a
// successful check into an error.
func recordVerifiedLogin(ctx context.Context, usersSvc users.Service, phone string, logg *logger.Logger) {
	user, err := usersSvc.FindByPhone(ctx, phone)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return
		}
		if logg != nil {
			logg.Warn(ctx, "lookup by verified phone failed")
		}
		return
	}
	if user == nil {
		return
	}
	if err := usersSvc.TouchLogin(ctx, user.ID); err != nil && logg != nil {
		logg.Warn(ctx, "recording login timestamp failed")
	}
}
