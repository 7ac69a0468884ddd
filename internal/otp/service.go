package otp

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	pkgerrors "github.com/arjunnair/tiffinbox-backend/pkg/errors"
	"github.com/arjunnair/tiffinbox-backend/pkg/logger"
)

var phoneRe = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// Service sends and checks one-time codes through the configured provider.
type Service interface {
	Send(ctx context.Context, phone string) (string, error)
	Verify(ctx context.Context, phone, code string) (bool, string, error)
}

type service struct {
	provider Provider
	logg     *logger.Logger
}

// NewService builds the OTP service.
func NewService(provider Provider, logg *logger.Logger) (Service, error) {
	if provider == nil {
		return nil, fmt.Errorf("otp provider required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{provider: provider, logg: logg}, nil
}

func (s *service) Send(ctx context.Context, phone string) (string, error) {
	normalized, err := normalizePhone(phone)
	if err != nil {
		return "", err
	}

	status, err := s.provider.SendCode(ctx, normalized)
	if err != nil {
		s.logg.Error(ctx, "otp send failed", err)
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send verification code")
	}
	return status, nil
}

func (s *service) Verify(ctx context.Context, phone, code string) (bool, string, error) {
	normalized, err := normalizePhone(phone)
	if err != nil {
		return false, "", err
	}
	if strings.TrimSpace(code) == "" {
		return false, "", pkgerrors.New(pkgerrors.CodeValidation, "otp code is required")
	}

	approved, status, err := s.provider.CheckCode(ctx, normalized, code)
	if err != nil {
		s.logg.Error(ctx, "otp check failed", err)
		return false, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check verification code")
	}
	return approved, status, nil
}

func normalizePhone(phone string) (string, error) {
	trimmed := strings.TrimSpace(phone)
	if trimmed == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "phone number is required")
	}
	compact := strings.ReplaceAll(trimmed, " ", "")
	if !phoneRe.MatchString(compact) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "phone number is malformed")
	}
	return compact, nil
}
