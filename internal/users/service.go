package users

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	pkgdb "github.com/arjunnair/tiffinbox-backend/pkg/db"
	"github.com/arjunnair/tiffinbox-backend/pkg/db/models"
	pkgerrors "github.com/arjunnair/tiffinbox-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var phoneRe = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// Service owns user profile mutations tied to phone verification.
type Service interface {
	LinkPhone(ctx context.Context, userID uuid.UUID, phone string) (*models.User, error)
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	TouchLogin(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo Repository
}

// NewService builds the users service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo}, nil
}

// LinkPhone attaches a verified phone number to the user record.
func (s *service) LinkPhone(ctx context.Context, userID uuid.UUID, phone string) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	compact := strings.ReplaceAll(strings.TrimSpace(phone), " ", "")
	if compact == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone number is required")
	}
	if !phoneRe.MatchString(compact) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone number is malformed")
	}

	if _, err := s.repo.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	updates := map[string]any{
		"phone":          compact,
		"phone_verified": true,
	}
	if err := s.repo.Update(ctx, userID, updates); err != nil {
		if pkgdb.IsUniqueViolation(err, "idx_users_phone") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "phone number is already linked to another account")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "link phone")
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload user")
	}
	return user, nil
}

func (s *service) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	compact := strings.ReplaceAll(strings.TrimSpace(phone), " ", "")
	if compact == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone number is required")
	}
	user, err := s.repo.FindByPhone(ctx, compact)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user by phone")
	}
	return user, nil
}

// TouchLogin records the most recent successful verification.
func (s *service) TouchLogin(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	now := time.Now().UTC()
	if err := s.repo.Update(ctx, userID, map[string]any{"last_login_at": now}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record login")
	}
	return nil
}
