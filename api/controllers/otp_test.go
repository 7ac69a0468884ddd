package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/arjunnair/tiffinbox-backend/internal/otp"
	"github.com/arjunnair/tiffinbox-backend/pkg/db/models"
	pkgerrors "github.com/arjunnair/tiffinbox-backend/pkg/errors"
)

type stubOTPService struct {
	sendStatus  string
	sendErr     error
	approved    bool
	checkStatus string
	checkErr    error

	sentPhone     string
	verifiedPhone string
	code          string
}

func (s *stubOTPService) Send(ctx context.Context, phone string) (string, error) {
	s.sentPhone = phone
	return s.sendStatus, s.sendErr
}

func (s *stubOTPService) Verify(ctx context.Context, phone, code string) (bool, string, error) {
	s.verifiedPhone = phone
	s.code = code
	return s.approved, s.checkStatus, s.checkErr
}

type stubUsersService struct {
	user    *models.User
	err     error
	findErr error

	linkedUser  uuid.UUID
	linkedPhone string
	foundPhone  string
	touchedID   uuid.UUID
}

func (s *stubUsersService) LinkPhone(ctx context.Context, userID uuid.UUID, phone string) (*models.User, error) {
	s.linkedUser = userID
	s.linkedPhone = phone
	return s.user, s.err
}

func (s *stubUsersService) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	s.foundPhone = phone
	return s.user, s.findErr
}

func (s *stubUsersService) TouchLogin(ctx context.Context, userID uuid.UUID) error {
	s.touchedID = userID
	return nil
}

func TestOTPSendSuccess(t *testing.T) {
	svc := &stubOTPService{sendStatus: "pending"}
	handler := OTPSend(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/otp/send", strings.NewReader(`{"phoneNumber":"+919876543210"}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope otpStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Success || envelope.Status != "pending" {
		t.Fatalf("unexpected envelope: %+v", envelope)
	}
	if svc.sentPhone != "+919876543210" {
		t.Fatalf("unexpected phone forwarded: %s", svc.sentPhone)
	}
}

func TestOTPSendProviderFailure(t *testing.T) {
	svc := &stubOTPService{sendErr: pkgerrors.New(pkgerrors.CodeDependency, "send verification code")}
	handler := OTPSend(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/otp/send", strings.NewReader(`{"phoneNumber":"+919876543210"}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}

func TestOTPVerifyApproved(t *testing.T) {
	svc := &stubOTPService{approved: true, checkStatus: otp.StatusApproved}
	handler := OTPVerify(svc, &stubUsersService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/otp/verify", strings.NewReader(`{"phoneNumber":"+919876543210","otp":"123456"}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope otpStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Success || envelope.Status != otp.StatusApproved {
		t.Fatalf("unexpected envelope: %+v", envelope)
	}
	if svc.code != "123456" {
		t.Fatalf("unexpected code forwarded: %s", svc.code)
	}
}

func TestOTPVerifyWrongCodeIsNotAnError(t *testing.T) {
	svc := &stubOTPService{approved: false, checkStatus: "pending"}
	users := &stubUsersService{user: &models.User{ID: uuid.New()}}
	handler := OTPVerify(svc, users, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/otp/verify", strings.NewReader(`{"phoneNumber":"+919876543210","otp":"000000"}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope otpStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Success {
		t.Fatal("expected success=false for unapproved code")
	}
	if envelope.Status != "pending" {
		t.Fatalf("unexpected status: %s", envelope.Status)
	}
	if users.touchedID != uuid.Nil {
		t.Fatal("unapproved check must not record a login")
	}
}

func TestOTPVerifyApprovedRecordsLogin(t *testing.T) {
	userID := uuid.New()
	svc := &stubOTPService{approved: true, checkStatus: otp.StatusApproved}
	users := &stubUsersService{user: &models.User{ID: userID}}
	handler := OTPVerify(svc, users, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/otp/verify", strings.NewReader(`{"phoneNumber":"+919876543210","otp":"123456"}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if users.foundPhone != "+919876543210" {
		t.Fatalf("unexpected phone looked up: %s", users.foundPhone)
	}
	if users.touchedID != userID {
		t.Fatalf("expected login recorded for %s, got %s", userID, users.touchedID)
	}
}

func TestOTPVerifyApprovedForUnlinkedPhone(t *testing.T) {
	svc := &stubOTPService{approved: true, checkStatus: otp.StatusApproved}
	users := &stubUsersService{findErr: pkgerrors.New(pkgerrors.CodeNotFound, "user not found")}
	handler := OTPVerify(svc, users, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/otp/verify", strings.NewReader(`{"phoneNumber":"+919876543210","otp":"123456"}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope otpStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Success {
		t.Fatal("verification must succeed for numbers without an account")
	}
	if users.touchedID != uuid.Nil {
		t.Fatal("no login should be recorded without an account")
	}
}

func TestUsersLinkPhoneSuccess(t *testing.T) {
	userID := uuid.New()
	svc := &stubUsersService{user: &models.User{ID: userID}}
	handler := UsersLinkPhone(svc, nil)

	body := `{"phoneNumber":"+919876543210","userId":"` + userID.String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/link-phone", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope linkPhoneResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Success {
		t.Fatal("expected success flag")
	}
	if svc.linkedUser != userID {
		t.Fatalf("unexpected user forwarded: %s", svc.linkedUser)
	}
}

func TestUsersLinkPhoneUnknownUser(t *testing.T) {
	svc := &stubUsersService{err: pkgerrors.New(pkgerrors.CodeNotFound, "user not found")}
	handler := UsersLinkPhone(svc, nil)

	body := `{"phoneNumber":"+919876543210","userId":"` + uuid.NewString() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/link-phone", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
