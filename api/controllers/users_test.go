package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/janmanch/janmanch-backend/api/middleware"
	"github.com/janmanch/janmanch-backend/internal/users"
	pkgerrors "github.com/janmanch/janmanch-backend/pkg/errors"
	"github.com/janmanch/janmanch-backend/pkg/pagination"
	"github.com/janmanch/janmanch-backend/pkg/types"
)

type stubUsersService struct {
	created   *users.CreateUserDTO
	createErr error
	user      *users.UserDTO
	getErr    error
	usage     *users.CredentialUsage
	list      []users.UserDTO
	meta      pagination.Meta
	filter    users.ListFilter
}

func (s *stubUsersService) Create(ctx context.Context, input users.CreateUserDTO) (*users.UserDTO, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = &input
	return &users.UserDTO{ID: uuid.New(), FirebaseID: input.FirebaseID, Name: input.Name}, nil
}

func (s *stubUsersService) GetByID(ctx context.Context, id uuid.UUID) (*users.UserDTO, error) {
	return s.user, s.getErr
}

func (s *stubUsersService) GetByFirebaseID(ctx context.Context, firebaseID string) (*users.UserDTO, error) {
	return s.user, s.getErr
}

func (s *stubUsersService) Update(ctx context.Context, id uuid.UUID, input users.UpdateUserDTO) (*users.UserDTO, error) {
	return s.user, s.getErr
}

func (s *stubUsersService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.getErr
}

func (s *stubUsersService) List(ctx context.Context, filter users.ListFilter) ([]users.UserDTO, pagination.Meta, error) {
	s.filter = filter
	return s.list, s.meta, nil
}

func (s *stubUsersService) CheckCredentials(ctx context.Context, q users.CredentialQuery) (*users.CredentialUsage, error) {
	if s.usage != nil {
		return s.usage, nil
	}
	return &users.CredentialUsage{}, nil
}

func TestCreateUserDefaultsFirebaseIDFromContext(t *testing.T) {
	svc := &stubUsersService{}
	handler := CreateUser(svc, nil)

	body := `{"name":"Asha Rao","email":"asha@example.org"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(body))
	req = req.WithContext(middleware.WithFirebaseID(req.Context(), "fb-777"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if svc.created == nil || svc.created.FirebaseID != "fb-777" {
		t.Fatalf("expected firebase id from context, got %+v", svc.created)
	}
}

func TestCreateUserRejectsBadBody(t *testing.T) {
	handler := CreateUser(&stubUsersService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(`{"name":""}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestCreateUserDuplicateIdentityConflict(t *testing.T) {
	svc := &stubUsersService{createErr: pkgerrors.New(pkgerrors.CodeDuplicateIdentity, "an account already exists for this identity")}
	handler := CreateUser(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(`{"firebase_id":"fb-1","name":"Asha"}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeDuplicateIdentity) {
		t.Fatalf("unexpected code %s", envelope.Error.Code)
	}
}

func TestCreateUserInvalidDateOfBirth(t *testing.T) {
	handler := CreateUser(&stubUsersService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users",
		strings.NewReader(`{"firebase_id":"fb-1","name":"Asha","date_of_birth":"01-02-1990"}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestListUsersParsesFilters(t *testing.T) {
	svc := &stubUsersService{meta: pagination.Meta{Page: 2, PageSize: 10}}
	handler := ListUsers(svc, nil)

	stateID := uuid.New()
	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/users?page=2&page_size=10&search=asha&platform=app&state_id="+stateID.String(), nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if svc.filter.Search != "asha" || svc.filter.Platform != "app" {
		t.Fatalf("unexpected filter %+v", svc.filter)
	}
	if svc.filter.StateID == nil || *svc.filter.StateID != stateID {
		t.Fatal("state filter not parsed")
	}
	if svc.filter.Page.Page != 2 || svc.filter.Page.PageSize != 10 {
		t.Fatalf("unexpected pagination %+v", svc.filter.Page)
	}
}

func TestListUsersRejectsOversizePage(t *testing.T) {
	handler := ListUsers(&stubUsersService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users?page_size=5000", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestCheckCredentialsInvalidExcludeID(t *testing.T) {
	handler := CheckCredentials(&stubUsersService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/check-credentials",
		strings.NewReader(`{"phone":"+911234567890","exclude_user_id":"not-a-uuid"}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestCheckCredentialsReportsUsage(t *testing.T) {
	svc := &stubUsersService{usage: &users.CredentialUsage{PhoneInUse: true}}
	handler := CheckCredentials(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/check-credentials",
		strings.NewReader(`{"phone":"+911234567890"}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var envelope struct {
		Data users.CredentialUsage `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if !envelope.Data.PhoneInUse {
		t.Fatal("expected phone_in_use true")
	}
}
