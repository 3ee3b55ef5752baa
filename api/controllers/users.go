package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/janmanch/janmanch-backend/api/middleware"
	"github.com/janmanch/janmanch-backend/api/responses"
	"github.com/janmanch/janmanch-backend/api/validators"
	"github.com/janmanch/janmanch-backend/internal/users"
	pkgerrors "github.com/janmanch/janmanch-backend/pkg/errors"
	"github.com/janmanch/janmanch-backend/pkg/logger"
	"github.com/janmanch/janmanch-backend/pkg/pagination"
)

const dateLayout = "2006-01-02"

type createUserRequest struct {
	FirebaseID  string  `json:"firebase_id"`
	Name        string  `json:"name" validate:"required,min=1"`
	Phone       *string `json:"phone,omitempty"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	VoterID     *string `json:"voter_id,omitempty"`
	DateOfBirth *string `json:"date_of_birth,omitempty"`
	Gender      *string `json:"gender,omitempty"`
}

type updateUserRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1"`
	Phone       *string `json:"phone,omitempty"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	VoterID     *string `json:"voter_id,omitempty"`
	DateOfBirth *string `json:"date_of_birth,omitempty"`
	Gender      *string `json:"gender,omitempty"`
}

type checkCredentialsRequest struct {
	Phone             string  `json:"phone,omitempty"`
	Email             string  `json:"email,omitempty"`
	VoterID           string  `json:"voter_id,omitempty"`
	ExcludeUserID     *string `json:"exclude_user_id,omitempty"`
	ExcludeFirebaseID string  `json:"exclude_firebase_id,omitempty"`
}

func parseDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid date of birth").
			WithDetails(map[string]any{"field": "date_of_birth", "layout": dateLayout})
	}
	return &parsed, nil
}

// CreateUser registers an account for the authenticated provider identity.
func CreateUser(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createUserRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		firebaseID := strings.TrimSpace(payload.FirebaseID)
		if firebaseID == "" {
			firebaseID = middleware.FirebaseIDFromContext(r.Context())
		}

		dob, err := parseDate(payload.DateOfBirth)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Create(r.Context(), users.CreateUserDTO{
			FirebaseID:  firebaseID,
			Name:        payload.Name,
			Phone:       payload.Phone,
			Email:       payload.Email,
			VoterID:     payload.VoterID,
			DateOfBirth: dob,
			Gender:      payload.Gender,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// GetUser loads one account by path ID.
func GetUser(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "userId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id"))
			return
		}

		dto, err := svc.GetByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

// GetMe loads the account bound to the caller's provider identity.
func GetMe(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		firebaseID := middleware.FirebaseIDFromContext(r.Context())
		if firebaseID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "provider identity missing"))
			return
		}

		dto, err := svc.GetByFirebaseID(r.Context(), firebaseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

// UpdateUser mutates the allowed profile fields.
func UpdateUser(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "userId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id"))
			return
		}

		var payload updateUserRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dob, err := parseDate(payload.DateOfBirth)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Update(r.Context(), id, users.UpdateUserDTO{
			Name:        payload.Name,
			Phone:       payload.Phone,
			Email:       payload.Email,
			VoterID:     payload.VoterID,
			DateOfBirth: dob,
			Gender:      payload.Gender,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

// DeleteUser removes one account.
func DeleteUser(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "userId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id"))
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type userListResponse struct {
	Users []users.UserDTO `json:"users"`
	Meta  pagination.Meta `json:"meta"`
}

// ListUsers returns a paginated account listing with optional filters.
func ListUsers(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParseQueryInt(r, "page", 1, 1, 1<<30)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pageSize, err := validators.ParseQueryInt(r, "page_size", pagination.DefaultPageSize, 1, pagination.MaxPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stateID, err := validators.ParseQueryUUID(r, "state_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, meta, err := svc.List(r.Context(), users.ListFilter{
			Search:   strings.TrimSpace(r.URL.Query().Get("search")),
			StateID:  stateID,
			Platform: strings.TrimSpace(r.URL.Query().Get("platform")),
			Page:     pagination.Params{Page: page, PageSize: pageSize},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, userListResponse{Users: list, Meta: meta})
	}
}

// CheckCredentials reports which of the supplied credentials are already
// bound to another account.
func CheckCredentials(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload checkCredentialsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := users.CredentialQuery{
			Phone:             payload.Phone,
			Email:             payload.Email,
			VoterID:           payload.VoterID,
			ExcludeFirebaseID: strings.TrimSpace(payload.ExcludeFirebaseID),
		}
		if payload.ExcludeUserID != nil && strings.TrimSpace(*payload.ExcludeUserID) != "" {
			id, err := uuid.Parse(strings.TrimSpace(*payload.ExcludeUserID))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid exclude_user_id"))
				return
			}
			query.ExcludeUserID = &id
		}

		usage, err := svc.CheckCredentials(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, usage)
	}
}
