package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/janmanch/janmanch-backend/api/responses"
	"github.com/janmanch/janmanch-backend/api/validators"
	"github.com/janmanch/janmanch-backend/internal/presence"
	pkgerrors "github.com/janmanch/janmanch-backend/pkg/errors"
	"github.com/janmanch/janmanch-backend/pkg/logger"
)

type presenceConnectRequest struct {
	UserID   string `json:"user_id" validate:"required,uuid"`
	SocketID string `json:"socket_id" validate:"required,min=1"`
	Platform string `json:"platform" validate:"required,oneof=app web admin"`
}

type presenceDisconnectRequest struct {
	SocketID string `json:"socket_id" validate:"required,min=1"`
}

// PresenceConnect registers a socket connection for a user.
func PresenceConnect(svc presence.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload presenceConnectRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID, err := uuid.Parse(payload.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user_id"))
			return
		}

		dto, err := svc.Connect(r.Context(), presence.ConnectInput{
			UserID:   userID,
			SocketID: payload.SocketID,
			Platform: payload.Platform,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

// PresenceDisconnect drops a socket connection. Unknown sockets succeed.
func PresenceDisconnect(svc presence.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload presenceDisconnectRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Disconnect(r.Context(), payload.SocketID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "disconnected"})
	}
}
