package controllers

import (
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/janmanch/janmanch-backend/api/responses"
	"github.com/janmanch/janmanch-backend/api/validators"
	"github.com/janmanch/janmanch-backend/internal/constituency"
	pkgerrors "github.com/janmanch/janmanch-backend/pkg/errors"
	"github.com/janmanch/janmanch-backend/pkg/logger"
)

type resolveLocationRequest struct {
	IP     string  `json:"ip,omitempty"`
	UserID *string `json:"user_id,omitempty"`
}

// ResolveLocation maps an IP address onto the civic hierarchy. When the body
// omits the IP, the caller's own address is used.
func ResolveLocation(svc constituency.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload resolveLocationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ip := strings.TrimSpace(payload.IP)
		if ip == "" {
			ip = clientIP(r)
		}

		var userID *uuid.UUID
		if payload.UserID != nil && strings.TrimSpace(*payload.UserID) != "" {
			id, err := uuid.Parse(strings.TrimSpace(*payload.UserID))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user_id"))
				return
			}
			userID = &id
		}

		resolution, err := svc.ResolveByIP(r.Context(), userID, ip)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, resolution)
	}
}

func clientIP(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
