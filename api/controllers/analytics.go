package controllers

import (
	"net/http"
	"strings"

	"github.com/janmanch/janmanch-backend/api/responses"
	"github.com/janmanch/janmanch-backend/api/validators"
	"github.com/janmanch/janmanch-backend/internal/analytics"
	"github.com/janmanch/janmanch-backend/pkg/logger"
)

// AnalyticsOnline reports live per-platform presence plus bucketed session
// counts.
func AnalyticsOnline(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := analyticsFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.OnlineCounts(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

// AnalyticsAccounts reports registrations grouped by creation-date bucket.
func AnalyticsAccounts(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := analyticsFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.AccountCounts(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

func analyticsFilter(r *http.Request) (analytics.CountFilter, error) {
	stateID, err := validators.ParseQueryUUID(r, "state_id")
	if err != nil {
		return analytics.CountFilter{}, err
	}
	return analytics.CountFilter{
		StateID: stateID,
		Bucket:  strings.TrimSpace(r.URL.Query().Get("bucket")),
	}, nil
}
