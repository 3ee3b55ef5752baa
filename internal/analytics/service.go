package analytics

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/janmanch/janmanch-backend/pkg/errors"
	"github.com/janmanch/janmanch-backend/pkg/logger"
)

type analyticsRepository interface {
	OnlinePlatformCounts(ctx context.Context, stateID *uuid.UUID) ([]PlatformCountDTO, error)
	SessionCounts(ctx context.Context, stateID *uuid.UUID, pattern string) ([]BucketCountDTO, error)
	RegistrationCounts(ctx context.Context, stateID *uuid.UUID, pattern string) ([]BucketCountDTO, error)
}

// Service aggregates presence and registration counts for reporting.
type Service interface {
	OnlineCounts(ctx context.Context, filter CountFilter) (*OnlineCountsDTO, error)
	AccountCounts(ctx context.Context, filter CountFilter) (*AccountCountsDTO, error)
}

type service struct {
	repo analyticsRepository
	logg *logger.Logger
}

// NewService builds the analytics aggregator.
func NewService(repo analyticsRepository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("analytics repository required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// OnlineCounts reports distinct connected users per platform plus session
// totals per date bucket. The platform half reads live socket rows; the
// session half reads the append-only session log. The two reads are not
// transactionally consistent with each other.
func (s *service) OnlineCounts(ctx context.Context, filter CountFilter) (*OnlineCountsDTO, error) {
	bucket, pattern, err := resolveBucket(filter.Bucket, BucketMonth)
	if err != nil {
		return nil, err
	}

	platforms, err := s.repo.OnlinePlatformCounts(ctx, filter.StateID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count online users")
	}

	sessions, err := s.repo.SessionCounts(ctx, filter.StateID, pattern)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count sessions")
	}

	return &OnlineCountsDTO{
		Platforms: platforms,
		Sessions:  sessions,
		Bucket:    bucket,
	}, nil
}

// AccountCounts reports registrations grouped by creation-date bucket.
func (s *service) AccountCounts(ctx context.Context, filter CountFilter) (*AccountCountsDTO, error) {
	bucket, pattern, err := resolveBucket(filter.Bucket, BucketDay)
	if err != nil {
		return nil, err
	}

	registrations, err := s.repo.RegistrationCounts(ctx, filter.StateID, pattern)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count registrations")
	}

	return &AccountCountsDTO{
		Registrations: registrations,
		Bucket:        bucket,
	}, nil
}

// resolveBucket maps a bucket name onto the Postgres to_char pattern the
// repo queries group by.
func resolveBucket(bucket, fallback string) (string, string, error) {
	bucket = strings.ToLower(strings.TrimSpace(bucket))
	if bucket == "" {
		bucket = fallback
	}
	switch bucket {
	case BucketDay:
		return bucket, "YYYY-MM-DD", nil
	case BucketMonth:
		return bucket, "YYYY-MM", nil
	case BucketYear:
		return bucket, "YYYY", nil
	default:
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "invalid bucket")
	}
}
