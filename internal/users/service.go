package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/janmanch/janmanch-backend/pkg/db"
	"github.com/janmanch/janmanch-backend/pkg/db/models"
	"github.com/janmanch/janmanch-backend/pkg/enums"
	pkgerrors "github.com/janmanch/janmanch-backend/pkg/errors"
	"github.com/janmanch/janmanch-backend/pkg/identity"
	"github.com/janmanch/janmanch-backend/pkg/logger"
	"github.com/janmanch/janmanch-backend/pkg/pagination"
)

const claimsMirrorTimeout = 10 * time.Second

type usersRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByFirebaseID(ctx context.Context, firebaseID string) (*models.User, error)
	FindByCredentials(ctx context.Context, q CredentialQuery) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListFilter) ([]models.User, int64, error)
}

type identityProvider interface {
	GetUser(ctx context.Context, uid string) (*identity.ProviderUser, error)
	SetCustomClaims(ctx context.Context, uid string, claims map[string]any) error
}

// Service exposes account management operations.
type Service interface {
	Create(ctx context.Context, input CreateUserDTO) (*UserDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	GetByFirebaseID(ctx context.Context, firebaseID string) (*UserDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateUserDTO) (*UserDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListFilter) ([]UserDTO, pagination.Meta, error)
	CheckCredentials(ctx context.Context, q CredentialQuery) (*CredentialUsage, error)
}

type service struct {
	repo     usersRepository
	identity identityProvider
	logg     *logger.Logger
}

// NewService builds the accounts service. The identity provider is optional;
// when absent, verification enrichment and claims mirroring are skipped.
func NewService(repo usersRepository, provider identityProvider, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{
		repo:     repo,
		identity: provider,
		logg:     logg,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateUserDTO) (*UserDTO, error) {
	input.FirebaseID = strings.TrimSpace(input.FirebaseID)
	if input.FirebaseID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "firebase id is required")
	}
	if input.Gender != nil && !enums.Gender(*input.Gender).IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid gender")
	}

	query := CredentialQuery{
		Phone:   derefTrimmed(input.Phone),
		Email:   derefTrimmed(input.Email),
		VoterID: derefTrimmed(input.VoterID),
	}
	usage, err := s.credentialUsage(ctx, query)
	if err != nil {
		return nil, err
	}
	if usage.Any() {
		return nil, duplicateCredentialError(usage)
	}

	user := input.ToModel()
	s.enrichVerification(ctx, user)

	if err := s.repo.Create(ctx, user); err != nil {
		if dupErr := mapUniqueViolation(err); dupErr != nil {
			return nil, dupErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	s.mirrorClaims(ctx, user)
	return FromModel(user), nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return FromModel(user), nil
}

func (s *service) GetByFirebaseID(ctx context.Context, firebaseID string) (*UserDTO, error) {
	firebaseID = strings.TrimSpace(firebaseID)
	if firebaseID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "firebase id is required")
	}
	user, err := s.repo.FindByFirebaseID(ctx, firebaseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return FromModel(user), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateUserDTO) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if input.Gender != nil && !enums.Gender(*input.Gender).IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid gender")
	}

	// Only credentials that actually change are checked against other
	// accounts; the partial unique indexes backstop any race.
	query := CredentialQuery{ExcludeUserID: &user.ID}
	credentialChanged := false
	if input.Phone != nil && derefTrimmed(input.Phone) != derefTrimmed(user.Phone) {
		query.Phone = derefTrimmed(input.Phone)
		credentialChanged = true
	}
	if input.Email != nil && derefTrimmed(input.Email) != derefTrimmed(user.Email) {
		query.Email = derefTrimmed(input.Email)
		credentialChanged = true
	}
	if input.VoterID != nil && derefTrimmed(input.VoterID) != derefTrimmed(user.VoterID) {
		query.VoterID = derefTrimmed(input.VoterID)
		credentialChanged = true
	}
	if credentialChanged && !query.IsEmpty() {
		usage, err := s.credentialUsage(ctx, query)
		if err != nil {
			return nil, err
		}
		if usage.Any() {
			return nil, duplicateCredentialError(usage)
		}
	}

	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.Phone != nil {
		user.Phone = cloneStringPtr(input.Phone)
		user.PhoneVerified = false
	}
	if input.Email != nil {
		user.Email = cloneStringPtr(input.Email)
		user.EmailVerified = false
	}
	if input.VoterID != nil {
		user.VoterID = cloneStringPtr(input.VoterID)
	}
	if input.DateOfBirth != nil {
		dob := *input.DateOfBirth
		user.DateOfBirth = &dob
	}
	if input.Gender != nil {
		user.Gender = cloneStringPtr(input.Gender)
	}

	if input.Phone != nil || input.Email != nil {
		s.enrichVerification(ctx, user)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if dupErr := mapUniqueViolation(err); dupErr != nil {
			return nil, dupErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}
	return FromModel(user), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
	}
	return nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]UserDTO, pagination.Meta, error) {
	filter.Page = pagination.Normalize(filter.Page)
	if filter.Platform != "" && !enums.Platform(filter.Platform).IsValid() {
		return nil, pagination.Meta{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid platform")
	}

	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pagination.Meta{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}

	items := make([]UserDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	return items, pagination.MetaFor(filter.Page, total), nil
}

func (s *service) CheckCredentials(ctx context.Context, q CredentialQuery) (*CredentialUsage, error) {
	q.Phone = strings.TrimSpace(q.Phone)
	q.Email = strings.TrimSpace(q.Email)
	q.VoterID = strings.TrimSpace(q.VoterID)

	// Nothing supplied means nothing is taken.
	if q.IsEmpty() {
		return &CredentialUsage{}, nil
	}

	usage, err := s.credentialUsage(ctx, q)
	if err != nil {
		return nil, err
	}
	return &usage, nil
}

func (s *service) credentialUsage(ctx context.Context, q CredentialQuery) (CredentialUsage, error) {
	if q.IsEmpty() {
		return CredentialUsage{}, nil
	}
	matches, err := s.repo.FindByCredentials(ctx, q)
	if err != nil {
		return CredentialUsage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "match credentials")
	}

	usage := CredentialUsage{}
	for i := range matches {
		match := &matches[i]
		if q.Phone != "" && derefTrimmed(match.Phone) == q.Phone {
			usage.PhoneInUse = true
		}
		if q.Email != "" && derefTrimmed(match.Email) == q.Email {
			usage.EmailInUse = true
		}
		if q.VoterID != "" && derefTrimmed(match.VoterID) == q.VoterID {
			usage.VoterIDInUse = true
		}
	}
	return usage, nil
}

// enrichVerification marks phone/email as verified only when the identity
// provider holds the same value and reports it verified. Provider failures
// leave the flags untouched.
func (s *service) enrichVerification(ctx context.Context, user *models.User) {
	if s.identity == nil {
		return
	}
	provider, err := s.identity.GetUser(ctx, user.FirebaseID)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithUserID(ctx, user.FirebaseID), "identity provider lookup failed: "+err.Error())
		}
		return
	}

	if email := derefTrimmed(user.Email); email != "" {
		user.EmailVerified = provider.EmailVerified && strings.EqualFold(provider.Email, email)
	}
	if phone := derefTrimmed(user.Phone); phone != "" {
		user.PhoneVerified = provider.PhoneNumber == phone
	}
}

// mirrorClaims pushes the internal user ID and profile facts into provider
// custom claims so tokens carry them on the next refresh. Runs detached from
// the request.
func (s *service) mirrorClaims(ctx context.Context, user *models.User) {
	if s.identity == nil {
		return
	}
	logCtx := context.WithoutCancel(ctx)
	claims := map[string]any{"user_id": user.ID.String()}
	if user.Gender != nil {
		claims["gender"] = *user.Gender
	}
	if user.DateOfBirth != nil {
		claims["date_of_birth"] = user.DateOfBirth.Format("2006-01-02")
	}
	if user.GeoLocation != nil {
		claims["location"] = *user.GeoLocation
	}
	if user.StateID != nil {
		claims["state_id"] = user.StateID.String()
	}
	go func() {
		claimsCtx, cancel := context.WithTimeout(context.Background(), claimsMirrorTimeout)
		defer cancel()
		if err := s.identity.SetCustomClaims(claimsCtx, user.FirebaseID, claims); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithUserID(logCtx, user.ID.String()), "mirror custom claims failed: "+err.Error())
		}
	}()
}

func duplicateCredentialError(usage CredentialUsage) error {
	fields := []string{}
	if usage.PhoneInUse {
		fields = append(fields, "phone")
	}
	if usage.EmailInUse {
		fields = append(fields, "email")
	}
	if usage.VoterIDInUse {
		fields = append(fields, "voter_id")
	}
	return pkgerrors.New(pkgerrors.CodeDuplicateCredential, "credentials already registered").
		WithDetails(map[string]any{"fields": fields})
}

// A firebaseId collision means the identity already owns an account; the
// credential indexes cover phone, email, and voter id.
func mapUniqueViolation(err error) error {
	if db.IsUniqueViolation(err, "idx_users_firebase_id") {
		return pkgerrors.Wrap(pkgerrors.CodeDuplicateIdentity, err, "account already exists for this identity").
			WithDetails(map[string]any{"field": "firebase_id"})
	}
	credentialIndexes := map[string]string{
		"idx_users_phone":    "phone",
		"idx_users_email":    "email",
		"idx_users_voter_id": "voter_id",
	}
	for constraint, field := range credentialIndexes {
		if db.IsUniqueViolation(err, constraint) {
			return pkgerrors.Wrap(pkgerrors.CodeDuplicateCredential, err, "credential already registered").
				WithDetails(map[string]any{"field": field})
		}
	}
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeDuplicateCredential, err, "credential already registered")
	}
	return nil
}

func derefTrimmed(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}
