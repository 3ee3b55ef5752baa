package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/janmanch/janmanch-backend/pkg/config"
	pkgerrors "github.com/janmanch/janmanch-backend/pkg/errors"
	"github.com/janmanch/janmanch-backend/pkg/logger"
)

// ProviderUser is the normalized identity-provider record for a user.
type ProviderUser struct {
	UID           string
	Email         string
	PhoneNumber   string
	EmailVerified bool
}

// Provider exposes the identity operations services depend on.
type Provider interface {
	GetUser(ctx context.Context, uid string) (*ProviderUser, error)
	SetCustomClaims(ctx context.Context, uid string, claims map[string]any) error
}

// TokenVerifier validates bearer tokens for the auth middleware.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// Client wraps the Firebase Auth SDK.
type Client struct {
	auth *auth.Client
}

var errProjectIDRequired = errors.New("firebase project id is required")

// NewClient initializes the Firebase app and its auth client. Credentials come
// from inline JSON, a credentials file path, or ambient ADC, in that order.
func NewClient(ctx context.Context, cfg config.FirebaseConfig, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(cfg.ProjectID)
	if projectID == "" {
		projectID = strings.TrimSpace(gcp.ProjectID)
	}
	if projectID == "" {
		return nil, errProjectIDRequired
	}

	opts := []option.ClientOption{}
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case strings.TrimSpace(gcp.ApplicationCredentials) != "":
		opts = append(opts, option.WithCredentialsFile(gcp.ApplicationCredentials))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase auth client: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "identity provider client initialized")
	}

	return &Client{auth: authClient}, nil
}

// GetUser fetches the provider record for the given UID.
func (c *Client) GetUser(ctx context.Context, uid string) (*ProviderUser, error) {
	if c == nil || c.auth == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "identity client not configured")
	}
	if strings.TrimSpace(uid) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider uid is required")
	}

	record, err := c.auth.GetUser(ctx, uid)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "identity provider user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch identity provider user")
	}

	return &ProviderUser{
		UID:           record.UID,
		Email:         record.Email,
		PhoneNumber:   record.PhoneNumber,
		EmailVerified: record.EmailVerified,
	}, nil
}

// SetCustomClaims replaces the custom claims attached to the provider user.
func (c *Client) SetCustomClaims(ctx context.Context, uid string, claims map[string]any) error {
	if c == nil || c.auth == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "identity client not configured")
	}
	if strings.TrimSpace(uid) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "provider uid is required")
	}
	if err := c.auth.SetCustomUserClaims(ctx, uid, claims); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set identity provider claims")
	}
	return nil
}

// VerifyIDToken validates a bearer token and returns its decoded form.
func (c *Client) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	if c == nil || c.auth == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "identity client not configured")
	}
	return c.auth.VerifyIDToken(ctx, idToken)
}
