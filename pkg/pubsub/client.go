package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/janmanch/janmanch-backend/pkg/config"
	"github.com/janmanch/janmanch-backend/pkg/logger"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	errProjectIDRequired    = errors.New("gcp project id is required")
	errNoSubscriptions      = errors.New("at least one pubsub subscription must be configured")
	errClientNotInitialized = errors.New("pubsub client not initialized")
)

// Client wraps a Pub/Sub v2 connection and hands out subscriber and publisher
// handles for the presence and analytics streams. Topics and subscriptions are
// provisioned out of band; construction fails if a configured subscription is
// missing.
type Client struct {
	client    *pubsub.Client
	projectID string
	cfg       config.PubSubConfig
}

func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}

	inner, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	c := &Client{client: inner, projectID: projectID, cfg: cfg}
	if err := c.verifySubscriptions(ctx); err != nil {
		_ = inner.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(ctx, "pubsub client initialized")
	}
	return c, nil
}

func (c *Client) verifySubscriptions(ctx context.Context) error {
	checked := 0
	for _, name := range []string{c.cfg.PresenceSubscription, c.cfg.AnalyticsSubscription} {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		checked++

		full := c.resourceName("subscriptions", name)
		if full == "" {
			return fmt.Errorf("subscription %q not configured", name)
		}
		_, err := c.client.SubscriptionAdminClient.GetSubscription(ctx, &pubsubpb.GetSubscriptionRequest{
			Subscription: full,
		})
		switch {
		case err == nil:
		case status.Code(err) == codes.NotFound:
			// The admin API surfaces gRPC status codes in v2.
			return fmt.Errorf("subscription %q does not exist", name)
		default:
			return fmt.Errorf("checking subscription %q: %w", name, err)
		}
	}
	if checked == 0 {
		return errNoSubscriptions
	}
	return nil
}

// PresenceSubscription returns the subscriber for socket lifecycle events.
func (c *Client) PresenceSubscription() *pubsub.Subscriber {
	return c.subscriber(c.cfg.PresenceSubscription)
}

// AnalyticsSubscription returns the subscriber for session analytics events.
func (c *Client) AnalyticsSubscription() *pubsub.Subscriber {
	return c.subscriber(c.cfg.AnalyticsSubscription)
}

// AnalyticsPublisher returns the publisher for session analytics events.
// Presence events have no publisher here; the socket gateway emits them.
func (c *Client) AnalyticsPublisher() *pubsub.Publisher {
	return c.publisher(c.cfg.AnalyticsTopic)
}

func (c *Client) subscriber(name string) *pubsub.Subscriber {
	if c == nil || c.client == nil {
		return nil
	}
	if full := c.resourceName("subscriptions", name); full != "" {
		return c.client.Subscriber(full)
	}
	return nil
}

func (c *Client) publisher(name string) *pubsub.Publisher {
	if c == nil || c.client == nil {
		return nil
	}
	if full := c.resourceName("topics", name); full != "" {
		return c.client.Publisher(full)
	}
	return nil
}

// resourceName expands a bare ID into a full resource path. Names that are
// already fully qualified pass through untouched.
func (c *Client) resourceName(kind, name string) string {
	name = strings.TrimSpace(name)
	if c == nil || name == "" {
		return ""
	}
	if strings.HasPrefix(name, "projects/") && strings.Contains(name, "/"+kind+"/") {
		return name
	}
	project := strings.TrimSpace(c.projectID)
	if project == "" {
		return ""
	}
	return fmt.Sprintf("projects/%s/%s/%s", project, kind, name)
}

// Ping re-checks the configured subscriptions for readiness probes.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errClientNotInitialized
	}
	return c.verifySubscriptions(ctx)
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
