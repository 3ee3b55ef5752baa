package bigquery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/janmanch/janmanch-backend/pkg/config"
)

func TestConfiguredTables(t *testing.T) {
	tables := configuredTables(config.BigQueryConfig{SessionEventsTable: " session_events "})
	assert.Equal(t, []string{"session_events"}, tables)

	assert.Empty(t, configuredTables(config.BigQueryConfig{SessionEventsTable: "  "}))
}

func TestClientOptionsPrioritizesJSON(t *testing.T) {
	opts := clientOptions(config.GCPConfig{
		CredentialsJSON:        `{"dummy": "value"}`,
		ApplicationCredentials: "/tmp/creds",
	})
	assert.Len(t, opts, 1, "inline JSON wins over the credentials file")
}

func TestClientOptionsWithFile(t *testing.T) {
	opts := clientOptions(config.GCPConfig{ApplicationCredentials: "/tmp/creds"})
	assert.Len(t, opts, 1)
}

func TestClientOptionsEmpty(t *testing.T) {
	assert.Empty(t, clientOptions(config.GCPConfig{}), "ambient credentials need no options")
}
