package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ANALYTICS_CACHE_TTL", "")
	t.Setenv("TICKET_ID_MAX_ATTEMPTS", "")

	c := FromEnv()

	assert.Equal(t, ":8080", c.Addr)
	assert.Equal(t, 5*time.Minute, c.AnalyticsCacheTTL)
	assert.Equal(t, 5, c.TicketIDMaxAttempts)
	assert.Equal(t, 24*time.Hour, c.FeedingInterval)
	assert.Equal(t, "none", c.Events.Driver)
	assert.Equal(t, "memory", c.Blob.Driver)
}

func TestFromEnv_InvalidValuesFallBackWithWarnings(t *testing.T) {
	t.Setenv("ANALYTICS_CACHE_TTL", "soon")
	t.Setenv("TICKET_ID_MAX_ATTEMPTS", "-2")
	t.Setenv("ZOO_TIMEZONE", "Mars/Olympus")
	t.Setenv("JWT_SECRET", "test-secret")

	c := FromEnv()

	assert.Equal(t, 5*time.Minute, c.AnalyticsCacheTTL)
	assert.Equal(t, 5, c.TicketIDMaxAttempts)
	assert.Equal(t, time.Local, c.Location)
	assert.Len(t, c.Warnings(), 3)
}

func TestFromEnv_KafkaBrokersCSV(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092 ,")
	c := FromEnv()
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Events.KafkaBrokers)
}

func TestValidate_RequiresSecretOutsideDevMode(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("AUTH_DEV_MODE", "false")

	c := FromEnv()
	require.ErrorIs(t, c.Validate(), ErrInsecureSecret)

	t.Setenv("AUTH_DEV_MODE", "true")
	c = FromEnv()
	require.NoError(t, c.Validate())
	assert.Contains(t, c.Warnings(), "JWT_SECRET not set, using development secret")

	t.Setenv("AUTH_DEV_MODE", "false")
	t.Setenv("JWT_SECRET", "prod-secret")
	c = FromEnv()
	require.NoError(t, c.Validate())
}
