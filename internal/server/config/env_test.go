package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_parseEnv_OverridesOnlySetVariables(t *testing.T) {
	t.Setenv("AUTH_SECRET_KEY", "from-env")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL", "15m")
	t.Setenv("AUTH_COOKIE_SECURE", "true")
	t.Setenv("AUTH_CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("AUTH_SMTP_PORT", "2525")

	var c Config
	c.LoadDefaults()
	parseEnv(&c)

	assert.Equal(t, "from-env", c.SecretKey)
	assert.Equal(t, 15*time.Minute, c.AccessTokenValidityDuration)
	assert.True(t, c.CookieSecure)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.CORSOrigins)
	assert.Equal(t, 2525, c.SMTPPort)

	// untouched
	assert.Equal(t, "HS256", c.Algorithm)
	assert.Equal(t, 24*time.Hour, c.VerifyTokenValidityDuration)
}

func Test_parseEnv_InvalidValuePanics(t *testing.T) {
	t.Setenv("AUTH_SMTP_PORT", "not-a-number")

	var c Config
	c.LoadDefaults()
	assert.Panics(t, func() { parseEnv(&c) })
}
