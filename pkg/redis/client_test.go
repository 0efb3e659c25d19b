package redis

import (
	"testing"

	"github.com/padimart/padimart-backend/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsFromConfigRequiresTarget(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	assert.Error(t, err)
}

func TestOptionsFromConfigParsesURL(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/2"})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)
}

func TestOptionsFromConfigUsesAddressFallback(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{Address: "cache:6379", DB: 1, PoolSize: 5})
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, 1, opts.DB)
	assert.Equal(t, 5, opts.PoolSize)
}

func TestProfileViewKeyRoundTrip(t *testing.T) {
	c := &Client{}
	key := c.ProfileViewKey("7f9c24e5")
	assert.Equal(t, "pm:counter:profile_views:7f9c24e5", key)
	assert.Equal(t, "7f9c24e5", c.VendorIDFromProfileViewKey(key))
}

func TestProfileViewPattern(t *testing.T) {
	c := &Client{}
	assert.Equal(t, "pm:counter:profile_views:*", c.ProfileViewPattern())
}
