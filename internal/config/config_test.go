package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	assert.Equal(t, 10, cfg.HTTP.ReadTimeoutSec)
	assert.Equal(t, "valkey", cfg.Database.Driver)
	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.Equal(t, 384, cfg.Embedding.Dimensions)
	assert.Equal(t, "none", cfg.Cache.Driver)
	assert.Equal(t, "products", cfg.Collections.Default)
	assert.Equal(t, 2, cfg.Search.FetchMultiplier)
	assert.Equal(t, 3, cfg.Search.PoolMultiplier)
	assert.Equal(t, 5, cfg.Search.DefaultLimit)
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		Search:   SearchConfig{FetchMultiplier: 4, PoolMultiplier: 5},
		Database: DatabaseConfig{Driver: "redis"},
	}
	cfg.ApplyDefaults()

	assert.Equal(t, 4, cfg.Search.FetchMultiplier)
	assert.Equal(t, 5, cfg.Search.PoolMultiplier)
	assert.Equal(t, "redis", cfg.Database.Driver)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errSub string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.HTTP.Port = 0 }, "http.port"},
		{"no addrs", func(c *Config) { c.Database.Addrs = nil }, "database.addrs"},
		{"bad driver", func(c *Config) { c.Database.Driver = "postgres" }, "database.driver"},
		{"bad provider", func(c *Config) { c.Embedding.Provider = "cohere" }, "embedding.provider"},
		{"badger without dir", func(c *Config) { c.Cache.Driver = "badger" }, "badger_dir"},
		{"unknown default", func(c *Config) { c.Collections.Default = "reviews" }, "collections.default"},
		{"negative boost", func(c *Config) {
			v := -0.1
			c.Search.Boost.TermBoost = &v
		}, "search.boost"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errSub == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSub)
		})
	}
}

func TestCollectionsSpecs_DefaultCatalog(t *testing.T) {
	specs, err := CollectionsConfig{Namespace: "shop"}.Specs()
	require.NoError(t, err)
	require.Len(t, specs, 5)
	assert.Equal(t, "products", specs[0].Key())
	assert.Equal(t, "shop_products", specs[0].IndexName())
	assert.InDelta(t, 0.8, specs[1].Weight(), 1e-9)
}

func TestCollectionsSpecs_Items(t *testing.T) {
	w := 0.5
	off := false
	specs, err := CollectionsConfig{
		Namespace: "shop",
		Items: []CollectionConfig{
			{Key: "products"},
			{Key: "reviews", Weight: &w, Enabled: &off, IndexName: "custom_reviews"},
		},
	}.Specs()
	require.NoError(t, err)
	require.Len(t, specs, 2)

	assert.InDelta(t, 1.0, specs[0].Weight(), 1e-9)
	assert.True(t, specs[0].Enabled())
	assert.Equal(t, "shop_products", specs[0].IndexName())

	assert.InDelta(t, 0.5, specs[1].Weight(), 1e-9)
	assert.False(t, specs[1].Enabled())
	assert.Equal(t, "custom_reviews", specs[1].IndexName())
}

func TestCollectionsSpecs_Errors(t *testing.T) {
	_, err := CollectionsConfig{Items: []CollectionConfig{{Key: "faqs"}, {Key: "faqs"}}}.Specs()
	assert.Error(t, err)

	_, err = CollectionsConfig{Items: []CollectionConfig{{Key: "Bad Key"}}}.Specs()
	assert.Error(t, err)
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("SHOPRAG_TEST_ADDR", "valkey:6379")

	cfg, err := Parse([]byte(`
http:
  port: ${SHOPRAG_TEST_PORT:-9090}
database:
  addrs: ["${SHOPRAG_TEST_ADDR}"]
search:
  boost:
    term_boost: 0.2
`))
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, []string{"valkey:6379"}, cfg.Database.Addrs)
	require.NotNil(t, cfg.Search.Boost.TermBoost)
	assert.InDelta(t, 0.2, *cfg.Search.Boost.TermBoost, 1e-9)
	assert.Nil(t, cfg.Search.Boost.ProductBonus)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("http: [unclosed"))
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "failed to parse config"))
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("SHOPRAG_SET", "x")
	out := expandEnvVars([]byte("${SHOPRAG_SET} ${SHOPRAG_UNSET} ${SHOPRAG_UNSET:-dflt}"))
	assert.Equal(t, "x  dflt", string(out))
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	assert.Equal(t, "local", GetEnv())
	t.Setenv("ENV", "prod")
	assert.Equal(t, "prod", GetEnv())
}
