package infra

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolConfig(t *testing.T) {
	t.Setenv("DB_MAX_CONNS", "8")
	t.Setenv("DB_MIN_CONNS", "1")
	t.Setenv("DB_MAX_CONN_LIFETIME", "10m")
	t.Setenv("DB_APPLICATION_NAME", "casino-test")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	poolCfg, err := PoolConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, int32(8), poolCfg.MaxConns)
	assert.Equal(t, int32(1), poolCfg.MinConns)
	assert.Equal(t, 10*time.Minute, poolCfg.MaxConnLifetime)
	assert.Equal(t, 5*time.Minute, poolCfg.MaxConnIdleTime)
	assert.Equal(t, "casino-test", poolCfg.ConnConfig.RuntimeParams["application_name"])
	assert.Equal(t, "casino", poolCfg.ConnConfig.Database)
}

func TestPoolConfig_MinNeverExceedsMax(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://u:p@db:5432/casino", DBMaxConns: 2, DBMinConns: 5}

	poolCfg, err := PoolConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, int32(2), poolCfg.MinConns)
	_, tagged := poolCfg.ConnConfig.RuntimeParams["application_name"]
	assert.False(t, tagged)
}

func TestPoolConfig_BadDSN(t *testing.T) {
	_, err := PoolConfig(&Config{DatabaseURL: "postgres://%zz", DBMaxConns: 1})
	assert.Error(t, err)
}
