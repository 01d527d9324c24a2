package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "no-such-file.toml")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "mmotors-backoffice", cfg.App.Name)
	require.Equal(t, "0.0.0.0:8080", cfg.HTTPAddr())
	require.Equal(t, 10, cfg.MySQL.MaxIdleConns)
	require.Equal(t, 50, cfg.MySQL.MaxOpenConns)
	require.Equal(t, 60, cfg.MySQL.ConnMaxLifetimeMinute)
	require.Equal(t, 1000, cfg.RAG.ChunkSize)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "no-such-file.toml")
	t.Setenv("MYSQL_MAX_IDLE_CONNS", "4")
	t.Setenv("MYSQL_MAX_OPEN_CONNS", "16")
	t.Setenv("MYSQL_CONN_MAX_LIFETIME_MINUTE", "15")
	t.Setenv("APP_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 4, cfg.MySQL.MaxIdleConns)
	require.Equal(t, 16, cfg.MySQL.MaxOpenConns)
	require.Equal(t, 15, cfg.MySQL.ConnMaxLifetimeMinute)
	require.Equal(t, 9090, cfg.App.Port)
}

func TestLoadEnvOverrideBadInt(t *testing.T) {
	t.Setenv("CONFIG_FILE", "no-such-file.toml")
	t.Setenv("MYSQL_MAX_OPEN_CONNS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 50, cfg.MySQL.MaxOpenConns)
}

func TestMySQLDSN(t *testing.T) {
	cfg := defaultConfig()
	cfg.MySQL.User = "svc"
	cfg.MySQL.Password = "pw"
	cfg.MySQL.Host = "db.internal"
	cfg.MySQL.Port = 3307
	cfg.MySQL.DB = "backoffice"
	cfg.MySQL.Params = "parseTime=true"

	require.Equal(t, "svc:pw@tcp(db.internal:3307)/backoffice?parseTime=true", cfg.MySQLDSN())
}
