package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/park285/tap-racer/internal/config"
	"github.com/park285/tap-racer/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")
	out, err := execute(t, "token", "--uid", "u1", "--name", "Ann")
	require.NoError(t, err)

	v, err := identity.NewJWTVerifier("cli-secret")
	require.NoError(t, err)
	id, err := v.Resolve(context.Background(), strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "u1", id.UID)
	assert.Equal(t, "Ann", id.Name)
}

func TestTokenRequiresSecretAndUID(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := execute(t, "token", "--uid", "u1")
	assert.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("JWT_SECRET", "x")
	_, err = execute(t, "token")
	assert.Error(t, err)
}

func TestRoomsAndLeaderboardOnMemoryStore(t *testing.T) {
	t.Setenv("MESSAGES_DIR", "")
	out, err := execute(t, "rooms", "--store", "memory")
	require.NoError(t, err)
	assert.Contains(t, out, "ROOM")

	t.Setenv("STORE_BACKEND", "memory")
	out, err = execute(t, "leaderboard", "--limit", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "TOP 3")
	assert.Contains(t, out, "아직 기록이 없어요.")
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("STORE_BACKEND", "redis")
	cfg := loadConfig(&options{addr: ":7000", storeBackend: "MEMORY", limit: 4})
	assert.Equal(t, ":7000", cfg.HTTPAddr)
	assert.Equal(t, config.StoreMemory, cfg.StoreBackend)
	assert.Equal(t, 4, cfg.LeaderboardLimit)

	_, err := openStore(&config.AppConfig{StoreBackend: "etcd"})
	assert.Error(t, err)
	_, err = openStore(&config.AppConfig{StoreBackend: config.StoreRedis})
	assert.ErrorContains(t, err, "REDIS_URL")
}
