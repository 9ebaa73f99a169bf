package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jonathan/talent-pipeline/internal/config"
	"github.com/jonathan/talent-pipeline/internal/db"
	"github.com/jonathan/talent-pipeline/internal/server"
	"github.com/jonathan/talent-pipeline/internal/types"
)

const testSecret = "command-test-secret"

func newTestCommand() (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())
	return cmd, &out
}

func testJWTService(t *testing.T) *server.JWTService {
	t.Helper()
	cfg, err := config.NewJWTConfig(testSecret, 1)
	require.NoError(t, err)
	return server.NewJWTService(cfg)
}

func TestRunToken_PrintsValidToken(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	configPath = ""
	userID := uuid.New()
	tokenUserID = userID.String()
	tokenRole = "hr"

	cmd, out := newTestCommand()
	require.NoError(t, runToken(cmd, nil))

	claims, err := testJWTService(t).ValidateToken(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, types.RoleHR, claims.Role)
}

func TestRunToken_Errors(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		user    string
		role    string
		wantErr string
	}{
		{"bad user id", testSecret, "not-a-uuid", "hr", "invalid --user"},
		{"unknown role", testSecret, uuid.NewString(), "root", "unknown role"},
		{"missing secret", "", uuid.NewString(), "admin", "JWT_SECRET"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", tt.secret)
			configPath = ""
			tokenUserID = tt.user
			tokenRole = tt.role

			cmd, out := newTestCommand()
			err := runToken(cmd, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Empty(t, out.String())
		})
	}
}

func TestRunScreen_RejectsBadJDID(t *testing.T) {
	screenJDID = "42"
	cmd, _ := newTestCommand()
	err := runScreen(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --jd")
}

func TestRunUserCreate_Validation(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	configPath = ""
	userName = "Dana"

	userEmail = "dana@example.com"
	userRole = "owner"
	cmd, _ := newTestCommand()
	err := runUserCreate(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown role")

	userEmail = "   "
	userRole = "hr"
	err = runUserCreate(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--email")

	userEmail = "dana@example.com"
	err = runUserCreate(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestRunMigrate_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	configPath = ""
	cmd, _ := newTestCommand()
	err := runMigrate(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestSeedStaff_CreatesOneUserPerStaffRole(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	store := db.NewMemoryStore()
	jwtService := testJWTService(t)

	require.NoError(t, seedStaff(context.Background(), store, jwtService, zap.New(core)))

	seeded := logs.FilterMessage("seeded user").All()
	require.Len(t, seeded, 3)

	roles := map[types.Role]bool{}
	for _, entry := range seeded {
		fields := entry.ContextMap()
		id, err := uuid.Parse(fields["user_id"].(string))
		require.NoError(t, err)

		u, err := store.GetUser(context.Background(), id)
		require.NoError(t, err)
		require.NotNil(t, u)

		claims, err := jwtService.ValidateToken(fields["token"].(string))
		require.NoError(t, err)
		assert.Equal(t, u.ID, claims.UserID)
		assert.Equal(t, u.Role, claims.Role)
		roles[u.Role] = true
	}
	assert.Equal(t, map[types.Role]bool{types.RoleAdmin: true, types.RoleRMG: true, types.RoleHR: true}, roles)
}

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "screen", "migrate", "token", "user"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}
