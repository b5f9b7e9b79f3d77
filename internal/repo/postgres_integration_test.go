//go:build integration

package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:15",
			ExposedPorts: []string{"5432/tcp"},
			Cmd:          []string{"postgres", "-c", "fsync=off"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "wind",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	return fmt.Sprintf("postgres://postgres:password@%s:%s/wind?sslmode=disable", host, port.Port())
}

func TestPostgres(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, setupPostgres(t))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, EnsureSchema(ctx, db))
	// idempotent
	require.NoError(t, EnsureSchema(ctx, db))

	t.Run("blob", func(t *testing.T) {
		blob := NewPostgresBlobDB(db)

		data, err := blob.Load(ctx, "cd_wind_cases")
		require.NoError(t, err)
		assert.Nil(t, data)

		require.NoError(t, blob.Save(ctx, "cd_wind_cases", []byte(`[{"name":"a"}]`)))
		require.NoError(t, blob.Save(ctx, "cd_wind_cases", []byte(`[]`)))

		data, err = blob.Load(ctx, "cd_wind_cases")
		require.NoError(t, err)
		assert.Equal(t, "[]", string(data))
	})

	t.Run("users", func(t *testing.T) {
		users := NewPostgresUserDB(db)

		id, err := users.CreateUser(ctx, "engineer", "eng@example.com", "hash")
		require.NoError(t, err)
		assert.Positive(t, id)

		_, err = users.CreateUser(ctx, "engineer", "other@example.com", "hash")
		assert.Error(t, err)

		gotID, hash, err := users.GetByLogin(ctx, "engineer")
		require.NoError(t, err)
		assert.Equal(t, id, gotID)
		assert.Equal(t, "hash", hash)

		_, _, err = users.GetByLogin(ctx, "nobody")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}
