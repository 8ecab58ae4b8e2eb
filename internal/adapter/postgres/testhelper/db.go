package testhelper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/heartmarshall/notes-assistant-backend/internal/adapter/postgres"
)

const (
	// pgvector/pgvector is the official postgres image plus the vector extension.
	image = "pgvector/pgvector:pg17"

	// DSNEnv points the suite at an existing database instead of a container.
	DSNEnv = "TEST_DATABASE_DSN"
)

var shared struct {
	once sync.Once
	dsn  string
	err  error
}

// SetupTestDB returns a pool on a migrated database shared by the whole test
// binary. Tests are skipped under -short. Each test should scope its rows
// with NewUserID instead of truncating.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("database test skipped in short mode")
	}

	shared.once.Do(func() {
		shared.dsn, shared.err = provision()
	})
	if shared.err != nil {
		t.Fatalf("testhelper: %v", shared.err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, shared.dsn)
	if err != nil {
		t.Fatalf("testhelper: connect: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func provision() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dsn := os.Getenv(DSNEnv)
	if dsn == "" {
		var err error
		if dsn, err = startContainer(ctx); err != nil {
			return "", err
		}
	}

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := postgres.Migrate(ctx, dsn, quiet); err != nil {
		return "", fmt.Errorf("migrate: %w", err)
	}
	return dsn, nil
}

// startContainer leaves the container running until the process exits.
func startContainer(ctx context.Context) (string, error) {
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "notes",
				"POSTGRES_PASSWORD": "notes",
				"POSTGRES_DB":       "notes_test",
			},
			// The entrypoint restarts postgres once after init.
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		return "", fmt.Errorf("start %s: %w", image, err)
	}

	endpoint, err := c.PortEndpoint(ctx, "5432/tcp", "")
	if err != nil {
		return "", fmt.Errorf("container endpoint: %w", err)
	}
	return fmt.Sprintf("postgres://notes:notes@%s/notes_test?sslmode=disable", endpoint), nil
}
