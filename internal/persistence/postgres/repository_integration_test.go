//go:build integration

package postgres

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/credits/internal/domain"
)

func TestRepositoryLogAndPayoutRoundTrip(t *testing.T) {
	ctx := context.Background()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("credits"),
		postgrescontainer.WithUsername("mrv"),
		postgrescontainer.WithPassword("mrv"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, waitForDatabase(ctx, connStr))

	runMigrations(t, ctx, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	repo := NewRepository(pool)
	owner := uuid.NewString()

	qty := 5.0
	logs := []domain.ActivityLog{
		{ID: uuid.NewString(), OwnerID: owner, Type: "tree_planting", Date: "2024-01-10", Quantity: &qty, Unit: "trees", CreatedAt: time.Now().UTC()},
		{ID: uuid.NewString(), OwnerID: owner, Type: "plowing", Date: "2024-02-15", CreatedAt: time.Now().UTC()},
		{ID: uuid.NewString(), OwnerID: owner, Type: "seeding", Date: "2024-03-20", CreatedAt: time.Now().UTC()},
	}
	for _, l := range logs {
		require.NoError(t, repo.Append(ctx, l))
	}

	// Pagination walks newest-first.
	page, next, err := repo.ListByOwner(ctx, owner, nil, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NotNil(t, next)
	require.Equal(t, "2024-03-20", page[0].Date)

	rest, _, err := repo.ListByOwner(ctx, owner, next, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	require.Equal(t, "2024-01-10", rest[0].Date)

	all, err := repo.AllByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, all, 3)

	// Each append leaves an outbox event behind.
	var outboxCount int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE owner_id=$1`, owner).Scan(&outboxCount))
	require.Equal(t, 3, outboxCount)

	payout := domain.Payout{
		ID:        uuid.NewString(),
		OwnerID:   owner,
		Amount:    0.4,
		Status:    domain.PayoutStatusPendingReview,
		Flagged:   true,
		RiskScore: 0.65,
		Anomalies: []domain.Anomaly{
			{Type: "temporal_spike", Severity: "medium", Description: "Unusual concentration of recent activities"},
		},
		Notes:     "Medium risk - additional verification may be needed",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, payout))

	stored, err := repo.PayoutsByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, domain.PayoutStatusPendingReview, stored[0].Status)
	require.True(t, stored[0].Flagged)
	require.Len(t, stored[0].Anomalies, 1)
	require.Equal(t, "temporal_spike", stored[0].Anomalies[0].Type)
}

func TestRepositoryDeleteEnforcesOwnership(t *testing.T) {
	ctx := context.Background()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("credits"),
		postgrescontainer.WithUsername("mrv"),
		postgrescontainer.WithPassword("mrv"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, waitForDatabase(ctx, connStr))

	runMigrations(t, ctx, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	repo := NewRepository(pool)
	owner := uuid.NewString()

	entry := domain.ActivityLog{
		ID: uuid.NewString(), OwnerID: owner, Type: "plowing", Date: "2024-06-01", CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Append(ctx, entry))

	// A different owner cannot delete the log.
	err = repo.Delete(ctx, entry.ID, uuid.NewString())
	require.ErrorIs(t, err, domain.ErrLogNotFound)

	// An administrative delete (empty owner filter) succeeds.
	require.NoError(t, repo.Delete(ctx, entry.ID, ""))

	err = repo.Delete(ctx, entry.ID, owner)
	require.ErrorIs(t, err, domain.ErrLogNotFound)
}

func runMigrations(t *testing.T, ctx context.Context, connStr string) {
	files := []string{
		"../../../db/postgres/migrations/0001_init.up.sql",
		"../../../db/postgres/migrations/0002_outbox_dlq_retry.up.sql",
	}

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()

	for _, rel := range files {
		path := resolvePath(t, rel)
		contents, readErr := os.ReadFile(path)
		require.NoError(t, readErr)

		_, execErr := pool.Exec(ctx, string(contents))
		require.NoError(t, execErr)
	}
}

func resolvePath(t *testing.T, rel string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), rel)
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}
