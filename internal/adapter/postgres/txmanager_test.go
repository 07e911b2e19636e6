package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/modelboard-ingest/internal/adapter/postgres"
	"github.com/heartmarshall/modelboard-ingest/internal/adapter/postgres/testhelper"
)

// agencyExists checks whether an agency row with the given ID exists in the database.
func agencyExists(t *testing.T, pool *pgxpool.Pool, id uuid.UUID) bool {
	t.Helper()
	var exists bool
	err := pool.QueryRow(
		context.Background(),
		`SELECT EXISTS(SELECT 1 FROM agencies WHERE id = $1)`,
		id,
	).Scan(&exists)
	if err != nil {
		t.Fatalf("agencyExists query: %v", err)
	}
	return exists
}

func insertAgency(ctx context.Context, q postgres.Querier, id uuid.UUID, name string) error {
	_, err := q.Exec(ctx, `INSERT INTO agencies (id, name) VALUES ($1, $2)`, id, name)
	return err
}

func TestRunInTx_Commit(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	id := uuid.New()

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		return insertAgency(ctx, postgres.QuerierFromCtx(ctx, pool), id, "Commit Agency")
	})
	if err != nil {
		t.Fatalf("RunInTx returned error: %v", err)
	}

	if !agencyExists(t, pool, id) {
		t.Fatal("expected agency to exist after committed transaction")
	}
}

func TestRunInTx_RollbackOnError(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	id := uuid.New()
	sentinel := errors.New("chunk failed")

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		if err := insertAgency(ctx, postgres.QuerierFromCtx(ctx, pool), id, "Rollback Agency"); err != nil {
			t.Fatalf("insert inside tx failed: %v", err)
		}
		return sentinel
	})

	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got: %v", err)
	}
	if agencyExists(t, pool, id) {
		t.Fatal("expected agency NOT to exist after rolled-back transaction")
	}
}

func TestRunInTx_RollbackOnPanic(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	id := uuid.New()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic to be re-raised")
		}
		if r != "test panic" {
			t.Fatalf("expected panic value %q, got %v", "test panic", r)
		}
		if agencyExists(t, pool, id) {
			t.Fatal("expected agency NOT to exist after panic-rolled-back transaction")
		}
	}()

	_ = tm.RunInTx(context.Background(), func(ctx context.Context) error {
		if err := insertAgency(ctx, postgres.QuerierFromCtx(ctx, pool), id, "Panic Agency"); err != nil {
			t.Fatalf("insert inside tx failed: %v", err)
		}
		panic("test panic")
	})
}

func TestRunInTx_QuerierFromCtx_UsesTx(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	id := uuid.New()

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, pool)
		if err := insertAgency(ctx, q, id, "Ctx Agency"); err != nil {
			return err
		}

		var exists bool
		if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM agencies WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			t.Fatal("expected agency to be visible within the transaction")
		}
		if agencyExists(t, pool, id) {
			t.Fatal("expected agency to be invisible outside the transaction before commit")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunInTx returned error: %v", err)
	}

	if !agencyExists(t, pool, id) {
		t.Fatal("expected agency to exist after committed transaction")
	}
}

func TestRunInTx_NestedJoinsOuter(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	inner := uuid.New()
	sentinel := errors.New("outer failed")

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		if err := tm.RunInTx(ctx, func(ctx context.Context) error {
			return insertAgency(ctx, postgres.QuerierFromCtx(ctx, pool), inner, "Inner Agency")
		}); err != nil {
			t.Fatalf("nested RunInTx returned error: %v", err)
		}
		return sentinel
	})

	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got: %v", err)
	}
	if agencyExists(t, pool, inner) {
		t.Fatal("expected nested insert to roll back with the outer transaction")
	}
}

func TestRunInTx_RetriesDeadlock(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	id := uuid.New()
	calls := 0

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		calls++
		if err := insertAgency(ctx, postgres.QuerierFromCtx(ctx, pool), id, "Retry Agency"); err != nil {
			return err
		}
		if calls == 1 {
			return &pgconn.PgError{Code: "40P01", Message: "deadlock detected"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunInTx returned error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
	if !agencyExists(t, pool, id) {
		t.Fatal("expected agency to exist after the retried transaction")
	}
}

func TestRunInTx_GivesUpAfterAttempts(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	calls := 0
	err := tm.RunInTx(context.Background(), func(context.Context) error {
		calls++
		return &pgconn.PgError{Code: "40001"}
	})

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "40001" {
		t.Fatalf("expected serialization failure, got: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestRunInTx_DoesNotRetryOtherErrors(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	calls := 0
	_ = tm.RunInTx(context.Background(), func(context.Context) error {
		calls++
		return &pgconn.PgError{Code: "23505"}
	})
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}
