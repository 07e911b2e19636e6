package testhelper

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/modelboard-ingest/internal/domain"
)

// UniqueSource returns a data_source value no other test uses.
func UniqueSource(prefix string) string {
	return prefix + "_" + uuid.New().String()[:8]
}

// SeedAgency inserts an agency and returns its id.
func SeedAgency(t *testing.T, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO agencies (id, name) VALUES ($1, $2)`,
		id, "Agency "+id.String()[:8],
	)
	if err != nil {
		t.Fatalf("SeedAgency: %v", err)
	}
	return id
}

// SeedModel inserts a minimal model row and returns its id.
func SeedModel(t *testing.T, pool *pgxpool.Pool, source string, gender domain.Gender, name string) uuid.UUID {
	t.Helper()

	var id uuid.UUID
	err := pool.QueryRow(context.Background(),
		`INSERT INTO models (name, gender, data_source) VALUES ($1, $2, $3) RETURNING id`,
		name, string(gender), source,
	).Scan(&id)
	if err != nil {
		t.Fatalf("SeedModel: %v", err)
	}
	return id
}

// SeedMedia attaches a media link to a model.
func SeedMedia(t *testing.T, pool *pgxpool.Pool, modelID uuid.UUID, link string) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		`INSERT INTO model_media (model_id, link) VALUES ($1, $2)`, modelID, link)
	if err != nil {
		t.Fatalf("SeedMedia: %v", err)
	}
}
