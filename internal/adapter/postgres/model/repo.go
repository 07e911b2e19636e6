// Package model implements persistence of ingested model records and their
// media and agency links.
package model

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/modelboard-ingest/internal/adapter/postgres"
	"github.com/heartmarshall/modelboard-ingest/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repo provides model persistence backed by PostgreSQL. Every method runs on
// the transaction in ctx when there is one.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new model repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) q(ctx context.Context) postgres.Querier {
	return postgres.QuerierFromCtx(ctx, r.pool)
}

// insertColumns is the fixed column order for inserts.
func insertColumns() []string {
	cols := domain.ModelColumns()
	return append(cols, domain.ColGender, domain.ColBoardCategory, domain.ColDataSource)
}

// CountBySource returns how many models were ingested from source.
func (r *Repo) CountBySource(ctx context.Context, source string) (int, error) {
	query, args, err := psql.Select("count(*)").
		From(domain.TableModels).
		Where(sq.Eq{domain.ColDataSource: source}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var n int
	if err := r.q(ctx).QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, postgres.MapError(err, "models", source)
	}
	return n, nil
}

// InsertBatch inserts records in one statement. Rows whose logical key
// already exists are skipped. Returns the number of rows inserted.
func (r *Repo) InsertBatch(ctx context.Context, records []domain.CanonicalRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	cols := insertColumns()
	insert := psql.Insert(domain.TableModels).Columns(cols...)
	for _, rec := range records {
		values := make([]any, len(cols))
		for i, col := range cols {
			values[i] = rec.Fields[col]
		}
		insert = insert.Values(values...)
	}

	query, args, err := insert.Suffix("ON CONFLICT DO NOTHING").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}

	tag, err := r.q(ctx).Exec(ctx, query, args...)
	if err != nil {
		return 0, postgres.MapError(err, "models", records[0].Text(domain.ColDataSource))
	}
	return int(tag.RowsAffected()), nil
}

// ResolveIDs maps identity keys (see domain.IdentityKey) of records to the
// persisted rows, whether just inserted or already present.
func (r *Repo) ResolveIDs(ctx context.Context, source string, records []domain.CanonicalRecord) (map[string]domain.ModelRef, error) {
	names := make([]string, 0, len(records))
	handles := make([]string, 0, len(records))
	for _, rec := range records {
		if n := rec.Name(); n != "" {
			names = append(names, strings.ToLower(n))
		}
		if h := rec.Instagram(); h != "" {
			handles = append(handles, strings.ToLower(h))
		}
	}
	out := make(map[string]domain.ModelRef, len(records))
	if len(names) == 0 && len(handles) == 0 {
		return out, nil
	}

	query, args, err := psql.Select(
		"m.id", "m.gender", "COALESCE(m.model_board_category, '')",
		"COALESCE(m.name, '')", "COALESCE(m.instagram_handle, '')",
		"m.recommendation_updated",
		"(SELECT count(*) FROM model_media mm WHERE mm.model_id = m.id)",
	).
		From(domain.TableModels + " m").
		Where(sq.Eq{"m.data_source": source}).
		Where(sq.Or{
			sq.Eq{"lower(m.name)": names},
			sq.Eq{"lower(m.instagram_handle)": handles},
		}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build resolve query: %w", err)
	}

	rows, err := r.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.MapError(err, "models", source)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id                          uuid.UUID
			gender, board, name, handle string
			ref                         domain.ModelRef
		)
		if err := rows.Scan(&id, &gender, &board, &name, &handle, &ref.RecommendationUpdated, &ref.MediaCount); err != nil {
			return nil, fmt.Errorf("scan model: %w", err)
		}
		ref.ID = id.String()
		ref.Name = name
		out[domain.IdentityKey(source, gender, board, name, handle)] = ref
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "models", source)
	}
	return out, nil
}

// LinkMedia creates media rows, skipping duplicates within links and rows
// that already exist.
func (r *Repo) LinkMedia(ctx context.Context, links []domain.MediaLink) (domain.LinkCounts, error) {
	var counts domain.LinkCounts
	if len(links) == 0 {
		return counts, nil
	}

	ids := make([]uuid.UUID, 0, len(links))
	pending := make([]domain.MediaLink, 0, len(links))
	seen := make(map[domain.MediaLink]bool, len(links))
	for _, l := range links {
		if seen[l] {
			continue
		}
		seen[l] = true
		id, err := parseID(l.ModelID)
		if err != nil {
			return counts, err
		}
		ids = append(ids, id)
		pending = append(pending, l)
	}

	existing, err := r.existingMedia(ctx, ids)
	if err != nil {
		return counts, err
	}

	batch := &pgx.Batch{}
	for i, l := range pending {
		if existing[l] {
			counts.Existing++
			continue
		}
		batch.Queue(
			`INSERT INTO model_media (model_id, link) VALUES ($1, $2)
			 ON CONFLICT (model_id, link) DO NOTHING`,
			ids[i], l.Link,
		)
	}

	inserted, err := r.sendBatchExec(ctx, batch)
	if err != nil {
		return counts, err
	}
	counts.Linked = inserted
	counts.Existing += batch.Len() - inserted
	return counts, nil
}

func (r *Repo) existingMedia(ctx context.Context, ids []uuid.UUID) (map[domain.MediaLink]bool, error) {
	rows, err := r.q(ctx).Query(ctx,
		`SELECT model_id, link FROM model_media WHERE model_id = ANY($1)`, ids)
	if err != nil {
		return nil, postgres.MapError(err, "model_media", "")
	}
	defer rows.Close()

	out := make(map[domain.MediaLink]bool)
	for rows.Next() {
		var (
			id   uuid.UUID
			link string
		)
		if err := rows.Scan(&id, &link); err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		out[domain.MediaLink{ModelID: id.String(), Link: link}] = true
	}
	return out, rows.Err()
}

// AgencyExists reports whether an agency row exists.
func (r *Repo) AgencyExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.q(ctx).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM agencies WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, postgres.MapError(err, "agency", id.String())
	}
	return exists, nil
}

// LinkAgency associates models with an agency. Existing associations are
// counted, not duplicated.
func (r *Repo) LinkAgency(ctx context.Context, agencyID uuid.UUID, modelIDs []string) (domain.LinkCounts, error) {
	var counts domain.LinkCounts
	if len(modelIDs) == 0 {
		return counts, nil
	}

	seen := make(map[string]bool, len(modelIDs))
	batch := &pgx.Batch{}
	for _, raw := range modelIDs {
		if seen[raw] {
			continue
		}
		seen[raw] = true
		id, err := parseID(raw)
		if err != nil {
			return counts, err
		}
		batch.Queue(
			`INSERT INTO model_agencies (model_id, agency_id) VALUES ($1, $2)
			 ON CONFLICT (model_id, agency_id) DO NOTHING`,
			id, agencyID,
		)
	}

	inserted, err := r.sendBatchExec(ctx, batch)
	if err != nil {
		return counts, err
	}
	counts.Linked = inserted
	counts.Existing = batch.Len() - inserted
	return counts, nil
}

// DeleteBySource removes every model ingested from source. Children are
// removed first.
func (r *Repo) DeleteBySource(ctx context.Context, source string) (domain.DeleteResult, error) {
	res := domain.DeleteResult{SourceID: source}
	q := r.q(ctx)

	sub := `SELECT id FROM models WHERE data_source = $1`

	tag, err := q.Exec(ctx, `DELETE FROM model_media WHERE model_id IN (`+sub+`)`, source)
	if err != nil {
		return res, postgres.MapError(err, "model_media", source)
	}
	res.Media = tag.RowsAffected()

	tag, err = q.Exec(ctx, `DELETE FROM model_agencies WHERE model_id IN (`+sub+`)`, source)
	if err != nil {
		return res, postgres.MapError(err, "model_agencies", source)
	}
	res.AgencyLinks = tag.RowsAffected()

	query, args, err := psql.Delete(domain.TableModels).Where(sq.Eq{domain.ColDataSource: source}).ToSql()
	if err != nil {
		return res, fmt.Errorf("build delete: %w", err)
	}
	tag, err = q.Exec(ctx, query, args...)
	if err != nil {
		return res, postgres.MapError(err, "models", source)
	}
	res.Models = tag.RowsAffected()
	return res, nil
}

// EnrichmentCandidates lists models of source that have media and have not
// been enriched yet, oldest first.
func (r *Repo) EnrichmentCandidates(ctx context.Context, source string) ([]domain.ModelRef, error) {
	query, args, err := psql.Select("m.id", "COALESCE(m.name, '')", "count(mm.id)").
		From(domain.TableModels + " m").
		Join("model_media mm ON mm.model_id = m.id").
		Where(sq.Eq{"m.data_source": source, "m.recommendation_updated": false}).
		GroupBy("m.id", "m.name", "m.created_at").
		OrderBy("m.created_at", "m.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build candidates query: %w", err)
	}

	rows, err := r.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.MapError(err, "models", source)
	}
	defer rows.Close()

	var out []domain.ModelRef
	for rows.Next() {
		var (
			id  uuid.UUID
			ref domain.ModelRef
		)
		if err := rows.Scan(&id, &ref.Name, &ref.MediaCount); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		ref.ID = id.String()
		out = append(out, ref)
	}
	return out, rows.Err()
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("model id %q: %w", raw, domain.ErrValidation)
	}
	return id, nil
}

// sendBatchExec executes all queued statements and returns the total rows affected.
func (r *Repo) sendBatchExec(ctx context.Context, batch *pgx.Batch) (int, error) {
	if batch.Len() == 0 {
		return 0, nil
	}

	br := r.q(ctx).SendBatch(ctx, batch)
	defer br.Close()

	total := 0
	for range batch.Len() {
		tag, err := br.Exec()
		if err != nil {
			return total, postgres.MapError(err, "batch", "exec")
		}
		total += int(tag.RowsAffected())
	}
	return total, nil
}
