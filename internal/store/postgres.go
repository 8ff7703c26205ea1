package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-enrich/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. Mock pools
// satisfy it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_lead":           `INSERT INTO leads (id, city, source, name, phone, address, email, website, maps_url, email_scraped, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
	"get_lead":              `SELECT id, city, source, name, phone, address, email, website, maps_url, email_scraped, created_at FROM leads WHERE id = $1`,
	"set_lead_email":        `UPDATE leads SET email = $1, email_scraped = true WHERE id = $2`,
	"insert_analysis":       `INSERT INTO analyses (id, lead_id, status, posts_status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
	"get_analysis":          `SELECT id, lead_id, status, posts_status, raw_payload, snapshot, issues, narrative, keywords, posts, error_message, created_at, updated_at FROM analyses WHERE id = $1`,
	"mark_fetched":          `UPDATE analyses SET status = $1, raw_payload = $2, snapshot = $3, issues = $4, error_message = '', updated_at = $5 WHERE id = $6 AND status = ANY($7)`,
	"mark_analyzed":         `UPDATE analyses SET status = $1, issues = $2, narrative = $3, keywords = $4, updated_at = $5 WHERE id = $6 AND status = ANY($7)`,
	"mark_error":            `UPDATE analyses SET status = $1, error_message = $2, updated_at = $3 WHERE id = $4 AND status = ANY($5)`,
	"update_posts":          `UPDATE analyses SET posts_status = $1, posts = $2, updated_at = $3 WHERE id = $4`,
	"insert_rank_check":     `INSERT INTO rank_checks (id, keyword_id, rank_position, checked_at) VALUES ($1, $2, $3, $4)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests.
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	city          TEXT NOT NULL,
	source        TEXT NOT NULL,
	name          TEXT NOT NULL,
	phone         TEXT NOT NULL DEFAULT '',
	address       TEXT NOT NULL DEFAULT '',
	email         TEXT NOT NULL DEFAULT '',
	website       TEXT NOT NULL DEFAULT '',
	maps_url      TEXT NOT NULL DEFAULT '',
	email_scraped BOOLEAN NOT NULL DEFAULT false,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS analyses (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	lead_id       TEXT NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
	status        TEXT NOT NULL DEFAULT 'pending',
	posts_status  TEXT NOT NULL DEFAULT 'pending',
	raw_payload   JSONB,
	snapshot      JSONB,
	issues        JSONB,
	narrative     TEXT NOT NULL DEFAULT '',
	keywords      JSONB,
	posts         JSONB,
	error_message TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS suggestion_batches (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	lead_id       TEXT NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
	status        TEXT NOT NULL DEFAULT 'pending',
	error_message TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS suggestions (
	id       TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	batch_id TEXT NOT NULL REFERENCES suggestion_batches(id) ON DELETE CASCADE,
	phrase   TEXT NOT NULL,
	volume   INTEGER,
	rank     INTEGER NOT NULL,
	reason   TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS tracked_keywords (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	lead_id    TEXT NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
	phrase     TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE(lead_id, phrase)
);

CREATE TABLE IF NOT EXISTS rank_checks (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	keyword_id TEXT NOT NULL REFERENCES tracked_keywords(id) ON DELETE CASCADE,
	rank_position INTEGER,
	checked_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_leads_city ON leads(city);
CREATE INDEX IF NOT EXISTS idx_analyses_lead_id ON analyses(lead_id);
CREATE INDEX IF NOT EXISTS idx_analyses_status ON analyses(status);
CREATE INDEX IF NOT EXISTS idx_batches_lead_id ON suggestion_batches(lead_id);
CREATE INDEX IF NOT EXISTS idx_suggestions_batch_id ON suggestions(batch_id);
CREATE INDEX IF NOT EXISTS idx_tracked_keywords_lead_id ON tracked_keywords(lead_id);
CREATE INDEX IF NOT EXISTS idx_rank_checks_keyword_id ON rank_checks(keyword_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateLead(ctx context.Context, lead model.Lead) (*model.Lead, error) {
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	if lead.Source == "" {
		lead.Source = model.LeadSourceGoogleMaps
	}
	lead.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO leads (id, city, source, name, phone, address, email, website, maps_url, email_scraped, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		lead.ID, lead.City, string(lead.Source), lead.Name, lead.Phone, lead.Address,
		lead.Email, lead.Website, lead.MapsURL, lead.EmailScraped, lead.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert lead")
	}
	return &lead, nil
}

func (s *PostgresStore) GetLead(ctx context.Context, leadID string) (*model.Lead, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, city, source, name, phone, address, email, website, maps_url, email_scraped, created_at
		 FROM leads WHERE id = $1`,
		leadID,
	)
	return scanLeadPG(row)
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT id, city, source, name, phone, address, email, website, maps_url, email_scraped, created_at
	 FROM leads WHERE true`
	args := []any{}
	argIdx := 1

	if filter.City != "" {
		query += fmt.Sprintf(` AND city = $%d`, argIdx)
		args = append(args, filter.City)
		argIdx++
	}
	if filter.MissingEmail {
		query += ` AND email = ''`
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		l, err := scanLeadPG(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *l)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list leads iterate")
}

func (s *PostgresStore) SetLeadEmail(ctx context.Context, leadID, email string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET email = $1, email_scraped = true WHERE id = $2`,
		email, leadID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set lead email %s", leadID)
	}
	return checkTag(tag, "lead", leadID)
}

func (s *PostgresStore) DeleteLead(ctx context.Context, leadID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, leadID)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete lead %s", leadID)
	}
	return checkTag(tag, "lead", leadID)
}

func (s *PostgresStore) CreateAnalysis(ctx context.Context, leadID string) (*model.Analysis, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO analyses (id, lead_id, status, posts_status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id, leadID, string(model.AnalysisStatusPending), string(model.PostsStatusPending), now, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert analysis for lead %s", leadID)
	}

	return &model.Analysis{
		ID:          id,
		LeadID:      leadID,
		Status:      model.AnalysisStatusPending,
		PostsStatus: model.PostsStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

const analysisColumnsPG = `id, lead_id, status, posts_status, raw_payload, snapshot, issues,
	 narrative, keywords, posts, error_message, created_at, updated_at`

func (s *PostgresStore) GetAnalysis(ctx context.Context, analysisID string) (*model.Analysis, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+analysisColumnsPG+` FROM analyses WHERE id = $1`,
		analysisID,
	)
	return scanAnalysisPG(row)
}

func (s *PostgresStore) LatestAnalysis(ctx context.Context, leadID string) (*model.Analysis, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+analysisColumnsPG+` FROM analyses WHERE lead_id = $1
		 ORDER BY created_at DESC, id DESC LIMIT 1`,
		leadID,
	)
	return scanAnalysisPG(row)
}

func (s *PostgresStore) ListAnalyses(ctx context.Context, leadID string) ([]model.Analysis, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+analysisColumnsPG+` FROM analyses WHERE lead_id = $1
		 ORDER BY created_at DESC, id DESC`,
		leadID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list analyses")
	}
	defer rows.Close()

	var out []model.Analysis
	for rows.Next() {
		a, err := scanAnalysisPG(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list analyses iterate")
}

func (s *PostgresStore) MarkAnalysisFetched(ctx context.Context, analysisID string, fields FetchedFields) error {
	snapshotJSON, issuesJSON, err := marshalFetched(fields)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE analyses SET status = $1, raw_payload = $2, snapshot = $3, issues = $4, error_message = '', updated_at = $5
		 WHERE id = $6 AND status = ANY($7)`,
		string(model.AnalysisStatusFetched), []byte(fields.RawPayload), snapshotJSON, issuesJSON,
		time.Now().UTC(), analysisID,
		[]string{string(model.AnalysisStatusPending), string(model.AnalysisStatusFetched)},
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark analysis fetched %s", analysisID)
	}
	return checkTag(tag, "analysis", analysisID)
}

func (s *PostgresStore) MarkAnalysisAnalyzed(ctx context.Context, analysisID string, fields AnalyzedFields) error {
	issuesJSON, keywordsJSON, err := marshalAnalyzed(fields)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE analyses SET status = $1, issues = $2, narrative = $3, keywords = $4, updated_at = $5
		 WHERE id = $6 AND status = ANY($7)`,
		string(model.AnalysisStatusAnalyzed), issuesJSON, fields.Narrative, keywordsJSON,
		time.Now().UTC(), analysisID,
		[]string{string(model.AnalysisStatusFetched), string(model.AnalysisStatusAnalyzed)},
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark analysis analyzed %s", analysisID)
	}
	return checkTag(tag, "analysis", analysisID)
}

func (s *PostgresStore) MarkAnalysisError(ctx context.Context, analysisID, message string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE analyses SET status = $1, error_message = $2, updated_at = $3
		 WHERE id = $4 AND status = ANY($5)`,
		string(model.AnalysisStatusError), message, time.Now().UTC(), analysisID,
		[]string{string(model.AnalysisStatusPending), string(model.AnalysisStatusFetched)},
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark analysis error %s", analysisID)
	}
	return checkTag(tag, "analysis", analysisID)
}

func (s *PostgresStore) UpdateAnalysisPosts(ctx context.Context, analysisID string, status model.PostsStatus, posts model.PostsInfo) error {
	postsJSON, err := json.Marshal(posts)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal posts")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE analyses SET posts_status = $1, posts = $2, updated_at = $3 WHERE id = $4`,
		string(status), postsJSON, time.Now().UTC(), analysisID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update analysis posts %s", analysisID)
	}
	return checkTag(tag, "analysis", analysisID)
}

func (s *PostgresStore) CreateSuggestionBatch(ctx context.Context, leadID string) (*model.SuggestionBatch, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO suggestion_batches (id, lead_id, status, created_at) VALUES ($1, $2, $3, $4)`,
		id, leadID, string(model.BatchStatusPending), now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert batch for lead %s", leadID)
	}

	return &model.SuggestionBatch{
		ID:        id,
		LeadID:    leadID,
		Status:    model.BatchStatusPending,
		CreatedAt: now,
	}, nil
}

func (s *PostgresStore) GetSuggestionBatch(ctx context.Context, batchID string) (*model.SuggestionBatch, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, lead_id, status, error_message, created_at FROM suggestion_batches WHERE id = $1`,
		batchID,
	)
	b, err := scanBatchPG(row)
	if err != nil {
		return nil, err
	}
	if b.Status == model.BatchStatusReady {
		if b.Suggestions, err = s.batchSuggestions(ctx, b.ID); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (s *PostgresStore) LatestSuggestionBatch(ctx context.Context, leadID string) (*model.SuggestionBatch, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, lead_id, status, error_message, created_at FROM suggestion_batches
		 WHERE lead_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`,
		leadID,
	)
	b, err := scanBatchPG(row)
	if err != nil {
		return nil, err
	}
	if b.Status == model.BatchStatusReady {
		if b.Suggestions, err = s.batchSuggestions(ctx, b.ID); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (s *PostgresStore) batchSuggestions(ctx context.Context, batchID string) ([]model.Suggestion, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, batch_id, phrase, volume, rank, reason FROM suggestions
		 WHERE batch_id = $1 ORDER BY rank ASC`,
		batchID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list suggestions")
	}
	defer rows.Close()

	var out []model.Suggestion
	for rows.Next() {
		var sg model.Suggestion
		if err := rows.Scan(&sg.ID, &sg.BatchID, &sg.Phrase, &sg.Volume, &sg.Rank, &sg.Reason); err != nil {
			return nil, eris.Wrap(err, "postgres: scan suggestion")
		}
		out = append(out, sg)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list suggestions iterate")
}

func (s *PostgresStore) MarkBatchReady(ctx context.Context, batchID string, suggestions []model.Suggestion) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE suggestion_batches SET status = $1, error_message = '' WHERE id = $2 AND status = $3`,
		string(model.BatchStatusReady), batchID, string(model.BatchStatusPending),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark batch ready %s", batchID)
	}
	if err := checkTag(tag, "batch", batchID); err != nil {
		return err
	}

	for _, sg := range suggestions {
		id := sg.ID
		if id == "" {
			id = uuid.New().String()
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO suggestions (id, batch_id, phrase, volume, rank, reason) VALUES ($1, $2, $3, $4, $5, $6)`,
			id, batchID, sg.Phrase, sg.Volume, sg.Rank, sg.Reason,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert suggestion %q", sg.Phrase)
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit batch")
}

func (s *PostgresStore) MarkBatchError(ctx context.Context, batchID, message string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE suggestion_batches SET status = $1, error_message = $2 WHERE id = $3 AND status = $4`,
		string(model.BatchStatusError), message, batchID, string(model.BatchStatusPending),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark batch error %s", batchID)
	}
	return checkTag(tag, "batch", batchID)
}

func (s *PostgresStore) AddTrackedKeyword(ctx context.Context, leadID, phrase string) (*model.TrackedKeyword, error) {
	var kw model.TrackedKeyword
	err := s.pool.QueryRow(ctx,
		`SELECT id, lead_id, phrase, created_at FROM tracked_keywords WHERE lead_id = $1 AND phrase = $2`,
		leadID, phrase,
	).Scan(&kw.ID, &kw.LeadID, &kw.Phrase, &kw.CreatedAt)
	if err == nil {
		return &kw, nil
	}
	if err != pgx.ErrNoRows {
		return nil, eris.Wrap(err, "postgres: get tracked keyword")
	}

	kw = model.TrackedKeyword{
		ID:        uuid.New().String(),
		LeadID:    leadID,
		Phrase:    phrase,
		CreatedAt: time.Now().UTC(),
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO tracked_keywords (id, lead_id, phrase, created_at) VALUES ($1, $2, $3, $4)`,
		kw.ID, kw.LeadID, kw.Phrase, kw.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert tracked keyword %q", phrase)
	}
	return &kw, nil
}

func (s *PostgresStore) ListTrackedKeywords(ctx context.Context, leadID string) ([]model.TrackedKeyword, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, lead_id, phrase, created_at FROM tracked_keywords
		 WHERE lead_id = $1 ORDER BY created_at ASC, phrase ASC`,
		leadID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list tracked keywords")
	}
	defer rows.Close()

	var keywords []model.TrackedKeyword
	for rows.Next() {
		var kw model.TrackedKeyword
		if err := rows.Scan(&kw.ID, &kw.LeadID, &kw.Phrase, &kw.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan tracked keyword")
		}
		keywords = append(keywords, kw)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: list tracked keywords iterate")
	}

	for i := range keywords {
		checks, err := s.keywordChecks(ctx, keywords[i].ID)
		if err != nil {
			return nil, err
		}
		keywords[i].Checks = checks
	}
	return keywords, nil
}

func (s *PostgresStore) keywordChecks(ctx context.Context, keywordID string) ([]model.RankCheck, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, keyword_id, rank_position, checked_at FROM rank_checks
		 WHERE keyword_id = $1 ORDER BY checked_at DESC, id DESC`,
		keywordID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list rank checks")
	}
	defer rows.Close()

	var checks []model.RankCheck
	for rows.Next() {
		var rc model.RankCheck
		if err := rows.Scan(&rc.ID, &rc.KeywordID, &rc.Position, &rc.CheckedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan rank check")
		}
		checks = append(checks, rc)
	}
	return checks, eris.Wrap(rows.Err(), "postgres: list rank checks iterate")
}

func (s *PostgresStore) AddRankCheck(ctx context.Context, keywordID string, position *int) (*model.RankCheck, error) {
	rc := model.RankCheck{
		ID:        uuid.New().String(),
		KeywordID: keywordID,
		Position:  position,
		CheckedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO rank_checks (id, keyword_id, rank_position, checked_at) VALUES ($1, $2, $3, $4)`,
		rc.ID, rc.KeywordID, rc.Position, rc.CheckedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert rank check for keyword %s", keywordID)
	}
	return &rc, nil
}

// helpers

func checkTag(tag pgconn.CommandTag, entity, id string) error {
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

func scanLeadPG(row pgx.Row) (*model.Lead, error) {
	var l model.Lead
	var source string
	err := row.Scan(&l.ID, &l.City, &source, &l.Name, &l.Phone, &l.Address,
		&l.Email, &l.Website, &l.MapsURL, &l.EmailScraped, &l.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, eris.Wrap(ErrNotFound, "lead")
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan lead")
	}
	l.Source = model.LeadSource(source)
	return &l, nil
}

func scanAnalysisPG(row pgx.Row) (*model.Analysis, error) {
	var a model.Analysis
	var status, postsStatus string
	var rawPayload, snapshot, issues, keywords, posts []byte

	err := row.Scan(&a.ID, &a.LeadID, &status, &postsStatus, &rawPayload, &snapshot,
		&issues, &a.Narrative, &keywords, &posts, &a.ErrorMessage, &a.CreatedAt, &a.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, eris.Wrap(ErrNotFound, "analysis")
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan analysis")
	}

	a.Status = model.AnalysisStatus(status)
	a.PostsStatus = model.PostsStatus(postsStatus)
	if len(rawPayload) > 0 {
		a.RawPayload = json.RawMessage(rawPayload)
	}
	if len(snapshot) > 0 && string(snapshot) != "null" {
		a.Snapshot = &model.BusinessSnapshot{}
		if err := json.Unmarshal(snapshot, a.Snapshot); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal snapshot")
		}
	}
	if len(issues) > 0 {
		if err := json.Unmarshal(issues, &a.Issues); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal issues")
		}
	}
	if len(keywords) > 0 {
		if err := json.Unmarshal(keywords, &a.Keywords); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal keywords")
		}
	}
	if len(posts) > 0 {
		if err := json.Unmarshal(posts, &a.Posts); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal posts")
		}
	}
	return &a, nil
}

func scanBatchPG(row pgx.Row) (*model.SuggestionBatch, error) {
	var b model.SuggestionBatch
	var status string
	err := row.Scan(&b.ID, &b.LeadID, &status, &b.ErrorMessage, &b.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, eris.Wrap(ErrNotFound, "batch")
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan batch")
	}
	b.Status = model.BatchStatus(status)
	return &b, nil
}
