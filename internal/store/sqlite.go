package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/lead-enrich/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// Pragmas are per-connection; a single pooled connection keeps
	// foreign_keys in force for every statement.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id            TEXT PRIMARY KEY,
	city          TEXT NOT NULL,
	source        TEXT NOT NULL,
	name          TEXT NOT NULL,
	phone         TEXT NOT NULL DEFAULT '',
	address       TEXT NOT NULL DEFAULT '',
	email         TEXT NOT NULL DEFAULT '',
	website       TEXT NOT NULL DEFAULT '',
	maps_url      TEXT NOT NULL DEFAULT '',
	email_scraped INTEGER NOT NULL DEFAULT 0,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS analyses (
	id            TEXT PRIMARY KEY,
	lead_id       TEXT NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
	status        TEXT NOT NULL DEFAULT 'pending',
	posts_status  TEXT NOT NULL DEFAULT 'pending',
	raw_payload   TEXT,
	snapshot      TEXT,
	issues        TEXT,
	narrative     TEXT NOT NULL DEFAULT '',
	keywords      TEXT,
	posts         TEXT,
	error_message TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS suggestion_batches (
	id            TEXT PRIMARY KEY,
	lead_id       TEXT NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
	status        TEXT NOT NULL DEFAULT 'pending',
	error_message TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS suggestions (
	id       TEXT PRIMARY KEY,
	batch_id TEXT NOT NULL REFERENCES suggestion_batches(id) ON DELETE CASCADE,
	phrase   TEXT NOT NULL,
	volume   INTEGER,
	rank     INTEGER NOT NULL,
	reason   TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS tracked_keywords (
	id         TEXT PRIMARY KEY,
	lead_id    TEXT NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
	phrase     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE(lead_id, phrase)
);

CREATE TABLE IF NOT EXISTS rank_checks (
	id         TEXT PRIMARY KEY,
	keyword_id TEXT NOT NULL REFERENCES tracked_keywords(id) ON DELETE CASCADE,
	rank_position INTEGER,
	checked_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_leads_city ON leads(city);
CREATE INDEX IF NOT EXISTS idx_analyses_lead_id ON analyses(lead_id);
CREATE INDEX IF NOT EXISTS idx_analyses_status ON analyses(status);
CREATE INDEX IF NOT EXISTS idx_batches_lead_id ON suggestion_batches(lead_id);
CREATE INDEX IF NOT EXISTS idx_suggestions_batch_id ON suggestions(batch_id);
CREATE INDEX IF NOT EXISTS idx_tracked_keywords_lead_id ON tracked_keywords(lead_id);
CREATE INDEX IF NOT EXISTS idx_rank_checks_keyword_id ON rank_checks(keyword_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateLead(ctx context.Context, lead model.Lead) (*model.Lead, error) {
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	if lead.Source == "" {
		lead.Source = model.LeadSourceGoogleMaps
	}
	lead.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO leads (id, city, source, name, phone, address, email, website, maps_url, email_scraped, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.ID, lead.City, string(lead.Source), lead.Name, lead.Phone, lead.Address,
		lead.Email, lead.Website, lead.MapsURL, lead.EmailScraped, lead.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert lead")
	}
	return &lead, nil
}

func (s *SQLiteStore) GetLead(ctx context.Context, leadID string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, city, source, name, phone, address, email, website, maps_url, email_scraped, created_at
		 FROM leads WHERE id = ?`,
		leadID,
	)
	return scanLead(row)
}

func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT id, city, source, name, phone, address, email, website, maps_url, email_scraped, created_at
	 FROM leads WHERE 1=1`
	var args []any

	if filter.City != "" {
		query += ` AND city = ?`
		args = append(args, filter.City)
	}
	if filter.MissingEmail {
		query += ` AND email = ''`
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *l)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: list leads iterate")
}

func (s *SQLiteStore) SetLeadEmail(ctx context.Context, leadID, email string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET email = ?, email_scraped = 1 WHERE id = ?`,
		email, leadID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set lead email %s", leadID)
	}
	return checkRowsAffected(res, "lead", leadID)
}

func (s *SQLiteStore) DeleteLead(ctx context.Context, leadID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM leads WHERE id = ?`, leadID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete lead %s", leadID)
	}
	return checkRowsAffected(res, "lead", leadID)
}

func (s *SQLiteStore) CreateAnalysis(ctx context.Context, leadID string) (*model.Analysis, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO analyses (id, lead_id, status, posts_status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, leadID, string(model.AnalysisStatusPending), string(model.PostsStatusPending), now, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert analysis for lead %s", leadID)
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

const analysisColumns = `id, lead_id, status, posts_status, raw_payload, snapshot, issues,
	 narrative, keywords, posts, error_message, created_at, updated_at`

func (s *SQLiteStore) GetAnalysis(ctx context.Context, analysisID string) (*model.Analysis, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+analysisColumns+` FROM analyses WHERE id = ?`,
		analysisID,
	)
	return scanAnalysis(row)
}

func (s *SQLiteStore) LatestAnalysis(ctx context.Context, leadID string) (*model.Analysis, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+analysisColumns+` FROM analyses WHERE lead_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT 1`,
		leadID,
	)
	return scanAnalysis(row)
}

func (s *SQLiteStore) ListAnalyses(ctx context.Context, leadID string) ([]model.Analysis, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+analysisColumns+` FROM analyses WHERE lead_id = ?
		 ORDER BY created_at DESC, id DESC`,
		leadID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list analyses")
	}
	defer rows.Close()

	var out []model.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list analyses iterate")
}

func (s *SQLiteStore) MarkAnalysisFetched(ctx context.Context, analysisID string, fields FetchedFields) error {
	snapshotJSON, issuesJSON, err := marshalFetched(fields)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE analyses SET status = ?, raw_payload = ?, snapshot = ?, issues = ?, error_message = '', updated_at = ?
		 WHERE id = ? AND status IN (?, ?)`,
		string(model.AnalysisStatusFetched), string(fields.RawPayload), snapshotJSON, issuesJSON,
		time.Now().UTC(), analysisID,
		string(model.AnalysisStatusPending), string(model.AnalysisStatusFetched),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark analysis fetched %s", analysisID)
	}
	return checkRowsAffected(res, "analysis", analysisID)
}

func (s *SQLiteStore) MarkAnalysisAnalyzed(ctx context.Context, analysisID string, fields AnalyzedFields) error {
	issuesJSON, keywordsJSON, err := marshalAnalyzed(fields)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE analyses SET status = ?, issues = ?, narrative = ?, keywords = ?, updated_at = ?
		 WHERE id = ? AND status IN (?, ?)`,
		string(model.AnalysisStatusAnalyzed), issuesJSON, fields.Narrative, keywordsJSON,
		time.Now().UTC(), analysisID,
		string(model.AnalysisStatusFetched), string(model.AnalysisStatusAnalyzed),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark analysis analyzed %s", analysisID)
	}
	return checkRowsAffected(res, "analysis", analysisID)
}

func (s *SQLiteStore) MarkAnalysisError(ctx context.Context, analysisID, message string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE analyses SET status = ?, error_message = ?, updated_at = ?
		 WHERE id = ? AND status IN (?, ?)`,
		string(model.AnalysisStatusError), message, time.Now().UTC(), analysisID,
		string(model.AnalysisStatusPending), string(model.AnalysisStatusFetched),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark analysis error %s", analysisID)
	}
	return checkRowsAffected(res, "analysis", analysisID)
}

func (s *SQLiteStore) UpdateAnalysisPosts(ctx context.Context, analysisID string, status model.PostsStatus, posts model.PostsInfo) error {
	postsJSON, err := json.Marshal(posts)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal posts")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE analyses SET posts_status = ?, posts = ?, updated_at = ? WHERE id = ?`,
		string(status), string(postsJSON), time.Now().UTC(), analysisID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update analysis posts %s", analysisID)
	}
	return checkRowsAffected(res, "analysis", analysisID)
}

func (s *SQLiteStore) CreateSuggestionBatch(ctx context.Context, leadID string) (*model.SuggestionBatch, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO suggestion_batches (id, lead_id, status, created_at) VALUES (?, ?, ?, ?)`,
		id, leadID, string(model.BatchStatusPending), now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert batch for lead %s", leadID)
	}

	return &model.SuggestionBatch{
		ID:        id,
		LeadID:    leadID,
		Status:    model.BatchStatusPending,
		CreatedAt: now,
	}, nil
}

func (s *SQLiteStore) GetSuggestionBatch(ctx context.Context, batchID string) (*model.SuggestionBatch, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, lead_id, status, error_message, created_at FROM suggestion_batches WHERE id = ?`,
		batchID,
	)
	b, err := scanBatch(row)
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

func (s *SQLiteStore) LatestSuggestionBatch(ctx context.Context, leadID string) (*model.SuggestionBatch, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, lead_id, status, error_message, created_at FROM suggestion_batches
		 WHERE lead_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		leadID,
	)
	b, err := scanBatch(row)
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

func (s *SQLiteStore) batchSuggestions(ctx context.Context, batchID string) ([]model.Suggestion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, batch_id, phrase, volume, rank, reason FROM suggestions
		 WHERE batch_id = ? ORDER BY rank ASC`,
		batchID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list suggestions")
	}
	defer rows.Close()

	var out []model.Suggestion
	for rows.Next() {
		var sg model.Suggestion
		var volume sql.NullInt64
		if err := rows.Scan(&sg.ID, &sg.BatchID, &sg.Phrase, &volume, &sg.Rank, &sg.Reason); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan suggestion")
		}
		if volume.Valid {
			v := int(volume.Int64)
			sg.Volume = &v
		}
		out = append(out, sg)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list suggestions iterate")
}

func (s *SQLiteStore) MarkBatchReady(ctx context.Context, batchID string, suggestions []model.Suggestion) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE suggestion_batches SET status = ?, error_message = '' WHERE id = ? AND status = ?`,
		string(model.BatchStatusReady), batchID, string(model.BatchStatusPending),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark batch ready %s", batchID)
	}
	if err := checkRowsAffected(res, "batch", batchID); err != nil {
		return err
	}

	for _, sg := range suggestions {
		id := sg.ID
		if id == "" {
			id = uuid.New().String()
		}
		var volume any
		if sg.Volume != nil {
			volume = *sg.Volume
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO suggestions (id, batch_id, phrase, volume, rank, reason) VALUES (?, ?, ?, ?, ?, ?)`,
			id, batchID, sg.Phrase, volume, sg.Rank, sg.Reason,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert suggestion %q", sg.Phrase)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit batch")
}

func (s *SQLiteStore) MarkBatchError(ctx context.Context, batchID, message string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE suggestion_batches SET status = ?, error_message = ? WHERE id = ? AND status = ?`,
		string(model.BatchStatusError), message, batchID, string(model.BatchStatusPending),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark batch error %s", batchID)
	}
	return checkRowsAffected(res, "batch", batchID)
}

func (s *SQLiteStore) AddTrackedKeyword(ctx context.Context, leadID, phrase string) (*model.TrackedKeyword, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, lead_id, phrase, created_at FROM tracked_keywords WHERE lead_id = ? AND phrase = ?`,
		leadID, phrase,
	)
	var kw model.TrackedKeyword
	err := row.Scan(&kw.ID, &kw.LeadID, &kw.Phrase, &kw.CreatedAt)
	if err == nil {
		return &kw, nil
	}
	if err != sql.ErrNoRows {
		return nil, eris.Wrap(err, "sqlite: get tracked keyword")
	}

	kw = model.TrackedKeyword{
		ID:        uuid.New().String(),
		LeadID:    leadID,
		Phrase:    phrase,
		CreatedAt: time.Now().UTC(),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tracked_keywords (id, lead_id, phrase, created_at) VALUES (?, ?, ?, ?)`,
		kw.ID, kw.LeadID, kw.Phrase, kw.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert tracked keyword %q", phrase)
	}
	return &kw, nil
}

func (s *SQLiteStore) ListTrackedKeywords(ctx context.Context, leadID string) ([]model.TrackedKeyword, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, lead_id, phrase, created_at FROM tracked_keywords
		 WHERE lead_id = ? ORDER BY created_at ASC, phrase ASC`,
		leadID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list tracked keywords")
	}
	defer rows.Close()

	var keywords []model.TrackedKeyword
	for rows.Next() {
		var kw model.TrackedKeyword
		if err := rows.Scan(&kw.ID, &kw.LeadID, &kw.Phrase, &kw.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan tracked keyword")
		}
		keywords = append(keywords, kw)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: list tracked keywords iterate")
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

func (s *SQLiteStore) keywordChecks(ctx context.Context, keywordID string) ([]model.RankCheck, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, keyword_id, rank_position, checked_at FROM rank_checks
		 WHERE keyword_id = ? ORDER BY checked_at DESC, id DESC`,
		keywordID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list rank checks")
	}
	defer rows.Close()

	var checks []model.RankCheck
	for rows.Next() {
		var rc model.RankCheck
		var position sql.NullInt64
		if err := rows.Scan(&rc.ID, &rc.KeywordID, &position, &rc.CheckedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan rank check")
		}
		if position.Valid {
			p := int(position.Int64)
			rc.Position = &p
		}
		checks = append(checks, rc)
	}
	return checks, eris.Wrap(rows.Err(), "sqlite: list rank checks iterate")
}

func (s *SQLiteStore) AddRankCheck(ctx context.Context, keywordID string, position *int) (*model.RankCheck, error) {
	rc := model.RankCheck{
		ID:        uuid.New().String(),
		KeywordID: keywordID,
		Position:  position,
		CheckedAt: time.Now().UTC(),
	}
	var pos any
	if position != nil {
		pos = *position
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rank_checks (id, keyword_id, rank_position, checked_at) VALUES (?, ?, ?, ?)`,
		rc.ID, rc.KeywordID, pos, rc.CheckedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert rank check for keyword %s", keywordID)
	}
	return &rc, nil
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

func marshalFetched(fields FetchedFields) (snapshotJSON, issuesJSON string, err error) {
	snap, err := json.Marshal(fields.Snapshot)
	if err != nil {
		return "", "", eris.Wrap(err, "marshal snapshot")
	}
	issues, err := json.Marshal(fields.Issues)
	if err != nil {
		return "", "", eris.Wrap(err, "marshal issues")
	}
	return string(snap), string(issues), nil
}

func marshalAnalyzed(fields AnalyzedFields) (issuesJSON, keywordsJSON string, err error) {
	issues, err := json.Marshal(fields.Issues)
	if err != nil {
		return "", "", eris.Wrap(err, "marshal issues")
	}
	keywords, err := json.Marshal(fields.Keywords)
	if err != nil {
		return "", "", eris.Wrap(err, "marshal keywords")
	}
	return string(issues), string(keywords), nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanLead(row scannable) (*model.Lead, error) {
	var l model.Lead
	var source string
	err := row.Scan(&l.ID, &l.City, &source, &l.Name, &l.Phone, &l.Address,
		&l.Email, &l.Website, &l.MapsURL, &l.EmailScraped, &l.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrap(ErrNotFound, "lead")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan lead")
	}
	l.Source = model.LeadSource(source)
	return &l, nil
}

func scanAnalysis(row scannable) (*model.Analysis, error) {
	var a model.Analysis
	var status, postsStatus string
	var rawPayload, snapshot, issues, keywords, posts sql.NullString

	err := row.Scan(&a.ID, &a.LeadID, &status, &postsStatus, &rawPayload, &snapshot,
		&issues, &a.Narrative, &keywords, &posts, &a.ErrorMessage, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrap(ErrNotFound, "analysis")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan analysis")
	}

	a.Status = model.AnalysisStatus(status)
	a.PostsStatus = model.PostsStatus(postsStatus)
	if rawPayload.Valid {
		a.RawPayload = json.RawMessage(rawPayload.String)
	}
	if snapshot.Valid && snapshot.String != "null" {
		a.Snapshot = &model.BusinessSnapshot{}
		if err := json.Unmarshal([]byte(snapshot.String), a.Snapshot); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal snapshot")
		}
	}
	if issues.Valid {
		if err := json.Unmarshal([]byte(issues.String), &a.Issues); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal issues")
		}
	}
	if keywords.Valid {
		if err := json.Unmarshal([]byte(keywords.String), &a.Keywords); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal keywords")
		}
	}
	if posts.Valid {
		if err := json.Unmarshal([]byte(posts.String), &a.Posts); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal posts")
		}
	}
	return &a, nil
}

func scanBatch(row scannable) (*model.SuggestionBatch, error) {
	var b model.SuggestionBatch
	var status string
	err := row.Scan(&b.ID, &b.LeadID, &status, &b.ErrorMessage, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrap(ErrNotFound, "batch")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan batch")
	}
	b.Status = model.BatchStatus(status)
	return &b, nil
}
