package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-enrich/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return NewPostgresFromPool(mock), mock
}

func TestPostgresStore_GetLead(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, city, source, name, phone, address, email, website, maps_url, email_scraped, created_at`).
		WithArgs("lead-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "city", "source", "name", "phone", "address", "email", "website", "maps_url", "email_scraped", "created_at",
		}).AddRow("lead-1", "Kraków", "google_maps", "Bella Napoli", "", "", "", "https://bellanapoli.pl", "", false, now))

	lead, err := s.GetLead(context.Background(), "lead-1")
	require.NoError(t, err)
	assert.Equal(t, "Bella Napoli", lead.Name)
	assert.Equal(t, model.LeadSourceGoogleMaps, lead.Source)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetLead_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, city, source, name, phone, address, email, website, maps_url, email_scraped, created_at`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetLead(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MarkAnalysisError_GuardMisses(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	// The guarded update matches no row when the analysis is already
	// analyzed; the store must report ErrNotFound, not success.
	mock.ExpectExec(`UPDATE analyses SET status = \$1, error_message = \$2`).
		WithArgs("error", "late failure", pgxmock.AnyArg(), "analysis-1",
			[]string{"pending", "fetched"}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.MarkAnalysisError(context.Background(), "analysis-1", "late failure")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateAnalysisPosts(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE analyses SET posts_status = \$1, posts = \$2`).
		WithArgs("fetched", pgxmock.AnyArg(), pgxmock.AnyArg(), "analysis-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.UpdateAnalysisPosts(context.Background(), "analysis-1", model.PostsStatusFetched, model.PostsInfo{
		HasPosts: true,
		Count:    3,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MarkBatchReady_Transactional(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE suggestion_batches SET status = \$1`).
		WithArgs("ready", "batch-1", "pending").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`INSERT INTO suggestions`).
		WithArgs(pgxmock.AnyArg(), "batch-1", "pizzeria kraków", (*int)(nil), 1, "dobry wolumen").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	err := s.MarkBatchReady(context.Background(), "batch-1", []model.Suggestion{
		{Phrase: "pizzeria kraków", Rank: 1, Reason: "dobry wolumen"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MarkBatchReady_RollsBackOnGuardMiss(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE suggestion_batches SET status = \$1`).
		WithArgs("ready", "batch-1", "pending").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := s.MarkBatchReady(context.Background(), "batch-1", []model.Suggestion{
		{Phrase: "pizzeria kraków", Rank: 1},
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AddRankCheck_NilPosition(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO rank_checks`).
		WithArgs(pgxmock.AnyArg(), "kw-1", (*int)(nil), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	rc, err := s.AddRankCheck(context.Background(), "kw-1", nil)
	require.NoError(t, err)
	assert.Nil(t, rc.Position)
	assert.NoError(t, mock.ExpectationsWereMet())
}
