package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/ignite/ghostpost/internal/domain"
)

func TestThreadRepoGetThreadNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM threads WHERE id = \\$1").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "subject", "state", "priority", "category", "summary", "goal", "acceptance_criteria",
			"goal_status", "playbook", "auto_reply_mode", "follow_up_interval_days", "next_follow_up_at",
			"security_score_avg", "last_activity_at", "notes",
		}))

	repo := NewThreadRepo(db)
	got, err := repo.GetThread(context.Background(), 99)
	require.NoError(t, err)
	require.Nil(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestThreadRepoCountByState(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT state, COUNT\\(\\*\\) FROM threads GROUP BY state").
		WillReturnRows(sqlmock.NewRows([]string{"state", "count"}).
			AddRow(string(domain.ThreadNew), 3).
			AddRow(string(domain.ThreadWaitingReply), 2))

	repo := NewThreadRepo(db)
	counts, err := repo.CountByState(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, counts[domain.ThreadNew])
	require.Equal(t, 2, counts[domain.ThreadWaitingReply])
	require.NoError(t, mock.ExpectationsWereMet())
}
