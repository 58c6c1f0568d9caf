package game_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"marketgateway/internal/game"
)

func TestScore_BeforeCreateStampsPlayedAt(t *testing.T) {
	t.Parallel()

	var s game.Score
	require.NoError(t, s.BeforeCreate(nil))
	require.WithinDuration(t, time.Now(), s.PlayedAt, time.Second)

	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s = game.Score{PlayedAt: fixed}
	require.NoError(t, s.BeforeCreate(nil))
	require.Equal(t, fixed, s.PlayedAt)
}

func TestScore_TableName(t *testing.T) {
	require.Equal(t, "game_scores", game.Score{}.TableName())
}

// TestGormStore runs against a real postgres when TEST_DATABASE_DSN is set.
func TestGormStore(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}

	db, err := game.Open(dsn, false)
	require.NoError(t, err)
	store, err := game.NewGormStore(db)
	require.NoError(t, err)

	email := "store-test-" + time.Now().Format("150405.000000") + "@example.com"
	t.Cleanup(func() { db.Where("user_email = ?", email).Delete(&game.Score{}) })

	first := &game.Score{UserEmail: email, UserName: "tester", Score: 3, TotalRounds: 4, TimeTaken: 40}
	require.NoError(t, store.Save(t.Context(), first))
	require.NotZero(t, first.ID)
	require.False(t, first.PlayedAt.IsZero())

	second := &game.Score{UserEmail: email, UserName: "tester", Score: 4, TotalRounds: 4, TimeTaken: 35, PlayedAt: first.PlayedAt.Add(time.Minute)}
	require.NoError(t, store.Save(t.Context(), second))

	mine, err := store.ByUser(t.Context(), email)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	require.Equal(t, second.ID, mine[0].ID)

	all, err := store.All(t.Context())
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(all), 2)
}
