package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SessionStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_CreatesParentDirectory(t *testing.T) {
	s := openTestStore(t)
	assert.NotNil(t, s)
}

func TestStoreTurn_AndHistory(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.StoreTurn("session-a", 1, "rename the city column", "Renamed 'city' to 'municipality'."))
	require.NoError(t, s.StoreTurn("session-a", 2, "what columns exist?", "municipality, population"))
	require.NoError(t, s.StoreTurn("session-b", 1, "unrelated", "other session"))

	records, err := s.History("session-a", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, 1, records[0].TurnNumber)
	assert.Equal(t, "rename the city column", records[0].UserInput)
	assert.Equal(t, 2, records[1].TurnNumber)
	assert.False(t, records[0].CreatedAt.IsZero())
}

func TestStoreTurn_ReplayIsIgnored(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.StoreTurn("session-a", 1, "original", "first answer"))
	require.NoError(t, s.StoreTurn("session-a", 1, "replayed", "second answer"))

	records, err := s.History("session-a", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "original", records[0].UserInput, "first write wins")
}

func TestHistory_LimitAndUnknownSession(t *testing.T) {
	s := openTestStore(t)

	for i := 1; i <= 5; i++ {
		require.NoError(t, s.StoreTurn("session-a", i, "q", "a"))
	}

	records, err := s.History("session-a", 3)
	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, 1, records[0].TurnNumber, "oldest first")

	none, err := s.History("never-seen", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
