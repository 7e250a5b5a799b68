// ABOUTME: Tests for the Badger-backed activity log
// ABOUTME: Covers append, newest-first ordering, and limit handling
package activity

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldreach/coldreach/models"
)

func openTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestRecordAssignsIDAndTimestamp(t *testing.T) {
	l := openTestLog(t)

	a := &models.Activity{
		Actor:      "web",
		Verb:       models.VerbCreated,
		EntityKind: models.KindLead,
		EntityID:   "L1",
	}
	require.NoError(t, l.Record(a))

	assert.Len(t, a.ID, 26, "expected a ULID id")
	assert.False(t, a.CreatedAt.IsZero())
}

func TestRecentNewestFirst(t *testing.T) {
	l := openTestLog(t)

	for i := 0; i < 5; i++ {
		a := &models.Activity{
			Actor:      "web",
			Verb:       models.VerbUpdated,
			EntityKind: models.KindLead,
			EntityID:   fmt.Sprintf("L%d", i),
		}
		require.NoError(t, l.Record(a))
	}

	got, err := l.Recent(50)
	require.NoError(t, err)
	require.Len(t, got, 5)

	// Newest first: the last recorded entity comes back first.
	assert.Equal(t, "L4", got[0].EntityID)
	assert.Equal(t, "L0", got[4].EntityID)
}

func TestRecentLimit(t *testing.T) {
	l := openTestLog(t)

	for i := 0; i < 10; i++ {
		require.NoError(t, l.Record(&models.Activity{
			Actor:      "web",
			Verb:       models.VerbCreated,
			EntityKind: models.KindCampaign,
			EntityID:   fmt.Sprintf("C%d", i),
		}))
	}

	got, err := l.Recent(3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, "C9", got[0].EntityID)
}

func TestRecentEmpty(t *testing.T) {
	l := openTestLog(t)

	got, err := l.Recent(10)
	require.NoError(t, err)
	assert.Empty(t, got)
}
