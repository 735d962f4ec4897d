package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/entrhq/chronos/pkg/errors"
	"github.com/entrhq/chronos/pkg/models"
)

func TestReadMissingFileReturnsEmptyDocument(t *testing.T) {
	s := NewFileStore(t.TempDir())

	doc, err := s.Read()
	require.NoError(t, err)

	assert.Equal(t, models.SchemaVersion, doc.SchemaVersion)
	assert.Empty(t, doc.Activities)
	assert.Empty(t, doc.Reminders)
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := NewFileStore(t.TempDir())

	started := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	ended := started.Add(5 * time.Minute)
	duration := int64(300)

	doc := models.NewDocument()
	doc.Activities["a1"] = &models.Activity{
		ID:              "a1",
		ActivityType:    "debugging",
		TaskScope:       models.ScopeDebugging,
		Description:     "fix login flow",
		Tags:            []string{"auth", "urgent"},
		StartedAt:       started,
		EndedAt:         &ended,
		DurationSeconds: &duration,
		Result:          "fixed",
		Notes:           "root cause was a stale token",
	}
	doc.Activities["a2"] = &models.Activity{
		ID:           "a2",
		ActivityType: "planning",
		TaskScope:    models.ScopeEpicPlanning,
		Description:  "sprint outline",
		StartedAt:    started.Add(time.Hour),
	}
	doc.Reminders["r1"] = &models.Reminder{
		ID:            "r1",
		ReminderTime:  started.Add(24 * time.Hour),
		Message:       "review the fix",
		RelatedTaskID: "a1",
		CreatedAt:     started,
	}

	require.NoError(t, s.Write(doc))

	got, err := s.Read()
	require.NoError(t, err)

	assert.Equal(t, doc.Activities["a1"], got.Activities["a1"])
	assert.Equal(t, doc.Activities["a2"], got.Activities["a2"])
	assert.Equal(t, doc.Reminders["r1"], got.Reminders["r1"])

	// Absent optional fields stay absent through the round trip.
	assert.Nil(t, got.Activities["a2"].EndedAt)
	assert.Nil(t, got.Activities["a2"].DurationSeconds)
	assert.Empty(t, got.Activities["a2"].Tags)
}

func TestReadCorruptFileIsStorageError(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0o600))

	_, err := s.Read()
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindStorage))
	assert.Contains(t, err.Error(), "corrupt")
}

func TestMutatePersists(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)

	_, err := s.Mutate(func(doc *models.Document) error {
		doc.Activities["a1"] = &models.Activity{
			ID:           "a1",
			ActivityType: "debugging",
			TaskScope:    models.ScopeDebugging,
			Description:  "x",
			StartedAt:    time.Now().UTC(),
		}
		return nil
	})
	require.NoError(t, err)

	// A fresh store on the same directory sees the change.
	got, err := NewFileStore(dir).Read()
	require.NoError(t, err)
	assert.Contains(t, got.Activities, "a1")
}

func TestMutateErrorLeavesStoreUnchanged(t *testing.T) {
	s := NewFileStore(t.TempDir())
	_, err := s.Mutate(func(doc *models.Document) error {
		doc.Activities["a1"] = &models.Activity{ID: "a1"}
		return nil
	})
	require.NoError(t, err)

	_, err = s.Mutate(func(doc *models.Document) error {
		doc.Activities["a2"] = &models.Activity{ID: "a2"}
		return apperrors.NewConflictError("nope")
	})
	require.Error(t, err)

	got, err := s.Read()
	require.NoError(t, err)
	assert.Contains(t, got.Activities, "a1")
	assert.NotContains(t, got.Activities, "a2")
}

func TestConcurrentMutationsAreNotLost(t *testing.T) {
	s := NewFileStore(t.TempDir())

	const n = 20
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			_, err := s.Mutate(func(doc *models.Document) error {
				id := fmt.Sprintf("a%d", i)
				doc.Activities[id] = &models.Activity{
					ID:           id,
					ActivityType: "debugging",
					TaskScope:    models.ScopeDebugging,
					Description:  "concurrent",
					StartedAt:    time.Now().UTC(),
				}
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := s.Read()
	require.NoError(t, err)
	assert.Len(t, got.Activities, n)
}

func TestStrandedTempFileDoesNotCorruptReads(t *testing.T) {
	// Simulates a crash between temp-file write and rename: the reader
	// must still see the last complete snapshot.
	dir := t.TempDir()
	s := NewFileStore(dir)

	_, err := s.Mutate(func(doc *models.Document) error {
		doc.Activities["a1"] = &models.Activity{ID: "a1", StartedAt: time.Now().UTC()}
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(s.Path()+".tmp", []byte(`{"schemaVer`), 0o600))

	got, err := s.Read()
	require.NoError(t, err)
	assert.Contains(t, got.Activities, "a1")
}

func TestNoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)

	require.NoError(t, s.Write(models.NewDocument()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, FileName, entries[0].Name())
	assert.Equal(t, filepath.Join(dir, FileName), s.Path())
}
