package prefs

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

func openTestDB(t *testing.T) *bbolt.DB {
	t.Helper()
	db, err := bbolt.Open(filepath.Join(t.TempDir(), "prefs.db"), 0o600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDefaultsWhenAbsent(t *testing.T) {
	s, err := Open(openTestDB(t), nil)
	require.NoError(t, err)

	v := s.Get()
	assert.Equal(t, DefaultHistoryLimit, v.HistoryLimit)
	assert.Equal(t, DefaultPollInterval, v.PollInterval)
	assert.True(t, v.PreventDuplicates)
	assert.True(t, v.SaveImages)
	assert.False(t, v.AutoStart)
}

func TestSetClampsToRange(t *testing.T) {
	s, err := Open(openTestDB(t), nil)
	require.NoError(t, err)

	require.NoError(t, s.SetHistoryLimit(5))
	assert.Equal(t, MinHistoryLimit, s.Get().HistoryLimit)

	require.NoError(t, s.SetHistoryLimit(5000))
	assert.Equal(t, MaxHistoryLimit, s.Get().HistoryLimit)

	require.NoError(t, s.SetPollInterval(0.05))
	assert.Equal(t, MinPollInterval, s.Get().PollInterval)

	require.NoError(t, s.SetPollInterval(60))
	assert.Equal(t, MaxPollInterval, s.Get().PollInterval)
}

func TestPersistsAcrossReopen(t *testing.T) {
	db := openTestDB(t)

	s, err := Open(db, nil)
	require.NoError(t, err)
	require.NoError(t, s.SetHistoryLimit(25))
	require.NoError(t, s.SetPollInterval(1.5))
	require.NoError(t, s.SetSaveImages(false))

	reopened, err := Open(db, nil)
	require.NoError(t, err)
	v := reopened.Get()
	assert.Equal(t, 25, v.HistoryLimit)
	assert.Equal(t, 1.5, v.PollInterval)
	assert.False(t, v.SaveImages)
}

func TestLoadCorrectsOutOfRangeValues(t *testing.T) {
	db := openTestDB(t)

	// Write raw out-of-range values behind the store's back.
	require.NoError(t, db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		if err != nil {
			return err
		}
		if err := b.Put([]byte(keyHistoryLimit), []byte("9000")); err != nil {
			return err
		}
		return b.Put([]byte(keyPollInterval), []byte("0.01"))
	}))

	s, err := Open(db, nil)
	require.NoError(t, err)
	assert.Equal(t, MaxHistoryLimit, s.Get().HistoryLimit)
	assert.Equal(t, MinPollInterval, s.Get().PollInterval)

	// Corrections are rewritten to storage, not just applied in memory.
	require.NoError(t, db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		require.NotNil(t, b)
		assert.Equal(t, "100", string(b.Get([]byte(keyHistoryLimit))))
		assert.Equal(t, "0.3", string(b.Get([]byte(keyPollInterval))))
		return nil
	}))
}

func TestUnparseableValuesFallBackToDefaults(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		if err != nil {
			return err
		}
		return b.Put([]byte(keyHistoryLimit), []byte("not a number"))
	}))

	s, err := Open(db, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultHistoryLimit, s.Get().HistoryLimit)
}

func TestOnChangeNotifiesWithSnapshot(t *testing.T) {
	s, err := Open(openTestDB(t), nil)
	require.NoError(t, err)

	var changes []Change
	s.OnChange(func(c Change) { changes = append(changes, c) })

	require.NoError(t, s.SetHistoryLimit(30))
	require.NoError(t, s.SetSaveImages(false))

	require.Len(t, changes, 2)
	assert.Equal(t, FieldHistoryLimit, changes[0].Field)
	assert.Equal(t, 30, changes[0].Values.HistoryLimit)
	assert.Equal(t, FieldSaveImages, changes[1].Field)
	assert.False(t, changes[1].Values.SaveImages)
	// The second snapshot carries the earlier change too.
	assert.Equal(t, 30, changes[1].Values.HistoryLimit)
}
