// Package prefs stores the user-configurable knobs in a bbolt key-value
// bucket. Values are clamped to their allowed ranges both when written and
// when read back, so a hand-edited or stale database never yields an
// out-of-range setting.
package prefs

import (
	"fmt"
	"strconv"
	"sync"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

const bucketName = "preferences"

// Fixed keys within the preferences bucket.
const (
	keyHistoryLimit      = "history_limit"
	keyPollInterval      = "poll_interval"
	keyPreventDuplicates = "prevent_duplicates"
	keySaveImages        = "save_images"
	keyAutoStart         = "auto_start"
)

// Clamp ranges and defaults.
const (
	MinHistoryLimit = 10
	MaxHistoryLimit = 100
	MinPollInterval = 0.3
	MaxPollInterval = 2.0

	DefaultHistoryLimit = 50
	DefaultPollInterval = 0.5
)

// Field names a single knob in change notifications.
type Field string

const (
	FieldHistoryLimit      Field = keyHistoryLimit
	FieldPollInterval      Field = keyPollInterval
	FieldPreventDuplicates Field = keyPreventDuplicates
	FieldSaveImages        Field = keySaveImages
	FieldAutoStart         Field = keyAutoStart
)

// Values is one consistent snapshot of all knobs.
type Values struct {
	HistoryLimit      int
	PollInterval      float64 // seconds
	PreventDuplicates bool
	SaveImages        bool
	AutoStart         bool
}

// Defaults returns the values used when a key is absent from the database.
func Defaults() Values {
	return Values{
		HistoryLimit:      DefaultHistoryLimit,
		PollInterval:      DefaultPollInterval,
		PreventDuplicates: true,
		SaveImages:        true,
		AutoStart:         false,
	}
}

// Change describes a single knob update, carrying the full snapshot after
// the update was applied.
type Change struct {
	Field  Field
	Values Values
}

// Store holds the in-memory snapshot and persists every change to bbolt.
// A single observer, registered once at construction time of the capture
// store, is invoked synchronously from the mutating setter.
type Store struct {
	db     *bbolt.DB
	logger *zap.Logger

	mu       sync.Mutex
	values   Values
	onChange func(Change)
}

// Open loads preferences from db, correcting and rewriting any stored value
// that falls outside its clamp range.
func Open(db *bbolt.DB, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{db: db, logger: logger}

	if err := s.load(); err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	return s, nil
}

// Get returns the current snapshot.
func (s *Store) Get() Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values
}

// OnChange registers the observer invoked after every successful set. Only
// one observer is supported; a later registration replaces the earlier one.
func (s *Store) OnChange(fn func(Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// SetHistoryLimit clamps n to [MinHistoryLimit, MaxHistoryLimit], persists
// it and notifies the observer.
func (s *Store) SetHistoryLimit(n int) error {
	n = clampInt(n, MinHistoryLimit, MaxHistoryLimit)
	return s.set(FieldHistoryLimit, keyHistoryLimit, strconv.Itoa(n), func(v *Values) { v.HistoryLimit = n })
}

// SetPollInterval clamps seconds to [MinPollInterval, MaxPollInterval],
// persists it and notifies the observer.
func (s *Store) SetPollInterval(seconds float64) error {
	seconds = clampFloat(seconds, MinPollInterval, MaxPollInterval)
	return s.set(FieldPollInterval, keyPollInterval, formatFloat(seconds), func(v *Values) { v.PollInterval = seconds })
}

// SetPreventDuplicates persists the duplicate-rejection toggle.
func (s *Store) SetPreventDuplicates(on bool) error {
	return s.set(FieldPreventDuplicates, keyPreventDuplicates, strconv.FormatBool(on), func(v *Values) { v.PreventDuplicates = on })
}

// SetSaveImages persists the image-capture toggle.
func (s *Store) SetSaveImages(on bool) error {
	return s.set(FieldSaveImages, keySaveImages, strconv.FormatBool(on), func(v *Values) { v.SaveImages = on })
}

// SetAutoStart persists the login-launch flag. The launch agent itself is
// managed outside this package.
func (s *Store) SetAutoStart(on bool) error {
	return s.set(FieldAutoStart, keyAutoStart, strconv.FormatBool(on), func(v *Values) { v.AutoStart = on })
}

func (s *Store) set(field Field, key, encoded string, apply func(*Values)) error {
	s.mu.Lock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		if err != nil {
			return err
		}
		return b.Put([]byte(key), []byte(encoded))
	})
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to persist preference %s: %w", key, err)
	}

	apply(&s.values)
	change := Change{Field: field, Values: s.values}
	observer := s.onChange
	s.mu.Unlock()

	s.logger.Debug("Preference updated", zap.String("key", key), zap.String("value", encoded))

	if observer != nil {
		observer(change)
	}
	return nil
}

// load reads every knob, substituting defaults for absent keys and clamping
// stored values. Corrected values are written back so the database always
// holds in-range settings.
func (s *Store) load() error {
	values := Defaults()
	corrections := map[string]string{}

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}

		if raw := b.Get([]byte(keyHistoryLimit)); raw != nil {
			if n, err := strconv.Atoi(string(raw)); err == nil {
				clamped := clampInt(n, MinHistoryLimit, MaxHistoryLimit)
				values.HistoryLimit = clamped
				if clamped != n {
					corrections[keyHistoryLimit] = strconv.Itoa(clamped)
				}
			}
		}
		if raw := b.Get([]byte(keyPollInterval)); raw != nil {
			if f, err := strconv.ParseFloat(string(raw), 64); err == nil {
				clamped := clampFloat(f, MinPollInterval, MaxPollInterval)
				values.PollInterval = clamped
				if clamped != f {
					corrections[keyPollInterval] = formatFloat(clamped)
				}
			}
		}
		if raw := b.Get([]byte(keyPreventDuplicates)); raw != nil {
			if v, err := strconv.ParseBool(string(raw)); err == nil {
				values.PreventDuplicates = v
			}
		}
		if raw := b.Get([]byte(keySaveImages)); raw != nil {
			if v, err := strconv.ParseBool(string(raw)); err == nil {
				values.SaveImages = v
			}
		}
		if raw := b.Get([]byte(keyAutoStart)); raw != nil {
			if v, err := strconv.ParseBool(string(raw)); err == nil {
				values.AutoStart = v
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if len(corrections) > 0 {
		s.logger.Warn("Correcting out-of-range preferences", zap.Int("count", len(corrections)))
		err = s.db.Update(func(tx *bbolt.Tx) error {
			b, err := tx.CreateBucketIfNotExists([]byte(bucketName))
			if err != nil {
				return err
			}
			for key, encoded := range corrections {
				if err := b.Put([]byte(key), []byte(encoded)); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.values = values
	s.mu.Unlock()
	return nil
}

func clampInt(n, min, max int) int {
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}

func clampFloat(f, min, max float64) float64 {
	if f < min {
		return min
	}
	if f > max {
		return max
	}
	return f
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
