// Package history records finished runs in a local bbolt database.
package history

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/thruflo/sortvis/internal/engine"
	bolt "go.etcd.io/bbolt"
)

// ErrNotFound is returned by Get for an unknown run ID.
var ErrNotFound = errors.New("run not found")

var (
	runsBucket = []byte("runs")
	idsBucket  = []byte("ids")
)

// RunRecord describes one finished run.
type RunRecord struct {
	ID         string           `json:"id"`
	Algorithm  engine.Algorithm `json:"algorithm"`
	DataSet    string           `json:"data_set,omitempty"`
	Length     int              `json:"length"`
	Status     engine.Status    `json:"status"`
	ElapsedMS  float64          `json:"elapsed_ms"`
	HasElapsed bool             `json:"has_elapsed"`
	Steps      int              `json:"steps"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
}

// Elapsed returns ElapsedMS as a duration.
func (r RunRecord) Elapsed() time.Duration {
	return time.Duration(r.ElapsedMS * float64(time.Millisecond))
}

// RecordFromResult builds the record of a finished run. dataSet names the
// preset the input came from, or "" for explicit values.
func RecordFromResult(result engine.Result, dataSet string, startedAt, finishedAt time.Time) RunRecord {
	return RunRecord{
		ID:         result.RunID,
		Algorithm:  result.Algorithm,
		DataSet:    dataSet,
		Length:     len(result.Values),
		Status:     result.Status,
		ElapsedMS:  float64(result.Elapsed) / float64(time.Millisecond),
		HasElapsed: result.HasElapsed,
		Steps:      result.Steps,
		StartedAt:  startedAt.UTC(),
		FinishedAt: finishedAt.UTC(),
	}
}

// Store is a bbolt-backed run history. It is safe for concurrent use.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(runsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(idsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialise history database: %w", err)
	}

	return &Store{db: db}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.db.Path()
}

// orderKey sorts records by finish time, then ID.
func orderKey(rec RunRecord) []byte {
	key := make([]byte, 8, 8+len(rec.ID))
	binary.BigEndian.PutUint64(key, uint64(rec.FinishedAt.UnixNano()))
	return append(key, rec.ID...)
}

// Record stores rec, replacing any earlier record with the same ID.
func (s *Store) Record(rec RunRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("failed to record run: missing id")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal run record: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		runs := tx.Bucket(runsBucket)
		ids := tx.Bucket(idsBucket)

		if old := ids.Get([]byte(rec.ID)); old != nil {
			if err := runs.Delete(old); err != nil {
				return err
			}
		}

		key := orderKey(rec)
		if err := runs.Put(key, data); err != nil {
			return err
		}
		return ids.Put([]byte(rec.ID), key)
	})
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// Get returns the record with the given ID.
func (s *Store) Get(id string) (*RunRecord, error) {
	var rec RunRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		key := tx.Bucket(idsBucket).Get([]byte(id))
		if key == nil {
			return ErrNotFound
		}
		data := tx.Bucket(runsBucket).Get(key)
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to read run record: %w", err)
	}
	return &rec, nil
}

// List returns up to limit records, most recently finished first.
// A non-positive limit returns every record.
func (s *Store) List(limit int) ([]RunRecord, error) {
	records := []RunRecord{}
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(runsBucket).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(records) >= limit {
				break
			}
			var rec RunRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return records, nil
}

// Count returns the number of stored records.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(runsBucket).Stats().KeyN
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
