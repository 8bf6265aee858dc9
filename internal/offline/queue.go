package offline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// Queue is the local fallback slot for records created while the
// backend was unreachable: a single named file holding a serialized
// array, read and rewritten wholesale on every append.
//
// Nothing reads this queue back into the backend. Records written here
// stay out of the shared catalog until a reconciliation pass exists;
// Pending is exposed so one can be added without a format change.
type Queue[T any] struct {
	mu   sync.Mutex
	path string
}

func NewQueue[T any](path string) *Queue[T] {
	return &Queue[T]{path: path}
}

// Append adds one record to the end of the slot.
func (q *Queue[T]) Append(rec T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	items, err := q.readLocked()
	if err != nil {
		return err
	}
	items = append(items, rec)
	return q.writeLocked(items)
}

// Pending returns every record currently in the slot.
func (q *Queue[T]) Pending() ([]T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.readLocked()
}

// Len reports the number of queued records.
func (q *Queue[T]) Len() (int, error) {
	items, err := q.Pending()
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

func (q *Queue[T]) readLocked() ([]T, error) {
	b, err := os.ReadFile(q.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, nil
	}
	var items []T
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (q *Queue[T]) writeLocked(items []T) error {
	if err := os.MkdirAll(filepath.Dir(q.path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}
	tmp := q.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, q.path)
}
