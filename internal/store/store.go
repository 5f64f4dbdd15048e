package store

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"

	"taskcal/internal/ics"
	appLog "taskcal/internal/log"
	"taskcal/internal/model"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported task file format")
	ErrNotLoaded         = errors.New("task file not loaded yet")
)

// Snapshot is an immutable view of the loaded tasks. Revision changes
// whenever the task list changes, so (Revision, window) identifies a layout.
type Snapshot struct {
	Tasks    []model.Task
	Revision uint64
	LoadedAt time.Time
}

// taskFile is the on-disk YAML shape.
type taskFile struct {
	Tasks []model.Task `yaml:"tasks"`
}

// Store serves tasks read from a YAML or iCalendar file.
type Store struct {
	path string
	loc  *time.Location
	now  func() time.Time

	mu     sync.RWMutex
	snap   Snapshot
	digest [sha256.Size]byte
	loaded bool
}

// New returns a Store for path. Dates in .ics files are converted to loc.
func New(path string, loc *time.Location) *Store {
	if loc == nil {
		loc = time.Local
	}
	return &Store{path: path, loc: loc, now: time.Now}
}

// Path returns the task file path.
func (s *Store) Path() string {
	return s.path
}

// Reload re-reads the task file. An unchanged file keeps the current
// revision; on error the previous snapshot stays in place.
func (s *Store) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("store: read %s: %w", s.path, err)
	}
	sum := sha256.Sum256(data)

	s.mu.RLock()
	unchanged := s.loaded && sum == s.digest
	s.mu.RUnlock()
	if unchanged {
		appLog.Debug("task file unchanged", "path", s.path)
		return nil
	}

	tasks, err := s.decode(data)
	if err != nil {
		return fmt.Errorf("store: decode %s: %w", s.path, err)
	}
	assignMissingIDs(tasks, s.now())

	s.mu.Lock()
	s.snap = Snapshot{
		Tasks:    tasks,
		Revision: s.snap.Revision + 1,
		LoadedAt: s.now(),
	}
	s.digest = sum
	s.loaded = true
	rev := s.snap.Revision
	s.mu.Unlock()

	appLog.Info("task file loaded", "path", s.path, "tasks", len(tasks), "revision", rev)
	return nil
}

// Snapshot returns the current tasks. The slice is a copy.
func (s *Store) Snapshot() (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return Snapshot{}, ErrNotLoaded
	}
	snap := s.snap
	snap.Tasks = make([]model.Task, len(s.snap.Tasks))
	copy(snap.Tasks, s.snap.Tasks)
	return snap, nil
}

func (s *Store) decode(data []byte) ([]model.Task, error) {
	switch strings.ToLower(filepath.Ext(s.path)) {
	case ".yaml", ".yml":
		var f taskFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, err
		}
		for i := range f.Tasks {
			if f.Tasks[i].SourceRef == "" {
				f.Tasks[i].SourceRef = fmt.Sprintf("%s#%d", filepath.Base(s.path), i)
			}
		}
		if f.Tasks == nil {
			f.Tasks = []model.Task{}
		}
		return f.Tasks, nil
	case ".ics", ".ical":
		if len(data) == 0 {
			return []model.Task{}, nil
		}
		src := ics.Source{ID: filepath.Base(s.path), Path: s.path}
		return ics.ParseTasks(src, data, s.loc)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(s.path))
	}
}

// assignMissingIDs gives every task without an ID a ULID so layouts can
// break ties deterministically.
func assignMissingIDs(tasks []model.Task, now time.Time) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	for i := range tasks {
		if strings.TrimSpace(tasks[i].ID) != "" {
			continue
		}
		id, err := ulid.New(ulid.Timestamp(now), entropy)
		if err != nil {
			tasks[i].ID = fmt.Sprintf("%d-%d", now.UnixNano(), i)
			continue
		}
		tasks[i].ID = id.String()
	}
}
