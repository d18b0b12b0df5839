package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/oshokin/gfs-monitor/internal/config"
	domain "github.com/oshokin/gfs-monitor/internal/domain/cycle"
)

// Repository defines persistence operations for the monitor state.
type Repository interface {
	Load(ctx context.Context) (*domain.State, error)
	Save(ctx context.Context, state *domain.State) error
}

var (
	// ErrNotFound is returned when no state was persisted yet.
	ErrNotFound = errors.New("state not found")
	// ErrCorrupt is returned when the persisted state cannot be decoded.
	ErrCorrupt = errors.New("state is corrupt")
)

// record is the on-disk representation shared by both backends.
type record struct {
	LastCycle   string `json:"last_cycle"`
	IsCompleted bool   `json:"is_completed"`
}

// FileRepository persists the monitor state to a JSON file on disk.
type FileRepository struct {
	// path is the filesystem location of the JSON state file.
	path string
	// mu serializes access from within the process.
	mu sync.Mutex
}

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Path returns the location of the state file.
func (r *FileRepository) Path() string {
	return r.path
}

// Load reads the state from disk.
func (r *FileRepository) Load(_ context.Context) (*domain.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read state file: %w", err)
	}

	var rec record
	if err = json.Unmarshal(contents, &rec); err != nil {
		return nil, fmt.Errorf("decode state file: %w: %w", ErrCorrupt, err)
	}

	return fromRecord(rec)
}

// Save replaces the state file. The new contents are written to a temporary
// file in the same directory and renamed over the old one, so a crash leaves
// either the previous or the new state behind.
func (r *FileRepository) Save(_ context.Context, state *domain.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := state.Validate(); err != nil {
		return fmt.Errorf("validate state: %w", err)
	}

	data, err := json.Marshal(toRecord(state))
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	dir := filepath.Dir(r.path)

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}

	tmpPath := tmp.Name()

	// Cleanup on any failure below; after a successful rename this is a no-op.
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp state file: %w", err)
	}

	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp state file: %w", err)
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp state file: %w", err)
	}

	if err = os.Chmod(tmpPath, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("chmod temp state file: %w", err)
	}

	if err = os.Rename(tmpPath, r.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}

	return nil
}

// fromRecord converts the persisted record into the domain State model.
func fromRecord(rec record) (*domain.State, error) {
	id, err := domain.ParseIdentity(rec.LastCycle)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	state := &domain.State{
		LastCycle:   id,
		IsCompleted: rec.IsCompleted,
	}

	if err = state.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	return state, nil
}

// toRecord converts the domain State model into the persisted record.
func toRecord(state *domain.State) record {
	return record{
		LastCycle:   state.LastCycle.String(),
		IsCompleted: state.IsCompleted,
	}
}

// Close is a no-op; the file is opened per call.
func (r *FileRepository) Close() error {
	return nil
}
