// internal/backup/backup.go
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"nutrition-log/internal/logger"
	"nutrition-log/internal/metrics"
	"nutrition-log/internal/storage"
)

const (
	filePrefix = "nutrition-"
	fileSuffix = ".db"
	// stampLayout sorts lexically in time order.
	stampLayout = "20060102-150405"
)

// Uploader copies a finished backup off the machine.
type Uploader interface {
	Upload(ctx context.Context, path, key string) (string, error)
}

type Options struct {
	Dir      string
	Keep     int
	Uploader Uploader
	Metrics  *metrics.Metrics
}

type Service struct {
	store *storage.SQLiteStorage
	opts  Options
	log   *logger.Logger
	clock func() time.Time
}

func NewService(store *storage.SQLiteStorage, opts Options, log *logger.Logger) *Service {
	if opts.Keep <= 0 {
		opts.Keep = 1
	}
	return &Service{
		store: store,
		opts:  opts,
		log:   log.With("component", "backup"),
		clock: func() time.Time { return time.Now().UTC() },
	}
}

type Result struct {
	ID       string   `json:"id"`
	Path     string   `json:"path"`
	Size     int64    `json:"size"`
	Location string   `json:"location,omitempty"`
	Pruned   []string `json:"pruned,omitempty"`
}

// Run writes a consistent copy of the database into the backup directory,
// uploads it when an uploader is configured, then deletes all but the newest
// Keep backups.
func (s *Service) Run(ctx context.Context) (res *Result, err error) {
	defer func() { s.opts.Metrics.ObserveBackup(err) }()

	if err := os.MkdirAll(s.opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	id := uuid.NewString()
	name := fmt.Sprintf("%s%s-%s%s", filePrefix, s.clock().Format(stampLayout), id[:8], fileSuffix)
	path := filepath.Join(s.opts.Dir, name)

	if err := s.store.BackupTo(ctx, path); err != nil {
		return nil, fmt.Errorf("failed to write backup: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat backup: %w", err)
	}
	res = &Result{ID: id, Path: path, Size: info.Size()}

	if s.opts.Uploader != nil {
		if res.Location, err = s.opts.Uploader.Upload(ctx, path, name); err != nil {
			return nil, fmt.Errorf("failed to upload backup: %w", err)
		}
	}

	if res.Pruned, err = s.prune(); err != nil {
		return nil, err
	}

	s.log.Info("backup written", "path", path, "size", res.Size, "location", res.Location, "pruned", len(res.Pruned))
	return res, nil
}

// List returns the backups in the backup directory, newest first.
func (s *Service) List() ([]string, error) {
	entries, err := os.ReadDir(s.opts.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), filePrefix) || !strings.HasSuffix(e.Name(), fileSuffix) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

func (s *Service) prune() ([]string, error) {
	names, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(names) <= s.opts.Keep {
		return nil, nil
	}

	var pruned []string
	for _, name := range names[s.opts.Keep:] {
		if err := os.Remove(filepath.Join(s.opts.Dir, name)); err != nil {
			return pruned, fmt.Errorf("failed to remove old backup %s: %w", name, err)
		}
		pruned = append(pruned, name)
	}
	return pruned, nil
}

// Export writes a JSON snapshot of every table to path.
func Export(ctx context.Context, store *storage.SQLiteStorage, path string) (*storage.Snapshot, error) {
	snap, err := store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write export: %w", err)
	}
	return snap, nil
}
