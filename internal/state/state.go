// Package state persists simulation snapshots between runs.
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ammSwap/internal/model"
	"ammSwap/internal/storage/postgres"
)

// Store loads and saves the latest snapshot.
type Store interface {
	Load(ctx context.Context) (model.Snapshot, bool, error)
	Save(ctx context.Context, snap model.Snapshot) error
}

// FileStore stores the snapshot in a local JSON file. An empty Path disables it.
type FileStore struct {
	Path string
}

func (s *FileStore) Load(ctx context.Context) (model.Snapshot, bool, error) {
	if s == nil || s.Path == "" {
		return model.Snapshot{}, false, nil
	}
	stat, err := os.Stat(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.Snapshot{}, false, nil
		}
		return model.Snapshot{}, false, fmt.Errorf("stat state: %w", err)
	}
	if stat.IsDir() {
		return model.Snapshot{}, false, fmt.Errorf("state path is a directory")
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return model.Snapshot{}, false, fmt.Errorf("read state: %w", err)
	}
	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return model.Snapshot{}, false, fmt.Errorf("parse state: %w", err)
	}
	return snap, true, nil
}

func (s *FileStore) Save(ctx context.Context, snap model.Snapshot) error {
	if s == nil || s.Path == "" {
		return nil
	}
	dir := filepath.Dir(s.Path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	snap.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state tmp: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("rename state: %w", err)
	}
	return nil
}

// DBStore stores the snapshot in the amm_state table under Name, and mirrors
// pool reserves into the pools table.
type DBStore struct {
	Store *postgres.Store
	Name  string
}

func (s *DBStore) Load(ctx context.Context) (model.Snapshot, bool, error) {
	if s == nil || s.Store == nil {
		return model.Snapshot{}, false, nil
	}
	return s.Store.LoadSnapshot(ctx, s.Name)
}

func (s *DBStore) Save(ctx context.Context, snap model.Snapshot) error {
	if s == nil || s.Store == nil {
		return nil
	}
	snap.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	if err := s.Store.SaveSnapshot(ctx, s.Name, snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if err := s.Store.UpsertPools(ctx, snap.Pools); err != nil {
		return fmt.Errorf("upsert pools: %w", err)
	}
	return nil
}
