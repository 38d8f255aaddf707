package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"ammSwap/internal/model"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	store := &FileStore{Path: path}

	if _, ok, err := store.Load(ctx); err != nil || ok {
		t.Fatalf("missing file should load nothing: ok=%v err=%v", ok, err)
	}

	snap := model.Snapshot{
		Registry:  "0x00000000000000000000000000000000000000fa",
		BaseToken: "0x00000000000000000000000000000000000000ee",
		LastSeq:   42,
		Pools: []model.PoolState{{
			Address:  "0x1",
			Token:    "0xaa",
			Reserves: model.PoolReserves{Base: "1000", Token: "2000", TotalShares: "1000"},
			Holdings: []model.ShareRecord{{Holder: "0x11", Shares: "1000"}},
		}},
	}
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("tmp file left behind")
	}

	got, ok, err := store.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.LastSeq != 42 || len(got.Pools) != 1 || got.Pools[0].Reserves.Token != "2000" {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
	if got.UpdatedAt == "" {
		t.Fatalf("updated_at not set")
	}
}

func TestFileStoreErrors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	if _, _, err := (&FileStore{Path: dir}).Load(ctx); err == nil {
		t.Fatalf("expected error for directory path")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := (&FileStore{Path: bad}).Load(ctx); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestDisabledStores(t *testing.T) {
	ctx := context.Background()
	for name, store := range map[string]Store{
		"file": &FileStore{},
		"db":   &DBStore{},
	} {
		if _, ok, err := store.Load(ctx); ok || err != nil {
			t.Fatalf("%s: load ok=%v err=%v", name, ok, err)
		}
		if err := store.Save(ctx, model.Snapshot{}); err != nil {
			t.Fatalf("%s: save: %v", name, err)
		}
	}
}
