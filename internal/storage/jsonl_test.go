package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"ammSwap/internal/model"
)

func TestJsonlStorageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "receipts.jsonl")
	s := NewJsonlStorage(path)
	ctx := context.Background()

	if err := s.PutReceiptBatch(ctx, nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("empty batch should not create the file")
	}

	first := []model.Receipt{{Seq: 1, Op: model.OpMint, Status: model.StatusOK}}
	second := []model.Receipt{
		{Seq: 2, Op: model.OpSwapBaseForToken, Status: model.StatusFailed, ErrorKind: "Expired"},
		{Seq: 3, Op: model.OpQuoteTokenOutput, Status: model.StatusOK, Output: "1978041738678708079"},
	}
	if err := s.PutReceiptBatch(ctx, first); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.PutReceiptBatch(ctx, second); err != nil {
		t.Fatalf("put: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()

	var got []model.Receipt
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var r model.Receipt
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		got = append(got, r)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 receipts, got %d", len(got))
	}
	if got[1].ErrorKind != "Expired" || got[2].Output != "1978041738678708079" {
		t.Fatalf("unexpected receipts: %+v", got)
	}
}

func TestJsonlStorageUnwritablePath(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s := NewJsonlStorage(filepath.Join(blocker, "receipts.jsonl"))
	if err := s.PutReceiptBatch(context.Background(), []model.Receipt{{Seq: 1}}); err == nil {
		t.Fatalf("expected error when the output dir is a file")
	}
}
