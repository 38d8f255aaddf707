package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"ammSwap/internal/model"
)

// JsonlStorage appends one JSON receipt per line to a file, in the order the
// runner applied the operations. Receipts are never rewritten: a resumed run
// only appends receipts with a sequence number above the saved state.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// PutReceiptBatch encodes the whole batch before touching the file, so a
// receipt that fails to encode leaves the file unchanged.
func (s *JsonlStorage) PutReceiptBatch(_ context.Context, receipts []model.Receipt) error {
	if len(receipts) == 0 {
		return nil
	}

	var lines [][]byte
	for _, receipt := range receipts {
		line, err := json.Marshal(receipt)
		if err != nil {
			return fmt.Errorf("encode receipt seq %d: %w", receipt.Seq, err)
		}
		lines = append(lines, line)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ensureDir(s.path); err != nil {
		return err
	}
	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open receipts %s: %w", s.path, err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	for _, line := range lines {
		w.Write(line)
		w.WriteByte('\n')
	}
	// bufio.Writer keeps the first write error and reports it here.
	if err := w.Flush(); err != nil {
		return fmt.Errorf("append receipts %d..%d: %w", receipts[0].Seq, receipts[len(receipts)-1].Seq, err)
	}
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create receipts dir: %w", err)
	}
	return nil
}
