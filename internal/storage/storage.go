package storage

import (
	"context"

	"ammSwap/internal/model"
)

// Storage defines a sink for operation receipts.
type Storage interface {
	PutReceiptBatch(ctx context.Context, receipts []model.Receipt) error
}
