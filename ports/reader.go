package ports

import (
	"context"

	"nhanesci/domain/dataset"
)

// TableReaderPort loads the input dataset once at startup
type TableReaderPort interface {
	ReadTable(ctx context.Context) (*dataset.Table, error)
}

// TableReaderFactory opens a reader for a path, letting tests substitute in-memory tables
type TableReaderFactory func(path string) TableReaderPort
