package ingest

import (
	"context"
	"fmt"
)

// DefaultChunkSize is the number of records committed per write in chunked
// mode.
const DefaultChunkSize = 1000

// PersistFunc writes a batch of records durably. Each call succeeds or fails
// as a unit.
type PersistFunc func(ctx context.Context, records []Record) error

// Committer turns the validated-record stream into durable writes. Add
// consumes one record, Flush commits whatever is still buffered at stream
// end, and Inserted reports how many records are durably stored so far.
type Committer interface {
	Add(ctx context.Context, record Record) error
	Flush(ctx context.Context) error
	Inserted() int64
}

// AtomicCommitter buffers every valid record in memory and issues a single
// write at stream end. If that write fails nothing is persisted. Memory
// grows with the valid-row count, the accepted price for all-or-nothing
// semantics.
type AtomicCommitter struct {
	persist  PersistFunc
	buffer   []Record
	inserted int64
}

var _ Committer = (*AtomicCommitter)(nil)

func NewAtomicCommitter(persist PersistFunc) *AtomicCommitter {
	return &AtomicCommitter{persist: persist}
}

func (c *AtomicCommitter) Add(_ context.Context, record Record) error {
	c.buffer = append(c.buffer, record)
	return nil
}

func (c *AtomicCommitter) Flush(ctx context.Context) error {
	if len(c.buffer) == 0 {
		return nil
	}

	if err := c.persist(ctx, c.buffer); err != nil {
		return fmt.Errorf("persisting %d records: %w", len(c.buffer), err)
	}
	c.inserted = int64(len(c.buffer))
	return nil
}

func (c *AtomicCommitter) Inserted() int64 {
	return c.inserted
}

// ChunkedCommitter issues an independent write per full chunk, plus one for
// the final partial chunk. A failed chunk does not undo earlier chunks;
// Inserted counts only records from writes that succeeded.
type ChunkedCommitter struct {
	persist   PersistFunc
	chunkSize int
	buffer    []Record
	inserted  int64
}

var _ Committer = (*ChunkedCommitter)(nil)

func NewChunkedCommitter(persist PersistFunc, chunkSize int) *ChunkedCommitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &ChunkedCommitter{
		persist:   persist,
		chunkSize: chunkSize,
		buffer:    make([]Record, 0, chunkSize),
	}
}

func (c *ChunkedCommitter) Add(ctx context.Context, record Record) error {
	c.buffer = append(c.buffer, record)
	if len(c.buffer) >= c.chunkSize {
		return c.commitChunk(ctx)
	}
	return nil
}

func (c *ChunkedCommitter) Flush(ctx context.Context) error {
	if len(c.buffer) == 0 {
		return nil
	}
	return c.commitChunk(ctx)
}

func (c *ChunkedCommitter) Inserted() int64 {
	return c.inserted
}

func (c *ChunkedCommitter) commitChunk(ctx context.Context) error {
	if err := c.persist(ctx, c.buffer); err != nil {
		return fmt.Errorf("persisting chunk of %d records: %w", len(c.buffer), err)
	}
	c.inserted += int64(len(c.buffer))
	c.buffer = c.buffer[:0]
	return nil
}
