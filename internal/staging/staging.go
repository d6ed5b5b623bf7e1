package staging

import (
	"context"
	"io"
)

// Store durably holds an uploaded file between accept and background
// processing. Stage copies the upload out of the request lifetime and
// returns an opaque handle; Delete must run on every exit path of the job
// that owns the handle.
type Store interface {
	Stage(ctx context.Context, r io.Reader) (handle string, size int64, err error)
	Open(ctx context.Context, handle string) (io.ReadCloser, error)
	Delete(ctx context.Context, handle string) error
}
