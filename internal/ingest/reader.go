package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"io"
)

// ErrMissingHeader is returned when the input has no header row at all.
var ErrMissingHeader = errors.New("input has no header row")

// TabularReader streams rows from a comma-delimited source. The header row
// (externalId,name,quantity,expiryDate) is consumed at construction and not
// validated further; Next pulls one row at a time. A decode error aborts the
// whole pass, there is no per-row recovery.
type TabularReader struct {
	csv *csv.Reader
}

func NewTabularReader(r io.Reader) (*TabularReader, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	// rows with the wrong field count must reach the validator, which
	// categorizes them instead of aborting the pass
	cr.FieldsPerRecord = -1

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrMissingHeader
		}
		return nil, err
	}

	return &TabularReader{csv: cr}, nil
}

// Next returns the fields of the next row, io.EOF at end of input, or the
// decode error that aborted the pass.
func (t *TabularReader) Next() ([]string, error) {
	return t.csv.Read()
}
