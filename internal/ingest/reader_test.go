package ingest

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTabularReaderConsumesHeader(t *testing.T) {
	input := "externalId,name,quantity,expiryDate\nsku-1,widget,1,2027-01-31\n"

	reader, err := NewTabularReader(strings.NewReader(input))
	require.NoError(t, err)

	fields, err := reader.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"sku-1", "widget", "1", "2027-01-31"}, fields)

	_, err = reader.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestTabularReaderEmptyInput(t *testing.T) {
	_, err := NewTabularReader(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrMissingHeader)
}

func TestTabularReaderHeaderOnly(t *testing.T) {
	reader, err := NewTabularReader(strings.NewReader("externalId,name,quantity,expiryDate\n"))
	require.NoError(t, err)

	_, err = reader.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestTabularReaderKeepsShortRows(t *testing.T) {
	input := "externalId,name,quantity,expiryDate\nsku-1,widget\nsku-2,widget,1,2027-01-31,extra\n"

	reader, err := NewTabularReader(strings.NewReader(input))
	require.NoError(t, err)

	fields, err := reader.Next()
	require.NoError(t, err)
	assert.Len(t, fields, 2)

	fields, err = reader.Next()
	require.NoError(t, err)
	assert.Len(t, fields, 5)
}

func TestTabularReaderDecodeError(t *testing.T) {
	input := "externalId,name,quantity,expiryDate\nsku-1,\"broken,1,2027-01-31\n"

	reader, err := NewTabularReader(strings.NewReader(input))
	require.NoError(t, err)

	_, err = reader.Next()
	require.Error(t, err)
	assert.NotErrorIs(t, err, io.EOF)
}
