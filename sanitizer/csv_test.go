package sanitizer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []string{"a@b.com", "c@d.com"})
	require.NoError(t, err)

	assert.Equal(t, "email\na@b.com\nc@d.com\n", buf.String())
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, nil)
	require.NoError(t, err)

	assert.Equal(t, "email\n", buf.String())
}
