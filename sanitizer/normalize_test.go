package sanitizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "mixed delimiters",
			in:   []string{"a@b.com,c@d.com;e@f.com\ng@h.com"},
			want: []string{"a@b.com", "c@d.com", "e@f.com", "g@h.com"},
		},
		{
			name: "trims and lowercases",
			in:   []string{"  First@Example.COM , SECOND@example.com "},
			want: []string{"first@example.com", "second@example.com"},
		},
		{
			name: "drops empties and whitespace-only entries",
			in:   []string{"a@b.com,, ,\n\n;b@c.com"},
			want: []string{"a@b.com", "b@c.com"},
		},
		{
			name: "multiple chunks keep first-seen order",
			in:   []string{"z@z.com", "a@a.com,z@z.com"},
			want: []string{"z@z.com", "a@a.com", "z@z.com"},
		},
		{
			name: "empty input",
			in:   nil,
			want: []string{},
		},
		{
			name: "windows line endings",
			in:   []string{"a@b.com\r\nc@d.com"},
			want: []string{"a@b.com", "c@d.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeText(t *testing.T) {
	got := NormalizeText("A@b.com; c@d.com\n")
	assert.Equal(t, []string{"a@b.com", "c@d.com"}, got)
}

func TestDeduplicate(t *testing.T) {
	in := []string{"a@b.com", "c@d.com", "a@b.com", "e@f.com", "c@d.com"}

	unique, dups := Deduplicate(in, true)
	require.Equal(t, []string{"a@b.com", "c@d.com", "e@f.com"}, unique)
	assert.Equal(t, 2, dups)
}

func TestDeduplicateDisabled(t *testing.T) {
	in := []string{"a@b.com", "a@b.com"}

	unique, dups := Deduplicate(in, false)
	assert.Equal(t, in, unique)
	assert.Equal(t, 0, dups)
}

func TestDeduplicatePreservesFirstOccurrence(t *testing.T) {
	unique, dups := Deduplicate([]string{"x@y.com", "w@v.com", "x@y.com"}, true)
	assert.Equal(t, "x@y.com", unique[0])
	assert.Equal(t, 1, dups)
}
