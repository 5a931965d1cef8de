package sanitizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomain(t *testing.T) {
	tests := []struct {
		email  string
		domain string
		ok     bool
	}{
		{"user@example.com", "example.com", true},
		{"user@sub.example.com", "sub.example.com", true},
		{"no-at-sign", "", false},
		{"two@@example.com", "", false},
		{"a@b@c.com", "", false},
		{"user@", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		domain, ok := Domain(tt.email)
		assert.Equal(t, tt.ok, ok, tt.email)
		assert.Equal(t, tt.domain, domain, tt.email)
	}
}

func TestDenylistContains(t *testing.T) {
	d := NewDenylist([]string{"Trash.example", " spam.example ", ""})

	assert.True(t, d.Contains("trash.example"))
	assert.True(t, d.Contains("TRASH.EXAMPLE"))
	assert.True(t, d.Contains("spam.example"))
	assert.False(t, d.Contains("example.com"))
	// Exact match only, no subdomain logic.
	assert.False(t, d.Contains("sub.trash.example"))
	assert.False(t, d.Contains(""))
}

func TestDefaultDenylist(t *testing.T) {
	d := DefaultDenylist()

	assert.True(t, d.Contains("mailinator.com"))
	assert.True(t, d.Contains("yopmail.com"))
	assert.False(t, d.Contains("gmail.com"))
}
