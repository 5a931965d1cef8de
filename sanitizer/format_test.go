package sanitizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidFormat(t *testing.T) {
	valid := []string{
		"a@b.com",
		"user@example.com",
		"user.name+tag@example.co.uk",
		"x_y{z}@sub.domain-with-hyphen.org",
		"!#$%&'*+/=?^_`{|}~-@example.com",
		"a@b", // single label domains are syntactically fine
		"1@2.3",
	}
	for _, email := range valid {
		assert.True(t, ValidFormat(email), "expected valid: %s", email)
	}

	invalid := []string{
		"",
		"bad-email",
		"@example.com",
		"user@",
		"user@@example.com",
		"user@-example.com",         // leading hyphen in label
		"user@example-.com",         // trailing hyphen in label
		"user@example..com",         // empty label
		"user@.example.com",         // leading dot
		"us er@example.com",         // space in local part
		"user@exam ple.com",         // space in domain
		"user@" + strings.Repeat("a", 64) + ".com", // label over 63 chars
	}
	for _, email := range invalid {
		assert.False(t, ValidFormat(email), "expected invalid: %s", email)
	}
}

func TestValidFormatLabelBoundary(t *testing.T) {
	// 63-character labels are the longest the DNS allows.
	label := strings.Repeat("a", 63)
	assert.True(t, ValidFormat("user@"+label+".com"))
	assert.False(t, ValidFormat("user@"+label+"a.com"))
}
