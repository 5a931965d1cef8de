package sanitizer

import "regexp"

// Permissive local part followed by one or more dot-separated DNS labels of
// 1-63 alphanumeric characters with optional internal hyphens.
var addressPattern = regexp.MustCompile(
	`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+` +
		`@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?` +
		`(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

// ValidFormat reports whether the address has a plausible syntactic shape.
// It is a syntactic filter only and makes no claim about deliverability.
func ValidFormat(email string) bool {
	return addressPattern.MatchString(email)
}
