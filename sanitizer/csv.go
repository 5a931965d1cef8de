package sanitizer

import (
	"encoding/csv"
	"io"
)

// WriteCSV renders addresses as a one-column CSV with an "email" header.
// Output formatting only; no validation happens here.
func WriteCSV(w io.Writer, emails []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"email"}); err != nil {
		return err
	}
	for _, email := range emails {
		if err := cw.Write([]string{email}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
