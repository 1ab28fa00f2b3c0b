package core

// streaming.go wraps raw file readers so encoding/csv sees clean UTF-8:
//
//   - A leading UTF-8 BOM (0xEF 0xBB 0xBF), as written by Excel, is dropped
//     so it does not end up inside the first header name.
//   - Invalid UTF-8 sequences are replaced with U+FFFD.
//   - UTF-16 files announced by a BOM are decoded to UTF-8.

import (
	"encoding/csv"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// NewSanitizingReader returns r with the BOM removed and invalid UTF-8 replaced.
func NewSanitizingReader(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

// NewCSVReader returns a csv.Reader over the sanitized contents of r.
// Every record must have as many fields as the header.
func NewCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(NewSanitizingReader(r))
	cr.FieldsPerRecord = 0
	return cr
}
