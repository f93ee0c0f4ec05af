package filters

import (
	"bytes"
	"io"

	"golang.org/x/image/ccitt"
)

// CCITTFaxDecode decodes a Group 3 or Group 4 fax image to one bit per
// pixel, rows padded to a byte.
//
// Recognized parameters:
//   - K: negative selects Group 4, otherwise Group 3
//   - Columns: width in pixels (default 1728)
//   - Rows: height in pixels (0 means read until the data ends)
//   - BlackIs1: invert the output bits
//   - EncodedByteAlign: rows start on byte boundaries
func CCITTFaxDecode(data []byte, params Params) ([]byte, error) {
	sf := ccitt.Group3
	if params.Int("K", 0) < 0 {
		sf = ccitt.Group4
	}

	rows := params.Int("Rows", 0)
	if rows <= 0 {
		rows = ccitt.AutoDetectHeight
	}

	opts := &ccitt.Options{
		Align:  params.Bool("EncodedByteAlign", false),
		Invert: params.Bool("BlackIs1", false),
	}

	r := ccitt.NewReader(bytes.NewReader(data), ccitt.MSB, sf, params.Int("Columns", 1728), rows, opts)
	return io.ReadAll(r)
}
