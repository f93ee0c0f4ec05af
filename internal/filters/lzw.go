package filters

import (
	"bytes"
	stdlzw "compress/lzw"
	"fmt"
	"io"

	"golang.org/x/image/tiff/lzw"
)

// LZWDecode decompresses LZW compressed data.
//
// PDF's default (EarlyChange 1) increases the code width one code early,
// which is the variant TIFF uses, so it is decoded with x/image/tiff/lzw.
// EarlyChange 0 is the classic variant handled by compress/lzw. Predictor
// parameters are applied exactly as for FlateDecode.
func LZWDecode(data []byte, params Params) ([]byte, error) {
	var rc io.ReadCloser
	if params.Int("EarlyChange", 1) == 0 {
		rc = stdlzw.NewReader(bytes.NewReader(data), stdlzw.MSB, 8)
	} else {
		rc = lzw.NewReader(bytes.NewReader(data), lzw.MSB, 8)
	}
	defer rc.Close()

	decompressed, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("lzw decompression failed: %w", err)
	}

	return predict(decompressed, params)
}
