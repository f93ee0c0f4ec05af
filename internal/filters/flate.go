package filters

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// FlateDecode inflates zlib data and undoes any predictor named in params.
func FlateDecode(data []byte, params Params) ([]byte, error) {
	inflated, err := zlibDecompress(data)
	if err != nil {
		return nil, fmt.Errorf("zlib decompression failed: %w", err)
	}
	return predict(inflated, params)
}

func zlibDecompress(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create zlib reader: %w", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress: %w", err)
	}
	return out, nil
}

// predict reverses the /Predictor transform shared by FlateDecode and
// LZWDecode. Predictor 1 (the default) leaves data unchanged.
func predict(data []byte, params Params) ([]byte, error) {
	predictor := params.Int("Predictor", 1)
	if predictor == 1 {
		return data, nil
	}

	row := rowLayout{
		colors:  params.Int("Colors", 1),
		bpc:     params.Int("BitsPerComponent", 8),
		columns: params.Int("Columns", 1),
	}
	if row.colors < 1 || row.columns < 1 {
		return nil, fmt.Errorf("predictor failed: invalid row layout %+v", row)
	}

	var (
		out []byte
		err error
	)
	switch {
	case predictor == 2:
		out, err = tiffPredictor(data, row)
	case predictor >= 10 && predictor <= 15:
		out, err = pngPredictor(data, row)
	default:
		return nil, fmt.Errorf("unsupported predictor: %d", predictor)
	}
	if err != nil {
		return nil, fmt.Errorf("predictor failed: %w", err)
	}
	return out, nil
}

// rowLayout describes one row of predicted samples.
type rowLayout struct {
	colors  int
	bpc     int
	columns int
}

// stride is the number of bytes per row, excluding any PNG tag byte.
func (r rowLayout) stride() int {
	return (r.columns*r.colors*r.bpc + 7) / 8
}

// pixelBytes is the distance to the left neighbour used by the predictors,
// never less than one byte.
func (r rowLayout) pixelBytes() int {
	if n := r.colors * r.bpc / 8; n > 0 {
		return n
	}
	return 1
}

// tiffPredictor undoes TIFF Predictor 2 for 8-bit samples.
func tiffPredictor(data []byte, row rowLayout) ([]byte, error) {
	if row.bpc != 8 {
		return nil, fmt.Errorf("TIFF predictor supports 8 bits per component, got %d", row.bpc)
	}
	stride := row.stride()
	if len(data)%stride != 0 {
		return nil, fmt.Errorf("data size %d is not a multiple of row size %d", len(data), stride)
	}

	out := make([]byte, len(data))
	copy(out, data)
	for start := 0; start < len(out); start += stride {
		line := out[start : start+stride]
		for i := row.colors; i < len(line); i++ {
			line[i] += line[i-row.colors]
		}
	}
	return out, nil
}

// pngPredictor undoes the PNG filters. Every row is prefixed with a tag byte
// selecting None, Sub, Up, Average or Paeth for that row.
func pngPredictor(data []byte, row rowLayout) ([]byte, error) {
	stride := row.stride()
	if len(data)%(stride+1) != 0 {
		return nil, fmt.Errorf("data size %d is not a multiple of row size %d", len(data), stride+1)
	}

	bpp := row.pixelBytes()
	rows := len(data) / (stride + 1)
	out := make([]byte, rows*stride)
	prev := make([]byte, stride)

	for r := 0; r < rows; r++ {
		in := data[r*(stride+1):]
		tag, in := in[0], in[1:stride+1]
		cur := out[r*stride : (r+1)*stride]

		for i := range cur {
			var left, upLeft byte
			if i >= bpp {
				left = cur[i-bpp]
				upLeft = prev[i-bpp]
			}
			up := prev[i]

			var p byte
			switch tag {
			case 0:
			case 1:
				p = left
			case 2:
				p = up
			case 3:
				p = byte((int(left) + int(up)) / 2)
			case 4:
				p = paeth(left, up, upLeft)
			default:
				return nil, fmt.Errorf("row %d: unknown PNG filter %d", r, tag)
			}
			cur[i] = in[i] + p
		}
		prev = cur
	}
	return out, nil
}

// paeth picks whichever of left, up and upper-left is closest to
// left+up-upLeft, preferring them in that order on ties.
func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	default:
		return c
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
