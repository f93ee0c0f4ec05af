package filters

import "fmt"

// RunLengthDecode decodes byte-oriented run-length encoded data.
//
// A length byte n in 0..127 is followed by n+1 literal bytes; n in 129..255
// is followed by one byte repeated 257-n times; 128 marks end of data.
func RunLengthDecode(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data)*2)

	for i := 0; i < len(data); {
		n := int(data[i])
		i++

		switch {
		case n == 128:
			return out, nil
		case n < 128:
			if i+n+1 > len(data) {
				return nil, fmt.Errorf("literal run of %d bytes exceeds input at offset %d", n+1, i-1)
			}
			out = append(out, data[i:i+n+1]...)
			i += n + 1
		default:
			if i >= len(data) {
				return nil, fmt.Errorf("repeat run missing byte at offset %d", i-1)
			}
			for j := 0; j < 257-n; j++ {
				out = append(out, data[i])
			}
			i++
		}
	}

	// A missing EOD marker is tolerated
	return out, nil
}
