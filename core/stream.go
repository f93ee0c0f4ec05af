package core

import (
	"fmt"

	"github.com/tsawler/pdfinspect/internal/filters"
)

type decoder func(data []byte, params filters.Params) ([]byte, error)

func withoutParams(fn func([]byte) ([]byte, error)) decoder {
	return func(data []byte, _ filters.Params) ([]byte, error) { return fn(data) }
}

func passthrough(data []byte, _ filters.Params) ([]byte, error) { return data, nil }

// decoders maps filter names, abbreviations included, to their decoders.
// Image codecs pass through: their encoded bytes are what inspection shows.
var decoders = map[Name]decoder{
	"FlateDecode":     filters.FlateDecode,
	"Fl":              filters.FlateDecode,
	"LZWDecode":       filters.LZWDecode,
	"LZW":             filters.LZWDecode,
	"ASCIIHexDecode":  withoutParams(filters.ASCIIHexDecode),
	"AHx":             withoutParams(filters.ASCIIHexDecode),
	"ASCII85Decode":   withoutParams(filters.ASCII85Decode),
	"A85":             withoutParams(filters.ASCII85Decode),
	"RunLengthDecode": withoutParams(filters.RunLengthDecode),
	"RL":              withoutParams(filters.RunLengthDecode),
	"CCITTFaxDecode":  filters.CCITTFaxDecode,
	"CCF":             filters.CCITTFaxDecode,
	"DCTDecode":       passthrough,
	"DCT":             passthrough,
	"JPXDecode":       passthrough,
	"JBIG2Decode":     passthrough,
}

// Decode returns the stream data with its /Filter chain undone, applying
// the matching /DecodeParms entry to each filter. A Crypt filter yields
// ErrEncrypted.
func (s *Stream) Decode() ([]byte, error) {
	chain, err := s.filterChain()
	if err != nil {
		return nil, err
	}

	data := s.Data
	for i, f := range chain {
		if f.name == "Crypt" {
			return nil, fmt.Errorf("filter %d: %w", i, ErrEncrypted)
		}
		decode, ok := decoders[f.name]
		if !ok {
			return nil, fmt.Errorf("filter %d: unknown filter /%s", i, f.name)
		}
		if data, err = decode(data, dictToParams(f.parms)); err != nil {
			return nil, fmt.Errorf("filter %d (/%s): %w", i, f.name, err)
		}
	}
	return data, nil
}

type filterStep struct {
	name  Name
	parms Dict
}

// filterChain pairs each /Filter name with its parameters. /DecodeParms may
// be a single dictionary shared by every filter or an array parallel to the
// filter array.
func (s *Stream) filterChain() ([]filterStep, error) {
	parms := s.Dict.Get("DecodeParms")
	switch f := s.Dict.Get("Filter").(type) {
	case nil:
		return nil, nil
	case Name:
		return []filterStep{{f, paramsObjToDict(parms)}}, nil
	case Array:
		perFilter, parallel := parms.(Array)
		steps := make([]filterStep, len(f))
		for i, elem := range f {
			name, ok := elem.(Name)
			if !ok {
				return nil, fmt.Errorf("filter %d is %v, not a name", i, elem.Type())
			}
			steps[i].name = name
			if parallel {
				steps[i].parms = paramsObjToDict(perFilter.Get(i))
			} else {
				steps[i].parms = paramsObjToDict(parms)
			}
		}
		return steps, nil
	default:
		return nil, fmt.Errorf("/Filter is %v, not a name or array", f.Type())
	}
}

// paramsObjToDict returns obj as a dictionary, or nil for null and
// anything else.
func paramsObjToDict(obj Object) Dict {
	d, _ := obj.(Dict)
	return d
}

// dictToParams lowers a parameter dictionary to the plain Go values the
// filters package reads.
func dictToParams(dict Dict) filters.Params {
	if dict == nil {
		return nil
	}
	params := make(filters.Params, len(dict))
	for k, v := range dict {
		var val interface{} = v
		switch x := v.(type) {
		case Int:
			val = int(x)
		case Real:
			val = float64(x)
		case Bool:
			val = bool(x)
		case String:
			val = string(x)
		case Name:
			val = string(x)
		}
		params[k] = val
	}
	return params
}
