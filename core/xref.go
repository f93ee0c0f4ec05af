package core

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// EntryType is the kind of a cross-reference entry.
type EntryType int

const (
	EntryFree       EntryType = iota // "f" rows, stream type 0
	EntryInUse                       // "n" rows, stream type 1
	EntryCompressed                  // stream type 2: the object sits in an object stream
)

// XRefEntry locates one object. For free entries Offset holds the next
// free object number.
type XRefEntry struct {
	Type       EntryType
	Offset     int64
	Generation int
	InUse      bool // in use or compressed

	// Compressed entries only.
	StreamNumber int
	StreamIndex  int
}

// XRefTable maps object numbers to entries for one revision, or for the
// whole file once revisions are merged.
type XRefTable struct {
	Entries map[int]*XRefEntry
	Trailer Dict
}

func NewXRefTable() *XRefTable {
	return &XRefTable{Entries: map[int]*XRefEntry{}, Trailer: Dict{}}
}

func (t *XRefTable) Get(num int) (*XRefEntry, bool) {
	e, ok := t.Entries[num]
	return e, ok
}

func (t *XRefTable) Set(num int, e *XRefEntry) { t.Entries[num] = e }

// Size counts entries of every type.
func (t *XRefTable) Size() int { return len(t.Entries) }

// InUseNumbers lists in-use and compressed object numbers in ascending
// order. Object 0 heads the free list and is never listed.
func (t *XRefTable) InUseNumbers() []int {
	var nums []int
	for num, e := range t.Entries {
		if num != 0 && e.InUse {
			nums = append(nums, num)
		}
	}
	sort.Ints(nums)
	return nums
}

// MergeXRefTables layers revisions given oldest first. Later entries
// replace earlier ones and the last trailer wins.
func MergeXRefTables(tables ...*XRefTable) *XRefTable {
	merged := NewXRefTable()
	for _, t := range tables {
		for num, e := range t.Entries {
			merged.Entries[num] = e
		}
		merged.Trailer = t.Trailer
	}
	return merged
}

// XRefParser reads cross-reference sections from a seekable file.
type XRefParser struct {
	r io.ReadSeeker
}

func NewXRefParser(r io.ReadSeeker) *XRefParser {
	return &XRefParser{r: r}
}

// startxrefWindow is how far from the end of the file startxref is sought.
const startxrefWindow = 1024

// FindXRef returns the offset named by the last startxref keyword.
func (x *XRefParser) FindXRef() (int64, error) {
	size, err := x.r.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("startxref: %w", err)
	}
	from := size - startxrefWindow
	if from < 0 {
		from = 0
	}
	if _, err := x.r.Seek(from, io.SeekStart); err != nil {
		return 0, fmt.Errorf("startxref: %w", err)
	}
	tail, err := io.ReadAll(x.r)
	if err != nil {
		return 0, fmt.Errorf("startxref: %w", err)
	}

	i := bytes.LastIndex(tail, []byte("startxref"))
	if i < 0 {
		return 0, fmt.Errorf("startxref keyword not found")
	}
	fields := bytes.Fields(tail[i+len("startxref"):])
	if len(fields) == 0 {
		return 0, fmt.Errorf("startxref has no offset")
	}
	off, err := strconv.ParseInt(string(fields[0]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("startxref offset %q: %w", fields[0], err)
	}
	if off < 0 || off >= size {
		return 0, fmt.Errorf("startxref offset %d outside file of %d bytes", off, size)
	}
	return off, nil
}

// ParseXRefFromEOF parses only the newest cross-reference section.
func (x *XRefParser) ParseXRefFromEOF() (*XRefTable, error) {
	off, err := x.FindXRef()
	if err != nil {
		return nil, err
	}
	return x.ParseXRef(off)
}

// ParseXRef parses the section at offset, a classic table when the
// keyword xref is there and an xref stream object otherwise.
func (x *XRefParser) ParseXRef(offset int64) (*XRefTable, error) {
	if _, err := x.r.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("xref at %d: %w", offset, err)
	}
	lex := NewLexer(x.r)
	first, err := significantToken(lex)
	if err != nil {
		return nil, fmt.Errorf("xref at %d: %w", offset, err)
	}
	if first.Type == TokenKeyword && string(first.Value) == "xref" {
		return parseTable(lex)
	}

	if _, err := x.r.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("xref at %d: %w", offset, err)
	}
	obj, err := NewParser(x.r).ParseIndirectObject()
	if err != nil {
		return nil, fmt.Errorf("xref at %d is neither a table nor a stream: %w", offset, err)
	}
	stream, ok := obj.Object.(*Stream)
	if !ok || stream.Dict.TypeName() != "XRef" {
		return nil, fmt.Errorf("object %v at xref offset %d is not an xref stream", obj.Ref, offset)
	}
	return ParseXRefStream(stream)
}

// ParseAllXRefs follows /Prev from the newest section back to the first
// and returns the sections oldest first, for MergeXRefTables. A section
// whose trailer has /XRefStm absorbs the stream's entries for objects it
// does not itself mark in use.
func (x *XRefParser) ParseAllXRefs() ([]*XRefTable, error) {
	off, err := x.FindXRef()
	if err != nil {
		return nil, err
	}

	var chain []*XRefTable
	visited := map[int64]bool{}
	for {
		if visited[off] {
			return nil, fmt.Errorf("xref /Prev chain revisits offset %d", off)
		}
		visited[off] = true

		table, err := x.ParseXRef(off)
		if err != nil {
			return nil, err
		}
		if err := x.mergeHybrid(table, visited); err != nil {
			return nil, err
		}
		chain = append(chain, table)

		prev, ok := table.Trailer["Prev"]
		if !ok {
			break
		}
		p, ok := prev.(Int)
		if !ok {
			return nil, fmt.Errorf("trailer /Prev is %v, not an integer", prev.Type())
		}
		off = int64(p)
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

func (x *XRefParser) mergeHybrid(table *XRefTable, visited map[int64]bool) error {
	stm, ok := table.Trailer.GetInt("XRefStm")
	if !ok || visited[int64(stm)] {
		return nil
	}
	visited[int64(stm)] = true
	extra, err := x.ParseXRef(int64(stm))
	if err != nil {
		return fmt.Errorf("/XRefStm: %w", err)
	}
	for num, e := range extra.Entries {
		if cur, ok := table.Entries[num]; !ok || !cur.InUse {
			table.Entries[num] = e
		}
	}
	return nil
}

// parseTable reads the subsections and trailer that follow the xref
// keyword. Rows are read as tokens, so any line ending is accepted.
func parseTable(lex *Lexer) (*XRefTable, error) {
	table := NewXRefTable()
	for {
		tok, err := significantToken(lex)
		if err != nil {
			return nil, fmt.Errorf("xref table: %w", err)
		}
		if tok.Type == TokenKeyword && string(tok.Value) == "trailer" {
			trailer, err := newParserOn(lex).ParseObject()
			if err != nil {
				return nil, fmt.Errorf("xref trailer: %w", err)
			}
			dict, ok := trailer.(Dict)
			if !ok {
				return nil, fmt.Errorf("xref trailer is %v, not a dictionary", trailer.Type())
			}
			table.Trailer = dict
			return table, nil
		}

		start, err := tokenInt(tok, "subsection start")
		if err != nil {
			return nil, err
		}
		count, err := nextInt(lex, "subsection count")
		if err != nil {
			return nil, err
		}
		if start < 0 || count < 0 {
			return nil, fmt.Errorf("xref subsection %d %d is negative", start, count)
		}
		for i := 0; i < count; i++ {
			e, err := parseEntry(lex)
			if err != nil {
				return nil, fmt.Errorf("xref object %d: %w", start+i, err)
			}
			table.Entries[start+i] = e
		}
	}
}

// parseEntry reads one "offset generation n|f" row.
func parseEntry(lex *Lexer) (*XRefEntry, error) {
	off, err := nextInt(lex, "entry offset")
	if err != nil {
		return nil, err
	}
	gen, err := nextInt(lex, "entry generation")
	if err != nil {
		return nil, err
	}
	flag, err := significantToken(lex)
	if err != nil {
		return nil, err
	}
	e := &XRefEntry{Offset: int64(off), Generation: gen}
	switch {
	case flag.Type == TokenKeyword && string(flag.Value) == "n":
		e.Type, e.InUse = EntryInUse, true
	case flag.Type == TokenKeyword && string(flag.Value) == "f":
		e.Type = EntryFree
	default:
		return nil, fmt.Errorf("entry flag %q is neither n nor f", flag.Value)
	}
	return e, nil
}

func significantToken(lex *Lexer) (*Token, error) {
	for {
		tok, err := lex.NextToken()
		if err != nil || tok.Type != TokenComment {
			return tok, err
		}
	}
}

func nextInt(lex *Lexer, what string) (int, error) {
	tok, err := significantToken(lex)
	if err != nil {
		return 0, err
	}
	return tokenInt(tok, what)
}

func tokenInt(tok *Token, what string) (int, error) {
	if tok.Type != TokenInteger {
		return 0, fmt.Errorf("expected %s at offset %d, got %q", what, tok.Pos, tok.Value)
	}
	return strconv.Atoi(string(tok.Value))
}

// ParseXRefStream decodes the rows of a cross-reference stream. The stream
// dictionary, less its stream keys, serves as the trailer.
func ParseXRefStream(stream *Stream) (*XRefTable, error) {
	d := stream.Dict
	w, err := rowWidths(d)
	if err != nil {
		return nil, err
	}
	size, ok := d.GetInt("Size")
	if !ok || size < 0 {
		return nil, fmt.Errorf("xref stream: /Size missing or negative")
	}
	ranges, err := subsections(d, int(size))
	if err != nil {
		return nil, err
	}
	data, err := stream.Decode()
	if err != nil {
		return nil, fmt.Errorf("xref stream: %w", err)
	}

	table := NewXRefTable()
	table.Trailer = streamTrailer(d)
	rowLen := w[0] + w[1] + w[2]
	for k := 0; k < len(ranges); k += 2 {
		for num := ranges[k]; num < ranges[k]+ranges[k+1]; num++ {
			if len(data) < rowLen {
				return nil, fmt.Errorf("xref stream: data ends before object %d", num)
			}
			row := data[:rowLen]
			data = data[rowLen:]

			typ := int64(1)
			if w[0] > 0 {
				typ = bigEndian(row[:w[0]])
			}
			f2 := bigEndian(row[w[0] : w[0]+w[1]])
			f3 := bigEndian(row[w[0]+w[1]:])
			switch typ {
			case 0:
				table.Entries[num] = &XRefEntry{Type: EntryFree, Offset: f2, Generation: int(f3)}
			case 1:
				table.Entries[num] = &XRefEntry{Type: EntryInUse, InUse: true, Offset: f2, Generation: int(f3)}
			case 2:
				table.Entries[num] = &XRefEntry{Type: EntryCompressed, InUse: true, StreamNumber: int(f2), StreamIndex: int(f3)}
			}
		}
	}
	return table, nil
}

// rowWidths reads /W: three field widths of at most eight bytes, not all
// zero.
func rowWidths(d Dict) ([3]int, error) {
	var w [3]int
	arr, ok := d.GetArray("W")
	if !ok || arr.Len() != 3 {
		return w, fmt.Errorf("xref stream: /W must be an array of three integers")
	}
	for i := range w {
		v, ok := arr.GetInt(i)
		if !ok || v < 0 || v > 8 {
			return w, fmt.Errorf("xref stream: bad /W field %d: %v", i, arr.Get(i))
		}
		w[i] = int(v)
	}
	if w[0]+w[1]+w[2] == 0 {
		return w, fmt.Errorf("xref stream: /W fields are all zero")
	}
	return w, nil
}

// subsections reads /Index as start/count pairs, defaulting to [0 size].
func subsections(d Dict, size int) ([]int, error) {
	arr, ok := d.GetArray("Index")
	if !ok {
		return []int{0, size}, nil
	}
	if arr.Len()%2 != 0 {
		return nil, fmt.Errorf("xref stream: /Index has odd length %d", arr.Len())
	}
	out := make([]int, arr.Len())
	for i := range out {
		v, ok := arr.GetInt(i)
		if !ok || v < 0 {
			return nil, fmt.Errorf("xref stream: bad /Index element %d: %v", i, arr.Get(i))
		}
		out[i] = int(v)
	}
	return out, nil
}

func bigEndian(b []byte) int64 {
	var v int64
	for _, c := range b {
		v = v<<8 | int64(c)
	}
	return v
}

var streamOnlyKeys = map[string]bool{
	"Type": true, "Length": true, "Filter": true, "DecodeParms": true, "W": true, "Index": true,
}

func streamTrailer(d Dict) Dict {
	trailer := Dict{}
	for k, v := range d {
		if !streamOnlyKeys[k] {
			trailer[k] = v
		}
	}
	return trailer
}
