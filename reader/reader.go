package reader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"sync"

	"github.com/tsawler/pdfinspect/core"
)

// PDFVersion is the version from the %PDF-x.y header.
type PDFVersion struct {
	Major int
	Minor int
}

func (v PDFVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Reader gives access to the indirect objects of a PDF file.
//
// Objects are parsed on demand and never cached here; callers that want to
// keep objects around store them themselves (see the store package). Every
// object is read through its own section of the underlying io.ReaderAt, so a
// Reader is safe for concurrent use.
type Reader struct {
	src      io.ReaderAt
	size     int64
	closer   io.Closer
	xref     *core.XRefTable
	trailer  core.Dict
	version  PDFVersion
	repaired bool

	mu         sync.Mutex
	objStreams map[int]*core.ObjectStream
}

// Open reads the cross-reference data of the named file. Close releases
// the file.
func Open(filename string) (*Reader, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	r, err := NewReader(file, info.Size())
	if err != nil {
		file.Close()
		return nil, err
	}
	r.closer = file

	return r, nil
}

// NewReader creates a Reader over size bytes of src. Both *os.File and
// *bytes.Reader satisfy io.ReaderAt.
func NewReader(src io.ReaderAt, size int64) (*Reader, error) {
	r := &Reader{
		src:        src,
		size:       size,
		objStreams: make(map[int]*core.ObjectStream),
	}

	version, err := r.parseHeader()
	if err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}
	r.version = version

	table, err := r.loadXRef()
	if err != nil {
		// Damaged or missing xref: rebuild it by scanning for object headers
		table, err = r.rebuildXRef(err)
		if err != nil {
			return nil, fmt.Errorf("failed to load xref: %w", err)
		}
		r.repaired = true
	}
	r.xref = table
	r.trailer = table.Trailer

	return r, nil
}

// Close closes the file opened by Open; it does nothing for readers built
// with NewReader.
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

var headerPattern = regexp.MustCompile(`%PDF-(\d+)\.(\d+)`)

// parseHeader parses the PDF header (%PDF-x.y). Some writers put junk
// before the header, so the first kilobyte is searched.
func (r *Reader) parseHeader() (PDFVersion, error) {
	n := int64(1024)
	if r.size < n {
		n = r.size
	}
	buf := make([]byte, n)
	read, err := r.src.ReadAt(buf, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return PDFVersion{}, fmt.Errorf("failed to read header: %w", err)
	}
	buf = buf[:read]

	matches := headerPattern.FindSubmatch(buf)
	if matches == nil {
		return PDFVersion{}, fmt.Errorf("invalid PDF header: %q", firstLine(buf))
	}

	major, _ := strconv.Atoi(string(matches[1]))
	minor, _ := strconv.Atoi(string(matches[2]))
	return PDFVersion{Major: major, Minor: minor}, nil
}

// loadXRef merges every revision reachable from startxref.
func (r *Reader) loadXRef() (*core.XRefTable, error) {
	xrefParser := core.NewXRefParser(io.NewSectionReader(r.src, 0, r.size))
	tables, err := xrefParser.ParseAllXRefs()
	if err != nil {
		return nil, err
	}
	return core.MergeXRefTables(tables...), nil
}

var (
	objHeaderPattern = regexp.MustCompile(`(?m)(\d+)[ \t\r\n\f\x00]+(\d+)[ \t\r\n\f\x00]+obj\b`)
	trailerPattern   = regexp.MustCompile(`trailer[ \t\r\n\f\x00]*<<`)
)

// rebuildXRef reconstructs the xref table by scanning the whole file for
// "num gen obj" headers. Later definitions of the same number win, as they
// would after an incremental update.
func (r *Reader) rebuildXRef(cause error) (*core.XRefTable, error) {
	data := make([]byte, r.size)
	if _, err := r.src.ReadAt(data, 0); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%v; rebuild failed: %w", cause, err)
	}

	table := core.NewXRefTable()
	for _, m := range objHeaderPattern.FindAllSubmatchIndex(data, -1) {
		// Headers must start a token, not continue a number
		if m[0] > 0 && data[m[0]-1] >= '0' && data[m[0]-1] <= '9' {
			continue
		}
		num, err1 := strconv.Atoi(string(data[m[2]:m[3]]))
		gen, err2 := strconv.Atoi(string(data[m[4]:m[5]]))
		if err1 != nil || err2 != nil {
			continue
		}
		table.Set(num, &core.XRefEntry{
			Type:       core.EntryInUse,
			Offset:     int64(m[0]),
			Generation: gen,
			InUse:      true,
		})
	}
	if table.Size() == 0 {
		return nil, fmt.Errorf("%v; rebuild found no objects", cause)
	}

	if locs := trailerPattern.FindAllIndex(data, -1); len(locs) > 0 {
		last := locs[len(locs)-1]
		parser := core.NewParser(bytes.NewReader(data[last[1]-2:]))
		if obj, err := parser.ParseObject(); err == nil {
			if dict, ok := obj.(core.Dict); ok {
				table.Trailer = dict
			}
		}
	}
	if !table.Trailer.Has("Root") {
		r.xref = table
		if root, ok := r.findCatalog(table); ok {
			table.Trailer["Root"] = root
		}
	}

	return table, nil
}

// findCatalog looks for the document catalog among rebuilt entries.
func (r *Reader) findCatalog(table *core.XRefTable) (core.IndirectRef, bool) {
	for _, num := range table.InUseNumbers() {
		obj, err := r.ReadObject(num)
		if err != nil {
			continue
		}
		if dict, ok := obj.(core.Dict); ok && dict.TypeName() == "Catalog" {
			entry, _ := table.Get(num)
			return core.IndirectRef{Number: num, Generation: entry.Generation}, true
		}
	}
	return core.IndirectRef{}, false
}

func (r *Reader) Version() PDFVersion {
	return r.version
}

// Trailer returns the merged trailer, the newest revision's entries.
func (r *Reader) Trailer() core.Dict {
	return r.trailer
}

// XRefTable returns the merged cross-reference table.
func (r *Reader) XRefTable() *core.XRefTable {
	return r.xref
}

// Repaired reports whether the xref table had to be rebuilt by scanning.
func (r *Reader) Repaired() bool {
	return r.repaired
}

func (r *Reader) FileSize() int64 {
	return r.size
}

// ObjectNumbers returns the numbers of all in-use objects in ascending
// order, compressed objects included.
func (r *Reader) ObjectNumbers() []int {
	return r.xref.InUseNumbers()
}

// ReadObject parses the indirect object with the given number.
func (r *Reader) ReadObject(objNum int) (core.Object, error) {
	return r.readObject(objNum, make(map[int]bool))
}

// ResolveReference reads the object ref points at. The generation is
// not checked.
func (r *Reader) ResolveReference(ref core.IndirectRef) (core.Object, error) {
	return r.ReadObject(ref.Number)
}

func (r *Reader) readObject(objNum int, visiting map[int]bool) (core.Object, error) {
	if visiting[objNum] {
		return nil, fmt.Errorf("object %d refers to itself while being read", objNum)
	}
	visiting[objNum] = true
	defer delete(visiting, objNum)

	entry, ok := r.xref.Get(objNum)
	if !ok || !entry.InUse {
		return nil, fmt.Errorf("object %d: %w", objNum, core.ErrNotFound)
	}

	if entry.Type == core.EntryCompressed {
		return r.readCompressed(objNum, entry, visiting)
	}

	if entry.Offset < 0 || entry.Offset >= r.size {
		return nil, fmt.Errorf("object %d: offset %d outside file of %d bytes", objNum, entry.Offset, r.size)
	}

	parser := core.NewParser(io.NewSectionReader(r.src, entry.Offset, r.size-entry.Offset))
	parser.SetReferenceResolver(&lengthResolver{r: r, visiting: visiting})

	indObj, err := parser.ParseIndirectObject()
	if err != nil {
		return nil, fmt.Errorf("failed to parse object %d: %w", objNum, err)
	}

	if indObj.Ref.Number != objNum {
		return nil, fmt.Errorf("object number mismatch: expected %d, got %d", objNum, indObj.Ref.Number)
	}

	return indObj.Object, nil
}

// readCompressed extracts an object stored inside an object stream.
func (r *Reader) readCompressed(objNum int, entry *core.XRefEntry, visiting map[int]bool) (core.Object, error) {
	objStm, err := r.objectStream(entry.StreamNumber, visiting)
	if err != nil {
		return nil, fmt.Errorf("object %d: %w", objNum, err)
	}

	obj, num, err := objStm.GetObjectByIndex(entry.StreamIndex)
	if err != nil {
		return nil, fmt.Errorf("object %d in object stream %d: %w", objNum, entry.StreamNumber, err)
	}
	if num != objNum {
		return nil, fmt.Errorf("object number mismatch in object stream %d: expected %d, got %d", entry.StreamNumber, objNum, num)
	}

	return obj, nil
}

// objectStream returns the parsed object stream with the given number,
// loading it on first use.
func (r *Reader) objectStream(streamNum int, visiting map[int]bool) (*core.ObjectStream, error) {
	r.mu.Lock()
	objStm, ok := r.objStreams[streamNum]
	r.mu.Unlock()
	if ok {
		return objStm, nil
	}

	entry, ok := r.xref.Get(streamNum)
	if !ok || entry.Type != core.EntryInUse {
		return nil, fmt.Errorf("object stream %d: %w", streamNum, core.ErrNotFound)
	}

	obj, err := r.readObject(streamNum, visiting)
	if err != nil {
		return nil, err
	}
	stream, ok := obj.(*core.Stream)
	if !ok {
		return nil, fmt.Errorf("object stream %d is a %s", streamNum, obj.Type())
	}

	objStm, err = core.NewObjectStream(stream)
	if err != nil {
		return nil, fmt.Errorf("object stream %d: %w", streamNum, err)
	}

	r.mu.Lock()
	r.objStreams[streamNum] = objStm
	r.mu.Unlock()

	return objStm, nil
}

// GetCatalog reads the dictionary named by the trailer's /Root.
func (r *Reader) GetCatalog() (core.Dict, error) {
	ref, ok := r.trailer.GetIndirectRef("Root")
	if !ok {
		return nil, fmt.Errorf("trailer missing /Root reference")
	}

	obj, err := r.ResolveReference(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve catalog: %w", err)
	}

	catalog, ok := obj.(core.Dict)
	if !ok {
		return nil, fmt.Errorf("catalog is not a dictionary: %T", obj)
	}

	return catalog, nil
}

// lengthResolver resolves indirect /Length entries while a stream is being
// parsed, sharing the cycle guard of the enclosing read.
type lengthResolver struct {
	r        *Reader
	visiting map[int]bool
}

func (l *lengthResolver) ResolveReference(ref core.IndirectRef) (core.Object, error) {
	return l.r.readObject(ref.Number, l.visiting)
}

func firstLine(b []byte) string {
	if i := bytes.IndexAny(b, "\r\n"); i >= 0 {
		b = b[:i]
	}
	if len(b) > 32 {
		b = b[:32]
	}
	return string(b)
}
