// Package pdftest builds small PDF files for tests, computing every byte
// offset so fixtures stay valid when they are edited.
package pdftest

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// Builder accumulates indirect objects and writes them as a PDF file.
type Builder struct {
	Version string

	order      []int
	bodies     map[int][]byte
	compressed map[int][2]int // member number -> object stream number, index
}

// New creates a Builder for a PDF 1.4 file.
func New() *Builder {
	return &Builder{
		Version:    "1.4",
		bodies:     make(map[int][]byte),
		compressed: make(map[int][2]int),
	}
}

// Add adds object num with the given body, written between "num 0 obj" and
// "endobj".
func (b *Builder) Add(num int, body string) *Builder {
	return b.add(num, []byte(body))
}

// Stream adds a stream object. dict holds the dictionary entries without
// the << >> delimiters; /Length is appended.
func (b *Builder) Stream(num int, dict string, data []byte) *Builder {
	var body bytes.Buffer
	fmt.Fprintf(&body, "<< %s /Length %d >>\nstream\n", dict, len(data))
	body.Write(data)
	body.WriteString("\nendstream")
	return b.add(num, body.Bytes())
}

// ObjStm adds an object stream holding members in order. Members can only
// be located through a cross-reference stream (see XRefStreamBytes).
func (b *Builder) ObjStm(num int, members map[int]string) *Builder {
	nums := make([]int, 0, len(members))
	for n := range members {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	var header, data strings.Builder
	for i, n := range nums {
		fmt.Fprintf(&header, "%d %d ", n, data.Len())
		data.WriteString(members[n])
		data.WriteString("\n")
		b.compressed[n] = [2]int{num, i}
	}

	dict := fmt.Sprintf("/Type /ObjStm /N %d /First %d", len(nums), header.Len())
	return b.Stream(num, dict, []byte(header.String()+data.String()))
}

func (b *Builder) add(num int, body []byte) *Builder {
	if _, ok := b.bodies[num]; !ok {
		b.order = append(b.order, num)
	}
	b.bodies[num] = body
	return b
}

// writeObjects writes the header and every object, returning their offsets.
func (b *Builder) writeObjects(buf *bytes.Buffer) map[int]int {
	fmt.Fprintf(buf, "%%PDF-%s\n", b.Version)
	offsets := make(map[int]int, len(b.order))
	for _, num := range b.order {
		offsets[num] = buf.Len()
		fmt.Fprintf(buf, "%d 0 obj\n", num)
		buf.Write(b.bodies[num])
		buf.WriteString("\nendobj\n")
	}
	return offsets
}

func (b *Builder) size() int {
	size := 1
	for _, num := range b.order {
		if num+1 > size {
			size = num + 1
		}
	}
	for num := range b.compressed {
		if num+1 > size {
			size = num + 1
		}
	}
	return size
}

// Bytes writes the file with a classic cross-reference table. trailer holds
// extra trailer entries such as "/Root 1 0 R"; /Size is added.
func (b *Builder) Bytes(trailer string) []byte {
	var buf bytes.Buffer
	offsets := b.writeObjects(&buf)

	size := b.size()
	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", size)
	buf.WriteString("0000000000 65535 f \n")
	for num := 1; num < size; num++ {
		if off, ok := offsets[num]; ok {
			fmt.Fprintf(&buf, "%010d 00000 n \n", off)
		} else {
			buf.WriteString("0000000000 00000 f \n")
		}
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d %s >>\nstartxref\n%d\n%%%%EOF\n", size, trailer, xrefOffset)

	return buf.Bytes()
}

// XRefStreamBytes writes the file with a cross-reference stream stored as
// object xrefNum, which must not be used by any other object. Compressed
// objects added with ObjStm are listed as type 2 entries.
func (b *Builder) XRefStreamBytes(xrefNum int, trailer string) []byte {
	var buf bytes.Buffer
	offsets := b.writeObjects(&buf)

	size := b.size()
	if xrefNum+1 > size {
		size = xrefNum + 1
	}
	xrefOffset := buf.Len()
	offsets[xrefNum] = xrefOffset

	var rows bytes.Buffer
	for num := 0; num < size; num++ {
		switch {
		case num == 0:
			rows.Write([]byte{0, 0, 0, 0, 0, 0xff, 0xff})
		case isMember(b.compressed, num):
			loc := b.compressed[num]
			rows.WriteByte(2)
			rows.Write(be(loc[0], 4))
			rows.Write(be(loc[1], 2))
		case offsets[num] > 0:
			rows.WriteByte(1)
			rows.Write(be(offsets[num], 4))
			rows.Write(be(0, 2))
		default:
			rows.Write([]byte{0, 0, 0, 0, 0, 0, 0})
		}
	}

	fmt.Fprintf(&buf, "%d 0 obj\n<< /Type /XRef /Size %d /W [1 4 2] %s /Length %d >>\nstream\n",
		xrefNum, size, trailer, rows.Len())
	buf.Write(rows.Bytes())
	fmt.Fprintf(&buf, "\nendstream\nendobj\nstartxref\n%d\n%%%%EOF\n", xrefOffset)

	return buf.Bytes()
}

func isMember(compressed map[int][2]int, num int) bool {
	_, ok := compressed[num]
	return ok
}

func be(v, width int) []byte {
	out := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		out[i] = byte(v)
		v >>= 8
	}
	return out
}

// Minimal returns a one-page document: catalog 1, page tree 2, page 3 and
// content stream 4.
func Minimal() *Builder {
	return New().
		Add(1, "<< /Type /Catalog /Pages 2 0 R >>").
		Add(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 /MediaBox [0 0 612 792] >>").
		Add(3, "<< /Type /Page /Parent 2 0 R /Contents 4 0 R /Resources << >> >>").
		Stream(4, "", []byte("BT /F1 12 Tf (Hello) Tj ET"))
}
