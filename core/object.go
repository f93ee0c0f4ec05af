package core

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Object is any PDF object value. A nil Object stands for an absent entry
// and renders as null inside containers.
type Object interface {
	Type() ObjectType
	String() string
}

// ObjectType identifies the kind of an Object.
type ObjectType int

const (
	ObjNull ObjectType = iota
	ObjBool
	ObjInt
	ObjReal
	ObjString
	ObjName
	ObjArray
	ObjDict
	ObjStream
	ObjIndirect
)

var objectTypeNames = [...]string{
	ObjNull:     "Null",
	ObjBool:     "Bool",
	ObjInt:      "Int",
	ObjReal:     "Real",
	ObjString:   "String",
	ObjName:     "Name",
	ObjArray:    "Array",
	ObjDict:     "Dict",
	ObjStream:   "Stream",
	ObjIndirect: "IndirectRef",
}

func (t ObjectType) String() string {
	if t < 0 || int(t) >= len(objectTypeNames) {
		return "Unknown"
	}
	return objectTypeNames[t]
}

type (
	// Null is the PDF null object.
	Null struct{}
	// Bool is a PDF boolean.
	Bool bool
	// Int is a PDF integer.
	Int int64
	// Real is a PDF real number.
	Real float64
	// String holds the bytes of a literal or hex string after unescaping.
	// Text gives a readable form.
	String string
	// Name is a PDF name without its leading slash.
	Name string
	// Array is a PDF array.
	Array []Object
	// Dict is a PDF dictionary keyed by name without the slash.
	Dict map[string]Object
)

// Stream is a stream dictionary with its raw, still encoded data.
type Stream struct {
	Dict Dict
	Data []byte
}

// IndirectRef is an "n g R" reference.
type IndirectRef struct {
	Number     int
	Generation int
}

// IndirectObject is an object together with the reference it was
// defined under.
type IndirectObject struct {
	Ref    IndirectRef
	Object Object
}

func (Null) Type() ObjectType        { return ObjNull }
func (Bool) Type() ObjectType        { return ObjBool }
func (Int) Type() ObjectType         { return ObjInt }
func (Real) Type() ObjectType        { return ObjReal }
func (String) Type() ObjectType      { return ObjString }
func (Name) Type() ObjectType        { return ObjName }
func (Array) Type() ObjectType       { return ObjArray }
func (Dict) Type() ObjectType        { return ObjDict }
func (*Stream) Type() ObjectType     { return ObjStream }
func (IndirectRef) Type() ObjectType { return ObjIndirect }

func (Null) String() string     { return "null" }
func (b Bool) String() string   { return strconv.FormatBool(bool(b)) }
func (i Int) String() string    { return strconv.FormatInt(int64(i), 10) }
func (r Real) String() string   { return strconv.FormatFloat(float64(r), 'f', -1, 64) }
func (s String) String() string { return string(s) }
func (n Name) String() string   { return "/" + string(n) }

func (r IndirectRef) String() string {
	return strconv.Itoa(r.Number) + " " + strconv.Itoa(r.Generation) + " R"
}

func (s *Stream) String() string {
	return fmt.Sprintf("stream %s (%d bytes)", s.Dict, len(s.Data))
}

func (a Array) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, elem := range a {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(render(elem))
	}
	sb.WriteByte(']')
	return sb.String()
}

// String renders d in PDF syntax with its keys sorted, so equal
// dictionaries print identically.
func (d Dict) String() string {
	var sb strings.Builder
	sb.WriteString("<<")
	for i, key := range d.Keys() {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString("/" + key + " " + render(d[key]))
	}
	sb.WriteString(">>")
	return sb.String()
}

// render formats an element of a container: strings regain their
// parentheses and a missing value prints as null.
func render(obj Object) string {
	switch v := obj.(type) {
	case nil:
		return "null"
	case String:
		return "(" + v.Text() + ")"
	}
	return obj.String()
}

func (a Array) Len() int { return len(a) }

// Get returns element i, or nil when i is out of range.
func (a Array) Get(i int) Object {
	if i < 0 || i >= len(a) {
		return nil
	}
	return a[i]
}

func (a Array) GetInt(i int) (Int, bool)   { return as[Int](a.Get(i)) }
func (a Array) GetName(i int) (Name, bool) { return as[Name](a.Get(i)) }

func (d Dict) Get(key string) Object { return d[key] }

func (d Dict) Has(key string) bool {
	_, ok := d[key]
	return ok
}

func (d Dict) GetName(key string) (Name, bool)               { return as[Name](d[key]) }
func (d Dict) GetInt(key string) (Int, bool)                 { return as[Int](d[key]) }
func (d Dict) GetDict(key string) (Dict, bool)               { return as[Dict](d[key]) }
func (d Dict) GetArray(key string) (Array, bool)             { return as[Array](d[key]) }
func (d Dict) GetIndirectRef(key string) (IndirectRef, bool) { return as[IndirectRef](d[key]) }

// Keys returns the keys of d in sorted order.
func (d Dict) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TypeName returns the /Type entry, or "" when it is missing or not a name.
func (d Dict) TypeName() string {
	name, _ := d.GetName("Type")
	return string(name)
}

func as[T Object](obj Object) (T, bool) {
	v, ok := obj.(T)
	return v, ok
}
