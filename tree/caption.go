package tree

import (
	"sort"

	"github.com/tsawler/pdfinspect/core"
)

// Variant is the display specialization of a node.
type Variant int

const (
	// Generic is every object that is not part of the page tree.
	Generic Variant = iota
	// Page is a dictionary with /Type /Page.
	Page
	// PageTree is a dictionary with /Type /Pages.
	PageTree
)

func (v Variant) String() string {
	switch v {
	case Page:
		return "Page"
	case PageTree:
		return "PageTree"
	default:
		return "Generic"
	}
}

// Kind is the object kind a viewer picks an icon for.
type Kind int

const (
	// KindNull is null or a missing value.
	KindNull Kind = iota
	// KindBoolean is true or false.
	KindBoolean
	// KindNumber is an integer or real.
	KindNumber
	// KindName is a /Name.
	KindName
	// KindString is a literal or hex string.
	KindString
	// KindArray is an array.
	KindArray
	// KindDictionary is a dictionary.
	KindDictionary
	// KindStream is a stream with its dictionary.
	KindStream
	// KindIndirectReference is an "n g R" reference.
	KindIndirectReference
)

func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "Boolean"
	case KindNumber:
		return "Number"
	case KindName:
		return "Name"
	case KindString:
		return "String"
	case KindArray:
		return "Array"
	case KindDictionary:
		return "Dictionary"
	case KindStream:
		return "Stream"
	case KindIndirectReference:
		return "IndirectReference"
	default:
		return "Null"
	}
}

// KindOf returns the kind of obj. A nil object is KindNull.
func KindOf(obj core.Object) Kind {
	switch obj.(type) {
	case core.Bool:
		return KindBoolean
	case core.Int, core.Real:
		return KindNumber
	case core.Name:
		return KindName
	case core.String:
		return KindString
	case core.Array:
		return KindArray
	case core.Dict:
		return KindDictionary
	case *core.Stream:
		return KindStream
	case core.IndirectRef:
		return KindIndirectReference
	default:
		return KindNull
	}
}

// Classify returns Page or PageTree for dictionaries whose /Type is /Page or
// /Pages, and Generic for everything else, streams included.
func Classify(obj core.Object) Variant {
	dict, ok := obj.(core.Dict)
	if !ok {
		return Generic
	}

	switch dict.TypeName() {
	case "Page":
		return Page
	case "Pages":
		return PageTree
	default:
		return Generic
	}
}

// Caption returns the label of a node wrapping obj.
func Caption(obj core.Object) string {
	switch v := obj.(type) {
	case nil:
		return "null"
	case core.IndirectRef:
		return "Indirect reference: " + v.String()
	case core.Array:
		return "Array"
	case *core.Stream:
		return "Stream"
	default:
		return inline(v)
	}
}

// DictEntryCaption returns the label of the node for dict[key], for example
// "/Type: /Page".
func DictEntryCaption(dict core.Dict, key string) string {
	return core.Name(key).String() + ": " + inline(dict[key])
}

func inline(obj core.Object) string {
	switch v := obj.(type) {
	case nil:
		return "null"
	case core.String:
		return v.Text()
	default:
		return v.String()
	}
}

var leadingKeys = map[Variant][]string{
	PageTree: {"Kids", "Count"},
	Page:     {"Contents", "Resources", "MediaBox"},
}

// orderedKeys lists the keys of dict with the keys that matter most for the
// variant first and the rest sorted.
func orderedKeys(dict core.Dict, variant Variant) []string {
	keys := make([]string, 0, len(dict))
	lead := leadingKeys[variant]
	for _, key := range lead {
		if dict.Has(key) {
			keys = append(keys, key)
		}
	}

	rest := make([]string, 0, len(dict))
	for key := range dict {
		if !contains(lead, key) {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)

	return append(keys, rest...)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
