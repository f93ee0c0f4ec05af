package pages

import (
	"fmt"

	"github.com/tsawler/pdfinspect/core"
)

// maxInheritDepth bounds /Parent walks on damaged files.
const maxInheritDepth = 64

// Getter looks up stored indirect objects by number. *store.ObjectStore
// implements it.
type Getter interface {
	Get(num int) (core.Object, bool)
}

// Index numbers the pages of a document by walking its page tree once.
type Index struct {
	objects Getter
	pages   []int       // object numbers of Page leaves in document order
	number  map[int]int // Page object number -> 1-based page number
	leaves  map[int]int // Pages node object number -> leaf pages beneath it
	skipped int         // kids that were missing, cyclic, or of the wrong type
}

// Build walks the page tree reachable from trailer /Root /Pages. Kids that
// are missing from objects or that loop back into the tree are skipped and
// counted in Skipped; only a missing catalog or page tree root is an error.
func Build(objects Getter, trailer core.Dict) (*Index, error) {
	rootRef, ok := trailer.GetIndirectRef("Root")
	if !ok {
		return nil, fmt.Errorf("trailer missing /Root reference")
	}
	catalog, ok := lookupDict(objects, rootRef)
	if !ok {
		return nil, fmt.Errorf("catalog %s is missing or not a dictionary", rootRef)
	}

	pagesRef, ok := catalog.GetIndirectRef("Pages")
	if !ok {
		return nil, fmt.Errorf("catalog missing /Pages reference")
	}

	idx := &Index{
		objects: objects,
		number:  make(map[int]int),
		leaves:  make(map[int]int),
	}
	idx.walk(pagesRef, make(map[int]bool))

	return idx, nil
}

// walk visits a page tree node and returns the number of leaf pages below it.
func (idx *Index) walk(ref core.IndirectRef, visiting map[int]bool) int {
	if visiting[ref.Number] {
		idx.skipped++
		return 0
	}
	node, ok := lookupDict(idx.objects, ref)
	if !ok {
		idx.skipped++
		return 0
	}

	switch node.TypeName() {
	case "Page":
		if _, dup := idx.number[ref.Number]; dup {
			idx.skipped++
			return 0
		}
		idx.pages = append(idx.pages, ref.Number)
		idx.number[ref.Number] = len(idx.pages)
		return 1

	case "Pages":
		visiting[ref.Number] = true
		defer delete(visiting, ref.Number)

		kids, _ := node.GetArray("Kids")
		count := 0
		for _, kid := range kids {
			kidRef, ok := kid.(core.IndirectRef)
			if !ok {
				idx.skipped++
				continue
			}
			count += idx.walk(kidRef, visiting)
		}
		idx.leaves[ref.Number] = count
		return count

	default:
		idx.skipped++
		return 0
	}
}

// Count returns the number of pages found.
func (idx *Index) Count() int {
	return len(idx.pages)
}

// Skipped returns how many page tree kids could not be used.
func (idx *Index) Skipped() int {
	return idx.skipped
}

// PageNumber returns the 1-based page number of the Page object objNum.
func (idx *Index) PageNumber(objNum int) (int, bool) {
	n, ok := idx.number[objNum]
	return n, ok
}

// PageObject returns the object number of the page with the given 1-based
// page number.
func (idx *Index) PageObject(pageNumber int) (int, bool) {
	if pageNumber < 1 || pageNumber > len(idx.pages) {
		return 0, false
	}
	return idx.pages[pageNumber-1], true
}

// LeafCount returns the number of pages below the Pages node objNum.
func (idx *Index) LeafCount(objNum int) (int, bool) {
	n, ok := idx.leaves[objNum]
	return n, ok
}

// Inherited returns an inheritable page attribute (Resources, MediaBox,
// CropBox, Rotate) of the Page object objNum, following /Parent links when
// the page itself does not define it. References in the value are resolved
// one level.
func (idx *Index) Inherited(objNum int, key string) (core.Object, bool) {
	obj, ok := idx.objects.Get(objNum)
	if !ok {
		return nil, false
	}
	node, ok := obj.(core.Dict)
	if !ok {
		return nil, false
	}

	for depth := 0; depth < maxInheritDepth; depth++ {
		if value := node.Get(key); value != nil {
			return resolve(idx.objects, value)
		}
		parentRef, ok := node.GetIndirectRef("Parent")
		if !ok {
			return nil, false
		}
		node, ok = lookupDict(idx.objects, parentRef)
		if !ok {
			return nil, false
		}
	}
	return nil, false
}

// MediaBox returns the effective media box [x1 y1 x2 y2] of a page.
func (idx *Index) MediaBox(objNum int) ([]float64, error) {
	return idx.box(objNum, "MediaBox")
}

// CropBox returns the effective crop box of a page, defaulting to the
// media box.
func (idx *Index) CropBox(objNum int) ([]float64, error) {
	if box, err := idx.box(objNum, "CropBox"); err == nil {
		return box, nil
	}
	return idx.MediaBox(objNum)
}

// Rotate returns the effective page rotation, 0 when unset or invalid.
func (idx *Index) Rotate(objNum int) int {
	obj, ok := idx.Inherited(objNum, "Rotate")
	if !ok {
		return 0
	}
	if rotate, ok := obj.(core.Int); ok {
		return int(rotate)
	}
	return 0
}

func (idx *Index) box(objNum int, name string) ([]float64, error) {
	obj, ok := idx.Inherited(objNum, name)
	if !ok {
		return nil, fmt.Errorf("%s not found", name)
	}

	arr, ok := obj.(core.Array)
	if !ok {
		return nil, fmt.Errorf("invalid %s type: %T", name, obj)
	}
	if len(arr) != 4 {
		return nil, fmt.Errorf("invalid %s length: %d (expected 4)", name, len(arr))
	}

	box := make([]float64, 4)
	for i, elem := range arr {
		elem, _ = resolve(idx.objects, elem)
		switch v := elem.(type) {
		case core.Int:
			box[i] = float64(v)
		case core.Real:
			box[i] = float64(v)
		default:
			return nil, fmt.Errorf("invalid %s element type: %T", name, elem)
		}
	}

	return box, nil
}

func resolve(objects Getter, obj core.Object) (core.Object, bool) {
	if ref, ok := obj.(core.IndirectRef); ok {
		return objects.Get(ref.Number)
	}
	return obj, true
}

func lookupDict(objects Getter, ref core.IndirectRef) (core.Dict, bool) {
	obj, ok := objects.Get(ref.Number)
	if !ok {
		return nil, false
	}
	dict, ok := obj.(core.Dict)
	return dict, ok
}
