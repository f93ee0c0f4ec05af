package pages

import (
	"testing"

	"github.com/tsawler/pdfinspect/core"
)

// mockObjects is an in-memory Getter for testing
type mockObjects map[int]core.Object

func (m mockObjects) Get(num int) (core.Object, bool) {
	obj, ok := m[num]
	return obj, ok
}

func ref(n int) core.IndirectRef {
	return core.IndirectRef{Number: n}
}

var testTrailer = core.Dict{"Root": ref(1)}

// nestedDocument builds a catalog (1) with a root Pages node (2) holding
// page 3 and an intermediate Pages node (4) with pages 5 and 6.
func nestedDocument() mockObjects {
	return mockObjects{
		1: core.Dict{"Type": core.Name("Catalog"), "Pages": ref(2)},
		2: core.Dict{
			"Type":     core.Name("Pages"),
			"Kids":     core.Array{ref(3), ref(4)},
			"Count":    core.Int(3),
			"MediaBox": core.Array{core.Int(0), core.Int(0), core.Int(612), core.Int(792)},
			"Rotate":   core.Int(90),
		},
		3: core.Dict{"Type": core.Name("Page"), "Parent": ref(2)},
		4: core.Dict{
			"Type":      core.Name("Pages"),
			"Parent":    ref(2),
			"Kids":      core.Array{ref(5), ref(6)},
			"Count":     core.Int(2),
			"Resources": ref(7),
		},
		5: core.Dict{
			"Type":     core.Name("Page"),
			"Parent":   ref(4),
			"MediaBox": core.Array{core.Int(0), core.Int(0), core.Real(595.5), core.Int(842)},
		},
		6: core.Dict{"Type": core.Name("Page"), "Parent": ref(4), "Rotate": core.Int(0)},
		7: core.Dict{"Font": core.Dict{}},
	}
}

// TestBuildNested tests page numbering across nested Pages nodes
func TestBuildNested(t *testing.T) {
	idx, err := Build(nestedDocument(), testTrailer)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if idx.Count() != 3 {
		t.Errorf("expected 3 pages, got %d", idx.Count())
	}

	tests := []struct {
		obj  int
		page int
	}{
		{3, 1},
		{5, 2},
		{6, 3},
	}
	for _, tt := range tests {
		got, ok := idx.PageNumber(tt.obj)
		if !ok || got != tt.page {
			t.Errorf("PageNumber(%d) = %d, %v; want %d", tt.obj, got, ok, tt.page)
		}
		obj, ok := idx.PageObject(tt.page)
		if !ok || obj != tt.obj {
			t.Errorf("PageObject(%d) = %d, %v; want %d", tt.page, obj, ok, tt.obj)
		}
	}

	if _, ok := idx.PageNumber(4); ok {
		t.Error("Pages node should not have a page number")
	}
	if idx.Skipped() != 0 {
		t.Errorf("expected nothing skipped, got %d", idx.Skipped())
	}
}

// TestLeafCount tests leaf counting on Pages nodes
func TestLeafCount(t *testing.T) {
	idx, err := Build(nestedDocument(), testTrailer)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if n, ok := idx.LeafCount(2); !ok || n != 3 {
		t.Errorf("LeafCount(2) = %d, %v; want 3", n, ok)
	}
	if n, ok := idx.LeafCount(4); !ok || n != 2 {
		t.Errorf("LeafCount(4) = %d, %v; want 2", n, ok)
	}
	if _, ok := idx.LeafCount(3); ok {
		t.Error("Page should not have a leaf count")
	}
}

// TestPageObjectOutOfBounds tests page numbers outside the document
func TestPageObjectOutOfBounds(t *testing.T) {
	idx, err := Build(nestedDocument(), testTrailer)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	for _, n := range []int{-1, 0, 4} {
		if _, ok := idx.PageObject(n); ok {
			t.Errorf("PageObject(%d) should fail", n)
		}
	}
}

// TestInheritableMediaBox tests MediaBox inheritance from the root node
func TestInheritableMediaBox(t *testing.T) {
	idx, err := Build(nestedDocument(), testTrailer)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	box, err := idx.MediaBox(6)
	if err != nil {
		t.Fatalf("MediaBox failed: %v", err)
	}
	if box[2] != 612 || box[3] != 792 {
		t.Errorf("expected inherited 612x792, got %v", box)
	}

	box, err = idx.MediaBox(5)
	if err != nil {
		t.Fatalf("MediaBox failed: %v", err)
	}
	if box[2] != 595.5 || box[3] != 842 {
		t.Errorf("expected own 595.5x842, got %v", box)
	}
}

// TestCropBoxDefaultsToMediaBox tests CropBox fallback
func TestCropBoxDefaultsToMediaBox(t *testing.T) {
	idx, err := Build(nestedDocument(), testTrailer)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	box, err := idx.CropBox(3)
	if err != nil {
		t.Fatalf("CropBox failed: %v", err)
	}
	if box[2] != 612 {
		t.Errorf("expected CropBox to default to MediaBox, got %v", box)
	}
}

// TestInheritableResources tests indirect Resources on an intermediate node
func TestInheritableResources(t *testing.T) {
	idx, err := Build(nestedDocument(), testTrailer)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	obj, ok := idx.Inherited(5, "Resources")
	if !ok {
		t.Fatal("expected inherited resources")
	}
	res, ok := obj.(core.Dict)
	if !ok || !res.Has("Font") {
		t.Errorf("expected resolved resources dictionary, got %v", obj)
	}

	if _, ok := idx.Inherited(3, "Resources"); ok {
		t.Error("page 3 should have no resources")
	}
}

// TestRotate tests own and inherited rotation
func TestRotate(t *testing.T) {
	idx, err := Build(nestedDocument(), testTrailer)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if r := idx.Rotate(3); r != 90 {
		t.Errorf("expected inherited rotation 90, got %d", r)
	}
	if r := idx.Rotate(6); r != 0 {
		t.Errorf("expected own rotation 0, got %d", r)
	}
}

// TestMissingMediaBox tests error reporting without any MediaBox
func TestMissingMediaBox(t *testing.T) {
	objects := mockObjects{
		1: core.Dict{"Type": core.Name("Catalog"), "Pages": ref(2)},
		2: core.Dict{"Type": core.Name("Pages"), "Kids": core.Array{ref(3)}},
		3: core.Dict{"Type": core.Name("Page"), "Parent": ref(2)},
	}
	idx, err := Build(objects, testTrailer)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if _, err := idx.MediaBox(3); err == nil {
		t.Error("expected error for missing MediaBox")
	}
}

// TestDamagedTree tests that bad kids are skipped rather than fatal
func TestDamagedTree(t *testing.T) {
	objects := mockObjects{
		1: core.Dict{"Type": core.Name("Catalog"), "Pages": ref(2)},
		2: core.Dict{
			"Type": core.Name("Pages"),
			// 2 loops back, 9 is missing, 4 is a font, 3 is listed twice
			"Kids": core.Array{ref(3), ref(2), ref(9), ref(4), ref(3), core.Int(5)},
		},
		3: core.Dict{"Type": core.Name("Page"), "Parent": ref(2)},
		4: core.Dict{"Type": core.Name("Font")},
	}

	idx, err := Build(objects, testTrailer)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if idx.Count() != 1 {
		t.Errorf("expected 1 page, got %d", idx.Count())
	}
	if idx.Skipped() != 5 {
		t.Errorf("expected 5 skipped kids, got %d", idx.Skipped())
	}
}

// TestParentCycle tests that inheritance stops on a /Parent loop
func TestParentCycle(t *testing.T) {
	objects := mockObjects{
		1: core.Dict{"Type": core.Name("Catalog"), "Pages": ref(2)},
		2: core.Dict{"Type": core.Name("Pages"), "Kids": core.Array{ref(3)}, "Parent": ref(3)},
		3: core.Dict{"Type": core.Name("Page"), "Parent": ref(2)},
	}
	idx, err := Build(objects, testTrailer)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if _, ok := idx.Inherited(3, "MediaBox"); ok {
		t.Error("expected no MediaBox on a parent loop")
	}
}

// TestBuildErrors tests missing catalog and page tree root
func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name    string
		objects mockObjects
		trailer core.Dict
	}{
		{"no root", mockObjects{}, core.Dict{}},
		{"missing catalog", mockObjects{}, testTrailer},
		{"catalog without pages", mockObjects{1: core.Dict{"Type": core.Name("Catalog")}}, testTrailer},
		{"catalog not a dict", mockObjects{1: core.Int(3)}, testTrailer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Build(tt.objects, tt.trailer); err == nil {
				t.Error("expected error")
			}
		})
	}
}
