// Package pages numbers the pages of a loaded document.
//
// PDF documents organize pages in a tree of /Pages nodes with /Page leaves.
// [Build] walks that tree once over already-stored objects and records:
//
//   - the 1-based page number of every Page object
//   - the number of leaf pages below every Pages node
//
// The walk tolerates damaged trees. Kids that are missing, that are not page
// tree nodes, or that loop back to an ancestor are skipped and counted.
//
//	idx, err := pages.Build(objects, objects.Trailer())
//	n, ok := idx.PageNumber(12) // page number of object 12
//
// # Inherited Attributes
//
// Resources, MediaBox, CropBox and Rotate may be set on an ancestor Pages
// node instead of the page. [Index.Inherited] follows /Parent links to find
// the effective value, and [Index.MediaBox], [Index.CropBox] and
// [Index.Rotate] decode the common ones.
package pages
