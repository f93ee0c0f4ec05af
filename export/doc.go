// Package export renders object trees for people.
//
// [Text] prints an indented outline and [HTML] writes nested lists that a
// browser can display. Both expand nodes down to a given depth and note page
// numbers, page counts, recursive references, and references to objects
// missing from the file:
//
//	/Kids: Array
//	  Indirect reference: 3 0 R (page 1)
//	    /Parent: 2 0 R (recursive, see depth 0)
package export
