// Package reader locates and parses the indirect objects of a PDF file.
//
// # Opening PDF Files
//
// Use [Open] to read a file from disk:
//
//	r, err := reader.Open("document.pdf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
// Or use [NewReader] with any io.ReaderAt, such as a *bytes.Reader.
//
// # Cross-Reference Data
//
// The newest cross-reference section is found through startxref and every
// older revision is merged in through /Prev. Classic tables, xref streams
// and hybrid files are supported. When the cross-reference data cannot be
// used the reader rebuilds it by scanning the file for "n g obj" headers;
// [Reader.Repaired] reports when that happened.
//
// # Reading Objects
//
//   - ObjectNumbers() - every in-use object number, ascending
//   - ReadObject(n) - parse object n, from the file body or an object stream
//   - ResolveReference(ref) - ReadObject for an IndirectRef
//   - GetCatalog() - the /Root dictionary
//   - Trailer() - the merged trailer dictionary
//
// Objects are parsed on each call and not cached; the store package keeps
// them. Parsed object streams are cached, and a Reader is safe for
// concurrent use.
package reader
