// Package core reads PDF syntax: tokens, objects, cross-reference data and
// object streams.
//
// The object model is the Object interface, implemented by [Null], [Bool],
// [Int], [Real], [String], [Name], [Array], [Dict], [*Stream] and
// [IndirectRef]. A [Parser] builds objects from a [Lexer] and parses whole
// "n g obj ... endobj" definitions, reading stream bodies by their /Length.
//
// [XRefParser] locates the newest cross-reference section through startxref
// and walks /Prev back to the first revision, accepting classic tables, xref
// streams and hybrid files that point at a stream through /XRefStm. The
// revisions merge with [MergeXRefTables], newer entries winning. Entries of
// type 2 name an [ObjectStream] and a slot in it.
//
// [Stream.Decode] runs the /Filter chain through the filters package. Image
// codecs pass through unchanged and the Crypt filter fails with
// [ErrEncrypted].
//
// [String.Text] renders string bytes for display: UTF-16 with either byte
// order mark, UTF-8 with a mark, and PDFDocEncoding otherwise.
package core
