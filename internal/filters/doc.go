// Package filters undoes the standard PDF stream encodings.
//
// Each decoder takes the encoded bytes and, where the encoding has options,
// the stream's decode parameters as [Params]:
//
//	out, err := filters.FlateDecode(data, filters.Params{"Predictor": 12, "Columns": 5})
//
// FlateDecode and LZWDecode apply the TIFF (2) and PNG (10-15) predictors
// after decompression. LZWDecode honors EarlyChange. CCITTFaxDecode handles
// Group 3 and Group 4 through golang.org/x/image/ccitt, reading K, Columns,
// Rows, EncodedByteAlign and BlackIs1. RunLengthDecode, ASCIIHexDecode and
// ASCII85Decode take no parameters.
package filters
