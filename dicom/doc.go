// Package dicom provides functions and data structures for manipulating the DICOM file format.
// The package provides a high level and low level API for parsing and writing the DICOM format.
// The high level API consists of functions such as Parse, Construct, LoadFile and
// FileFormat.SaveFile which operate on a whole file. The low level API consists of the Stream
// interface and the resumable DataSet.Read and DataSet.Write, which consume and produce bytes
// as they become available and never block.
//
// A parsed file is a tree of nodes: DataSet (the top-level data set and every sequence item),
// DataElement (a leaf value), Sequence, and PixelSequence with its PixelItem fragments for
// encapsulated pixel data. Values are stored as raw bytes in the byte order they were read in
// and converted by typed accessors such as Strings, Uint16s or Float64s.
//
// Reads that hit the end of the available input return ErrNeedMoreData; feed the stream and
// call again:
//
//	s := dicom.NewBufferStream()
//	ds := dicom.NewDataSet()
//	for chunk := range chunks {
//		s.Fill(chunk)
//		if err := ds.Read(s, dicom.ExplicitVRLittleEndian); !errors.Is(err, dicom.ErrNeedMoreData) {
//			...
//		}
//	}
//
// Large values such as pixel data can be left in the file and loaded on demand with
// WithMaxReadLength or ReferenceBulkData.
package dicom
