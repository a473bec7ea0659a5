/*
Package codec converts encapsulated (compressed) pixel data between transfer syntaxes.

Compression algorithms are not part of this package. They are plugged in as Codec
implementations, each registered for one encapsulated transfer syntax in a Registry:

	reg := codec.NewRegistry()
	if err := reg.Register(codec.RegistryEntry{Syntax: dicom.RLELossless, Codec: myRLECodec{}}); err != nil {
		...
	}
	if err := codec.ChangeTransferSyntax(reg, ds, dicom.RLELossless, dicom.ExplicitVRLittleEndian, nil); err != nil {
		...
	}

Registries do not lock. Register, Deregister, UpdateParameter and Cleanup must not run
concurrently with any other call on the same registry. Default is a process-wide registry for
applications that prefer the package level functions Register, Lookup and Cleanup.
*/
package codec
