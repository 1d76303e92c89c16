// Package xmp reads and writes Extensible Metadata Platform packets.
//
// A Document holds properties keyed by namespace URI and property name.
// Values follow the XMP data model: simple text, URIs, structs and the
// three array kinds. Serialization produces a complete packet wrapped in
// xpacket processing instructions, in either pretty or compact form.
package xmp
