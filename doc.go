// Package imaging reads and writes image metadata (ICC profile, resolution
// and XMP packet) for JPEG, TIFF and PNG containers.
//
// An Image couples a decoded raster with its logical metadata. Read extracts
// the metadata from the container specific structures (JPEG APP markers,
// TIFF directory fields, PNG chunks), Write injects it again into a freshly
// encoded stream. The raster can be scaled and placed on a canvas between
// the two steps.
package imaging
