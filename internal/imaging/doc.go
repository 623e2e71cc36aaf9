// Package imaging loads tray photographs into working rasters and encodes
// rendered rasters for export.
//
// Every decoded image is normalized to an *image.RGBA whose bounds start at
// (0,0), so raster coordinates and pixel offsets agree everywhere else in the
// module.
//
// # Sources
//
// A Source supplies the encoded bytes of one image:
//   - FileSource: a file on disk.
//   - ArchiveSource: one entry of a zip archive. ListArchive enumerates the
//     image entries for gallery navigation.
//   - URLSource: an HTTP(S) download with a content-type check.
//
// Supported formats are PNG, JPEG, GIF, WebP, TIFF and BMP.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. Decoded rasters are shared between
// callers and must be treated as read-only.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with the origin at the top-left corner,
// X increasing rightward and Y increasing downward.
package imaging
