// Package imaging provides the image plumbing shared by the plate pipeline.
//
// It decodes uploads and files (PNG, JPEG, GIF, BMP, WebP), caches decoded
// images by path, crops padded regions with clamping, converts between RGB and
// Lab/HSV float planes, draws labelled boxes and encodes results as base64 PNG.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with (0,0) at the top-left corner. Rectangles
// follow image.Rectangle semantics: Min is inclusive and Max is exclusive.
//
// # Immutability
//
// No function in this package mutates its input image. Every transform
// returns a freshly allocated *image.NRGBA anchored at (0,0), so decoded images
// can be shared between goroutines and held in ImageCache safely.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. The remaining functions are stateless.
package imaging
