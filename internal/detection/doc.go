// Package detection defines the object detection capability used by the
// plate pipeline.
//
// A Detector turns an image into a list of labelled, scored boxes. The plate
// localizer asks it for licence plates in a full frame; the character
// assembler asks it for glyphs in a plate crop. The pipeline never depends on
// a particular model runtime: the YOLO (ONNX Runtime) and Tesseract backends
// live in subpackages so that cgo dependencies stay out of the core, and
// Scripted replays recorded detections for tests and offline debugging.
//
// # Coordinate System
//
// A Detection's geometry is the box centre plus its width and height, in
// pixels of the image passed to Detect, with (0,0) at the top-left corner.
// Rect converts it to corner form.
//
// # Confidence Scores
//
// Confidence is in [0,1]. Backends that report percentages (Tesseract)
// rescale before returning.
//
// # Concurrency
//
// Detect may be called from several goroutines at once; each backend
// documents how it achieves that. The ONNX backend serializes inference on a
// mutex, the Tesseract backend creates one client per call and Scripted
// guards its cursor with a mutex.
package detection
