// Package yolo runs YOLOv8 ONNX exports through ONNX Runtime.
//
// The detector expects a single image input of shape [1,3,S,S] (RGB, values
// scaled to [0,1]) and a single output of shape [1,4+C,N]: for each of the N
// anchors, the box centre, width and height in input pixels followed by C
// class scores. Images are letterboxed to S x S with grey (114) padding and
// boxes are mapped back to the caller's image before class-aware NMS.
//
// The ONNX Runtime shared library is loaded once per process. Each Detector
// owns its session and serializes inference on a mutex.
package yolo
