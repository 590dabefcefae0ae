// Package enhance prepares photographs and plate crops for detection.
//
// Native implements the Enhancer in pure Go: non-local means colour
// denoising, cubic upscaling, CLAHE on the Lab luminance channel and a final
// sharpening step. Two parameter sets are provided, DefaultParams for full
// frames and AggressiveParams for small crops. Building with the opencv tag
// adds an equivalent gocv implementation.
//
// Variants derives the four views of a crop that are voted over downstream:
// standard, high-contrast, brightened and darkened.
package enhance
