// Package media provides the pixel-level primitives the stage engine builds
// on: decoding and encoding, resampling, cropping, compositing, binary masks,
// and text overlays. All operations are pure functions over stdlib image
// types; scaling and font rendering come from golang.org/x/image.
package media
