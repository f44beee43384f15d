// Package engine implements the image-processing stages of the try-on and
// try-off pipelines: pose detection, background removal, garment warping,
// compositing, garment extraction, and preview rendering. Every stage is
// stateless per call; model sessions are injected once at construction.
package engine
