// Package vision holds the long-lived model sessions behind pose detection
// and background segmentation.
//
// Sessions are expensive to construct and are created once at process start,
// then injected into the stage engine for the life of the daemon. They are
// shared across concurrently running jobs; access is serialized inside each
// session. The built-in sessions are deterministic heuristics sufficient for
// the placeholder warp/blend pipeline; a real inference runtime can replace
// them behind the same interfaces.
package vision
