package vision

import "image"

// LandmarkCount is the fixed size of a pose landmark set.
const LandmarkCount = 33

// Landmark indices used by the stage engine. The full topology follows the
// standard 33-point pose layout: 0-10 face, 11-22 arms and hands, 23-32 legs
// and feet.
const (
	LandmarkLeftShoulder  = 11
	LandmarkRightShoulder = 12
	LandmarkLeftHip       = 23
	LandmarkRightHip      = 24
	LandmarkLeftKnee      = 25
	LandmarkRightKnee     = 26
	LandmarkLeftAnkle     = 27
	LandmarkRightAnkle    = 28
)

// Landmark is a single pose keypoint. X, Y, and Z are normalized to the image
// frame (roughly [0,1]); Visibility is the per-point confidence in [0,1].
type Landmark struct {
	X          float64
	Y          float64
	Z          float64
	Visibility float64
}

// PoseResult is the outcome of one pose detection call. Ephemeral, owned by
// the caller.
type PoseResult struct {
	Success    bool
	Landmarks  []Landmark
	Confidence float64
	// Mask holds a per-pixel foreground confidence score in 0-255.
	Mask    *image.Gray
	Message string
}

// MeanVisibility computes the arithmetic mean of landmark visibilities.
func MeanVisibility(landmarks []Landmark) float64 {
	if len(landmarks) == 0 {
		return 0
	}
	var sum float64
	for _, lm := range landmarks {
		sum += lm.Visibility
	}
	return sum / float64(len(landmarks))
}
