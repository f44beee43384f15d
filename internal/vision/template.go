package vision

// templatePoint is a canonical landmark position in body-box coordinates,
// x and y in [0,1] relative to the detected foreground bounding box. Person
// left appears on the right of the frame, matching camera-facing images.
type templatePoint struct {
	x float64
	y float64
}

// bodyTemplate holds the 33 canonical landmark positions an upright person
// occupies within their bounding box.
var bodyTemplate = [LandmarkCount]templatePoint{
	{0.50, 0.06}, // nose
	{0.53, 0.05}, // left eye inner
	{0.54, 0.05}, // left eye
	{0.55, 0.05}, // left eye outer
	{0.47, 0.05}, // right eye inner
	{0.46, 0.05}, // right eye
	{0.45, 0.05}, // right eye outer
	{0.58, 0.06}, // left ear
	{0.42, 0.06}, // right ear
	{0.53, 0.09}, // mouth left
	{0.47, 0.09}, // mouth right
	{0.65, 0.18}, // left shoulder
	{0.35, 0.18}, // right shoulder
	{0.70, 0.32}, // left elbow
	{0.30, 0.32}, // right elbow
	{0.72, 0.45}, // left wrist
	{0.28, 0.45}, // right wrist
	{0.73, 0.49}, // left pinky
	{0.27, 0.49}, // right pinky
	{0.74, 0.49}, // left index
	{0.26, 0.49}, // right index
	{0.71, 0.48}, // left thumb
	{0.29, 0.48}, // right thumb
	{0.58, 0.50}, // left hip
	{0.42, 0.50}, // right hip
	{0.57, 0.70}, // left knee
	{0.43, 0.70}, // right knee
	{0.56, 0.90}, // left ankle
	{0.44, 0.90}, // right ankle
	{0.56, 0.93}, // left heel
	{0.44, 0.93}, // right heel
	{0.58, 0.97}, // left foot index
	{0.42, 0.97}, // right foot index
}
