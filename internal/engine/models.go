package engine

// Capability describes one model capability exposed by the engine.
type Capability struct {
	Model             string   `json:"model,omitempty"`
	Device            string   `json:"device,omitempty"`
	Capabilities      []string `json:"capabilities,omitempty"`
	SupportedGarments []string `json:"supported_garments,omitempty"`
	Status            string   `json:"status,omitempty"`
}

// ModelInfo enumerates the processing capabilities advertised to clients.
type ModelInfo struct {
	PoseDetection     Capability `json:"pose_detection"`
	BackgroundRemoval Capability `json:"background_removal"`
	TryOn             Capability `json:"try_on"`
	TryOff            Capability `json:"try_off"`
}

// ModelInfo reports the engine's capability descriptor. The contents are
// static for a given build.
func (e *Engine) ModelInfo() ModelInfo {
	return ModelInfo{
		PoseDetection: Capability{
			Model:        "foreground-template",
			Device:       "cpu",
			Capabilities: []string{"33_body_landmarks", "segmentation_mask"},
		},
		BackgroundRemoval: Capability{
			Model:        "threshold-matting",
			Device:       "cpu",
			Capabilities: []string{"alpha_extraction", "grayscale_fallback"},
		},
		TryOn: Capability{
			Status:            "available",
			SupportedGarments: []string{"upper", "lower", "full"},
			Capabilities:      []string{"pose_alignment", "background_preserve", "alpha_blend"},
		},
		TryOff: Capability{
			Status:            "available",
			SupportedGarments: []string{"upper", "lower", "full"},
			Capabilities:      []string{"landmark_bbox_extraction", "mask_export"},
		},
	}
}
