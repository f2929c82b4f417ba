package detector

import "gocv.io/x/gocv"

// Detector defines the interface for holistic landmark detection.
type Detector interface {
	// Detect analyzes a BGR video frame and returns the landmarks found in it.
	// A frame where nothing is found yields an empty set and a nil error;
	// an error means the model itself could not be reached.
	Detect(frame *gocv.Mat) (*LandmarkSet, error)

	// Reset drops tracking state so the next frame starts a new video.
	Reset() error

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for holistic detection.
type Config struct {
	// MinDetectionConf is the minimum detection confidence threshold (0.0-1.0).
	MinDetectionConf float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// ModelComplexity selects the pose model variant (0, 1 or 2).
	ModelComplexity int

	// PythonPath overrides the interpreter lookup when set.
	PythonPath string

	// ScriptPath overrides the holistic_service.py lookup when set.
	ScriptPath string
}

// DefaultConfig returns the thresholds the dataset was built with.
func DefaultConfig() Config {
	return Config{
		MinDetectionConf: 0.5,
		MinTrackingConf:  0.8,
		ModelComplexity:  1,
	}
}
