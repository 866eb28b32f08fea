package camera

import "time"

// HeadPose is the detector's head orientation estimate in degrees.
type HeadPose struct {
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
	Roll  float64 `json:"roll"`
}

// Signal is the latest derived output of the external camera detector.
// Present is nil when presence is indeterminate (e.g. low light).
type Signal struct {
	Enabled         bool      `json:"enabled"`
	Present         *bool     `json:"present"`
	AttentionScore  float64   `json:"attention_score"`
	GoodPosture     bool      `json:"good_posture"`
	PhoneDetected   bool      `json:"phone_detected"`
	LookingAtScreen bool      `json:"looking_at_screen"`
	HeadPose        *HeadPose `json:"head_pose,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// Calibration is the head pose recorded as the user's focused baseline.
type Calibration struct {
	Baseline     HeadPose  `json:"baseline"`
	IsCalibrated bool      `json:"is_calibrated"`
	CalibratedAt time.Time `json:"calibrated_at"`
}
