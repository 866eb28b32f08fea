package monitor

import "math"

// AnalyticsSummary is the rounded end-of-session camera report.
type AnalyticsSummary struct {
	AverageAttentionScore  float64 `json:"average_attention_score"`
	PostureQuality         float64 `json:"posture_quality"`
	TimeAwaySeconds        int     `json:"time_away_seconds"`
	TimePresentSeconds     int     `json:"time_present_seconds"`
	PresencePercentage     float64 `json:"presence_percentage"`
	TotalAttentionReadings int     `json:"total_attention_readings"`
	TotalPostureReadings   int     `json:"total_posture_readings"`
}

// CameraAnalytics accumulates camera samples for one session.
type CameraAnalytics struct {
	attention      []float64
	goodPosture    int
	badPosture     int
	presentSeconds int
	awaySeconds    int
}

// NewCameraAnalytics returns empty analytics.
func NewCameraAnalytics() *CameraAnalytics {
	return &CameraAnalytics{}
}

// RecordAttention adds one attention score sample.
func (a *CameraAnalytics) RecordAttention(score float64) {
	a.attention = append(a.attention, score)
}

// RecordPosture counts one good or bad posture reading.
func (a *CameraAnalytics) RecordPosture(good bool) {
	if good {
		a.goodPosture++
	} else {
		a.badPosture++
	}
}

// RecordPresence counts one second as present or away.
func (a *CameraAnalytics) RecordPresence(present bool) {
	if present {
		a.presentSeconds++
	} else {
		a.awaySeconds++
	}
}

// AverageAttention is the mean attention score, 0 when nothing was recorded.
func (a *CameraAnalytics) AverageAttention() float64 {
	if len(a.attention) == 0 {
		return 0
	}
	var sum float64
	for _, s := range a.attention {
		sum += s
	}
	return sum / float64(len(a.attention))
}

// PostureQuality is the percentage of good posture readings, 0 when empty.
func (a *CameraAnalytics) PostureQuality() float64 {
	total := a.goodPosture + a.badPosture
	if total == 0 {
		return 0
	}
	return float64(a.goodPosture) / float64(total) * 100
}

// PresencePercentage is the percentage of present ticks, 100 when empty.
func (a *CameraAnalytics) PresencePercentage() float64 {
	total := a.presentSeconds + a.awaySeconds
	if total == 0 {
		return 100
	}
	return float64(a.presentSeconds) / float64(total) * 100
}

// Summary reports the session totals rounded to two decimals.
func (a *CameraAnalytics) Summary() AnalyticsSummary {
	return AnalyticsSummary{
		AverageAttentionScore:  Round2(a.AverageAttention()),
		PostureQuality:         Round2(a.PostureQuality()),
		TimeAwaySeconds:        a.awaySeconds,
		TimePresentSeconds:     a.presentSeconds,
		PresencePercentage:     Round2(a.PresencePercentage()),
		TotalAttentionReadings: len(a.attention),
		TotalPostureReadings:   a.goodPosture + a.badPosture,
	}
}

// Reset discards all samples.
func (a *CameraAnalytics) Reset() {
	a.attention = nil
	a.goodPosture, a.badPosture = 0, 0
	a.presentSeconds, a.awaySeconds = 0, 0
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
