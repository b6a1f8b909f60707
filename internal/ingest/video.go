package ingest

import (
	"fmt"
	"time"
)

// VideoPolicy holds the advisory thresholds for video submissions. These are
// soft recommendations, deliberately distinct from the hard per-category
// ceiling in the constraint table — do not merge the two.
type VideoPolicy struct {
	RecommendedSizeBytes uint64
	MaxWidth             int
	MaxHeight            int
	MaxDuration          time.Duration
	MaxBitrateMbps       float64
}

// DefaultVideoPolicy mirrors the thresholds the training UI has always shown:
// 100 MB recommended size, 1080p, 30 minutes, ~10 Mbps.
func DefaultVideoPolicy() VideoPolicy {
	return VideoPolicy{
		RecommendedSizeBytes: 100 * mb,
		MaxWidth:             1920,
		MaxHeight:            1080,
		MaxDuration:          30 * time.Minute,
		MaxBitrateMbps:       10,
	}
}

// VideoFields is the structural metadata derived for a video submission.
type VideoFields struct {
	DurationSeconds      float64 `json:"durationSeconds"`
	Width                int     `json:"width"`
	Height               int     `json:"height"`
	AspectRatio          float64 `json:"aspectRatio"`
	EstimatedBitrateMbps float64 `json:"estimatedBitrateMbps"`
}

// VideoInspector derives video fields and compression advisories from a
// submission's declared hints. Advisories never block validation.
type VideoInspector struct {
	policy VideoPolicy
}

func NewVideoInspector(policy VideoPolicy) *VideoInspector {
	return &VideoInspector{policy: policy}
}

// Inspect returns the derived fields plus advisory warnings. A submission
// without hints yields nil fields and no warnings beyond the size advisory —
// probing the container server-side is out of scope.
func (v *VideoInspector) Inspect(sub *FileSubmission) (*VideoFields, []string) {
	var warnings []string

	if sub.SizeBytes > v.policy.RecommendedSizeBytes {
		warnings = append(warnings, fmt.Sprintf(
			"Large video file detected (%s). Consider compressing to under %s for faster uploads.",
			FormatSize(sub.SizeBytes), FormatSize(v.policy.RecommendedSizeBytes)))
	}

	hints := sub.Video
	if hints == nil {
		return nil, warnings
	}

	fields := &VideoFields{
		DurationSeconds: hints.DurationSeconds,
		Width:           hints.Width,
		Height:          hints.Height,
	}
	if hints.Height > 0 {
		fields.AspectRatio = float64(hints.Width) / float64(hints.Height)
	}
	if hints.DurationSeconds > 0 {
		fields.EstimatedBitrateMbps = float64(sub.SizeBytes) * 8 / hints.DurationSeconds / 1_000_000
	}

	if fields.Width > v.policy.MaxWidth || fields.Height > v.policy.MaxHeight {
		warnings = append(warnings, fmt.Sprintf(
			"High resolution video detected (%d×%d). Consider compressing to %d×%d or lower.",
			fields.Width, fields.Height, v.policy.MaxWidth, v.policy.MaxHeight))
	}
	if maxSeconds := v.policy.MaxDuration.Seconds(); fields.DurationSeconds > maxSeconds {
		warnings = append(warnings, fmt.Sprintf(
			"Video is quite long (%s). Consider splitting into segments shorter than %s.",
			FormatDuration(fields.DurationSeconds), FormatDuration(maxSeconds)))
	}
	if fields.EstimatedBitrateMbps > v.policy.MaxBitrateMbps {
		warnings = append(warnings, fmt.Sprintf(
			"High bitrate detected (~%.1f Mbps). Consider reducing the video bitrate to %.0f Mbps or lower.",
			fields.EstimatedBitrateMbps, v.policy.MaxBitrateMbps))
	}

	return fields, warnings
}
