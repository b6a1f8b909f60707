package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func videoSubmission(t *testing.T, size uint64, hints *VideoHints) *FileSubmission {
	t.Helper()
	sub, err := NewBytesSubmission("clip.mp4", "video/mp4", []byte("x"))
	require.NoError(t, err)
	sub.SizeBytes = size
	sub.Video = hints
	return sub
}

func TestInspectWithoutHints(t *testing.T) {
	v := NewVideoInspector(DefaultVideoPolicy())

	fields, warnings := v.Inspect(videoSubmission(t, 10*mb, nil))
	assert.Nil(t, fields)
	assert.Empty(t, warnings)

	// The size advisory does not need hints.
	fields, warnings = v.Inspect(videoSubmission(t, 150*mb, nil))
	assert.Nil(t, fields)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "150.00 MB")
	assert.Contains(t, warnings[0], "100.00 MB")
}

func TestInspectDerivedFields(t *testing.T) {
	v := NewVideoInspector(DefaultVideoPolicy())
	sub := videoSubmission(t, 50*mb, &VideoHints{DurationSeconds: 60, Width: 1280, Height: 720})

	fields, warnings := v.Inspect(sub)
	require.NotNil(t, fields)
	assert.Empty(t, warnings)
	assert.InDelta(t, 16.0/9.0, fields.AspectRatio, 0.01)
	// 50 MiB over 60 s is ~7 Mbps, comfortably under the ceiling.
	assert.InDelta(t, float64(50*mb)*8/60/1_000_000, fields.EstimatedBitrateMbps, 0.001)
}

func TestInspectAdvisories(t *testing.T) {
	policy := DefaultVideoPolicy()
	v := NewVideoInspector(policy)

	sub := videoSubmission(t, 900*mb, &VideoHints{DurationSeconds: 3600, Width: 3840, Height: 2160})
	fields, warnings := v.Inspect(sub)
	require.NotNil(t, fields)

	joined := ""
	for _, w := range warnings {
		joined += w + "\n"
	}
	assert.Contains(t, joined, "Large video file")
	assert.Contains(t, joined, "High resolution")
	assert.Contains(t, joined, "quite long")
	// 900 MiB over an hour is ~2 Mbps, under the bitrate ceiling.
	assert.NotContains(t, joined, "High bitrate")
	assert.Len(t, warnings, 3)
}

func TestInspectBitrateAdvisory(t *testing.T) {
	v := NewVideoInspector(DefaultVideoPolicy())
	// 90 MiB in 30 seconds ≈ 25 Mbps.
	sub := videoSubmission(t, 90*mb, &VideoHints{DurationSeconds: 30, Width: 1920, Height: 1080})

	_, warnings := v.Inspect(sub)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "High bitrate")
}
