package ingest

import (
	"context"
	"strings"
	"time"
)

// ScanReport is the verdict of one threat scan. A scan always completes and
// always yields a report — scanners degrade to a dirty report on internal
// failure (fail closed), they never fail open.
type ScanReport struct {
	IsClean           bool      `json:"isClean"`
	ScannerName       string    `json:"scanner"`
	ScannerVersion    string    `json:"version"`
	ScannedAt         time.Time `json:"scannedAt"`
	ThreatDescription string    `json:"threat,omitempty"`
}

// ThreatScanner is the pluggable policy check run on every submission.
// Production deployments substitute a real engine behind this interface;
// the pipeline never knows the difference.
type ThreatScanner interface {
	Scan(ctx context.Context, sub *FileSubmission) ScanReport
}

const (
	referenceScannerName    = "FarmNex-AV-Simulator"
	referenceScannerVersion = "1.0.0"
)

// markerSubstrings exist purely to exercise the failure path in demos and
// tests. This is not malware detection.
var markerSubstrings = []string{"virus", "malware", "trojan", "infected"}

// ReferenceScanner flags filenames containing known marker substrings.
type ReferenceScanner struct{}

func (ReferenceScanner) Scan(_ context.Context, sub *FileSubmission) ScanReport {
	report := ScanReport{
		IsClean:        true,
		ScannerName:    referenceScannerName,
		ScannerVersion: referenceScannerVersion,
		ScannedAt:      time.Now().UTC(),
	}
	name := strings.ToLower(sub.OriginalName)
	for _, marker := range markerSubstrings {
		if strings.Contains(name, marker) {
			report.IsClean = false
			report.ThreatDescription = "Suspicious filename detected"
			break
		}
	}
	return report
}

// safeScan shields the pipeline from a panicking scanner implementation:
// the result degrades to a generic threat instead of failing open.
func safeScan(ctx context.Context, scanner ThreatScanner, sub *FileSubmission) (report ScanReport) {
	defer func() {
		if recovered := recover(); recovered != nil {
			report = ScanReport{
				IsClean:           false,
				ScannerName:       "unknown",
				ScannedAt:         time.Now().UTC(),
				ThreatDescription: "scanner failure, file treated as unsafe",
			}
		}
	}()
	return scanner.Scan(ctx, sub)
}
