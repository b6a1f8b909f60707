package ingest

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// Verdict is the complete outcome of validating one submission.
// IsValid implies Errors is empty and Digest and Metadata are set.
type Verdict struct {
	IsValid  bool              `json:"isValid"`
	Errors   []ValidationError `json:"errors,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
	Category Category          `json:"category,omitempty"`
	Digest   string            `json:"digest,omitempty"`
	Metadata *Metadata         `json:"metadata,omitempty"`
	Scan     *ScanReport       `json:"scan,omitempty"`
}

// FirstError returns the leading error, or nil for a clean verdict.
func (v Verdict) FirstError() *ValidationError {
	if len(v.Errors) == 0 {
		return nil
	}
	return &v.Errors[0]
}

// StoredNamer produces the stored object name for a submission. Injected so
// tests can pin it; the default follows the public path convention
// {unixMillis}-{randomSuffix}.{ext}.
type StoredNamer func(sub *FileSubmission) string

// Pipeline runs a submission through type, name and threat checks, then
// extraction and hashing. Checks short-circuit on the first violation; the
// failure lands in the verdict, never as a thrown error.
type Pipeline struct {
	table     *TypeConstraintTable
	names     *NameSafetyChecker
	scanner   ThreatScanner
	hasher    ContentHasher
	extractor *MetadataExtractor
	video     *VideoInspector
	namer     StoredNamer

	// Files over this size get a non-fatal advisory regardless of the
	// per-category ceiling and regardless of pass/fail.
	largeFileWarnBytes uint64
}

// NewPipeline wires the validation chain. A nil scanner falls back to the
// reference scanner; a nil video inspector falls back to the default policy;
// a nil namer falls back to the standard object naming convention.
func NewPipeline(table *TypeConstraintTable, scanner ThreatScanner, video *VideoInspector, namer StoredNamer) *Pipeline {
	if table == nil {
		table = NewTypeConstraintTable()
	}
	if scanner == nil {
		scanner = ReferenceScanner{}
	}
	if video == nil {
		video = NewVideoInspector(DefaultVideoPolicy())
	}
	if namer == nil {
		namer = DefaultStoredNamer
	}
	return &Pipeline{
		table:              table,
		names:              NewNameSafetyChecker(),
		scanner:            scanner,
		extractor:          NewMetadataExtractor(),
		video:              video,
		namer:              namer,
		largeFileWarnBytes: 100 * mb,
	}
}

// Validate produces the verdict for one submission. It does not mutate the
// submission and may be called from many goroutines at once.
func (p *Pipeline) Validate(ctx context.Context, sub *FileSubmission) Verdict {
	var verdict Verdict

	constraint, known := p.table.Lookup(sub.DeclaredMimeType)
	switch {
	case !known:
		verdict.Errors = append(verdict.Errors, newError(CodeInvalidType,
			"file type %q is not supported", sub.DeclaredMimeType))

	case !constraint.AllowsExtension(sub.Extension()):
		verdict.Category = constraint.Category
		verdict.Errors = append(verdict.Errors, newError(CodeExtensionMismatch,
			"file extension %q does not match MIME type %q", sub.Extension(), sub.DeclaredMimeType))

	case sub.SizeBytes > constraint.MaxSizeBytes:
		verdict.Category = constraint.Category
		verdict.Errors = append(verdict.Errors, newError(CodeSizeExceeded,
			"%s exceeds %s for %s files",
			FormatSize(sub.SizeBytes), FormatSize(constraint.MaxSizeBytes), constraint.Category))

	default:
		verdict.Category = constraint.Category
		if nameErr := p.names.Check(sub.OriginalName); nameErr != nil {
			verdict.Errors = append(verdict.Errors, *nameErr)
			break
		}
		report := safeScan(ctx, p.scanner, sub)
		verdict.Scan = &report
		if !report.IsClean {
			verdict.Errors = append(verdict.Errors, newError(CodeSecurityThreat,
				"Security threat detected: %s", report.ThreatDescription))
			break
		}
		p.finalize(&verdict, sub, constraint)
	}

	if sub.SizeBytes > p.largeFileWarnBytes {
		verdict.Warnings = append(verdict.Warnings, "Large file detected - upload may take longer")
	}

	verdict.IsValid = len(verdict.Errors) == 0
	return verdict
}

// finalize runs extraction and hashing for a submission that passed every
// check. Internal failures degrade to a VALIDATION_ERROR entry with whatever
// partial metadata exists.
func (p *Pipeline) finalize(verdict *Verdict, sub *FileSubmission, constraint TypeConstraint) {
	meta := p.extractor.Extract(sub, p.namer(sub), constraint.Category)
	verdict.Metadata = &meta

	src, err := sub.Open()
	if err != nil {
		verdict.Errors = append(verdict.Errors, newError(CodeValidationError,
			"cannot read file content: %v", err))
		return
	}
	digest, read, err := p.hasher.Digest(src)
	src.Close()
	if err != nil {
		verdict.Errors = append(verdict.Errors, newError(CodeValidationError,
			"content hashing failed: %v", err))
		return
	}
	if read != sub.SizeBytes {
		verdict.Errors = append(verdict.Errors, newError(CodeValidationError,
			"declared size %d does not match readable length %d", sub.SizeBytes, read))
		return
	}

	meta.Digest = digest
	verdict.Digest = digest

	if constraint.Category == CategoryVideo {
		fields, warnings := p.video.Inspect(sub)
		verdict.Warnings = append(verdict.Warnings, warnings...)
		if fields != nil {
			meta.Extra = map[string]any{
				"durationSeconds":      fields.DurationSeconds,
				"width":                fields.Width,
				"height":               fields.Height,
				"aspectRatio":          fields.AspectRatio,
				"estimatedBitrateMbps": fields.EstimatedBitrateMbps,
			}
		}
	}
	verdict.Metadata = &meta
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// DefaultStoredNamer builds "{unixMillis}-{rand9}.{ext}" — the stored-path
// convention consumers parse, so the shape must not change.
func DefaultStoredNamer(sub *FileSubmission) string {
	suffix := make([]byte, 9)
	max := big.NewInt(int64(len(base36)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failing is effectively fatal elsewhere; fall back
			// to a time-derived digit rather than panicking mid-upload.
			suffix[i] = base36[time.Now().UnixNano()%36]
			continue
		}
		suffix[i] = base36[n.Int64()]
	}
	name := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), suffix)
	if ext := sub.Extension(); ext != "" {
		name += "." + ext
	}
	return name
}
