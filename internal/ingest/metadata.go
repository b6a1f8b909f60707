package ingest

import "time"

// Metadata describes one validated file. Extra holds category-specific fields
// (video duration, dimensions, bitrate) keyed by name.
type Metadata struct {
	OriginalName   string         `json:"originalName"`
	StoredName     string         `json:"storedName"`
	MimeType       string         `json:"mimeType"`
	SizeBytes      uint64         `json:"sizeBytes"`
	Digest         string         `json:"digest,omitempty"`
	UploadedAt     time.Time      `json:"uploadedAt"`
	LastModifiedAt *time.Time     `json:"lastModifiedAt,omitempty"`
	Category       Category       `json:"category,omitempty"`
	Extra          map[string]any `json:"extra,omitempty"`
}

// MetadataExtractor derives the Metadata record for a submission. Fields the
// source cannot provide (a missing modification time, say) are omitted rather
// than failing the pipeline.
type MetadataExtractor struct {
	now func() time.Time
}

func NewMetadataExtractor() *MetadataExtractor {
	return &MetadataExtractor{now: time.Now}
}

// Extract builds the metadata shell. The digest is filled in by the pipeline
// once hashing completes.
func (e *MetadataExtractor) Extract(sub *FileSubmission, storedName string, category Category) Metadata {
	meta := Metadata{
		OriginalName: sub.OriginalName,
		StoredName:   storedName,
		MimeType:     sub.DeclaredMimeType,
		SizeBytes:    sub.SizeBytes,
		UploadedAt:   e.now().UTC(),
		Category:     category,
	}
	if sub.LastModified != nil {
		t := sub.LastModified.UTC()
		meta.LastModifiedAt = &t
	}
	return meta
}
