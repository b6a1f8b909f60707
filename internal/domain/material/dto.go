package material

import (
	"strings"

	"farmnex/internal/ingest"
	"farmnex/internal/storage"
)

// CreateInput creates a link-only material (no file upload).
type CreateInput struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description" binding:"required"`
	Type        string   `json:"type"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	Difficulty  string   `json:"difficulty"`
	UploadLink  string   `json:"upload_link"`
	CreatedBy   string   `json:"created_by"`
}

// UpdateInput carries the editable fields. Nil pointers leave a field as-is.
type UpdateInput struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Type        *string  `json:"type"`
	Category    *string  `json:"category"`
	Tags        []string `json:"tags"`
	Difficulty  *string  `json:"difficulty"`
	UploadLink  *string  `json:"upload_link"`
}

// BatchInput describes the shared fields applied to every file in one upload
// batch.
type BatchInput struct {
	Title       string
	Description string
	Type        string
	Category    string
	Tags        []string
	Difficulty  string
	CreatedBy   string
}

// ItemOutcome is the per-file slice of a batch response.
type ItemOutcome struct {
	OriginalName     string                  `json:"originalName"`
	Success          bool                    `json:"success"`
	MaterialID       string                  `json:"materialId,omitempty"`
	StorageReference string                  `json:"storageReference,omitempty"`
	Deduplicated     bool                    `json:"deduplicated,omitempty"`
	Warnings         []string                `json:"warnings,omitempty"`
	Error            *ingest.ValidationError `json:"error,omitempty"`
	Metadata         *ingest.Metadata        `json:"metadata,omitempty"`
}

// BatchOutcome is the full upload-batch response.
type BatchOutcome struct {
	BatchID   string        `json:"batchId"`
	Items     []ItemOutcome `json:"results"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
}

// ListOutput pages the material list the way the legacy API did.
type ListOutput struct {
	Materials   []*Material `json:"materials"`
	Total       int64       `json:"total"`
	TotalPages  int64       `json:"totalPages"`
	CurrentPage int         `json:"currentPage"`
}

// DownloadOutput wraps a signed link for one material's file.
type DownloadOutput struct {
	MaterialID string             `json:"materialId"`
	FileName   string             `json:"fileName"`
	Link       storage.SignedLink `json:"link"`
}

func joinTags(tags []string) string {
	cleaned := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	return strings.Join(cleaned, ",")
}
