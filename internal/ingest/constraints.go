package ingest

// Category is the coarse file classification that drives size and validation
// policy.
type Category string

const (
	CategoryImage        Category = "image"
	CategoryDocument     Category = "document"
	CategoryVideo        Category = "video"
	CategoryAudio        Category = "audio"
	CategoryArchive      Category = "archive"
	CategorySpreadsheet  Category = "spreadsheet"
	CategoryPresentation Category = "presentation"
)

const (
	kb = 1024
	mb = 1024 * kb
	gb = 1024 * mb
)

// TypeConstraint is the policy record for one MIME type. Immutable after
// table construction.
type TypeConstraint struct {
	MimeType     string
	Extensions   []string
	Category     Category
	MaxSizeBytes uint64
}

// AllowsExtension reports whether ext (lower-case, no dot) is registered for
// this MIME type.
func (c TypeConstraint) AllowsExtension(ext string) bool {
	for _, e := range c.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// TypeConstraintTable maps MIME type to its upload policy. Built once at
// startup and read concurrently without locking — it is never mutated.
type TypeConstraintTable struct {
	byMime map[string]TypeConstraint
}

// NewTypeConstraintTable builds the fixed policy table. Ceilings differ
// sharply by category on purpose: a 1 GB video is routine, a 1 GB image is
// not.
func NewTypeConstraintTable() *TypeConstraintTable {
	constraints := []TypeConstraint{
		// Images
		{MimeType: "image/jpeg", Extensions: []string{"jpg", "jpeg"}, Category: CategoryImage, MaxSizeBytes: 25 * mb},
		{MimeType: "image/png", Extensions: []string{"png"}, Category: CategoryImage, MaxSizeBytes: 25 * mb},
		{MimeType: "image/gif", Extensions: []string{"gif"}, Category: CategoryImage, MaxSizeBytes: 15 * mb},
		{MimeType: "image/webp", Extensions: []string{"webp"}, Category: CategoryImage, MaxSizeBytes: 25 * mb},
		{MimeType: "image/svg+xml", Extensions: []string{"svg"}, Category: CategoryImage, MaxSizeBytes: 5 * mb},

		// Documents
		{MimeType: "application/pdf", Extensions: []string{"pdf"}, Category: CategoryDocument, MaxSizeBytes: 100 * mb},
		{MimeType: "application/msword", Extensions: []string{"doc"}, Category: CategoryDocument, MaxSizeBytes: 50 * mb},
		{MimeType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", Extensions: []string{"docx"}, Category: CategoryDocument, MaxSizeBytes: 50 * mb},
		{MimeType: "text/plain", Extensions: []string{"txt"}, Category: CategoryDocument, MaxSizeBytes: 10 * mb},

		// Videos
		{MimeType: "video/mp4", Extensions: []string{"mp4"}, Category: CategoryVideo, MaxSizeBytes: 1 * gb},
		{MimeType: "video/avi", Extensions: []string{"avi"}, Category: CategoryVideo, MaxSizeBytes: 1 * gb},
		{MimeType: "video/quicktime", Extensions: []string{"mov"}, Category: CategoryVideo, MaxSizeBytes: 1 * gb},
		{MimeType: "video/x-msvideo", Extensions: []string{"avi"}, Category: CategoryVideo, MaxSizeBytes: 1 * gb},
		{MimeType: "video/webm", Extensions: []string{"webm"}, Category: CategoryVideo, MaxSizeBytes: 1 * gb},
		{MimeType: "video/x-matroska", Extensions: []string{"mkv"}, Category: CategoryVideo, MaxSizeBytes: 1 * gb},

		// Audio
		{MimeType: "audio/mpeg", Extensions: []string{"mp3"}, Category: CategoryAudio, MaxSizeBytes: 100 * mb},
		{MimeType: "audio/wav", Extensions: []string{"wav"}, Category: CategoryAudio, MaxSizeBytes: 200 * mb},
		{MimeType: "audio/mp4", Extensions: []string{"m4a"}, Category: CategoryAudio, MaxSizeBytes: 100 * mb},
		{MimeType: "audio/ogg", Extensions: []string{"ogg"}, Category: CategoryAudio, MaxSizeBytes: 100 * mb},
		{MimeType: "audio/flac", Extensions: []string{"flac"}, Category: CategoryAudio, MaxSizeBytes: 200 * mb},

		// Archives
		{MimeType: "application/zip", Extensions: []string{"zip"}, Category: CategoryArchive, MaxSizeBytes: 200 * mb},
		{MimeType: "application/x-rar-compressed", Extensions: []string{"rar"}, Category: CategoryArchive, MaxSizeBytes: 200 * mb},
		{MimeType: "application/x-7z-compressed", Extensions: []string{"7z"}, Category: CategoryArchive, MaxSizeBytes: 200 * mb},

		// Spreadsheets
		{MimeType: "application/vnd.ms-excel", Extensions: []string{"xls"}, Category: CategorySpreadsheet, MaxSizeBytes: 50 * mb},
		{MimeType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", Extensions: []string{"xlsx"}, Category: CategorySpreadsheet, MaxSizeBytes: 50 * mb},

		// Presentations
		{MimeType: "application/vnd.ms-powerpoint", Extensions: []string{"ppt"}, Category: CategoryPresentation, MaxSizeBytes: 100 * mb},
		{MimeType: "application/vnd.openxmlformats-officedocument.presentationml.presentation", Extensions: []string{"pptx"}, Category: CategoryPresentation, MaxSizeBytes: 100 * mb},
	}

	byMime := make(map[string]TypeConstraint, len(constraints))
	for _, c := range constraints {
		byMime[c.MimeType] = c
	}
	return &TypeConstraintTable{byMime: byMime}
}

// Lookup returns the constraint for a MIME type.
func (t *TypeConstraintTable) Lookup(mimeType string) (TypeConstraint, bool) {
	c, ok := t.byMime[mimeType]
	return c, ok
}

// MimeTypes returns every registered MIME type. Handy for error messages and
// capability endpoints.
func (t *TypeConstraintTable) MimeTypes() []string {
	types := make([]string, 0, len(t.byMime))
	for m := range t.byMime {
		types = append(types, m)
	}
	return types
}
