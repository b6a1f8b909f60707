package material

import "time"

// Material types mirror the legacy training-material catalog.
const (
	TypeVideo   = "Video"
	TypeGuide   = "Guide"
	TypeArticle = "Article"
	TypePDF     = "PDF"
	TypeFAQ     = "FAQ"
)

var validTypes = map[string]bool{
	TypeVideo: true, TypeGuide: true, TypeArticle: true, TypePDF: true, TypeFAQ: true,
}

var validDifficulties = map[string]bool{
	"Beginner": true, "Intermediate": true, "Advanced": true,
}

var validCategories = map[string]bool{
	"Crop Management": true, "Livestock": true, "Equipment": true,
	"Finance": true, "Marketing": true, "General": true,
}

// Material is one training-material record. The file itself lives in object
// storage; StoragePath/Digest tie the record to it.
type Material struct {
	ID          string    `gorm:"column:id;primaryKey" json:"id"`
	Title       string    `gorm:"column:title" json:"title"`
	Description string    `gorm:"column:description" json:"description"`
	Type        string    `gorm:"column:type" json:"type"`
	Category    string    `gorm:"column:category" json:"category"`
	Tags        string    `gorm:"column:tags" json:"tags"` // comma-separated
	Difficulty  string    `gorm:"column:difficulty" json:"difficulty"`
	CreatedBy   string    `gorm:"column:created_by" json:"created_by"`
	UploadLink  string    `gorm:"column:upload_link" json:"upload_link,omitempty"`
	StoragePath string    `gorm:"column:storage_path" json:"-"`
	FileName    string    `gorm:"column:file_name" json:"file_name,omitempty"`
	FileSize    int64     `gorm:"column:file_size" json:"file_size,omitempty"`
	Digest      string    `gorm:"column:digest" json:"digest,omitempty"`
	Views       int64     `gorm:"column:views" json:"views"`
	IsActive    bool      `gorm:"column:is_active" json:"is_active"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Material) TableName() string { return "training_materials" }

// DedupRecord persists one digest→object mapping. The primary key on digest
// is what enforces at-most-one entry per digest across concurrent batches.
type DedupRecord struct {
	Digest      string    `gorm:"column:digest;primaryKey" json:"digest"`
	Path        string    `gorm:"column:path" json:"path"`
	Reference   string    `gorm:"column:reference" json:"reference"`
	FirstSeenAt time.Time `gorm:"column:first_seen_at" json:"first_seen_at"`
}

func (DedupRecord) TableName() string { return "dedup_entries" }
