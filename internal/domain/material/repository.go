package material

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ListFilter narrows and pages the material list.
type ListFilter struct {
	Type     string
	Category string
	Search   string
	Page     int
	Limit    int
}

// TypeCount / CategoryCount feed the statistics endpoint.
type TypeCount struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

type Stats struct {
	TotalMaterials int64           `json:"totalMaterials"`
	TotalViews     int64           `json:"totalViews"`
	ByType         []TypeCount     `json:"materialsByType"`
	ByCategory     []CategoryCount `json:"materialsByCategory"`
}

type Repository interface {
	Create(ctx context.Context, m *Material) error
	GetByID(ctx context.Context, id string) (*Material, error)
	Update(ctx context.Context, m *Material) error
	SoftDelete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]*Material, int64, error)
	IncrementViews(ctx context.Context, id string) error
	Stats(ctx context.Context) (*Stats, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, m *Material) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *repository) GetByID(ctx context.Context, id string) (*Material, error) {
	var m Material
	err := r.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMaterialNotFound
	}
	return &m, err
}

func (r *repository) Update(ctx context.Context, m *Material) error {
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *repository) SoftDelete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&Material{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrMaterialNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]*Material, int64, error) {
	q := r.db.WithContext(ctx).Model(&Material{}).Where("is_active = ?", true)

	if filter.Type != "" && filter.Type != "all" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Category != "" && filter.Category != "all" {
		q = q.Where("category = ?", filter.Category)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(tags) LIKE ?", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	var items []*Material
	err := q.Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&items).Error
	return items, total, err
}

func (r *repository) IncrementViews(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&Material{}).
		Where("id = ?", id).
		Update("views", gorm.Expr("views + 1")).Error
}

func (r *repository) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&Material{}).Where("is_active = ?", true)
	}

	if err := base().Count(&stats.TotalMaterials).Error; err != nil {
		return nil, err
	}
	if err := base().Select("COALESCE(SUM(views), 0)").Scan(&stats.TotalViews).Error; err != nil {
		return nil, err
	}
	if err := base().Select("type, COUNT(*) AS count").Group("type").Scan(&stats.ByType).Error; err != nil {
		return nil, err
	}
	if err := base().Select("category, COUNT(*) AS count").Group("category").Scan(&stats.ByCategory).Error; err != nil {
		return nil, err
	}
	return stats, nil
}
