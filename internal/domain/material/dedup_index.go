package material

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"farmnex/internal/ingest"
)

// GormDedupIndex is the database-backed ingest.DedupIndex. Uniqueness is
// enforced by the digest primary key, so two instances racing on the same
// content resolve to a single entry.
type GormDedupIndex struct {
	db *gorm.DB
}

func NewGormDedupIndex(db *gorm.DB) *GormDedupIndex {
	return &GormDedupIndex{db: db}
}

func (g *GormDedupIndex) Lookup(ctx context.Context, digest string) (*ingest.DedupEntry, error) {
	var rec DedupRecord
	err := g.db.WithContext(ctx).Where("digest = ?", digest).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ingest.DedupEntry{Digest: rec.Digest, Path: rec.Path, Reference: rec.Reference, FirstSeenAt: rec.FirstSeenAt}, nil
}

func (g *GormDedupIndex) Record(ctx context.Context, digest, path, reference string) (*ingest.DedupEntry, bool, error) {
	rec := DedupRecord{Digest: digest, Path: path, Reference: reference, FirstSeenAt: time.Now().UTC()}
	err := g.db.WithContext(ctx).Create(&rec).Error
	if err == nil {
		return &ingest.DedupEntry{Digest: rec.Digest, Path: rec.Path, Reference: rec.Reference, FirstSeenAt: rec.FirstSeenAt}, true, nil
	}
	if !isDuplicateKey(err) {
		return nil, false, err
	}
	// Lost the insert race: the first writer wins, return its entry.
	existing, lookupErr := g.Lookup(ctx, digest)
	if lookupErr != nil {
		return nil, false, lookupErr
	}
	if existing == nil {
		return nil, false, err
	}
	return existing, false, nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}
