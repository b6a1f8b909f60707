package material

import (
	"context"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"farmnex/internal/ingest"
	"farmnex/internal/storage"
)

// Service owns training-material records and drives the ingestion pipeline
// for file-backed materials.
type Service struct {
	repo         Repository
	orchestrator *ingest.Orchestrator
	store        storage.Adapter
	signedTTL    time.Duration
}

func NewService(repo Repository, orchestrator *ingest.Orchestrator, store storage.Adapter, signedTTL time.Duration) *Service {
	if signedTTL <= 0 {
		signedTTL = storage.DefaultSignedURLTTL
	}
	return &Service{repo: repo, orchestrator: orchestrator, store: store, signedTTL: signedTTL}
}

func (s *Service) List(ctx context.Context, filter ListFilter) (*ListOutput, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	return &ListOutput{
		Materials:   items,
		Total:       total,
		TotalPages:  int64(math.Ceil(float64(total) / float64(limit))),
		CurrentPage: page,
	}, nil
}

// Get returns one material and bumps its view counter, like the legacy
// endpoint did.
func (s *Service) Get(ctx context.Context, id string) (*Material, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.IncrementViews(ctx, id); err == nil {
		m.Views++
	}
	return m, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Material, error) {
	m := &Material{
		ID:          uuid.New().String(),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Type:        defaultString(in.Type, TypeArticle),
		Category:    defaultString(in.Category, "General"),
		Tags:        joinTags(in.Tags),
		Difficulty:  defaultString(in.Difficulty, "Beginner"),
		CreatedBy:   defaultString(in.CreatedBy, "Admin"),
		UploadLink:  in.UploadLink,
		IsActive:    true,
	}
	if err := validateEnums(m); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Material, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		m.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		m.Description = *in.Description
	}
	if in.Type != nil {
		m.Type = *in.Type
	}
	if in.Category != nil {
		m.Category = *in.Category
	}
	if in.Tags != nil {
		m.Tags = joinTags(in.Tags)
	}
	if in.Difficulty != nil {
		m.Difficulty = *in.Difficulty
	}
	if in.UploadLink != nil {
		m.UploadLink = *in.UploadLink
	}
	if err := validateEnums(m); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.SoftDelete(ctx, id)
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx)
}

// DownloadLink mints a signed URL for the material's stored file.
func (s *Service) DownloadLink(ctx context.Context, id string) (*DownloadOutput, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.StoragePath == "" {
		return nil, ErrNoFile
	}
	link, err := s.store.SignedURL(ctx, m.StoragePath, s.signedTTL)
	if err != nil {
		return nil, err
	}
	return &DownloadOutput{MaterialID: m.ID, FileName: m.FileName, Link: link}, nil
}

// UploadBatch runs the submissions through the ingestion pipeline and creates
// one material record per successfully stored file. Failed items are reported
// in the outcome, never as an error — only an aborted batch returns one.
// The caller owns the batch ID so progress subscribers can attach before the
// first file is processed.
func (s *Service) UploadBatch(ctx context.Context, batchID string, in BatchInput, subs []*ingest.FileSubmission, onProgress ingest.ProgressFunc) (*BatchOutcome, error) {
	if len(subs) == 0 {
		return nil, ErrEmptyBatch
	}
	if batchID == "" {
		batchID = uuid.New().String()
	}

	result, runErr := s.orchestrator.RunBatch(ctx, subs, onProgress)

	outcome := &BatchOutcome{
		BatchID:   batchID,
		Items:     make([]ItemOutcome, 0, len(result.Records)),
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
	}

	for _, record := range result.Records {
		item := ItemOutcome{
			OriginalName:     record.OriginalName,
			Success:          record.Err == nil,
			StorageReference: record.StorageReference,
			Deduplicated:     record.Deduplicated,
			Warnings:         record.Verdict.Warnings,
			Error:            record.Err,
			Metadata:         record.Verdict.Metadata,
		}
		if record.Err == nil {
			m, err := s.materialFromRecord(ctx, in, record)
			if err != nil {
				item.Success = false
				item.Error = &ingest.ValidationError{
					Code:    ingest.CodeUploadFailed,
					Message: "saving material record failed: " + err.Error(),
				}
				outcome.Succeeded--
				outcome.Failed++
			} else {
				item.MaterialID = m.ID
			}
		}
		outcome.Items = append(outcome.Items, item)
	}

	return outcome, runErr
}

func (s *Service) materialFromRecord(ctx context.Context, in BatchInput, record ingest.UploadRecord) (*Material, error) {
	meta := record.Verdict.Metadata
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = strings.TrimSuffix(record.OriginalName, filepath.Ext(record.OriginalName))
	}

	m := &Material{
		ID:          uuid.New().String(),
		Title:       title,
		Description: defaultString(in.Description, "Uploaded training material"),
		Type:        defaultString(in.Type, typeForCategory(record.Verdict.Category, record.OriginalName)),
		Category:    defaultString(in.Category, "General"),
		Tags:        joinTags(in.Tags),
		Difficulty:  defaultString(in.Difficulty, "Beginner"),
		CreatedBy:   defaultString(in.CreatedBy, "Admin"),
		StoragePath: record.StoragePath,
		FileName:    record.OriginalName,
		FileSize:    int64(meta.SizeBytes),
		Digest:      meta.Digest,
		IsActive:    true,
	}
	if err := validateEnums(m); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// typeForCategory derives the catalog type from the validated file category.
func typeForCategory(category ingest.Category, name string) string {
	switch category {
	case ingest.CategoryVideo:
		return TypeVideo
	case ingest.CategoryDocument:
		if strings.EqualFold(filepath.Ext(name), ".pdf") {
			return TypePDF
		}
		return TypeArticle
	default:
		return TypeArticle
	}
}

func validateEnums(m *Material) error {
	if !validTypes[m.Type] {
		return ErrInvalidType
	}
	if !validCategories[m.Category] {
		return ErrInvalidCategory
	}
	if !validDifficulties[m.Difficulty] {
		m.Difficulty = "Beginner"
	}
	return nil
}

func defaultString(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
