package ingest

import (
	"context"
	"fmt"
	"log"

	"farmnex/internal/storage"
)

// Stage tracks where an item is in its upload lifecycle.
type Stage string

const (
	StagePending    Stage = "pending"
	StageValidating Stage = "validating"
	StageUploading  Stage = "uploading"
	StageDone       Stage = "done"
	StageFailed     Stage = "failed"
)

// BatchProgress is a transient snapshot recomputed around every item.
// PercentComplete counts finished items only, so it never decreases and
// never exceeds 100.
type BatchProgress struct {
	Completed       int     `json:"completed"`
	Total           int     `json:"total"`
	CurrentItemName string  `json:"currentItemName"`
	PercentComplete float64 `json:"percentComplete"`
	Stage           Stage   `json:"stage"`
}

// ProgressFunc receives progress snapshots. Invoked at least twice per item:
// entering and leaving.
type ProgressFunc func(BatchProgress)

// UploadRecord is the immutable outcome of one item within a batch.
// StoragePath is the object key, StorageReference the public URL.
type UploadRecord struct {
	Submission       *FileSubmission  `json:"-"`
	OriginalName     string           `json:"originalName"`
	Verdict          Verdict          `json:"verdict"`
	StoragePath      string           `json:"storagePath,omitempty"`
	StorageReference string           `json:"storageReference,omitempty"`
	Deduplicated     bool             `json:"deduplicated,omitempty"`
	Err              *ValidationError `json:"error,omitempty"`
}

// BatchResult aggregates a whole batch. A failed item never aborts the batch;
// mixed outcomes are normal.
type BatchResult struct {
	Records   []UploadRecord `json:"results"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
}

// Orchestrator drives submissions through validation and storage one at a
// time, in input order. Sequential on purpose: it bounds peak memory and
// bandwidth and keeps progress monotonic. Concurrency happens across batches,
// not within one.
type Orchestrator struct {
	pipeline *Pipeline
	store    storage.Adapter
	index    DedupIndex
	folder   string
}

func NewOrchestrator(pipeline *Pipeline, store storage.Adapter, index DedupIndex, folder string) *Orchestrator {
	if index == nil {
		index = NewMemoryIndex()
	}
	return &Orchestrator{pipeline: pipeline, store: store, index: index, folder: folder}
}

// RunBatch processes every submission and reports per-item outcomes.
// Cancellation is honored between items only: finished items keep their
// records, unstarted items are marked failed with CANCELLED. A non-nil error
// is returned only for a fatal infrastructure condition (dedup index
// unavailable) that aborted the batch.
func (o *Orchestrator) RunBatch(ctx context.Context, submissions []*FileSubmission, onProgress ProgressFunc) (BatchResult, error) {
	if onProgress == nil {
		onProgress = func(BatchProgress) {}
	}

	result := BatchResult{Records: make([]UploadRecord, 0, len(submissions))}
	total := len(submissions)
	completed := 0

	emit := func(name string, stage Stage) {
		onProgress(BatchProgress{
			Completed:       completed,
			Total:           total,
			CurrentItemName: name,
			PercentComplete: percent(completed, total),
			Stage:           stage,
		})
	}

	var abortErr error
	for i, sub := range submissions {
		if abortErr != nil || ctx.Err() != nil {
			code, msg := CodeCancelled, "batch cancelled before this item started"
			if abortErr != nil {
				code, msg = CodeUploadFailed, "batch aborted: "+abortErr.Error()
			}
			record := UploadRecord{Submission: sub, OriginalName: sub.OriginalName}
			record.Err = &ValidationError{Code: code, Message: msg}
			result.Records = append(result.Records, record)
			result.Failed++
			completed++
			emit(sub.OriginalName, StageFailed)
			continue
		}

		emit(sub.OriginalName, StageValidating)
		record, err := o.processItem(ctx, sub, func(stage Stage) { emit(sub.OriginalName, stage) })
		if err != nil {
			// Fatal infrastructure failure; remaining items are drained above.
			log.Printf("batch_abort item=%d name=%s error=%q", i, sub.OriginalName, err)
			abortErr = err
		}
		result.Records = append(result.Records, record)
		if record.Err == nil {
			result.Succeeded++
		} else {
			result.Failed++
		}
		completed++
		if record.Err == nil {
			emit(sub.OriginalName, StageDone)
		} else {
			emit(sub.OriginalName, StageFailed)
		}
	}

	return result, abortErr
}

// processItem validates and stores one submission. The returned error is
// non-nil only when the dedup index itself failed.
func (o *Orchestrator) processItem(ctx context.Context, sub *FileSubmission, emit func(Stage)) (UploadRecord, error) {
	record := UploadRecord{Submission: sub, OriginalName: sub.OriginalName}

	record.Verdict = o.pipeline.Validate(ctx, sub)
	if !record.Verdict.IsValid {
		record.Err = record.Verdict.FirstError()
		return record, nil
	}

	existing, err := o.index.Lookup(ctx, record.Verdict.Digest)
	if err != nil {
		record.Err = &ValidationError{Code: CodeUploadFailed, Message: "dedup index unavailable"}
		return record, fmt.Errorf("dedup lookup: %w", err)
	}
	if existing != nil {
		// Identical bytes already stored: reuse the reference, skip the Put.
		record.StoragePath = existing.Path
		record.StorageReference = existing.Reference
		record.Deduplicated = true
		return record, nil
	}

	emit(StageUploading)
	path := o.folder + "/" + record.Verdict.Metadata.StoredName
	src, err := sub.Open()
	if err != nil {
		record.Err = &ValidationError{Code: CodeUploadFailed, Message: "cannot reopen file content: " + err.Error()}
		return record, nil
	}
	reference, err := o.store.Put(ctx, path, src)
	src.Close()
	if err != nil {
		record.Err = &ValidationError{Code: CodeUploadFailed, Message: "storage upload failed: " + err.Error()}
		return record, nil
	}

	entry, created, err := o.index.Record(ctx, record.Verdict.Digest, path, reference)
	if err != nil {
		// The object landed but the index is down; surface the abort after
		// finishing this record so the caller sees a consistent outcome.
		record.StoragePath = path
		record.StorageReference = reference
		return record, fmt.Errorf("dedup record: %w", err)
	}
	if !created && entry.Reference != reference {
		// Lost a cross-batch race on this digest: keep the winner's object,
		// remove ours. One durable object per digest.
		_ = o.store.Delete(ctx, path)
		record.StoragePath = entry.Path
		record.StorageReference = entry.Reference
		record.Deduplicated = true
		return record, nil
	}
	record.StoragePath = path
	record.StorageReference = reference
	return record, nil
}

func percent(completed, total int) float64 {
	if total == 0 {
		return 100
	}
	p := float64(completed) / float64(total) * 100
	if p > 100 {
		p = 100
	}
	return p
}
