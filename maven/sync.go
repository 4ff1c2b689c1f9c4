// Package maven implements the synchronization core for publishing and
// retracting Maven artifact trees in an object-storage-backed repository.
//
// A run flows strictly downstream: archive extraction, path scanning and
// coordinate parsing feed the upload/delete orchestration, which drives
// the storage client and the index maintainer. Per-item remote failures
// are collected and reported, never raised; only precondition failures
// (missing archive, missing root) abort a run, and they do so before any
// remote mutation.
package maven

import (
	"context"
	"path"
	"sort"
	"sync"
	"text/template"

	"github.com/charmbracelet/log"

	"github.com/ligangty/charon/internal/worker"
)

// Storage is the narrow contract the orchestrator needs from the remote
// store. All batch operations are per-item: failures never abort sibling
// items, and the returned slices are remote keys relative to the bucket.
type Storage interface {
	// ListFiles returns the keys under prefix whose names end in suffix.
	ListFiles(ctx context.Context, bucket, prefix, suffix string) ([]string, error)

	// UploadFiles uploads local files, deriving each key from the path
	// relative to root and recording the product reference.
	UploadFiles(ctx context.Context, paths []string, bucket, product, root string) (uploaded, failed []string)

	// UploadMetadataFiles uploads metadata and index documents without
	// product tracking, overwriting whatever is stored.
	UploadMetadataFiles(ctx context.Context, paths []string, bucket, root string) (uploaded, failed []string)

	// DeleteFiles removes the product reference from each object and
	// deletes those no longer referenced. Deleting a missing key succeeds.
	DeleteFiles(ctx context.Context, paths []string, bucket, product, root string) (deleted, failed []string)
}

// Validator checks in-scope paths before any remote mutation and returns
// violation messages. Violations are collected into the outcome but do
// not block the run; stricter policies plug in without touching the
// orchestrator.
type Validator interface {
	Validate(paths []string) []string
}

// NoopValidator accepts everything. It is the default policy.
type NoopValidator struct{}

// Validate implements Validator.
func (NoopValidator) Validate([]string) []string { return nil }

// SyncOptions configures one publish or retract run.
type SyncOptions struct {
	// Tarball is the product release archive to process.
	Tarball string

	// Product identifies the product release owning the artifacts.
	Product string

	// Bucket is the target storage bucket.
	Bucket string

	// RootMarker identifies where the GAV structure begins in the tarball.
	RootMarker string

	// IgnorePatterns exclude matching file names from the run.
	IgnorePatterns []string

	// ScratchDir is the base directory for archive extraction; empty
	// means the system temp dir.
	ScratchDir string

	// SkipIndex disables index page regeneration.
	SkipIndex bool
}

// Outcome is the terminal roll-up of a run. It is reported, not raised:
// the run finishes even when individual remote operations failed.
type Outcome struct {
	// FailedFiles are artifact keys whose upload or deletion failed.
	FailedFiles []string

	// FailedMetas are metadata and index keys whose refresh failed.
	FailedMetas []string

	// Violations are validation rule findings. Non-blocking by current
	// policy.
	Violations []string
}

// Succeeded reports whether the run completed without any artifact or
// metadata failure.
func (o *Outcome) Succeeded() bool {
	return len(o.FailedFiles) == 0 && len(o.FailedMetas) == 0
}

// Orchestrator runs the publish and retract workflows. It owns nothing
// beyond a single invocation; the bucket is the only durable state.
type Orchestrator struct {
	storage     Storage
	tmpl        *template.Template
	validator   Validator
	logger      *log.Logger
	concurrency int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger wires a logger. A nil logger discards output.
func WithLogger(logger *log.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithValidator replaces the default no-op validation policy.
func WithValidator(v Validator) Option {
	return func(o *Orchestrator) { o.validator = v }
}

// WithConcurrency bounds the per-GA metadata synthesis pool.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) { o.concurrency = n }
}

// NewOrchestrator creates an orchestrator over the given storage client
// and metadata document template.
func NewOrchestrator(storage Storage, tmpl *template.Template, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		storage:     storage,
		tmpl:        tmpl,
		validator:   NoopValidator{},
		concurrency: worker.DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = ensureLogger(o.logger)
	return o
}

// metadataPlan is the result of one synthesis pass: documents regenerated
// locally and ready for upload, plus remote keys of stale metadata that
// must be removed because their GA no longer has any descriptor.
type metadataPlan struct {
	generated []string
	deletions []string
}

// synthesizeMetadata recomputes the metadata of every GA reachable from
// the given descriptor paths. Each GA is re-listed from the remote store,
// so the result reflects the authoritative post-mutation state rather
// than the local delta. Per-GA failures are logged and skipped; they
// never abort synthesis for sibling GAs.
func (o *Orchestrator) synthesizeMetadata(ctx context.Context, bucket string, poms []string, root string) *metadataPlan {
	seen := make(map[string]bool)
	var gaPaths []string
	for _, pom := range poms {
		g, a, _, err := ParseGAV(pom, root)
		if err != nil {
			o.logger.Error("skipping descriptor with unparsable coordinates",
				"path", pom, "err", err)
			continue
		}
		gaPath := GAPath(g, a)
		if !seen[gaPath] {
			seen[gaPath] = true
			gaPaths = append(gaPaths, gaPath)
		}
	}

	plan := &metadataPlan{}
	var mu sync.Mutex

	results := worker.Run(ctx, o.concurrency, gaPaths, func(ctx context.Context, gaPath string) error {
		// The trailing separator keeps the listing segment safe: the
		// prefix "a/b/" can never match the sibling "a/bc".
		keys, err := o.storage.ListFiles(ctx, bucket, gaPath+"/", DescriptorSuffix)
		if err != nil {
			return err
		}

		if len(keys) == 0 {
			mu.Lock()
			plan.deletions = append(plan.deletions, path.Join(gaPath, MetadataFileName))
			mu.Unlock()
			return nil
		}

		remote, err := ParseGAVs(keys, "")
		if err != nil {
			return err
		}
		for g, avs := range remote {
			for a, versions := range avs {
				metaFile, err := GenerateMetadata(o.tmpl, g, a, versions, root)
				if err != nil {
					return err
				}
				mu.Lock()
				plan.generated = append(plan.generated, metaFile)
				mu.Unlock()
			}
		}
		return nil
	})

	for _, r := range results {
		if r.Err != nil {
			o.logger.Error("metadata synthesis failed for GA, skipping",
				"ga", r.Item, "err", r.Err)
		}
	}

	// Nested GAs overlap in their listings, so concurrent tasks can queue
	// the same document twice. Collapse to one canonical batch.
	plan.generated = dedupe(plan.generated)
	plan.deletions = dedupe(plan.deletions)
	return plan
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := paths[:0]
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// reportOutcome logs the terminal summary of a run in the shape the
// original service used: a success line, or a warning enumerating the
// failed artifact and metadata paths.
func (o *Orchestrator) reportOutcome(product, operation string, outcome *Outcome) {
	if outcome.Succeeded() {
		o.logger.Info("product release processed successfully",
			"product", product, "operation", operation)
		return
	}
	o.logger.Warn("product release processed with failures",
		"product", product, "operation", operation)
	if len(outcome.FailedFiles) > 0 {
		o.logger.Warn("files failed", "paths", outcome.FailedFiles)
	}
	if len(outcome.FailedMetas) > 0 {
		o.logger.Warn("metadata files failed to refresh", "paths", outcome.FailedMetas)
	}
}
