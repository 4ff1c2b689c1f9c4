package maven

import (
	"context"
	"fmt"
	"os"

	"github.com/ligangty/charon/archive"
	"github.com/ligangty/charon/index"
)

// UploadProduct publishes one product release archive into the bucket:
// extract, scan, validate, upload artifacts, refresh per-GA metadata and
// regenerate the index pages of every touched directory. Per-item remote
// failures are collected into the outcome; a non-nil error means a
// precondition failed before any remote mutation.
func (o *Orchestrator) UploadProduct(ctx context.Context, opts SyncOptions) (*Outcome, error) {
	o.logger.Info("uploading product release", "product", opts.Product,
		"tarball", opts.Tarball, "bucket", opts.Bucket)

	scratch, err := archive.Extract(opts.Tarball, opts.ScratchDir, opts.Product)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(scratch)

	scan, err := ScanPaths(scratch, opts.IgnorePatterns, opts.RootMarker, o.logger)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(scan.Root); err != nil {
		return nil, fmt.Errorf("repository root %q is not accessible: %w", scan.Root, err)
	}
	o.logger.Info("scanned archive", "root", scan.Root,
		"files", len(scan.Paths), "poms", len(scan.Poms),
		"ignored", len(scan.Ignored), "foreign", len(scan.Foreign))

	violations := o.validator.Validate(scan.Paths)
	for _, v := range violations {
		o.logger.Warn("validation violation", "detail", v)
	}

	uploaded, failedFiles := o.storage.UploadFiles(ctx, scan.Paths, opts.Bucket, opts.Product, scan.Root)
	o.logger.Info("artifact upload finished", "uploaded", len(uploaded), "failed", len(failedFiles))

	plan := o.synthesizeMetadata(ctx, opts.Bucket, scan.Poms, scan.Root)
	uploadedMetas, failedMetas := o.storage.UploadMetadataFiles(ctx, plan.generated, opts.Bucket, scan.Root)
	// Stale metadata keys can only appear when a GA lost its last
	// descriptor, which an upload cannot cause. Surface them anyway.
	for _, key := range plan.deletions {
		o.logger.Warn("GA has no descriptors after upload", "metadata", key)
	}

	if !opts.SkipIndex {
		changed := make([]string, 0, len(uploaded)+len(uploadedMetas))
		changed = append(changed, uploaded...)
		changed = append(changed, uploadedMetas...)
		pages := index.CreateIndexes(ctx, o.storage, opts.Bucket, scan.Root, changed, o.logger)
		_, failedPages := o.storage.UploadMetadataFiles(ctx, pages, opts.Bucket, scan.Root)
		failedMetas = append(failedMetas, failedPages...)
	}

	outcome := &Outcome{
		FailedFiles: failedFiles,
		FailedMetas: failedMetas,
		Violations:  violations,
	}
	o.reportOutcome(opts.Product, "upload", outcome)
	return outcome, nil
}
