package maven

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/ligangty/charon/archive"
	"github.com/ligangty/charon/index"
)

// DeleteProduct retracts one product release from the bucket. The
// archive names what to retract: its artifacts lose this product's
// reference and are deleted once unreferenced, then the metadata of
// every affected GA is rebuilt from the post-deletion remote state and
// the index pages are reconciled. Per-item remote failures are collected
// into the outcome; a non-nil error means a precondition failed before
// any remote mutation.
func (o *Orchestrator) DeleteProduct(ctx context.Context, opts SyncOptions) (*Outcome, error) {
	o.logger.Info("deleting product release", "product", opts.Product,
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
		"files", len(scan.Paths), "poms", len(scan.Poms))

	deleted, failedFiles := o.storage.DeleteFiles(ctx, scan.Paths, opts.Bucket, opts.Product, scan.Root)
	o.logger.Info("artifact deletion finished", "deleted", len(deleted), "failed", len(failedFiles))

	// Synthesis lists the remote store after the artifact deletion, so
	// the plan reflects what actually remains for each GA.
	plan := o.synthesizeMetadata(ctx, opts.Bucket, scan.Poms, scan.Root)

	// Every affected GA's metadata is removed first, then the GAs that
	// still hold versions get a fresh document. Passing no product makes
	// the removal unconditional: metadata is derived state, not
	// product-owned.
	staleMetas := make([]string, 0, len(plan.generated)+len(plan.deletions))
	staleMetas = append(staleMetas, plan.generated...)
	staleMetas = append(staleMetas, plan.deletions...)
	deletedMetas, _ := o.storage.DeleteFiles(ctx, staleMetas, opts.Bucket, "", scan.Root)
	deleted = append(deleted, deletedMetas...)

	uploadedMetas, failedMetas := o.storage.UploadMetadataFiles(ctx, plan.generated, opts.Bucket, scan.Root)

	// A metadata key deleted and then recreated under the same key has
	// not left the bucket; it must not drive index reconciliation as a
	// deletion.
	deleted = slices.DeleteFunc(deleted, func(key string) bool {
		return slices.Contains(uploadedMetas, key)
	})

	if !opts.SkipIndex {
		toDelete, toUpdate := index.DeleteIndexes(ctx, o.storage, opts.Bucket, scan.Root, deleted, o.logger)
		if len(toUpdate) > 0 {
			_, failedPages := o.storage.UploadMetadataFiles(ctx, toUpdate, opts.Bucket, scan.Root)
			failedMetas = append(failedMetas, failedPages...)
		}
		if len(toDelete) > 0 {
			_, failedPages := o.storage.DeleteFiles(ctx, toDelete, opts.Bucket, "", scan.Root)
			failedMetas = append(failedMetas, failedPages...)
		}
	}

	outcome := &Outcome{
		FailedFiles: failedFiles,
		FailedMetas: failedMetas,
	}
	o.reportOutcome(opts.Product, "delete", outcome)
	return outcome, nil
}
