package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/ligangty/charon/config"
	"github.com/ligangty/charon/maven"
	"github.com/ligangty/charon/storage"
)

// ErrSyncFailed reports a run that finished but left some artifact or
// metadata operations failed. The failures are already logged item by
// item when this is returned.
var ErrSyncFailed = errors.New("synchronization finished with failures")

// syncOpts holds the command-line flags shared by upload and delete.
type syncOpts struct {
	product     string
	bucket      string
	rootMarker  string
	ignores     []string
	noIndex     bool
	tmpDir      string
	concurrency int
}

func (o *syncOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.product, "product", "p", "", "product release key, e.g. my-product-1.0.0 (required)")
	cmd.Flags().StringVarP(&o.bucket, "bucket", "b", "", "target bucket (overrides config)")
	cmd.Flags().StringVar(&o.rootMarker, "root", "", "directory in the tarball where the artifact tree begins (overrides config)")
	cmd.Flags().StringArrayVar(&o.ignores, "ignore", nil, "regex matched against file names to exclude (repeatable)")
	cmd.Flags().BoolVar(&o.noIndex, "no-index", false, "skip index page regeneration")
	cmd.Flags().StringVar(&o.tmpDir, "tmp-dir", "", "scratch directory for tarball extraction")
	cmd.Flags().IntVar(&o.concurrency, "concurrency", 0, "parallel remote operations (overrides config)")
	_ = cmd.MarkFlagRequired("product")
}

// runSync wires config, storage and orchestrator together and runs one
// publish or retract. Flags override config values; config supplies the
// defaults.
func runSync(cmd *cobra.Command, configPath string, o *syncOpts, tarball string, retract bool) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	bucket := o.bucket
	if bucket == "" {
		bucket = cfg.Bucket
	}
	if bucket == "" {
		return errors.New("no target bucket: pass --bucket or set it in the config file")
	}
	marker := o.rootMarker
	if marker == "" {
		marker = cfg.RootMarker
	}
	concurrency := o.concurrency
	if concurrency <= 0 {
		concurrency = cfg.Concurrency
	}
	ignores := append([]string{}, cfg.IgnorePatterns...)
	ignores = append(ignores, o.ignores...)

	tmpl, err := cfg.MetadataTemplate()
	if err != nil {
		return err
	}

	client, err := storage.New(ctx,
		storage.WithConcurrency(concurrency),
		storage.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	orch := maven.NewOrchestrator(client, tmpl,
		maven.WithLogger(logger),
		maven.WithConcurrency(concurrency),
	)

	opts := maven.SyncOptions{
		Tarball:        tarball,
		Product:        o.product,
		Bucket:         bucket,
		RootMarker:     marker,
		IgnorePatterns: ignores,
		ScratchDir:     o.tmpDir,
		SkipIndex:      o.noIndex,
	}

	var outcome *maven.Outcome
	if retract {
		outcome, err = orch.DeleteProduct(ctx, opts)
	} else {
		outcome, err = orch.UploadProduct(ctx, opts)
	}
	if err != nil {
		return err
	}
	if !outcome.Succeeded() {
		return ErrSyncFailed
	}
	return nil
}
