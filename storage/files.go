package storage

import (
	"context"
	"errors"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gabriel-vasile/mimetype"

	"github.com/ligangty/charon/internal/worker"
)

const (
	// productsMetaKey is the object metadata entry recording the product
	// releases that reference the object, comma-separated.
	productsMetaKey = "products"

	// DefaultContentType is used when content type detection fails.
	DefaultContentType = "application/octet-stream"
)

// RemoteKey derives the object key for a local path: the slash-separated
// path relative to root. A path outside root passes through unchanged,
// which lets callers mix local paths and pre-computed remote keys in one
// batch.
func RemoteKey(path, root string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// ListFiles returns the keys under prefix whose names end in suffix.
// An empty suffix matches every key. The listing paginates until
// exhausted, so large trees come back complete.
func (c *Client) ListFiles(ctx context.Context, bucket, prefix, suffix string) ([]string, error) {
	if bucket == "" {
		return nil, NewError("list", ErrInvalidInput)
	}
	var keys []string
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	}
	for {
		out, err := c.api.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, NewObjectError("list", bucket, prefix, err)
		}
		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			if suffix == "" || strings.HasSuffix(key, suffix) {
				keys = append(keys, key)
			}
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		input.ContinuationToken = out.NextContinuationToken
	}
	return keys, nil
}

type fileTask struct {
	path string
	key  string
}

func (c *Client) fileTasks(paths []string, root string) []fileTask {
	tasks := make([]fileTask, len(paths))
	for i, p := range paths {
		tasks[i] = fileTask{path: p, key: RemoteKey(p, root)}
	}
	return tasks
}

// UploadFiles uploads local files as product artifacts, deriving each
// key from the path relative to root. An object that already exists
// gains the product reference instead of being rewritten; an object
// already referencing the product is left untouched. Returns the keys
// that succeeded and the keys that failed.
func (c *Client) UploadFiles(ctx context.Context, paths []string, bucket, product, root string) (uploaded, failed []string) {
	tasks := c.fileTasks(paths, root)
	results := worker.Run(ctx, c.concurrency, tasks, func(ctx context.Context, t fileTask) error {
		return c.uploadArtifact(ctx, bucket, t.key, t.path, product)
	})
	for _, r := range results {
		if r.Err != nil {
			c.logger.Error("upload failed", "key", r.Item.key, "err", r.Err)
			failed = append(failed, r.Item.key)
			continue
		}
		uploaded = append(uploaded, r.Item.key)
	}
	return uploaded, failed
}

// head fetches object metadata, mapping the SDK's not-found responses to
// ErrObjectNotFound so callers can branch with errors.Is.
func (c *Client) head(ctx context.Context, bucket, key string) (*s3.HeadObjectOutput, error) {
	out, err := c.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	return out, nil
}

func (c *Client) uploadArtifact(ctx context.Context, bucket, key, path, product string) error {
	head, err := c.head(ctx, bucket, key)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return c.putFile(ctx, bucket, key, path, product)
		}
		return NewObjectError("upload", bucket, key, err)
	}

	refs := splitRefs(head.Metadata[productsMetaKey])
	merged, changed := addRef(refs, product)
	if !changed {
		c.logger.Debug("object already references product, skipping",
			"key", key, "product", product)
		return nil
	}

	// The object content is already in place. A metadata-replacing
	// self-copy records the new reference without re-sending the body.
	_, err = c.api.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:            aws.String(bucket),
		Key:               aws.String(key),
		CopySource:        aws.String(copySource(bucket, key)),
		MetadataDirective: types.MetadataDirectiveReplace,
		Metadata:          map[string]string{productsMetaKey: joinRefs(merged)},
		ContentType:       head.ContentType,
	})
	if err != nil {
		return NewObjectError("upload", bucket, key, err)
	}
	c.logger.Debug("product reference added", "key", key, "product", product)
	return nil
}

func (c *Client) putFile(ctx context.Context, bucket, key, path, product string) error {
	f, err := os.Open(path)
	if err != nil {
		return NewObjectError("upload", bucket, key, err)
	}
	defer f.Close()

	input := &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(detectContentType(path)),
	}
	if product != "" {
		input.Metadata = map[string]string{productsMetaKey: product}
	}
	if _, err := c.api.PutObject(ctx, input); err != nil {
		return NewObjectError("upload", bucket, key, err)
	}
	c.logger.Debug("object uploaded", "key", key)
	return nil
}

// UploadMetadataFiles uploads metadata and index documents. They carry
// no product reference and always overwrite whatever is stored, since
// they are derived from the authoritative remote state.
func (c *Client) UploadMetadataFiles(ctx context.Context, paths []string, bucket, root string) (uploaded, failed []string) {
	tasks := c.fileTasks(paths, root)
	results := worker.Run(ctx, c.concurrency, tasks, func(ctx context.Context, t fileTask) error {
		return c.putFile(ctx, bucket, t.key, t.path, "")
	})
	for _, r := range results {
		if r.Err != nil {
			c.logger.Error("metadata upload failed", "key", r.Item.key, "err", r.Err)
			failed = append(failed, r.Item.key)
			continue
		}
		uploaded = append(uploaded, r.Item.key)
	}
	return uploaded, failed
}

// DeleteFiles removes the product reference from each object and
// deletes the objects no longer referenced by any product. An empty
// product deletes unconditionally. Objects still referenced by other
// products are kept and appear in neither returned slice. Deleting a
// missing key succeeds.
func (c *Client) DeleteFiles(ctx context.Context, paths []string, bucket, product, root string) (deleted, failed []string) {
	tasks := c.fileTasks(paths, root)
	removed := make([]bool, len(tasks))
	type indexedTask struct {
		i int
		t fileTask
	}
	indexed := make([]indexedTask, len(tasks))
	for i, t := range tasks {
		indexed[i] = indexedTask{i: i, t: t}
	}
	results := worker.Run(ctx, c.concurrency, indexed, func(ctx context.Context, it indexedTask) error {
		gone, err := c.deleteArtifact(ctx, bucket, it.t.key, product)
		removed[it.i] = gone
		return err
	})
	for i, r := range results {
		if r.Err != nil {
			c.logger.Error("delete failed", "key", r.Item.t.key, "err", r.Err)
			failed = append(failed, r.Item.t.key)
			continue
		}
		if removed[i] {
			deleted = append(deleted, r.Item.t.key)
		}
	}
	return deleted, failed
}

func (c *Client) deleteArtifact(ctx context.Context, bucket, key, product string) (bool, error) {
	head, err := c.head(ctx, bucket, key)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return true, nil
		}
		return false, NewObjectError("delete", bucket, key, err)
	}

	if product != "" {
		refs := splitRefs(head.Metadata[productsMetaKey])
		remaining, changed := removeRef(refs, product)
		if len(remaining) > 0 {
			if changed {
				_, err = c.api.CopyObject(ctx, &s3.CopyObjectInput{
					Bucket:            aws.String(bucket),
					Key:               aws.String(key),
					CopySource:        aws.String(copySource(bucket, key)),
					MetadataDirective: types.MetadataDirectiveReplace,
					Metadata:          map[string]string{productsMetaKey: joinRefs(remaining)},
					ContentType:       head.ContentType,
				})
				if err != nil {
					return false, NewObjectError("delete", bucket, key, err)
				}
			}
			c.logger.Debug("object still referenced, keeping",
				"key", key, "products", remaining)
			return false, nil
		}
	}

	_, err = c.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return false, NewObjectError("delete", bucket, key, err)
	}
	c.logger.Debug("object deleted", "key", key)
	return true, nil
}

func copySource(bucket, key string) string {
	return url.PathEscape(bucket + "/" + key)
}

func splitRefs(raw string) []string {
	var refs []string
	for _, r := range strings.Split(raw, ",") {
		if r = strings.TrimSpace(r); r != "" {
			refs = append(refs, r)
		}
	}
	return refs
}

func joinRefs(refs []string) string {
	return strings.Join(refs, ",")
}

func addRef(refs []string, product string) ([]string, bool) {
	if product == "" {
		return refs, false
	}
	for _, r := range refs {
		if r == product {
			return refs, false
		}
	}
	refs = append(refs, product)
	sort.Strings(refs)
	return refs, true
}

func removeRef(refs []string, product string) ([]string, bool) {
	var remaining []string
	changed := false
	for _, r := range refs {
		if r == product {
			changed = true
			continue
		}
		remaining = append(remaining, r)
	}
	return remaining, changed
}

func detectContentType(path string) string {
	if mtype, err := mimetype.DetectFile(path); err == nil {
		return mtype.String()
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			return byExt
		}
	}
	return DefaultContentType
}
