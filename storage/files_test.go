package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockObject struct {
	body        []byte
	contentType string
	metadata    map[string]string
}

// mockS3 is an in-memory S3API implementation for tests. It supports
// failure injection per key and paginated listings.
type mockS3 struct {
	mu       sync.Mutex
	objects  map[string]*mockObject
	failPut  map[string]error
	failHead map[string]error
	pageSize int
	copies   int
}

func newMockS3() *mockS3 {
	return &mockS3{
		objects:  make(map[string]*mockObject),
		failPut:  make(map[string]error),
		failHead: make(map[string]error),
	}
}

func (m *mockS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := aws.ToString(params.Key)
	if err := m.failPut[key]; err != nil {
		return nil, err
	}
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	m.objects[key] = &mockObject{
		body:        body,
		contentType: aws.ToString(params.ContentType),
		metadata:    params.Metadata,
	}
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3) CopyObject(_ context.Context, params *s3.CopyObjectInput, _ ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := aws.ToString(params.Key)
	obj, ok := m.objects[key]
	if !ok {
		return nil, errors.New("NoSuchKey: source missing")
	}
	m.copies++
	if params.MetadataDirective == types.MetadataDirectiveReplace {
		obj.metadata = params.Metadata
	}
	return &s3.CopyObjectOutput{}, nil
}

func (m *mockS3) DeleteObject(_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (m *mockS3) HeadObject(_ context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := aws.ToString(params.Key)
	if err := m.failHead[key]; err != nil {
		return nil, err
	}
	obj, ok := m.objects[key]
	if !ok {
		return nil, errors.New("NotFound: no such object")
	}
	return &s3.HeadObjectOutput{
		ContentType: aws.String(obj.contentType),
		Metadata:    obj.metadata,
	}, nil
}

func (m *mockS3) ListObjectsV2(_ context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := aws.ToString(params.Prefix)
	var keys []string
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	start := 0
	if tok := aws.ToString(params.ContinuationToken); tok != "" {
		for i, key := range keys {
			if key > tok {
				start = i
				break
			}
		}
	}
	end := len(keys)
	truncated := false
	if m.pageSize > 0 && start+m.pageSize < end {
		end = start + m.pageSize
		truncated = true
	}
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(truncated)}
	for _, key := range keys[start:end] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
	}
	if truncated {
		out.NextContinuationToken = aws.String(keys[end-1])
	}
	return out, nil
}

func writeTestFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRemoteKey(t *testing.T) {
	root := filepath.Join("/tmp", "repo")
	assert.Equal(t, "org/foo/bar.jar", RemoteKey(filepath.Join(root, "org", "foo", "bar.jar"), root))
	assert.Equal(t, "org/foo/maven-metadata.xml", RemoteKey("org/foo/maven-metadata.xml", root))
	assert.Equal(t, "/elsewhere/file.txt", RemoteKey("/elsewhere/file.txt", root))
}

func TestUploadFilesNewObjects(t *testing.T) {
	dir := t.TempDir()
	p1 := writeTestFile(t, dir, "org/foo/1.0/foo-1.0.pom", "<project/>")
	p2 := writeTestFile(t, dir, "org/foo/1.0/foo-1.0.jar", "jar-bytes")

	mock := newMockS3()
	client := NewWithAPI(mock)

	uploaded, failed := client.UploadFiles(context.Background(), []string{p1, p2}, "bucket", "prod-1.0", dir)
	require.Empty(t, failed)
	assert.ElementsMatch(t, []string{"org/foo/1.0/foo-1.0.pom", "org/foo/1.0/foo-1.0.jar"}, uploaded)

	obj := mock.objects["org/foo/1.0/foo-1.0.pom"]
	require.NotNil(t, obj)
	assert.Equal(t, "<project/>", string(obj.body))
	assert.Equal(t, "prod-1.0", obj.metadata[productsMetaKey])
	assert.NotEmpty(t, obj.contentType)
}

func TestUploadFilesAddsProductReference(t *testing.T) {
	dir := t.TempDir()
	p := writeTestFile(t, dir, "org/foo/1.0/foo-1.0.jar", "jar-bytes")

	mock := newMockS3()
	mock.objects["org/foo/1.0/foo-1.0.jar"] = &mockObject{
		body:        []byte("original"),
		contentType: "application/java-archive",
		metadata:    map[string]string{productsMetaKey: "other-2.0"},
	}
	client := NewWithAPI(mock)

	uploaded, failed := client.UploadFiles(context.Background(), []string{p}, "bucket", "prod-1.0", dir)
	require.Empty(t, failed)
	require.Len(t, uploaded, 1)

	obj := mock.objects["org/foo/1.0/foo-1.0.jar"]
	assert.Equal(t, "original", string(obj.body), "existing content must not be rewritten")
	assert.Equal(t, "other-2.0,prod-1.0", obj.metadata[productsMetaKey])
}

func TestUploadFilesAlreadyReferenced(t *testing.T) {
	dir := t.TempDir()
	p := writeTestFile(t, dir, "org/foo/1.0/foo-1.0.jar", "jar-bytes")

	mock := newMockS3()
	mock.objects["org/foo/1.0/foo-1.0.jar"] = &mockObject{
		body:     []byte("original"),
		metadata: map[string]string{productsMetaKey: "prod-1.0"},
	}
	client := NewWithAPI(mock)

	uploaded, failed := client.UploadFiles(context.Background(), []string{p}, "bucket", "prod-1.0", dir)
	require.Empty(t, failed)
	require.Len(t, uploaded, 1)
	assert.Zero(t, mock.copies, "idempotent upload must not touch the object")
}

func TestUploadFilesPartialFailure(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, rel := range []string{"a/1.txt", "a/2.txt", "a/3.txt"} {
		paths = append(paths, writeTestFile(t, dir, rel, rel))
	}

	mock := newMockS3()
	mock.failPut["a/2.txt"] = errors.New("boom")
	client := NewWithAPI(mock)

	uploaded, failed := client.UploadFiles(context.Background(), paths, "bucket", "prod", dir)
	assert.ElementsMatch(t, []string{"a/1.txt", "a/3.txt"}, uploaded)
	assert.Equal(t, []string{"a/2.txt"}, failed)
}

func TestUploadMetadataFilesOverwrites(t *testing.T) {
	dir := t.TempDir()
	p := writeTestFile(t, dir, "org/foo/maven-metadata.xml", "<metadata>new</metadata>")

	mock := newMockS3()
	mock.objects["org/foo/maven-metadata.xml"] = &mockObject{body: []byte("<metadata>old</metadata>")}
	client := NewWithAPI(mock)

	uploaded, failed := client.UploadMetadataFiles(context.Background(), []string{p}, "bucket", dir)
	require.Empty(t, failed)
	assert.Equal(t, []string{"org/foo/maven-metadata.xml"}, uploaded)

	obj := mock.objects["org/foo/maven-metadata.xml"]
	assert.Equal(t, "<metadata>new</metadata>", string(obj.body))
	assert.Empty(t, obj.metadata[productsMetaKey], "metadata documents carry no product reference")
}

func TestDeleteFilesUnreferencedIsRemoved(t *testing.T) {
	mock := newMockS3()
	mock.objects["a/1.txt"] = &mockObject{metadata: map[string]string{productsMetaKey: "prod"}}
	client := NewWithAPI(mock)

	deleted, failed := client.DeleteFiles(context.Background(), []string{"a/1.txt"}, "bucket", "prod", "/repo")
	require.Empty(t, failed)
	assert.Equal(t, []string{"a/1.txt"}, deleted)
	assert.NotContains(t, mock.objects, "a/1.txt")
}

func TestDeleteFilesStillReferencedIsKept(t *testing.T) {
	mock := newMockS3()
	mock.objects["a/1.txt"] = &mockObject{metadata: map[string]string{productsMetaKey: "other,prod"}}
	client := NewWithAPI(mock)

	deleted, failed := client.DeleteFiles(context.Background(), []string{"a/1.txt"}, "bucket", "prod", "/repo")
	assert.Empty(t, failed)
	assert.Empty(t, deleted, "shared objects appear in neither slice")

	obj := mock.objects["a/1.txt"]
	require.NotNil(t, obj)
	assert.Equal(t, "other", obj.metadata[productsMetaKey])
}

func TestDeleteFilesMissingKeySucceeds(t *testing.T) {
	client := NewWithAPI(newMockS3())

	deleted, failed := client.DeleteFiles(context.Background(), []string{"gone/file.txt"}, "bucket", "prod", "/repo")
	assert.Empty(t, failed)
	assert.Equal(t, []string{"gone/file.txt"}, deleted)
}

func TestDeleteFilesEmptyProductIsUnconditional(t *testing.T) {
	mock := newMockS3()
	mock.objects["a/maven-metadata.xml"] = &mockObject{metadata: map[string]string{productsMetaKey: "prod"}}
	client := NewWithAPI(mock)

	deleted, failed := client.DeleteFiles(context.Background(), []string{"a/maven-metadata.xml"}, "bucket", "", "/repo")
	assert.Empty(t, failed)
	assert.Equal(t, []string{"a/maven-metadata.xml"}, deleted)
	assert.NotContains(t, mock.objects, "a/maven-metadata.xml")
}

func TestDeleteFilesHeadFailure(t *testing.T) {
	mock := newMockS3()
	mock.objects["a/1.txt"] = &mockObject{}
	mock.failHead["a/1.txt"] = errors.New("throttled")
	client := NewWithAPI(mock)

	deleted, failed := client.DeleteFiles(context.Background(), []string{"a/1.txt"}, "bucket", "prod", "/repo")
	assert.Empty(t, deleted)
	assert.Equal(t, []string{"a/1.txt"}, failed)
}

func TestListFilesEmptyBucketRejected(t *testing.T) {
	client := NewWithAPI(newMockS3())
	_, err := client.ListFiles(context.Background(), "", "org/", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestHeadMapsNotFound(t *testing.T) {
	client := NewWithAPI(newMockS3())
	_, err := client.head(context.Background(), "bucket", "missing")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestListFilesSuffixAndPagination(t *testing.T) {
	mock := newMockS3()
	mock.pageSize = 2
	for _, key := range []string{
		"org/foo/1.0/foo-1.0.pom",
		"org/foo/1.0/foo-1.0.jar",
		"org/foo/2.0/foo-2.0.pom",
		"org/foo/2.0/foo-2.0.jar",
		"org/bar/1.0/bar-1.0.pom",
	} {
		mock.objects[key] = &mockObject{}
	}
	client := NewWithAPI(mock)

	keys, err := client.ListFiles(context.Background(), "bucket", "org/foo/", ".pom")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"org/foo/1.0/foo-1.0.pom", "org/foo/2.0/foo-2.0.pom"}, keys)

	all, err := client.ListFiles(context.Background(), "bucket", "org/", "")
	require.NoError(t, err)
	assert.Len(t, all, 5)
}
