package templates

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/certificates-api/internal/config"
)

const fakePDF = "%PDF-1.3\n%fake template\n"

type countingSource struct {
	calls int
	err   error
}

func (s *countingSource) Load(context.Context) ([]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []byte(fakePDF), nil
}

type fakeS3 struct {
	bucket, key string
	body        string
	err         error
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.bucket, f.key = *in.Bucket, *in.Key
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.body))}, nil
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "date.pdf")
	require.NoError(t, os.WriteFile(path, []byte(fakePDF), 0o600))

	data, err := FileSource{Path: path}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fakePDF, string(data))

	_, err = FileSource{Path: filepath.Join(dir, "missing.pdf")}.Load(context.Background())
	assert.ErrorIs(t, err, ErrTemplateUnavailable)
}

func TestFileSourceRejectsNonPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "date.pdf")
	require.NoError(t, os.WriteFile(path, []byte("<html>not found</html>"), 0o600))

	_, err := FileSource{Path: path}.Load(context.Background())
	assert.ErrorIs(t, err, ErrNotPDF)
}

func TestHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/templates_certificates/date.pdf" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = io.WriteString(w, fakePDF)
	}))
	defer srv.Close()

	data, err := HTTPSource{URL: srv.URL + "/templates_certificates/date.pdf"}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fakePDF, string(data))

	_, err = HTTPSource{URL: srv.URL + "/missing.pdf"}.Load(context.Background())
	require.ErrorIs(t, err, ErrTemplateUnavailable)
	assert.Contains(t, err.Error(), "failed to load PDF template")
	assert.Contains(t, err.Error(), "status 404")
}

func TestS3Source(t *testing.T) {
	client := &fakeS3{body: fakePDF}
	src := S3Source{Client: client, Bucket: "assets", Key: "templates/date.pdf"}

	data, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fakePDF, string(data))
	assert.Equal(t, "assets", client.bucket)
	assert.Equal(t, "templates/date.pdf", client.key)

	client.err = errors.New("access denied")
	_, err = src.Load(context.Background())
	assert.ErrorIs(t, err, ErrTemplateUnavailable)
}

func TestCachedLoadsOnce(t *testing.T) {
	inner := &countingSource{}
	src := Cached(inner)

	for i := 0; i < 3; i++ {
		_, err := src.Load(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 1, inner.calls)

	src.Reset()
	_, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedDoesNotCacheFailures(t *testing.T) {
	inner := &countingSource{err: ErrTemplateUnavailable}
	src := Cached(inner)

	_, err := src.Load(context.Background())
	require.Error(t, err)

	inner.err = nil
	_, err = src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestFromConfig(t *testing.T) {
	src, err := FromConfig(config.Template{Kind: config.TemplateKindFile, Path: "date.pdf"}, nil)
	require.NoError(t, err)
	assert.Equal(t, FileSource{Path: "date.pdf"}, src)

	src, err = FromConfig(config.Template{Kind: config.TemplateKindHTTP, URL: "http://cdn/date.pdf"}, nil)
	require.NoError(t, err)
	assert.IsType(t, HTTPSource{}, src)

	_, err = FromConfig(config.Template{Kind: config.TemplateKindS3, S3Bucket: "b", S3Key: "k"}, nil)
	assert.Error(t, err)

	src, err = FromConfig(config.Template{Kind: config.TemplateKindS3, S3Bucket: "b", S3Key: "k"}, &fakeS3{})
	require.NoError(t, err)
	assert.IsType(t, S3Source{}, src)
}
