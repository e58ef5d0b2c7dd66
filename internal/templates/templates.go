// Package templates loads the certificate template PDF the renderer draws on.
//
// The template is an immutable asset. Where it lives is a deployment
// detail, so the renderer only depends on the Source interface and main
// picks a concrete source from the configuration:
//
//	file → FileSource  (local disk, the default)
//	http → HTTPSource  (a static asset server / CDN)
//	s3   → S3Source    (an S3 or S3-compatible bucket)
package templates

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/aanand-mishra/certificates-api/internal/config"
)

var (
	// ErrTemplateUnavailable wraps every failure to fetch the template.
	ErrTemplateUnavailable = errors.New("certificate template unavailable")

	// ErrNotPDF is returned when the fetched bytes are not a PDF document.
	ErrNotPDF = errors.New("certificate template is not a PDF")
)

var pdfMagic = []byte("%PDF-")

// Source is the template contract. Load returns the complete template
// document. Callers must not modify the returned slice.
type Source interface {
	Load(ctx context.Context) ([]byte, error)
}

func checkPDF(data []byte, origin string) ([]byte, error) {
	if !bytes.HasPrefix(data, pdfMagic) {
		return nil, fmt.Errorf("%w: %s", ErrNotPDF, origin)
	}
	return data, nil
}

// FileSource reads the template from the local filesystem.
type FileSource struct {
	Path string
}

func (s FileSource) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrTemplateUnavailable, s.Path, err)
	}
	return checkPDF(data, s.Path)
}

// HTTPSource fetches the template with a GET request. Any non-2xx answer
// is a load failure.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s HTTPSource) Load(ctx context.Context) ([]byte, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("templates: build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load PDF template: %s: %v", ErrTemplateUnavailable, s.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: failed to load PDF template: %s (status %d)", ErrTemplateUnavailable, s.URL, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body of %s: %v", ErrTemplateUnavailable, s.URL, err)
	}
	return checkPDF(data, s.URL)
}

// GetObjectAPI is the slice of the S3 client S3Source needs. *s3.Client
// satisfies it; tests pass a fake.
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source downloads the template from a bucket.
type S3Source struct {
	Client GetObjectAPI
	Bucket string
	Key    string
}

func (s S3Source) Load(ctx context.Context) ([]byte, error) {
	origin := fmt.Sprintf("s3://%s/%s", s.Bucket, s.Key)

	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrTemplateUnavailable, origin, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrTemplateUnavailable, origin, err)
	}
	return checkPDF(data, origin)
}

// CachedSource remembers the first successful load. Failed loads are not
// cached, so a template that shows up later is picked up on the next call.
type CachedSource struct {
	src Source

	mu   sync.Mutex
	data []byte
}

// Cached wraps src in a CachedSource.
func Cached(src Source) *CachedSource {
	return &CachedSource{src: src}
}

func (c *CachedSource) Load(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.data != nil {
		return c.data, nil
	}

	data, err := c.src.Load(ctx)
	if err != nil {
		return nil, err
	}
	c.data = data
	return data, nil
}

// Reset drops the cached template.
func (c *CachedSource) Reset() {
	c.mu.Lock()
	c.data = nil
	c.mu.Unlock()
}

// FromConfig builds the Source described by cfg. s3Client is only used
// for the s3 kind and may be nil otherwise.
func FromConfig(cfg config.Template, s3Client GetObjectAPI) (Source, error) {
	switch cfg.Kind {
	case config.TemplateKindFile:
		return FileSource{Path: cfg.Path}, nil
	case config.TemplateKindHTTP:
		return HTTPSource{URL: cfg.URL, Client: &http.Client{Timeout: cfg.Timeout}}, nil
	case config.TemplateKindS3:
		if s3Client == nil {
			return nil, errors.New("templates: s3 template requires an S3 client")
		}
		return S3Source{Client: s3Client, Bucket: cfg.S3Bucket, Key: cfg.S3Key}, nil
	default:
		return nil, fmt.Errorf("templates: unknown kind %q", cfg.Kind)
	}
}
