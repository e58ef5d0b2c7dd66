// Package output stores rendered certificates and bundles them for download.
package output

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/aanand-mishra/certificates-api/internal/config"
)

const contentTypePDF = "application/pdf"

// File is one named document.
type File struct {
	Name string
	Data []byte
}

// Sink persists a document and reports where it ended up.
type Sink interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// NewBatchID returns a fresh identifier for a render request.
func NewBatchID() string {
	return uuid.NewString()
}

// BatchName names the index-th (0-based) document of a batch.
func BatchName(batchID string, index int) string {
	return fmt.Sprintf("date-certificates-%s-%02d.pdf", batchID, index+1)
}

// StudentName names the single certificate of one student.
func StudentName(studentID int64) string {
	return fmt.Sprintf("date-certificate-student-%d.pdf", studentID)
}

// DirSink writes documents into a local directory.
type DirSink struct {
	Dir string
}

func (s DirSink) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// Names come from callers; never let them escape the directory.
	name = filepath.Base(name)

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("DirSink.Save: create dir: %w", err)
	}

	target := filepath.Join(s.Dir, name)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("DirSink.Save: write %s: %w", target, err)
	}
	return target, nil
}

// UploadAPI is the part of *manager.Uploader S3Sink uses.
type UploadAPI interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Sink uploads documents under Prefix in Bucket.
type S3Sink struct {
	Uploader UploadAPI
	Bucket   string
	Prefix   string
}

// NewS3Sink wires an S3Sink to a real S3 client.
func NewS3Sink(client *s3.Client, bucket, prefix string) S3Sink {
	return S3Sink{Uploader: manager.NewUploader(client), Bucket: bucket, Prefix: prefix}
}

func (s S3Sink) Save(ctx context.Context, name string, data []byte) (string, error) {
	key := path.Join(strings.Trim(s.Prefix, "/"), path.Base(name))

	out, err := s.Uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentTypePDF),
	})
	if err != nil {
		return "", fmt.Errorf("S3Sink.Save: upload s3://%s/%s: %w", s.Bucket, key, err)
	}

	if out != nil && out.Location != "" {
		return out.Location, nil
	}
	return fmt.Sprintf("s3://%s/%s", s.Bucket, key), nil
}

// SaveAll stores files in order and returns their locations. It stops at
// the first failure.
func SaveAll(ctx context.Context, sink Sink, files []File) ([]string, error) {
	locations := make([]string, 0, len(files))
	for _, f := range files {
		loc, err := sink.Save(ctx, f.Name, f.Data)
		if err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	return locations, nil
}

// Zip bundles files into a single zip archive, preserving order.
func Zip(files []File, modified time.Time) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, f := range files {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return nil, fmt.Errorf("Zip: add %s: %w", f.Name, err)
		}
		if _, err := w.Write(f.Data); err != nil {
			return nil, fmt.Errorf("Zip: write %s: %w", f.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("Zip: close: %w", err)
	}
	return buf.Bytes(), nil
}

// FromConfig picks the sink described by cfg. An S3 bucket wins over the
// directory; client may be nil when no bucket is configured.
func FromConfig(cfg config.Output, client *s3.Client) (Sink, error) {
	if cfg.S3Bucket == "" {
		return DirSink{Dir: cfg.Dir}, nil
	}
	if client == nil {
		return nil, fmt.Errorf("output: bucket %q configured without an S3 client", cfg.S3Bucket)
	}
	return NewS3Sink(client, cfg.S3Bucket, cfg.S3Prefix), nil
}
