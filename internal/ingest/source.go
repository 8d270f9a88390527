package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// S3Client defines the S3 operations needed to read a source file.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// DefaultSearchDirs are tried in order when a local source is not found as
// given.
var DefaultSearchDirs = []string{"data", filepath.Join("..", "data"), ".", ".."}

var ErrSourceNotFound = errors.New("source file not found")

// SourceOpener opens CSV sources given either as a local path or as an
// s3://bucket/key URI.
type SourceOpener struct {
	client     S3Client
	searchDirs []string
}

// NewSourceOpener returns an opener. client may be nil when only local files
// are read.
func NewSourceOpener(client S3Client, searchDirs ...string) *SourceOpener {
	if len(searchDirs) == 0 {
		searchDirs = DefaultSearchDirs
	}
	return &SourceOpener{client: client, searchDirs: searchDirs}
}

// IsS3URI reports whether src names an S3 object.
func IsS3URI(src string) bool {
	return strings.HasPrefix(src, "s3://")
}

// ParseS3URI splits s3://bucket/key.
func ParseS3URI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 uri: %q", uri)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 uri %q needs a bucket and a key", uri)
	}
	return bucket, key, nil
}

// Open returns a reader for src and the resolved location it was read from.
func (o *SourceOpener) Open(ctx context.Context, src string) (io.ReadCloser, string, error) {
	if IsS3URI(src) {
		return o.openS3(ctx, src)
	}

	path, err := o.Resolve(src)
	if err != nil {
		return nil, "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening %s: %w", path, err)
	}
	return f, path, nil
}

// Resolve finds a local source, first as given and then inside each search
// directory.
func (o *SourceOpener) Resolve(src string) (string, error) {
	candidates := []string{src}
	if !filepath.IsAbs(src) {
		for _, dir := range o.searchDirs {
			candidates = append(candidates, filepath.Join(dir, src))
		}
	}

	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			log.Info().Str("path", path).Msg("Found CSV file")
			return path, nil
		}
	}
	return "", fmt.Errorf("%s: %w", src, ErrSourceNotFound)
}

func (o *SourceOpener) openS3(ctx context.Context, uri string) (io.ReadCloser, string, error) {
	if o.client == nil {
		return nil, "", fmt.Errorf("reading %s: no S3 client configured", uri)
	}
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return nil, "", err
	}

	out, err := o.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("getting %s: %w", uri, err)
	}
	log.Info().Str("bucket", bucket).Str("key", key).Msg("Reading CSV from S3")
	return out.Body, uri, nil
}
