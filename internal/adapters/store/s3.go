package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"golang.org/x/sync/errgroup"

	"github.com/okian/dawgbowl/internal/domain/model"
)

// S3API is the subset of the S3 client the store uses.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

const defaultS3Fetchers = 8

// S3Store keeps one object per lineup under bucket/prefix.
type S3Store struct {
	client   S3API
	bucket   string
	prefix   string
	fetchers int
}

// NewS3Store stores objects as <prefix><key>.json.
func NewS3Store(client S3API, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix, fetchers: defaultS3Fetchers}
}

func (s *S3Store) objectKey(key string) string {
	return s.prefix + key + fileExt
}

func isMissing(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

func (s *S3Store) Write(ctx context.Context, lineup model.SubmittedLineup) error {
	data, err := encode(lineup)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(lineup.Key)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("%w: put %s: %w", ErrStorageUnavailable, lineup.Key, err)
	}
	return nil
}

func (s *S3Store) read(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if isMissing(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("%w: get %s: %w", ErrStorageUnavailable, key, err)
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrStorageUnavailable, key, err)
	}
	return data, nil
}

func (s *S3Store) Get(ctx context.Context, key string) (model.SubmittedLineup, error) {
	if err := checkKey(key); err != nil {
		return model.SubmittedLineup{}, err
	}
	data, err := s.read(ctx, key)
	if err != nil {
		return model.SubmittedLineup{}, err
	}
	return decode(key, data)
}

// ListAll pages through the prefix and fetches objects concurrently.
func (s *S3Store) ListAll(ctx context.Context) (Listing, error) {
	var keys []string
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return Listing{}, fmt.Errorf("%w: list: %w", ErrStorageUnavailable, err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), s.prefix)
			if strings.Contains(name, "/") || !strings.HasSuffix(name, fileExt) {
				continue
			}
			keys = append(keys, strings.TrimSuffix(name, fileExt))
		}
	}

	var (
		mu  sync.Mutex
		out Listing
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fetchers)
	for _, key := range keys {
		g.Go(func() error {
			data, err := s.read(gctx, key)
			if errors.Is(err, ErrNotFound) {
				// deleted between list and get
				return nil
			}
			if err != nil {
				return err
			}
			l, decErr := decode(key, data)
			mu.Lock()
			defer mu.Unlock()
			if decErr != nil {
				out.addCorrupt(key, decErr)
				return nil
			}
			out.Lineups = append(out.Lineups, l)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Listing{}, err
	}
	out.sort()
	return out, nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	objKey := aws.String(s.objectKey(key))
	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: objKey}); err != nil {
		if isMissing(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return fmt.Errorf("%w: head %s: %w", ErrStorageUnavailable, key, err)
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: objKey}); err != nil {
		return fmt.Errorf("%w: delete %s: %w", ErrStorageUnavailable, key, err)
	}
	return nil
}
