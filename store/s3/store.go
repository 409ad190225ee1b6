// Package s3 stores ledger snapshots as JSON objects in an S3-compatible
// bucket (AWS S3 or MinIO), one object per profile.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/xraph/larder"
	"github.com/xraph/larder/snapshot"
	"github.com/xraph/larder/store"
)

// DefaultPrefix is the key prefix snapshots are written under.
const DefaultPrefix = "larder/profiles/"

const suffix = ".json"

var _ store.Store = (*Store)(nil)

// Config holds the bucket coordinates. Credentials fall back to the default
// AWS chain when AccessKeyID is empty.
type Config struct {
	Region          string
	Bucket          string
	Endpoint        string // optional; set for MinIO and other S3-compatible hosts
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool
	Prefix          string // defaults to DefaultPrefix
}

// Store implements store.Store on a single bucket.
type Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// New builds a store from cfg.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("larder/s3: bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("larder/s3: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return newStore(client, cfg.Bucket, cfg.Prefix), nil
}

func newStore(client *s3.Client, bucket, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Store{client: client, bucket: bucket, prefix: prefix}
}

// Client returns the underlying S3 client.
func (s *Store) Client() *s3.Client { return s.client }

func (s *Store) key(profile string) string {
	return s.prefix + profile + suffix
}

// LoadSnapshot fetches and decodes the profile's object.
func (s *Store) LoadSnapshot(ctx context.Context, profile string) (*snapshot.Snapshot, error) {
	key := s.key(profile)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", larder.ErrProfileNotFound, profile)
		}
		return nil, fmt.Errorf("larder/s3: get %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("larder/s3: read %s: %w", key, err)
	}

	return snapshot.Decode(data)
}

// SaveSnapshot overwrites the profile's object. A single PutObject is
// atomic from a reader's point of view.
func (s *Store) SaveSnapshot(ctx context.Context, snap *snapshot.Snapshot) error {
	data, err := snapshot.Encode(snap)
	if err != nil {
		return err
	}

	key := s.key(snap.Profile)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		Metadata:    map[string]string{"snapshot-version": fmt.Sprintf("%d", snap.Version)},
	})
	if err != nil {
		return fmt.Errorf("larder/s3: put %s: %w", key, err)
	}

	return nil
}

// DeleteSnapshot removes the profile's object. S3 deletes are idempotent,
// so existence is checked with a HEAD first.
func (s *Store) DeleteSnapshot(ctx context.Context, profile string) error {
	key := s.key(profile)
	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &key}); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", larder.ErrProfileNotFound, profile)
		}
		return fmt.Errorf("larder/s3: head %s: %w", key, err)
	}

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &s.bucket, Key: &key}); err != nil {
		return fmt.Errorf("larder/s3: delete %s: %w", key, err)
	}

	return nil
}

// ListProfiles lists every object under the prefix, following continuation
// tokens.
func (s *Store) ListProfiles(ctx context.Context) ([]string, error) {
	var (
		profiles []string
		token    *string
	)
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            &s.bucket,
			Prefix:            &s.prefix,
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("larder/s3: list: %w", err)
		}
		for _, obj := range out.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), s.prefix)
			if !strings.HasSuffix(name, suffix) || strings.Contains(name, "/") {
				continue
			}
			profiles = append(profiles, strings.TrimSuffix(name, suffix))
		}
		if aws.ToBool(out.IsTruncated) && out.NextContinuationToken != nil {
			token = out.NextContinuationToken
			continue
		}
		break
	}
	sort.Strings(profiles)

	return profiles, nil
}

// Migrate is a no-op; buckets are provisioned out of band.
func (s *Store) Migrate(_ context.Context) error {
	return nil
}

// Ping lists at most one key to confirm the bucket is reachable.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  &s.bucket,
		Prefix:  &s.prefix,
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return fmt.Errorf("%w: larder/s3: ping: %w", larder.ErrStoreNotReady, err)
	}
	return nil
}

// Close is a no-op; the S3 client holds no long-lived connections of its own.
func (s *Store) Close() error {
	return nil
}

func isNotFound(err error) bool {
	var re *awshttp.ResponseError
	return errors.As(err, &re) && re.HTTPStatusCode() == http.StatusNotFound
}
