package credentials

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awscredentials "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/safeserve/safeserve-go/pkg/encryption"
)

// S3API is the subset of the S3 client used by S3Store
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store keeps one sealed credential object per profile in an S3 bucket
type S3Store struct {
	client     S3API
	bucket     string
	key        string
	encryption encryption.Service
	mutex      sync.RWMutex
}

// NewS3Store creates an S3 store, verifying that the bucket is reachable
func NewS3Store(ctx context.Context, cfg S3Config, profile string, enc encryption.Service) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket name is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	var awsCfg aws.Config
	var err error
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		awsCfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
			config.WithCredentialsProvider(awscredentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		)
	} else {
		awsCfg, err = config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var client *s3.Client
	if cfg.Endpoint != "" {
		// S3-compatible services
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)}); err != nil {
		return nil, fmt.Errorf("failed to access S3 bucket '%s': %w", cfg.Bucket, err)
	}

	slog.Debug("S3 credential store initialized",
		slog.String("bucket", cfg.Bucket), slog.String("region", cfg.Region))

	return NewS3StoreWithClient(client, cfg.Bucket, cfg.Prefix, profile, enc), nil
}

// NewS3StoreWithClient creates an S3 store around an existing client
func NewS3StoreWithClient(client S3API, bucket, prefix, profile string, enc encryption.Service) *S3Store {
	if prefix == "" {
		prefix = "credentials/"
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	if enc == nil {
		enc = encryption.NewNoopService()
	}
	return &S3Store{
		client:     client,
		bucket:     bucket,
		key:        prefix + sanitizeProfile(profile) + ".json",
		encryption: enc,
	}
}

// AccessToken returns the stored access credential
func (s *S3Store) AccessToken(ctx context.Context) (string, error) {
	pair, err := s.Tokens(ctx)
	if err != nil {
		return "", err
	}
	return pick(pair.Access)
}

// RefreshToken returns the stored refresh credential
func (s *S3Store) RefreshToken(ctx context.Context) (string, error) {
	pair, err := s.Tokens(ctx)
	if err != nil {
		return "", err
	}
	return pick(pair.Refresh)
}

// Tokens downloads and opens the profile's object
func (s *S3Store) Tokens(ctx context.Context) (Pair, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		if isNotFound(err) {
			return Pair{}, ErrNotFound
		}
		return Pair{}, fmt.Errorf("failed to load credentials from S3: %w", err)
	}
	defer func() {
		_ = result.Body.Close()
	}()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return Pair{}, fmt.Errorf("failed to read S3 response: %w", err)
	}

	var stored storedCredentials
	if err := json.Unmarshal(data, &stored); err != nil {
		return Pair{}, fmt.Errorf("failed to unmarshal credentials object: %w", err)
	}
	return unseal(ctx, s.encryption, &stored)
}

// SetTokens uploads the sealed pair as a single object
func (s *S3Store) SetTokens(ctx context.Context, pair Pair) error {
	stored, err := seal(ctx, s.encryption, pair)
	if err != nil {
		return err
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials object: %w", err)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to save credentials to S3: %w", err)
	}
	return nil
}

// Clear deletes the profile's object
func (s *S3Store) Clear(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete credentials from S3: %w", err)
	}
	return nil
}

// Close is a no-op; the S3 client holds no resources
func (s *S3Store) Close() error {
	return nil
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	return strings.Contains(err.Error(), "NoSuchKey") || strings.Contains(err.Error(), "NotFound")
}

var _ Store = (*S3Store)(nil)
