package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	appConfig "github.com/bookyourdock/bookyourdock-api/config"
)

var (
	// ErrBucketNotFound is returned when the target bucket does not exist yet
	ErrBucketNotFound = errors.New("bucket not found")
	// ErrObjectExists is returned by a non-upsert upload onto an existing key
	ErrObjectExists = errors.New("object already exists")
)

// BlobStore defines the object storage operations the API needs
type BlobStore interface {
	// Upload stores body under key. Without upsert an existing key fails with ErrObjectExists.
	Upload(ctx context.Context, key string, body []byte, contentType string, upsert bool) error
	// PublicURL returns the retrieval URL for key
	PublicURL(key string) string
	// CreateBucket creates a publicly readable bucket, succeeding if it already exists
	CreateBucket(ctx context.Context) error
}

// S3Service implements BlobStore on AWS S3 or an S3-compatible endpoint
type S3Service struct {
	client    *s3.Client
	bucket    string
	region    string
	endpoint  string
	publicURL string
}

var blobStoreInstance BlobStore

// InitS3Service initializes the S3 service from the application configuration
func InitS3Service(cfg *appConfig.Config) (BlobStore, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.AWSRegion),
	}
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)))
	}

	awsConfig, err := config.LoadDefaultConfig(context.TODO(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.AWSS3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.AWSS3Endpoint)
			// S3-compatible stores rarely support virtual-hosted buckets
			o.UsePathStyle = true
		}
	})

	blobStoreInstance = &S3Service{
		client:    client,
		bucket:    cfg.AWSS3Bucket,
		region:    cfg.AWSRegion,
		endpoint:  strings.TrimRight(cfg.AWSS3Endpoint, "/"),
		publicURL: strings.TrimRight(cfg.AWSS3PublicURL, "/"),
	}

	return blobStoreInstance, nil
}

// GetBlobStore returns the initialized blob store instance
func GetBlobStore() BlobStore {
	return blobStoreInstance
}

// SetBlobStore sets the blob store instance (primarily for testing)
func SetBlobStore(store BlobStore) {
	blobStoreInstance = store
}

// Upload uploads body to S3 under key
func (s *S3Service) Upload(ctx context.Context, key string, body []byte, contentType string, upsert bool) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	}
	if !upsert {
		input.IfNoneMatch = aws.String("*")
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return classifyS3Error(err)
	}

	log.Printf("Uploaded %d bytes to s3://%s/%s", len(body), s.bucket, key)
	return nil
}

// PublicURL returns the public URL of key
func (s *S3Service) PublicURL(key string) string {
	switch {
	case s.publicURL != "":
		return fmt.Sprintf("%s/%s", s.publicURL, key)
	case s.endpoint != "":
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
	}
}

// CreateBucket creates the configured bucket and opens it to public reads
func (s *S3Service) CreateBucket(ctx context.Context) error {
	input := &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}
	if s.region != "" && s.region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.region),
		}
	}

	_, err := s.client.CreateBucket(ctx, input)
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}

	log.Printf("Created bucket %s", s.bucket)
	return s.allowPublicReads(ctx)
}

// allowPublicReads lets anyone fetch objects so PublicURL links resolve
func (s *S3Service) allowPublicReads(ctx context.Context) error {
	_, err := s.client.PutPublicAccessBlock(ctx, &s3.PutPublicAccessBlockInput{
		Bucket: aws.String(s.bucket),
		PublicAccessBlockConfiguration: &types.PublicAccessBlockConfiguration{
			BlockPublicAcls:       aws.Bool(false),
			BlockPublicPolicy:     aws.Bool(false),
			IgnorePublicAcls:      aws.Bool(false),
			RestrictPublicBuckets: aws.Bool(false),
		},
	})
	if err != nil {
		// Most S3-compatible stores have no public access block
		log.Printf("Could not lift public access block on %s: %v", s.bucket, err)
	}

	policy, err := PublicReadPolicy(s.bucket)
	if err != nil {
		return err
	}
	if _, err := s.client.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
		Bucket: aws.String(s.bucket),
		Policy: aws.String(policy),
	}); err != nil {
		return fmt.Errorf("failed to make bucket %s public: %w", s.bucket, err)
	}

	log.Printf("Bucket %s is publicly readable", s.bucket)
	return nil
}

type bucketPolicy struct {
	Version   string                  `json:"Version"`
	Statement []bucketPolicyStatement `json:"Statement"`
}

type bucketPolicyStatement struct {
	Sid       string `json:"Sid"`
	Effect    string `json:"Effect"`
	Principal string `json:"Principal"`
	Action    string `json:"Action"`
	Resource  string `json:"Resource"`
}

// PublicReadPolicy returns a bucket policy granting anonymous GetObject on every key
func PublicReadPolicy(bucket string) (string, error) {
	policy := bucketPolicy{
		Version: "2012-10-17",
		Statement: []bucketPolicyStatement{{
			Sid:       "PublicReadGetObject",
			Effect:    "Allow",
			Principal: "*",
			Action:    "s3:GetObject",
			Resource:  fmt.Sprintf("arn:aws:s3:::%s/*", bucket),
		}},
	}
	body, err := json.Marshal(policy)
	if err != nil {
		return "", fmt.Errorf("failed to encode bucket policy: %w", err)
	}
	return string(body), nil
}

func classifyS3Error(err error) error {
	var noBucket *types.NoSuchBucket
	if errors.As(err, &noBucket) {
		return fmt.Errorf("%w: %v", ErrBucketNotFound, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchBucket":
			return fmt.Errorf("%w: %v", ErrBucketNotFound, err)
		case "PreconditionFailed", "ConditionalRequestConflict":
			return fmt.Errorf("%w: %v", ErrObjectExists, err)
		}
	}

	var respErr interface{ HTTPStatusCode() int }
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusPreconditionFailed {
		return fmt.Errorf("%w: %v", ErrObjectExists, err)
	}

	return fmt.Errorf("failed to upload to S3: %w", err)
}

// uploadWithBucketRetry uploads body, creating the bucket and retrying once
// when the bucket does not exist yet
func uploadWithBucketRetry(ctx context.Context, store BlobStore, key string, body []byte, contentType string, upsert bool) error {
	err := store.Upload(ctx, key, body, contentType, upsert)
	if err == nil || !errors.Is(err, ErrBucketNotFound) {
		return err
	}

	log.Printf("Bucket missing while uploading %s, creating it", key)
	if bucketErr := store.CreateBucket(ctx); bucketErr != nil {
		return bucketErr
	}
	return store.Upload(ctx, key, body, contentType, upsert)
}
