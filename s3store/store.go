// Package s3store implements signet.ObjectStore on top of the AWS SDK for Go v2.
// It works against Amazon S3 and against S3-compatible services reachable
// through a custom endpoint.
package s3store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/sagarc03/signet"
)

type Config struct {
	Region    string
	Bucket    string
	Endpoint  string
	AccessKey string
	SecretKey string
	// UsePathStyle addresses the bucket as a path segment instead of a
	// subdomain. Most S3-compatible services need it.
	UsePathStyle bool
}

// Store implements signet.ObjectStore using Amazon S3.
type Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	signer  *v4.Signer
	bucket  string
	region  string
}

// New creates an S3-backed store. Static credentials are used when an access
// key is configured; otherwise the default AWS credential chain applies.
//
// SDK retries are disabled. A failed storage call surfaces to the caller as is.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRetryer(func() aws.Retryer { return aws.NopRetryer{} }),
		awsconfig.WithRequestChecksumCalculation(aws.RequestChecksumCalculationWhenRequired),
	}
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return NewFromClient(client, cfg.Bucket), nil
}

// NewFromClient wraps an already configured client.
func NewFromClient(client *s3.Client, bucket string) *Store {
	return &Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		signer:  v4.NewSigner(),
		bucket:  bucket,
		region:  client.Options().Region,
	}
}

// PresignPut signs a PutObject for key. Content-Type is part of the signature,
// so the uploader must send exactly contentType. No ACL is set; objects stay private.
func (s *Store) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (signet.PresignedRequest, error) {
	issued := time.Now()
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(o *s3.PresignOptions) {
		o.Expires = ttl
		o.Presigner = contentTypeSigner{signer: s.signer, contentType: contentType}
	})
	if err != nil {
		return signet.PresignedRequest{}, fmt.Errorf("s3 presign put bucket=%s key=%s: %w", s.bucket, key, err)
	}

	return signet.PresignedRequest{URL: req.URL, Method: req.Method, ExpiresAt: issued.Add(ttl)}, nil
}

// contentTypeSigner puts Content-Type on the request before signing it. The
// presign client leaves the header out of the signature otherwise.
type contentTypeSigner struct {
	signer      *v4.Signer
	contentType string
}

func (c contentTypeSigner) PresignHTTP(
	ctx context.Context, creds aws.Credentials, r *http.Request,
	payloadHash, service, region string, signingTime time.Time,
	optFns ...func(*v4.SignerOptions),
) (string, http.Header, error) {
	r.Header.Set("Content-Type", c.contentType)
	return c.signer.PresignHTTP(ctx, creds, r, payloadHash, service, region, signingTime, optFns...)
}

func (s *Store) PresignGet(ctx context.Context, key string, ttl time.Duration) (signet.PresignedRequest, error) {
	issued := time.Now()
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(o *s3.PresignOptions) {
		o.Expires = ttl
	})
	if err != nil {
		return signet.PresignedRequest{}, fmt.Errorf("s3 presign get bucket=%s key=%s: %w", s.bucket, key, err)
	}

	return signet.PresignedRequest{URL: req.URL, Method: req.Method, ExpiresAt: issued.Add(ttl)}, nil
}

func (s *Store) Head(ctx context.Context, key string) (signet.ObjectInfo, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return signet.ObjectInfo{}, s.wrapErr("head object", key, err)
	}

	return signet.ObjectInfo{
		Exists:        true,
		ContentType:   aws.ToString(out.ContentType),
		ContentLength: aws.ToInt64(out.ContentLength),
		LastModified:  aws.ToTime(out.LastModified),
	}, nil
}

// Delete removes key. S3 answers 204 for missing keys; some compatible
// services answer NoSuchKey instead, which is treated as success too.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isNotFound(err) {
		return s.wrapErr("delete object", key, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (signet.ObjectInfo, io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return signet.ObjectInfo{}, nil, s.wrapErr("get object", key, err)
	}

	info := signet.ObjectInfo{
		Exists:        true,
		ContentType:   aws.ToString(out.ContentType),
		ContentLength: aws.ToInt64(out.ContentLength),
		LastModified:  aws.ToTime(out.LastModified),
	}
	return info, out.Body, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("s3 head bucket bucket=%s: %w", s.bucket, err)
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}
	if s.region != "" && s.region != "us-east-1" {
		input.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(s.region),
		}
	}

	if _, err := s.client.CreateBucket(ctx, input); err != nil {
		var owned *s3types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("s3 create bucket bucket=%s: %w", s.bucket, err)
	}
	return nil
}

func (s *Store) wrapErr(op, key string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("s3 %s bucket=%s key=%s: %w", op, s.bucket, key, signet.ErrNotFound)
	}
	return fmt.Errorf("s3 %s bucket=%s key=%s: %w", op, s.bucket, key, err)
}

// isNotFound reports whether err means the object (or, for HeadBucket, the
// bucket) is absent. HeadObject carries no error body, so the typed errors are
// not always set and the HTTP status is checked as well. That also means a
// HeadObject against a missing bucket is indistinguishable from a missing key
// and reads as not found. Calls that return a body (get, delete) name the
// bucket with NoSuchBucket, which stays an infrastructure failure.
func isNotFound(err error) bool {
	var noKey *s3types.NoSuchKey
	var notFound *s3types.NotFound
	if errors.As(err, &noKey) || errors.As(err, &notFound) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		case "NoSuchBucket":
			return false
		}
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound {
		return true
	}

	return false
}

var _ signet.ObjectStore = (*Store)(nil)
var _ signet.BucketInitializer = (*Store)(nil)
