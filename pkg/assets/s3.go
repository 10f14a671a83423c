package assets

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// DefaultURLExpiry is how long presigned URLs stay valid.
const DefaultURLExpiry = 15 * time.Minute

// presigner is the part of *s3.PresignClient the resolver uses.
type presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Resolver presigns GET requests for objects in a private bucket.
// Presigned URLs are reused until a minute before they expire.
type S3Resolver struct {
	presigner presigner
	bucket    string
	expiry    time.Duration
	cache     *urlCache
}

// NewS3Resolver creates a resolver for bucket using client.
func NewS3Resolver(client *s3.Client, bucket string) *S3Resolver {
	return &S3Resolver{
		presigner: s3.NewPresignClient(client),
		bucket:    bucket,
		expiry:    DefaultURLExpiry,
		cache:     newURLCache(),
	}
}

// NewS3ResolverFromConfig builds the S3 client from cfg.
func NewS3ResolverFromConfig(cfg aws.Config, bucket string) *S3Resolver {
	return NewS3Resolver(s3.NewFromConfig(cfg), bucket)
}

// WithURLExpiry sets how long presigned URLs are valid.
func (r *S3Resolver) WithURLExpiry(d time.Duration) *S3Resolver {
	r.expiry = d
	return r
}

// URL implements Resolver.
func (r *S3Resolver) URL(ctx context.Context, folder Folder, name string) (string, error) {
	key, err := objectKey(folder, name)
	if err != nil {
		return "", err
	}
	if u, ok := r.cache.get(key); ok {
		return u, nil
	}

	req, err := r.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(r.expiry))
	if err != nil {
		return "", fmt.Errorf("assets: presign %s: %w", key, err)
	}

	if margin := r.expiry - time.Minute; margin > 0 {
		r.cache.set(key, req.URL, r.cache.now().Add(margin))
	}
	return req.URL, nil
}

// Prune drops expired cache entries and returns how many remain.
func (r *S3Resolver) Prune() int {
	return r.cache.prune()
}
