package storage

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/bitswalk/akb/src/common/errors"
)

// S3Config holds the S3 storage configuration
type S3Config struct {
	// Endpoint overrides the AWS endpoint for S3-compatible services
	// (e.g., "http://minio:9000"); empty uses AWS
	Endpoint string

	// Region is the S3 region (default "us-east-1")
	Region string

	// Bucket holds the published archives
	Bucket string

	AccessKeyID     string
	SecretAccessKey string

	// UsePathStyle addresses the bucket in the path instead of the host
	UsePathStyle bool
}

// S3Backend stores objects in an S3-compatible bucket
type S3Backend struct {
	client *s3.Client
	bucket string
	where  string
}

// NewS3 creates an S3 client with static credentials
func NewS3(cfg S3Config) (*S3Backend, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 storage requires a bucket")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	awsCfg := aws.Config{
		Region:                     cfg.Region,
		Credentials:                credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	where := "s3://" + cfg.Bucket
	if cfg.Endpoint != "" {
		where = cfg.Endpoint + "/" + cfg.Bucket
	}

	return &S3Backend{client: client, bucket: cfg.Bucket, where: where}, nil
}

// sha256Base64 converts a hex digest to the base64 form S3 expects; ""
// when the digest is not a valid SHA256.
func sha256Base64(hexDigest string) string {
	raw, err := hex.DecodeString(hexDigest)
	if err != nil || len(raw) != 32 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(raw)
}

// Put uploads obj. A known SHA256 is sent for server-side verification
// and kept as object metadata.
func (b *S3Backend) Put(ctx context.Context, obj Object) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(obj.Key),
		Body:          obj.Body,
		ContentLength: aws.Int64(obj.Size),
	}
	if obj.ContentType != "" {
		input.ContentType = aws.String(obj.ContentType)
	}
	if sum := sha256Base64(obj.SHA256); sum != "" {
		input.ChecksumSHA256 = aws.String(sum)
		input.Metadata = map[string]string{"sha256": obj.SHA256}
	}

	if _, err := b.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to upload %s to bucket %s: %w", obj.Key, b.bucket, err)
	}
	return nil
}

// Stat issues a HEAD request for key
func (b *S3Backend) Stat(ctx context.Context, key string) (*ObjectInfo, error) {
	out, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return nil, errors.ErrArtifactMissing.WithMessagef("Object %s not found in bucket %s", key, b.bucket)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", key, err)
	}

	return &ObjectInfo{
		Key:          key,
		Size:         aws.ToInt64(out.ContentLength),
		ContentType:  aws.ToString(out.ContentType),
		LastModified: aws.ToTime(out.LastModified),
	}, nil
}

// Type returns TypeS3
func (b *S3Backend) Type() string {
	return TypeS3
}

// Location returns the endpoint and bucket
func (b *S3Backend) Location() string {
	return b.where
}
