package offline

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	stderrors "errors"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of *s3.Client used by S3Storage.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// S3Storage keeps each cache generation under its own key prefix:
//
//	<prefix><cache name>/<sha1 of request url>
//
// A generation exists once it holds at least one object.
type S3Storage struct {
	client S3API
	bucket string
	prefix string
}

// NewS3Storage creates an S3Storage. prefix may be empty; a non-empty
// prefix is normalized to end with "/".
func NewS3Storage(client S3API, bucket, prefix string) *S3Storage {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Storage{client: client, bucket: bucket, prefix: prefix}
}

// S3Config configures NewS3Client.
type S3Config struct {
	Region string
	// Endpoint overrides the service endpoint, for S3-compatible stores.
	Endpoint     string
	UsePathStyle bool
}

// NewS3Client builds an s3 client that reads static credentials from
// AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_SESSION_TOKEN.
func NewS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		UsePathStyle: cfg.UsePathStyle,
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
				SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
				SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
				Source:          "Environment",
			}, nil
		}),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

func (s *S3Storage) Open(_ context.Context, name string) (Cache, error) {
	return &s3Cache{storage: s, prefix: s.prefix + name + "/"}, nil
}

func (s *S3Storage) Keys(ctx context.Context) ([]string, error) {
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(s.prefix),
		Delimiter: aws.String("/"),
	})

	var keys []string
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, cp := range page.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), s.prefix), "/")
			if name != "" {
				keys = append(keys, name)
			}
		}
	}
	return keys, nil
}

// maxDeleteBatch is the DeleteObjects per-request limit.
const maxDeleteBatch = 1000

func (s *S3Storage) Delete(ctx context.Context, name string) error {
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix + name + "/"),
	})

	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return err
		}
		objs := page.Contents
		for len(objs) > 0 {
			n := min(len(objs), maxDeleteBatch)
			ids := make([]types.ObjectIdentifier, n)
			for i, o := range objs[:n] {
				ids[i] = types.ObjectIdentifier{Key: o.Key}
			}
			_, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
				Bucket: aws.String(s.bucket),
				Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
			})
			if err != nil {
				return err
			}
			objs = objs[n:]
		}
	}
	return nil
}

type s3Cache struct {
	storage *S3Storage
	prefix  string
}

func (c *s3Cache) key(url string) string {
	sum := sha1.Sum([]byte(url))
	return c.prefix + hex.EncodeToString(sum[:])
}

func (c *s3Cache) Put(ctx context.Context, resp *Response) error {
	contentType := resp.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := c.storage.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.storage.bucket),
		Key:         aws.String(c.key(resp.URL)),
		Body:        bytes.NewReader(resp.Body),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			"url":    resp.URL,
			"status": strconv.Itoa(resp.Status),
		},
	})
	return err
}

func (c *s3Cache) Match(ctx context.Context, url string) (*Response, bool, error) {
	out, err := c.storage.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.storage.bucket),
		Key:    aws.String(c.key(url)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if stderrors.As(err, &nsk) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, false, err
	}

	status, _ := strconv.Atoi(out.Metadata["status"])
	if status == 0 {
		status = 200
	}
	return &Response{
		URL:         url,
		Status:      status,
		ContentType: aws.ToString(out.ContentType),
		Body:        body,
	}, true, nil
}
