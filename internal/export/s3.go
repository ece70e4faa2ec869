package export

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Key placeholders expanded at upload time, in UTC.
const (
	KeyDate  = "{date}"  // 2006-01-02
	KeyStamp = "{stamp}" // 20060102T150405Z
)

// S3Destination uploads exports to an S3-compatible bucket. A key containing
// {date} or {stamp} keeps one object per day or per run.
type S3Destination struct {
	api    *s3.Client
	bucket string
	key    string
	now    func() time.Time
}

// NewS3Destination creates an S3 destination. Setting endpoint points the
// client at MinIO or another compatible store and switches to path-style
// addressing.
func NewS3Destination(ctx context.Context, bucket, key, region, endpoint string) (*S3Destination, error) {
	if bucket == "" {
		return nil, errors.New("export to s3: bucket is required")
	}
	if key == "" {
		key = "formbuilder/export.jsonl"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, &DestinationError{Kind: "s3", Err: err}
	}
	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint == "" {
			return
		}
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})
	return &S3Destination{api: api, bucket: bucket, key: key, now: time.Now}, nil
}

// ObjectKey returns the key the next upload will use.
func (d *S3Destination) ObjectKey() string {
	t := d.now().UTC()
	return strings.NewReplacer(
		KeyDate, t.Format("2006-01-02"),
		KeyStamp, t.Format("20060102T150405Z"),
	).Replace(d.key)
}

func (d *S3Destination) Write(ctx context.Context, data []byte) error {
	_, err := d.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(d.bucket),
		Key:         aws.String(d.ObjectKey()),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/x-ndjson"),
		Metadata: map[string]string{
			"lines": strconv.Itoa(bytes.Count(data, []byte("\n"))),
		},
	})
	if err != nil {
		return &DestinationError{Kind: "s3", Err: err}
	}
	return nil
}
