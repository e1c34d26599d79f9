package mirror

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Mirror stores the mirrored cache artifact as a single object in an S3
// bucket, using the transfer manager for multipart-aware upload/download.
type S3Mirror struct {
	client *s3.Client
	bucket string
	key    string
}

// NewS3Mirror builds an S3Mirror for bucket/prefix+"/"+artifactName. When
// accessKey/secretKey are both set, credentials are pinned via
// credentials.NewStaticCredentialsProvider instead of the SDK's normal
// environment/shared-config/instance-profile chain — useful when the
// mirror bucket uses different credentials than the rest of the
// operator's AWS environment.
func NewS3Mirror(ctx context.Context, bucket, prefix, region, artifactName, accessKey, secretKey string) (*S3Mirror, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	key := artifactName
	if prefix != "" {
		key = prefix + "/" + artifactName
	}
	return &S3Mirror{client: s3.NewFromConfig(cfg), bucket: bucket, key: key}, nil
}

var _ Mirror = (*S3Mirror)(nil)

// Push uploads r as the object, replacing any existing object at the same
// key. size is informational for callers; the S3 manager handles chunking
// itself and does not require it up front.
func (m *S3Mirror) Push(r io.Reader, size int64) error {
	uploader := manager.NewUploader(m.client)
	_, err := uploader.Upload(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(m.key),
		Body:   r,
	})
	if err != nil {
		return fmt.Errorf("uploading mirror artifact to s3://%s/%s: %w", m.bucket, m.key, err)
	}
	return nil
}

// Pull downloads the object and writes it to w, using the same transfer
// manager Push uses so large artifacts download as concurrent ranged
// GetObject calls rather than one single-stream request. w usually
// satisfies io.WriterAt too (mirror_cmd.go pulls into a temp *os.File); when
// it doesn't, the download is buffered in memory and copied to w instead.
func (m *S3Mirror) Pull(w io.Writer) error {
	downloader := manager.NewDownloader(m.client)
	input := &s3.GetObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(m.key),
	}

	if wa, ok := w.(io.WriterAt); ok {
		if _, err := downloader.Download(context.Background(), wa, input); err != nil {
			return fmt.Errorf("downloading mirror artifact from s3://%s/%s: %w", m.bucket, m.key, err)
		}
		return nil
	}

	buf := manager.NewWriteAtBuffer(nil)
	if _, err := downloader.Download(context.Background(), buf, input); err != nil {
		return fmt.Errorf("downloading mirror artifact from s3://%s/%s: %w", m.bucket, m.key, err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("writing mirror artifact: %w", err)
	}
	return nil
}

// Validate checks that the bucket is reachable with the current
// credentials, without transferring the artifact.
func (m *S3Mirror) Validate() error {
	_, err := m.client.HeadBucket(context.Background(), &s3.HeadBucketInput{
		Bucket: aws.String(m.bucket),
	})
	if err != nil {
		return fmt.Errorf("bucket %s not accessible: %w", m.bucket, err)
	}
	return nil
}
