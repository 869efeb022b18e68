package fetch

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/tanq16/ffgrab/internal/progress"
	"github.com/tanq16/ffgrab/internal/utils"
)

// S3Strategy fetches mirrors of the form s3://bucket/key through the AWS
// SDK, for private or enterprise-hosted archive mirrors.
type S3Strategy struct {
	Connections int
}

func (s *S3Strategy) Name() string { return "s3" }

func (s *S3Strategy) Attempt(ctx context.Context, url, dest string, rep *progress.Reporter) error {
	log := utils.GetLogger("fetch/s3")
	bucket, key, err := parseS3URL(url)
	if err != nil {
		return err
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMode("adaptive"))
	if err != nil {
		return fmt.Errorf("error loading AWS config: %v", err)
	}
	client := s3.NewFromConfig(cfg)

	head, err := client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMirrorUnreachable, err)
	}
	size := int64(0)
	if head.ContentLength != nil {
		size = *head.ContentLength
	}
	rep.Begin(size)
	log.Debug().Str("bucket", bucket).Str("key", key).Int64("size", size).Msg("Starting S3 fetch")

	tempPath := dest + ".part"
	tempFile, err := os.OpenFile(tempPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("error creating temp file: %v", err)
	}

	connections := s.Connections
	if connections <= 0 {
		connections = utils.DefaultConnections
	}
	downloader := manager.NewDownloader(client, func(d *manager.Downloader) {
		d.Concurrency = connections
	})
	written, err := downloader.Download(ctx, &countingWriterAt{file: tempFile, rep: rep}, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	closeErr := tempFile.Close()
	if err != nil || closeErr != nil {
		os.Remove(tempPath)
		return fmt.Errorf("error downloading s3://%s/%s: %v", bucket, key, err)
	}
	if size > 0 && written != size {
		os.Remove(tempPath)
		return fmt.Errorf("%w: wrote %d of %d bytes", ErrPartialTransfer, written, size)
	}
	if err := os.Rename(tempPath, dest); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("error finalizing output file: %v", err)
	}
	rep.Finish()
	return nil
}

func parseS3URL(url string) (string, string, error) {
	trimmed := strings.TrimPrefix(url, "s3://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid S3 URL: %s", url)
	}
	return parts[0], parts[1], nil
}

// countingWriterAt feeds transfer progress to the reporter while the SDK
// manager writes ranged parts at their own offsets.
type countingWriterAt struct {
	file *os.File
	rep  *progress.Reporter
}

func (w *countingWriterAt) WriteAt(p []byte, off int64) (int, error) {
	n, err := w.file.WriteAt(p, off)
	if n > 0 {
		w.rep.Add(int64(n))
	}
	return n, err
}
