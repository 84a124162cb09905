// Package s3sink implements an optional output sink: after the pipeline
// finishes, the completed TS/MP4 file is uploaded to S3.
//
// Grounded on the teacher's downloaders/s3/downloader.go GetS3Client
// (config.LoadDefaultConfig with the shared profile + adaptive retry mode),
// repurposed from "download an object out of S3" to "publish the finished
// artifact to S3", per SPEC_FULL.md §11.
package s3sink

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/tanq16/danzo-hls/internal/danzoerr"
)

// Upload streams the file at localPath to s3://bucket/key using the
// default AWS credential chain (shared profile, env vars, or instance
// role), exactly as the teacher's GetS3Client resolves credentials.
func Upload(ctx context.Context, bucket, key, localPath string) error {
	profile := os.Getenv("AWS_PROFILE")
	if profile == "" {
		profile = "default"
	}
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithSharedConfigProfile(profile),
		config.WithRetryMode("adaptive"),
	)
	if err != nil {
		return danzoerr.New(danzoerr.Network, "loading AWS config", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.DisableLogOutputChecksumValidationSkipped = true
	})
	uploader := manager.NewUploader(client)

	f, err := os.Open(localPath)
	if err != nil {
		return danzoerr.New(danzoerr.Write, "opening artifact for S3 upload", err)
	}
	defer f.Close()

	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return danzoerr.New(danzoerr.Network, fmt.Sprintf("uploading %s to s3://%s/%s", localPath, bucket, key), err)
	}
	return nil
}
