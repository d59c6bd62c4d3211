package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const reportURLExpiry = 15 * time.Minute

type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ReportStore keeps circulation reports in an S3 bucket under reports/.
type ReportStore struct {
	client    s3API
	presigner *s3.PresignClient
	bucket    string
}

func NewReportStore(ctx context.Context, bucket, region, accessKeyID, secretAccessKey string) (*ReportStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("AWS_S3_BUCKET is required")
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if accessKeyID != "" && secretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	return &ReportStore{client: client, presigner: s3.NewPresignClient(client), bucket: bucket}, nil
}

// ReportKey is the object key for a report generated at t.
func ReportKey(t time.Time) string {
	return "reports/" + t.UTC().Format("2006-01-02") + "/" + uuid.NewString() + ".json"
}

// Put uploads the report as JSON and returns its key.
func (s *ReportStore) Put(ctx context.Context, r *Report) (string, error) {
	body, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	key := ReportKey(r.GeneratedAt)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("upload report: %w", err)
	}
	return key, nil
}

// URL returns a temporary download link. The browser saves the file as
// circulation-report-<date>.json.
func (s *ReportStore) URL(ctx context.Context, key string, generatedAt time.Time) (string, error) {
	filename := "circulation-report-" + generatedAt.UTC().Format("2006-01-02") + ".json"
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     aws.String(s.bucket),
		Key:                        aws.String(key),
		ResponseContentDisposition: aws.String(`attachment; filename="` + filename + `"`),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = reportURLExpiry
	})
	if err != nil {
		return "", fmt.Errorf("presign report: %w", err)
	}
	return req.URL, nil
}
