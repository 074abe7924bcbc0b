// Package blob imports transcript documents exported to object storage.
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"interviewnotes/api/internal/transcript"
)

// ErrNotFound is returned when no transcript object exists for an interview.
var ErrNotFound = errors.New("transcript object not found")

const maxObjectBytes = 16 << 20

// TranscriptBucket reads transcripts stored as transcripts/<interview>.json.
type TranscriptBucket struct {
	client *minio.Client
	bucket string
}

func New(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*TranscriptBucket, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &TranscriptBucket{client: client, bucket: bucket}, nil
}

// ObjectKey is the object name of an interview transcript.
func ObjectKey(interviewID string) string {
	return "transcripts/" + strings.Trim(interviewID, "/") + ".json"
}

// FetchRaw returns the stored JSON bytes.
func (b *TranscriptBucket) FetchRaw(ctx context.Context, interviewID string) ([]byte, error) {
	obj, err := b.client.GetObject(ctx, b.bucket, ObjectKey(interviewID), minio.GetObjectOptions{})
	if err != nil {
		return nil, mapError(err)
	}
	defer obj.Close()

	data, err := io.ReadAll(io.LimitReader(obj, maxObjectBytes+1))
	if err != nil {
		return nil, mapError(err)
	}
	if len(data) > maxObjectBytes {
		return nil, fmt.Errorf("transcript %s exceeds %d bytes", interviewID, maxObjectBytes)
	}
	return data, nil
}

// Fetch reads and parses the transcript document.
func (b *TranscriptBucket) Fetch(ctx context.Context, interviewID string) (*transcript.Node, error) {
	data, err := b.FetchRaw(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	doc, err := transcript.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse transcript %s: %w", interviewID, err)
	}
	return doc, nil
}

// Put uploads a transcript document.
func (b *TranscriptBucket) Put(ctx context.Context, interviewID string, raw []byte) error {
	_, err := b.client.PutObject(ctx, b.bucket, ObjectKey(interviewID), bytes.NewReader(raw), int64(len(raw)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("put transcript %s: %w", interviewID, err)
	}
	return nil
}

func mapError(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return fmt.Errorf("read transcript object: %w", err)
}
