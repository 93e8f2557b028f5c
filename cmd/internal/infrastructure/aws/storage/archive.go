package storage

import (
	"bytes"
	"context"
	"errors"
	"path"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const basePath = "lookups/"

// PayloadArchive keeps raw provider answers for later inspection.
type PayloadArchive interface {
	Archive(ctx context.Context, accessKey string, payload []byte) (string, error)
}

type s3Archive struct {
	bucket string
	client *s3.Client
}

func NewS3Archive(ctx context.Context, region, bucket string) (PayloadArchive, error) {
	if bucket == "" {
		return nil, errors.New("bucket name is empty")
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}

	return &s3Archive{
		bucket: bucket,
		client: s3.NewFromConfig(cfg),
	}, nil
}

func (s *s3Archive) Archive(ctx context.Context, accessKey string, payload []byte) (string, error) {
	key, err := ObjectKey(accessKey)
	if err != nil {
		return "", err
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	}

	if _, err = s.client.PutObject(ctx, input); err != nil {
		return "", err
	}
	return key, nil
}

// ObjectKey names a new archive entry: lookups/{accessKey}/{uuid}.json.
func ObjectKey(accessKey string) (string, error) {
	if accessKey == "" {
		return "", errors.New("access key is empty")
	}
	return path.Join(basePath, accessKey, uuid.NewString()+".json"), nil
}

// NopArchive is used when no bucket is configured.
type NopArchive struct{}

func (NopArchive) Archive(context.Context, string, []byte) (string, error) {
	return "", nil
}

// MemoryArchive holds archived payloads in process.
type MemoryArchive struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{objects: make(map[string][]byte)}
}

func (m *MemoryArchive) Archive(_ context.Context, accessKey string, payload []byte) (string, error) {
	key, err := ObjectKey(accessKey)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), payload...)
	return key, nil
}

func (m *MemoryArchive) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
