package storage

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// mockS3Client is a minimal in-memory S3API, used only to verify the
// replicator's key layout and that it tolerates PutObject failures.
type mockS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
	failKey string
}

func newMockS3Client() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := aws.ToString(params.Key)
	if m.failKey != "" && key == m.failKey {
		return nil, fmt.Errorf("simulated put failure for %s", key)
	}
	content, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	m.objects[key] = content
	return &s3.PutObjectOutput{}, nil
}
