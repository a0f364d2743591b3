package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/scidataarchive/depositd/internal/logging"
)

// Replicator is the optional remote replication adapter (A5): after a
// deposit is promoted, it best-effort mirrors the promoted directory to
// S3. A replication failure is logged and otherwise ignored — it never
// changes the deposit's terminal state, which was already decided by C6.
type Replicator struct {
	client S3API
	bucket string
	prefix string
	log    logging.Logger
}

// NewReplicator builds a Replicator using the default AWS credential
// chain. Returns (nil, nil) when bucket is empty, since replication is
// optional and absent by default.
func NewReplicator(ctx context.Context, bucket, region, prefix string, log logging.Logger) (*Replicator, error) {
	if bucket == "" {
		return nil, nil
	}
	if log == nil {
		log = logging.Noop
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("replication: load AWS config: %w", err)
	}
	if region != "" {
		awsCfg.Region = region
	}

	return &Replicator{
		client: s3.NewFromConfig(awsCfg),
		bucket: bucket,
		prefix: prefix,
		log:    log,
	}, nil
}

// NewReplicatorWithClient builds a Replicator around a caller-supplied
// S3API, for tests that substitute a mock client.
func NewReplicatorWithClient(client S3API, bucket, prefix string, log logging.Logger) *Replicator {
	if log == nil {
		log = logging.Noop
	}
	return &Replicator{client: client, bucket: bucket, prefix: prefix, log: log}
}

// Replicate walks storageDir and uploads every regular file it finds to
// s3://bucket/prefix/depositID/<relative path>. Failures are logged and
// swallowed: replication is fire-and-forget and must never affect a
// deposit's already-decided terminal state.
func (r *Replicator) Replicate(ctx context.Context, depositID, storageDir string) {
	if r == nil {
		return
	}
	err := filepath.Walk(storageDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(storageDir, path)
		if err != nil {
			return err
		}
		key := r.buildKey(depositID, filepath.ToSlash(rel))

		data, err := os.Open(path)
		if err != nil {
			return err
		}
		defer data.Close()

		_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(r.bucket),
			Key:    aws.String(key),
			Body:   data,
		})
		return err
	})
	if err != nil {
		r.log.Warn("replication of deposit %s to s3://%s failed: %v", depositID, r.bucket, err)
	}
}

func (r *Replicator) buildKey(depositID, relPath string) string {
	parts := []string{}
	if r.prefix != "" {
		parts = append(parts, strings.Trim(r.prefix, "/"))
	}
	parts = append(parts, depositID, relPath)
	return strings.Join(parts, "/")
}
