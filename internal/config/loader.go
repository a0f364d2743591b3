package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const (
	keyTempDir            = "tempdir"
	keyDepositsRoot        = "deposits-root"
	keyBaseURL             = "base-url"
	keyCollectionIRI       = "collection.iri"
	keyGitEnabled          = "git.enabled"
	keyGitUser             = "git.user"
	keyGitEmail            = "git.email"
	keyQueueCapacity       = "queue.capacity"
	keyIndexDBPath         = "index.db-path"
	keyReplicationBucket   = "replication.s3.bucket"
	keyReplicationRegion   = "replication.s3.region"
	keyReplicationPrefix   = "replication.s3.prefix"
	keyShutdownGraceSecond = "shutdown.grace-seconds"
)

const (
	defaultQueueCapacity        = 64
	defaultShutdownGraceSeconds = 30
)

// Load reads a key=value properties file and returns a fully validated
// Config, or an error describing exactly which key failed to parse.
// Every value is parsed here, at startup, rather than lazily on first
// use — a malformed boolean or integer must never surface mid-request.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()
	return parse(f, path)
}

func parse(r io.Reader, sourceName string) (Config, error) {
	raw, err := readProperties(r)
	if err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", sourceName, err)
	}

	tempDir, err := requireString(raw, keyTempDir)
	if err != nil {
		return nil, err
	}
	depositsRoot, err := requireString(raw, keyDepositsRoot)
	if err != nil {
		return nil, err
	}
	baseURL, err := requireString(raw, keyBaseURL)
	if err != nil {
		return nil, err
	}

	gitEnabled := false
	if v, ok := raw[keyGitEnabled]; ok {
		gitEnabled, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("config: %s must be true/false, got %q: %w", keyGitEnabled, v, err)
		}
	}

	queueCapacity := defaultQueueCapacity
	if v, ok := raw[keyQueueCapacity]; ok {
		queueCapacity, err = strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: %s must be an integer, got %q: %w", keyQueueCapacity, v, err)
		}
		if queueCapacity <= 0 {
			return nil, fmt.Errorf("config: %s must be positive, got %d", keyQueueCapacity, queueCapacity)
		}
	}

	shutdownGrace := defaultShutdownGraceSeconds
	if v, ok := raw[keyShutdownGraceSecond]; ok {
		shutdownGrace, err = strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: %s must be an integer, got %q: %w", keyShutdownGraceSecond, v, err)
		}
		if shutdownGrace < 0 {
			return nil, fmt.Errorf("config: %s must not be negative, got %d", keyShutdownGraceSecond, shutdownGrace)
		}
	}

	return &AppConfig{
		tempDir:              tempDir,
		depositsRoot:         depositsRoot,
		baseURL:              strings.TrimSuffix(baseURL, "/"),
		collectionIRI:        raw[keyCollectionIRI],
		gitEnabled:           gitEnabled,
		gitUser:              raw[keyGitUser],
		gitEmail:             raw[keyGitEmail],
		queueCapacity:        queueCapacity,
		indexDBPath:          raw[keyIndexDBPath],
		replicationBucket:    raw[keyReplicationBucket],
		replicationRegion:    raw[keyReplicationRegion],
		replicationPrefix:    raw[keyReplicationPrefix],
		shutdownGraceSeconds: shutdownGrace,
	}, nil
}

func requireString(raw map[string]string, key string) (string, error) {
	v, ok := raw[key]
	if !ok || v == "" {
		return "", fmt.Errorf("config: required key %q is missing", key)
	}
	return v, nil
}

// readProperties parses "key=value" lines, one per line, ignoring blank
// lines and lines starting with "#". Keys and values are trimmed of
// surrounding whitespace; a line without "=" is a format error.
func readProperties(r io.Reader) (map[string]string, error) {
	out := make(map[string]string)
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.IndexByte(line, '=')
		if idx < 0 {
			return nil, fmt.Errorf("line %d: expected key=value, got %q", lineNum, line)
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		if key == "" {
			return nil, fmt.Errorf("line %d: empty key", lineNum)
		}
		out[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading: %w", err)
	}
	return out, nil
}
