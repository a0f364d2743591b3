// Package config loads the deposit service's startup configuration from
// a key=value properties file and parses every value strictly at load
// time, so a malformed entry surfaces before the first request rather
// than throwing late inside a request handler.
package config

// Config provides read-only access to application configuration. The
// interface abstracts the loading mechanism so the application layer
// never depends on the properties-file format directly.
type Config interface {
	TempDir() string          // Root for staging directories (tempdir)
	DepositsRoot() string     // Root for promoted storage directories (deposits-root)
	BaseURL() string          // Prefix for receipt IRIs (base-url)
	CollectionIRI() string    // Location advertised in the service document (collection.iri)
	GitEnabled() bool         // Enables C5 (git.enabled)
	GitUser() string          // Commit author name (git.user)
	GitEmail() string         // Commit author email (git.email)
	QueueCapacity() int       // Bounded finalization queue capacity (queue.capacity)
	IndexDBPath() string      // SQLite deposit index path (index.db-path)
	ReplicationBucket() string // S3 bucket for post-promotion mirroring (replication.s3.bucket)
	ReplicationRegion() string // S3 region (replication.s3.region)
	ReplicationPrefix() string // S3 key prefix (replication.s3.prefix)
	ReplicationEnabled() bool  // True when a bucket was configured
	ShutdownGraceSeconds() int // Grace period for in-flight runs on shutdown (shutdown.grace-seconds)
}

// AppConfig is the concrete, immutable Config implementation produced by Load.
type AppConfig struct {
	tempDir       string
	depositsRoot  string
	baseURL       string
	collectionIRI string

	gitEnabled bool
	gitUser    string
	gitEmail   string

	queueCapacity int
	indexDBPath   string

	replicationBucket string
	replicationRegion  string
	replicationPrefix string

	shutdownGraceSeconds int
}

func (c *AppConfig) TempDir() string           { return c.tempDir }
func (c *AppConfig) DepositsRoot() string      { return c.depositsRoot }
func (c *AppConfig) BaseURL() string           { return c.baseURL }
func (c *AppConfig) CollectionIRI() string     { return c.collectionIRI }
func (c *AppConfig) GitEnabled() bool          { return c.gitEnabled }
func (c *AppConfig) GitUser() string           { return c.gitUser }
func (c *AppConfig) GitEmail() string          { return c.gitEmail }
func (c *AppConfig) QueueCapacity() int        { return c.queueCapacity }
func (c *AppConfig) IndexDBPath() string       { return c.indexDBPath }
func (c *AppConfig) ReplicationBucket() string { return c.replicationBucket }
func (c *AppConfig) ReplicationRegion() string { return c.replicationRegion }
func (c *AppConfig) ReplicationPrefix() string { return c.replicationPrefix }
func (c *AppConfig) ReplicationEnabled() bool  { return c.replicationBucket != "" }
func (c *AppConfig) ShutdownGraceSeconds() int { return c.shutdownGraceSeconds }
