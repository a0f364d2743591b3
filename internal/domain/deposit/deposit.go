package deposit

// RecordFileName is the name of the per-deposit properties file inside
// both stagingDir and storageDir.
const RecordFileName = "deposit.properties"

// MergedArchiveName is the file C2 concatenates chunked parts into
// before handing it to the archive extractor (C3).
const MergedArchiveName = "merged.archive"

// MimeType identifies the shape of the uploaded archive as advertised by
// the ingress collaborator. Only the two values the reassembler knows
// how to handle are recognized.
type MimeType string

const (
	MimeSingle  MimeType = "archive/single"
	MimeChunked MimeType = "archive/chunked"
)

// Record is the persisted state + message pair for one deposit, as
// stored by the properties store (C1) in deposit.properties.
type Record struct {
	State       State
	Description string
	MimeType    MimeType // empty until SetMimeType has been called at least once
	ReceivedAt  string   // RFC 3339; timestamp of the deposit's first received part, set once
	SizeBytes   int64    // cumulative bytes received across all parts so far
}

// Deposit is the aggregate identified by an opaque, URL-safe ID, unique
// across the process's lifetime. StagingDir and StorageDir are mutually
// exclusive in the sense required by invariant 1 of the data model:
// exactly one is the deposit's authoritative home at any observable instant.
type Deposit struct {
	ID           string
	StagingDir   string
	StorageDir   string
	MimeType     MimeType
	ExpectedHash string
}

// Job is the tuple handed from the ingress front to the finalization
// queue once a deposit's final part has arrived.
type Job struct {
	DepositID string
	MimeType  MimeType
}
