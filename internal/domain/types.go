package domain

import "time"

// DefaultBatchSize is the number of candidates a worker tries per progress report.
const DefaultBatchSize = 256

// Field names one rendered attribute of a candidate key pair.
type Field string

const (
	FieldPrivateKey        Field = "private-key"
	FieldPublicKey         Field = "public-key"
	FieldSha1Fingerprint   Field = "sha1-fingerprint"
	FieldSha256Fingerprint Field = "sha256-fingerprint"
	FieldSha384Fingerprint Field = "sha384-fingerprint"
	FieldSha512Fingerprint Field = "sha512-fingerprint"
)

// AllFields lists every searchable field in display order.
var AllFields = []Field{
	FieldPrivateKey,
	FieldPublicKey,
	FieldSha1Fingerprint,
	FieldSha256Fingerprint,
	FieldSha384Fingerprint,
	FieldSha512Fingerprint,
}

// Valid reports whether f is one of the known fields.
func (f Field) Valid() bool {
	for _, known := range AllFields {
		if f == known {
			return true
		}
	}
	return false
}

// MatchMode selects whether any or all members must satisfy the predicate.
type MatchMode string

const (
	MatchAny MatchMode = "any"
	MatchAll MatchMode = "all"
)

// JobConfig describes one search run. It is copied to every worker.
type JobConfig struct {
	Keywords         []string  `json:"keywords" yaml:"keywords"`
	Fields           []Field   `json:"fields" yaml:"fields"`
	KeywordMatchMode MatchMode `json:"keywordMatchMode" yaml:"keywordMatchMode"`
	FieldMatchMode   MatchMode `json:"fieldMatchMode" yaml:"fieldMatchMode"`
	WorkerCount      int       `json:"workerCount" yaml:"workerCount"`
	BatchSize        int       `json:"batchSize" yaml:"batchSize"`
}

// KeyPair is a matched key rendered in OpenSSH formats.
type KeyPair struct {
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey"`
}

// RunStatus tracks the coordinator state machine.
type RunStatus string

const (
	RunStatusIdle    RunStatus = "idle"
	RunStatusRunning RunStatus = "running"
	RunStatusFound   RunStatus = "found"
	RunStatusStopped RunStatus = "stopped"
	RunStatusError   RunStatus = "error"
)

// Terminal reports whether the status ends a run.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusFound, RunStatusStopped, RunStatusError:
		return true
	default:
		return false
	}
}

// Run is a read-only snapshot of the coordinator's run state.
type Run struct {
	ID            string     `json:"id,omitempty"`
	Status        RunStatus  `json:"status"`
	StartedAt     time.Time  `json:"startedAt,omitempty"`
	KeysGenerated uint64     `json:"keysGenerated"`
	Workers       int        `json:"workers"`
	Result        *KeyPair   `json:"result,omitempty"`
	Error         string     `json:"error,omitempty"`
	Config        *JobConfig `json:"config,omitempty"`
}

// Stats is the periodic display sample of a running search.
type Stats struct {
	Elapsed          time.Duration `json:"elapsed"`
	KeysGenerated    uint64        `json:"keysGenerated"`
	KeysPerSecond    float64       `json:"keysPerSecond"`
	ExpectedAttempts float64       `json:"expectedAttempts"`
	ETA              time.Duration `json:"eta"`
}

// Settings mirrors the persisted form inputs. Values stay as the user typed them.
type Settings struct {
	Keywords        string   `json:"keywords"`
	WorkersCount    string   `json:"workersCount"`
	Fields          []string `json:"fields"`
	KeywordMatching string   `json:"keywordMatching"`
	FieldMatching   string   `json:"fieldMatching"`
	SaveTo          string   `json:"saveTo,omitempty"`
}
