package pve

import (
	"context"
	"time"
)

// Client is the top-level handle on one Proxmox VE server. Path building
// starts from At or Index, each of which mints a fresh builder, so there is
// no shared mutable path state across concurrent calls. The typed resource
// clients are convenience surfaces over the same submission pipeline.
type Client interface {
	Submitter

	// At starts a new path with a named segment.
	At(name string) *Path

	// Index starts a new path with an indexable value, which may be a full
	// slash-separated path string.
	Index(value any) *Path

	// Version fetches the server version.
	Version(ctx context.Context) (*VersionInfo, error)

	// Session returns the ticket-mode session, or nil in token mode.
	Session() *Session

	Nodes() NodesClient
	Guests() GuestsClient
	Tasks() TasksClient
	Cluster() ClusterClient
}

// NodesClient provides typed access to cluster nodes.
type NodesClient interface {
	List(ctx context.Context) ([]Node, error)
	Status(ctx context.Context, node string) (*NodeStatus, error)
}

// GuestsClient provides typed access to QEMU and LXC guests.
type GuestsClient interface {
	List(ctx context.Context, node string, guestType GuestType) ([]Guest, error)
	CurrentStatus(ctx context.Context, node string, guestType GuestType, vmid int) (*GuestStatus, error)

	// Start, Stop and Shutdown return the UPID of the spawned task.
	Start(ctx context.Context, node string, guestType GuestType, vmid int) (string, error)
	Stop(ctx context.Context, node string, guestType GuestType, vmid int) (string, error)
	Shutdown(ctx context.Context, node string, guestType GuestType, vmid int) (string, error)
}

// TasksClient provides typed access to node task state.
type TasksClient interface {
	Status(ctx context.Context, node, upid string) (*Task, error)

	// Wait polls task status until the task stops or the context is done.
	Wait(ctx context.Context, node, upid string, interval time.Duration) (*Task, error)
}

// ClusterClient provides typed access to cluster-wide listings.
type ClusterClient interface {
	Resources(ctx context.Context, resourceType string) ([]ClusterResource, error)
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a pve.Client.
//
// # Authentication modes
//
// Exactly one mode is active for the lifetime of a client:
//  1. TokenID + Secret: token mode. The Authorization header is installed on
//     the transport at construction time and no login request is made. The
//     ticket fields are ignored.
//  2. Username/Password (+ Realm, + OTP): ticket mode. Construction issues a
//     single POST to access/ticket; failure aborts construction. The realm
//     may alternatively be embedded in Username as "user@realm". The session
//     is never refreshed: when the ticket expires server-side, requests fail
//     with 401 until the caller constructs a new client.
type Config struct {
	// Host is the target server, required. pveclient.New strips an
	// "https://" prefix and a trailing slash, and lifts an embedded
	// ":port" into Port when Port is unset.
	Host string
	// Port defaults to 8006.
	Port int

	// Ticket-based authentication fields.
	Username string
	Password string
	Realm    string
	OTP      string

	// Token-based authentication fields; when both are present token mode
	// is selected and the ticket fields are ignored.
	TokenID string
	Secret  string

	// VerifySSL toggles TLS certificate verification. Left nil, the
	// transport default (verification on) applies; self-signed local
	// deployments set it to false explicitly.
	VerifySSL *bool
	// CAFile is an optional PEM bundle added to the trusted roots.
	CAFile string
	// CAPath is an optional directory of PEM files added to the trusted roots.
	CAPath string
	// Headers are additional default headers merged into the transport.
	Headers map[string]string

	// HTTPTimeout: optional default HTTP timeout; per-request deadlines
	// should generally come from the context.
	HTTPTimeout time.Duration
	// RetryMax enables opt-in transport retries for transient failures.
	// The submission pipeline itself never retries.
	RetryMax int
	// RetryWaitMin is the minimum backoff between opt-in retries.
	RetryWaitMin time.Duration
	// RetryWaitMax is the maximum backoff between opt-in retries.
	RetryWaitMax time.Duration

	// Debug enables verbose HTTP request/response logging when a Logger is
	// provided.
	Debug bool
	// Logger is an optional structured logger used by the HTTP layer.
	Logger Logger
	// UserAgent overrides the default User-Agent header.
	UserAgent string

	// Cache optionally enables GET-response caching.
	Cache *CacheConfig
}

// ConnectionOptions lists the recognized transport-configuration option
// names. Consumed by callers validating configuration keys, not by the
// request path.
func ConnectionOptions() []string {
	return []string{"verify_ssl", "ca_file", "ca_path", "headers"}
}
