package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network defaults.
const (
	// DefaultPort is the port the Proxmox VE API listens on.
	DefaultPort = 8006

	// APIBasePath is the JSON API prefix appended to every base URL.
	APIBasePath = "/api2/json/"

	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second
)

// Authentication header and cookie names.
const (
	// AuthCookieName is the session cookie carrying the login ticket.
	AuthCookieName = "PVEAuthCookie"

	// CSRFTokenHeader carries the anti-forgery token on authenticated requests.
	CSRFTokenHeader = "CSRFPreventionToken"

	// TokenAuthScheme prefixes the Authorization header in token mode.
	TokenAuthScheme = "PVEAPIToken"

	// TicketPath is the login endpoint used by ticket-based authentication.
	TicketPath = "access/ticket"
)

// Retry limits. Retries are a transport concern and disabled unless the
// caller opts in; the request pipeline itself never retries.
const (
	// DefaultRetryWaitMin is the minimum wait between opt-in retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait between opt-in retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Cache sizing defaults.
const (
	// DefaultCacheSize is the default cache entry limit.
	DefaultCacheSize = 1000

	// DefaultCacheTTL is the default cache time-to-live.
	DefaultCacheTTL = 5 * time.Minute
)

// Task polling defaults.
const (
	// DefaultTaskPollInterval is the interval between task status polls.
	DefaultTaskPollInterval = 2 * time.Second

	// DefaultTaskPollTimeout bounds a blocking task wait.
	DefaultTaskPollTimeout = 5 * time.Minute
)

// Output format constants.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatTable for tabular output format.
	FormatTable = "table"
)

// Display constants.
const (
	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"

	// JSONIndentSize is the number of spaces for JSON indentation.
	JSONIndentSize = 2
)

// Guest and task states reported by the API.
const (
	// GuestStatusRunning indicates a running guest.
	GuestStatusRunning = "running"

	// GuestStatusStopped indicates a stopped guest.
	GuestStatusStopped = "stopped"

	// TaskStatusStopped indicates a finished task.
	TaskStatusStopped = "stopped"

	// TaskExitStatusOK is the exit status of a successful task.
	TaskExitStatusOK = "OK"
)
