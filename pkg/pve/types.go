package pve

import (
	"encoding/json"
	"net/http"
)

// Params is the free-form mapping accepted by the dynamic request surface.
// For GET requests it becomes query parameters, for POST and PUT it is
// serialized as the JSON request body, and for DELETE it is ignored.
type Params map[string]any

// Response is the raw transport result: status code, response headers, and
// the body as received. Classified errors carry the originating Response so
// callers can inspect it programmatically.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Envelope is the server's wrapping object around every successful payload.
type Envelope struct {
	Data json.RawMessage `json:"data"`
}

// Session holds ticket-mode authentication state. It is populated once
// during client construction and never refreshed; an expired ticket
// surfaces as 401 errors until the caller constructs a new client.
type Session struct {
	Username  string
	Ticket    string
	CSRFToken string
}

// VersionInfo represents the /version response.
type VersionInfo struct {
	Version string `json:"version" yaml:"version"`
	Release string `json:"release" yaml:"release"`
	RepoID  string `json:"repoid"  yaml:"repoid"`
}

// Node represents one entry of the /nodes listing.
type Node struct {
	Node           string  `json:"node"                      yaml:"node"`
	Status         string  `json:"status"                    yaml:"status"`
	CPU            float64 `json:"cpu"                       yaml:"cpu"`
	MaxCPU         int     `json:"maxcpu"                    yaml:"maxcpu"`
	Mem            int64   `json:"mem"                       yaml:"mem"`
	MaxMem         int64   `json:"maxmem"                    yaml:"maxmem"`
	Disk           int64   `json:"disk"                      yaml:"disk"`
	MaxDisk        int64   `json:"maxdisk"                   yaml:"maxdisk"`
	Uptime         int64   `json:"uptime"                    yaml:"uptime"`
	SSLFingerprint string  `json:"ssl_fingerprint,omitempty" yaml:"ssl_fingerprint,omitempty"`
}

// MemoryUsage represents a total/used/free triple as reported by node status.
type MemoryUsage struct {
	Total int64 `json:"total" yaml:"total"`
	Used  int64 `json:"used"  yaml:"used"`
	Free  int64 `json:"free"  yaml:"free"`
}

// NodeStatus represents the /nodes/{node}/status response.
type NodeStatus struct {
	Uptime     int64       `json:"uptime"     yaml:"uptime"`
	LoadAvg    []string    `json:"loadavg"    yaml:"loadavg"`
	CPU        float64     `json:"cpu"        yaml:"cpu"`
	Memory     MemoryUsage `json:"memory"     yaml:"memory"`
	Swap       MemoryUsage `json:"swap"       yaml:"swap"`
	RootFS     MemoryUsage `json:"rootfs"     yaml:"rootfs"`
	KVersion   string      `json:"kversion"   yaml:"kversion"`
	PVEVersion string      `json:"pveversion" yaml:"pveversion"`
}

// GuestType selects between the two virtual guest implementations.
type GuestType string

const (
	// GuestTypeQEMU addresses fully virtualized guests under nodes/{node}/qemu.
	GuestTypeQEMU GuestType = "qemu"

	// GuestTypeLXC addresses containers under nodes/{node}/lxc.
	GuestTypeLXC GuestType = "lxc"
)

// Guest represents one entry of a nodes/{node}/qemu or nodes/{node}/lxc listing.
type Guest struct {
	VMID   int       `json:"vmid"           yaml:"vmid"`
	Type   GuestType `json:"type,omitempty" yaml:"type,omitempty"`
	Name   string    `json:"name"           yaml:"name"`
	Status string    `json:"status"         yaml:"status"`
	CPU    float64   `json:"cpu"            yaml:"cpu"`
	CPUs   int       `json:"cpus"           yaml:"cpus"`
	Mem    int64     `json:"mem"            yaml:"mem"`
	MaxMem int64     `json:"maxmem"         yaml:"maxmem"`
	Uptime int64     `json:"uptime"         yaml:"uptime"`
	Tags   string    `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// GuestStatus represents a status/current response for a single guest.
type GuestStatus struct {
	VMID   int     `json:"vmid"   yaml:"vmid"`
	Name   string  `json:"name"   yaml:"name"`
	Status string  `json:"status" yaml:"status"`
	CPU    float64 `json:"cpu"    yaml:"cpu"`
	CPUs   int     `json:"cpus"   yaml:"cpus"`
	Mem    int64   `json:"mem"    yaml:"mem"`
	MaxMem int64   `json:"maxmem" yaml:"maxmem"`
	Uptime int64   `json:"uptime" yaml:"uptime"`
}

// Task represents a nodes/{node}/tasks/{upid}/status response.
type Task struct {
	UPID       string `json:"upid"                 yaml:"upid"`
	Node       string `json:"node"                 yaml:"node"`
	Type       string `json:"type"                 yaml:"type"`
	ID         string `json:"id,omitempty"         yaml:"id,omitempty"`
	User       string `json:"user"                 yaml:"user"`
	Status     string `json:"status"               yaml:"status"`
	ExitStatus string `json:"exitstatus,omitempty" yaml:"exitstatus,omitempty"`
	StartTime  int64  `json:"starttime"            yaml:"starttime"`
}

// ClusterResource represents one entry of the cluster/resources listing.
type ClusterResource struct {
	ID      string  `json:"id"                yaml:"id"`
	Type    string  `json:"type"              yaml:"type"`
	Node    string  `json:"node,omitempty"    yaml:"node,omitempty"`
	Status  string  `json:"status,omitempty"  yaml:"status,omitempty"`
	VMID    int     `json:"vmid,omitempty"    yaml:"vmid,omitempty"`
	Name    string  `json:"name,omitempty"    yaml:"name,omitempty"`
	Pool    string  `json:"pool,omitempty"    yaml:"pool,omitempty"`
	CPU     float64 `json:"cpu,omitempty"     yaml:"cpu,omitempty"`
	MaxCPU  int     `json:"maxcpu,omitempty"  yaml:"maxcpu,omitempty"`
	Mem     int64   `json:"mem,omitempty"     yaml:"mem,omitempty"`
	MaxMem  int64   `json:"maxmem,omitempty"  yaml:"maxmem,omitempty"`
	Disk    int64   `json:"disk,omitempty"    yaml:"disk,omitempty"`
	MaxDisk int64   `json:"maxdisk,omitempty" yaml:"maxdisk,omitempty"`
}
