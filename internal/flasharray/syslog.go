package flasharray

import (
	"context"
	"net/http"
)

// SyslogServer mirrors one remote syslog destination. The URI carries
// protocol, host, and port, e.g. tcp://logs.example.com:514.
type SyslogServer struct {
	Name     string   `json:"name"`
	Uri      string   `json:"uri"`
	Services []string `json:"services,omitempty"`
}

// SyslogServerPost carries the attributes sent with a create call.
type SyslogServerPost struct {
	Uri      string   `json:"uri"`
	Services []string `json:"services,omitempty"`
}

// SyslogServerPatch carries a partial update.
type SyslogServerPatch struct {
	Uri      *string   `json:"uri,omitempty"`
	Services *[]string `json:"services,omitempty"`
}

// GetSyslogServer fetches one syslog destination. Returns nil when absent.
func (c *Client) GetSyslogServer(ctx context.Context, name string) (*SyslogServer, error) {
	return one[SyslogServer](ctx, c, "get syslog server", http.MethodGet, "syslog-servers", names(name), nil)
}

// CreateSyslogServer registers a syslog destination.
func (c *Client) CreateSyslogServer(ctx context.Context, name string, body SyslogServerPost) (*SyslogServer, error) {
	return one[SyslogServer](ctx, c, "create syslog server", http.MethodPost, "syslog-servers", names(name), body)
}

// PatchSyslogServer applies a partial update to a syslog destination.
func (c *Client) PatchSyslogServer(ctx context.Context, name string, patch SyslogServerPatch) (*SyslogServer, error) {
	return one[SyslogServer](ctx, c, "update syslog server", http.MethodPatch, "syslog-servers", names(name), patch)
}

// DeleteSyslogServer removes a syslog destination.
func (c *Client) DeleteSyslogServer(ctx context.Context, name string) error {
	return c.mutate(ctx, "delete syslog server", http.MethodDelete, "syslog-servers", names(name), nil)
}
