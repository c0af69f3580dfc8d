package flasharray

import (
	"context"
	"net/http"
	"net/url"
)

// Chap carries host CHAP credentials. Passwords are write-only; the array
// never returns them.
type Chap struct {
	HostUser       string `json:"host_user,omitempty"`
	HostPassword   string `json:"host_password,omitempty"`
	TargetUser     string `json:"target_user,omitempty"`
	TargetPassword string `json:"target_password,omitempty"`
}

// Host mirrors the REST 2.x host resource.
type Host struct {
	Name        string   `json:"name"`
	Iqns        []string `json:"iqns,omitempty"`
	Wwns        []string `json:"wwns,omitempty"`
	Nqns        []string `json:"nqns,omitempty"`
	Personality string   `json:"personality,omitempty"`
	HostGroup   *Ref     `json:"host_group,omitempty"`
	Chap        *Chap    `json:"chap,omitempty"`
}

// HostPost carries the attributes sent with a host create call.
type HostPost struct {
	Iqns        []string `json:"iqns,omitempty"`
	Wwns        []string `json:"wwns,omitempty"`
	Nqns        []string `json:"nqns,omitempty"`
	Personality string   `json:"personality,omitempty"`
	Chap        *Chap    `json:"chap,omitempty"`
}

// HostPatch carries a partial host update. Initiator lists replace the
// host's current lists wholesale.
type HostPatch struct {
	Iqns        *[]string `json:"iqns,omitempty"`
	Wwns        *[]string `json:"wwns,omitempty"`
	Nqns        *[]string `json:"nqns,omitempty"`
	Personality *string   `json:"personality,omitempty"`
	Chap        *Chap     `json:"chap,omitempty"`
}

// GetHost fetches one host by name. Returns nil when absent.
func (c *Client) GetHost(ctx context.Context, name string) (*Host, error) {
	return one[Host](ctx, c, "get host", http.MethodGet, "hosts", names(name), nil)
}

// CreateHost creates a host with the supplied attributes.
func (c *Client) CreateHost(ctx context.Context, name string, body HostPost) (*Host, error) {
	return one[Host](ctx, c, "create host", http.MethodPost, "hosts", names(name), body)
}

// PatchHost applies a partial update to a host.
func (c *Client) PatchHost(ctx context.Context, name string, patch HostPatch) (*Host, error) {
	return one[Host](ctx, c, "update host", http.MethodPatch, "hosts", names(name), patch)
}

// DeleteHost removes a host. Hosts have no destroyed bucket.
func (c *Client) DeleteHost(ctx context.Context, name string) error {
	return c.mutate(ctx, "delete host", http.MethodDelete, "hosts", names(name), nil)
}

// Connection mirrors one host/volume connection.
type Connection struct {
	Host   Ref `json:"host"`
	Volume Ref `json:"volume"`
	Lun    int `json:"lun,omitempty"`
}

// ListHostConnections returns the volume connections of one host.
func (c *Client) ListHostConnections(ctx context.Context, host string) ([]Connection, error) {
	q := url.Values{}
	q.Set("host_names", host)
	conns, err := items[Connection](ctx, c, "list connections", http.MethodGet, "connections", q, nil)
	if isAbsence(err) {
		return nil, nil
	}
	return conns, err
}

// ConnectVolume attaches a volume to a host, optionally at a fixed LUN.
func (c *Client) ConnectVolume(ctx context.Context, host, volume string, lun int) error {
	q := url.Values{}
	q.Set("host_names", host)
	q.Set("volume_names", volume)

	var body any
	if lun > 0 {
		body = struct {
			Lun int `json:"lun"`
		}{Lun: lun}
	}
	return c.mutate(ctx, "connect volume", http.MethodPost, "connections", q, body)
}

// DisconnectVolume detaches a volume from a host.
func (c *Client) DisconnectVolume(ctx context.Context, host, volume string) error {
	q := url.Values{}
	q.Set("host_names", host)
	q.Set("volume_names", volume)
	return c.mutate(ctx, "disconnect volume", http.MethodDelete, "connections", q, nil)
}
