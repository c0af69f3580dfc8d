package flasharray

import (
	"context"
	"net/http"
	"net/url"
)

// HostGroup mirrors the REST 2.x host-group resource.
type HostGroup struct {
	Name string `json:"name"`
}

// GetHostGroup fetches one host group by name. Returns nil when absent.
func (c *Client) GetHostGroup(ctx context.Context, name string) (*HostGroup, error) {
	return one[HostGroup](ctx, c, "get host group", http.MethodGet, "host-groups", names(name), nil)
}

// CreateHostGroup creates an empty host group.
func (c *Client) CreateHostGroup(ctx context.Context, name string) (*HostGroup, error) {
	return one[HostGroup](ctx, c, "create host group", http.MethodPost, "host-groups", names(name), nil)
}

// DeleteHostGroup removes a host group.
func (c *Client) DeleteHostGroup(ctx context.Context, name string) error {
	return c.mutate(ctx, "delete host group", http.MethodDelete, "host-groups", names(name), nil)
}

type hostGroupMember struct {
	Member Ref `json:"member"`
}

// ListHostGroupMembers returns the host names belonging to a group.
func (c *Client) ListHostGroupMembers(ctx context.Context, group string) ([]string, error) {
	q := url.Values{}
	q.Set("group_names", group)

	members, err := items[hostGroupMember](ctx, c, "list host group members", http.MethodGet, "host-groups/hosts", q, nil)
	if isAbsence(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	hosts := make([]string, 0, len(members))
	for _, m := range members {
		hosts = append(hosts, m.Member.Name)
	}
	return hosts, nil
}

// AddHostGroupMembers adds hosts to a group.
func (c *Client) AddHostGroupMembers(ctx context.Context, group string, hosts []string) error {
	return c.mutate(ctx, "add host group members", http.MethodPost, "host-groups/hosts", memberQuery(group, hosts), nil)
}

// RemoveHostGroupMembers removes hosts from a group.
func (c *Client) RemoveHostGroupMembers(ctx context.Context, group string, hosts []string) error {
	return c.mutate(ctx, "remove host group members", http.MethodDelete, "host-groups/hosts", memberQuery(group, hosts), nil)
}

func memberQuery(group string, hosts []string) url.Values {
	q := url.Values{}
	q.Set("group_names", group)
	q.Set("member_names", joinNames(hosts))
	return q
}

// ListHostGroupConnections returns the volume connections at group scope.
func (c *Client) ListHostGroupConnections(ctx context.Context, group string) ([]Connection, error) {
	q := url.Values{}
	q.Set("host_group_names", group)
	conns, err := items[Connection](ctx, c, "list host group connections", http.MethodGet, "connections", q, nil)
	if isAbsence(err) {
		return nil, nil
	}
	return conns, err
}

// ConnectGroupVolume attaches a volume to every host of a group.
func (c *Client) ConnectGroupVolume(ctx context.Context, group, volume string) error {
	q := url.Values{}
	q.Set("host_group_names", group)
	q.Set("volume_names", volume)
	return c.mutate(ctx, "connect group volume", http.MethodPost, "connections", q, nil)
}

// DisconnectGroupVolume detaches a volume from a group.
func (c *Client) DisconnectGroupVolume(ctx context.Context, group, volume string) error {
	q := url.Values{}
	q.Set("host_group_names", group)
	q.Set("volume_names", volume)
	return c.mutate(ctx, "disconnect group volume", http.MethodDelete, "connections", q, nil)
}
