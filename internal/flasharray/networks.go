package flasharray

import (
	"context"
	"net/http"
)

// Subnet mirrors the REST 2.x network subnet resource.
type Subnet struct {
	Name     string   `json:"name"`
	Enabled  bool     `json:"enabled"`
	Prefix   string   `json:"prefix,omitempty"`
	Gateway  string   `json:"gateway,omitempty"`
	Mtu      int      `json:"mtu,omitempty"`
	Vlan     int      `json:"vlan,omitempty"`
	Services []string `json:"services,omitempty"`
}

// SubnetPost carries the attributes sent with a subnet create call.
type SubnetPost struct {
	Enabled  bool     `json:"enabled"`
	Prefix   string   `json:"prefix"`
	Gateway  string   `json:"gateway,omitempty"`
	Mtu      int      `json:"mtu,omitempty"`
	Vlan     int      `json:"vlan,omitempty"`
	Services []string `json:"services,omitempty"`
}

// SubnetPatch carries a partial subnet update.
type SubnetPatch struct {
	Enabled  *bool     `json:"enabled,omitempty"`
	Prefix   *string   `json:"prefix,omitempty"`
	Gateway  *string   `json:"gateway,omitempty"`
	Mtu      *int      `json:"mtu,omitempty"`
	Vlan     *int      `json:"vlan,omitempty"`
	Services *[]string `json:"services,omitempty"`
}

// GetSubnet fetches one subnet by name. Returns nil when absent.
func (c *Client) GetSubnet(ctx context.Context, name string) (*Subnet, error) {
	return one[Subnet](ctx, c, "get subnet", http.MethodGet, "subnets", names(name), nil)
}

// CreateSubnet creates a subnet.
func (c *Client) CreateSubnet(ctx context.Context, name string, body SubnetPost) (*Subnet, error) {
	return one[Subnet](ctx, c, "create subnet", http.MethodPost, "subnets", names(name), body)
}

// PatchSubnet applies a partial update to a subnet.
func (c *Client) PatchSubnet(ctx context.Context, name string, patch SubnetPatch) (*Subnet, error) {
	return one[Subnet](ctx, c, "update subnet", http.MethodPatch, "subnets", names(name), patch)
}

// DeleteSubnet removes a subnet. Subnets have no destroyed bucket.
func (c *Client) DeleteSubnet(ctx context.Context, name string) error {
	return c.mutate(ctx, "delete subnet", http.MethodDelete, "subnets", names(name), nil)
}
