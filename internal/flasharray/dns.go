package flasharray

import (
	"context"
	"net/http"
)

// DNS mirrors the array-global DNS configuration singleton.
// The patch body carries both fields on every update so an empty value
// clears the corresponding setting instead of being dropped.
type DNS struct {
	Domain      string   `json:"domain"`
	Nameservers []string `json:"nameservers"`
}

// GetDNS fetches the global DNS configuration.
func (c *Client) GetDNS(ctx context.Context) (*DNS, error) {
	return one[DNS](ctx, c, "get dns", http.MethodGet, "dns", nil, nil)
}

// PatchDNS replaces the global DNS configuration.
func (c *Client) PatchDNS(ctx context.Context, cfg DNS) (*DNS, error) {
	return one[DNS](ctx, c, "update dns", http.MethodPatch, "dns", nil, cfg)
}
