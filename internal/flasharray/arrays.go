package flasharray

import (
	"context"
	"net/http"
)

// Array mirrors the array-global settings singleton.
type Array struct {
	Name            string   `json:"name,omitempty"`
	NtpServers      []string `json:"ntp_servers,omitempty"`
	NtpSymmetricKey string   `json:"ntp_symmetric_key,omitempty"`
	Version         string   `json:"version,omitempty"`
}

// ArrayPatch carries a partial update to the array settings.
type ArrayPatch struct {
	Name            *string   `json:"name,omitempty"`
	NtpServers      *[]string `json:"ntp_servers,omitempty"`
	NtpSymmetricKey *string   `json:"ntp_symmetric_key,omitempty"`
}

// GetArray fetches the array settings singleton.
func (c *Client) GetArray(ctx context.Context) (*Array, error) {
	return one[Array](ctx, c, "get array", http.MethodGet, "arrays", nil, nil)
}

// PatchArray applies a partial update to the array settings.
func (c *Client) PatchArray(ctx context.Context, patch ArrayPatch) (*Array, error) {
	return one[Array](ctx, c, "update array", http.MethodPatch, "arrays", nil, patch)
}
