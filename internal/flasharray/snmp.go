package flasharray

import (
	"context"
	"net/http"
)

// SnmpV2C carries SNMP v2c parameters.
type SnmpV2C struct {
	Community string `json:"community,omitempty"`
}

// SnmpV3 carries SNMP v3 parameters. Passphrases are write-only.
type SnmpV3 struct {
	User              string `json:"user,omitempty"`
	AuthProtocol      string `json:"auth_protocol,omitempty"`
	AuthPassphrase    string `json:"auth_passphrase,omitempty"`
	PrivacyProtocol   string `json:"privacy_protocol,omitempty"`
	PrivacyPassphrase string `json:"privacy_passphrase,omitempty"`
}

// SnmpManager mirrors one SNMP notification target.
type SnmpManager struct {
	Name         string   `json:"name"`
	Host         string   `json:"host"`
	Version      string   `json:"version"`
	Notification string   `json:"notification,omitempty"`
	V2C          *SnmpV2C `json:"v2c,omitempty"`
	V3           *SnmpV3  `json:"v3,omitempty"`
}

// SnmpManagerPost carries the attributes sent with a create call.
type SnmpManagerPost struct {
	Host         string   `json:"host"`
	Version      string   `json:"version"`
	Notification string   `json:"notification,omitempty"`
	V2C          *SnmpV2C `json:"v2c,omitempty"`
	V3           *SnmpV3  `json:"v3,omitempty"`
}

// SnmpManagerPatch carries a partial update.
type SnmpManagerPatch struct {
	Host         *string  `json:"host,omitempty"`
	Version      *string  `json:"version,omitempty"`
	Notification *string  `json:"notification,omitempty"`
	V2C          *SnmpV2C `json:"v2c,omitempty"`
	V3           *SnmpV3  `json:"v3,omitempty"`
}

// GetSnmpManager fetches one SNMP manager. Returns nil when absent.
func (c *Client) GetSnmpManager(ctx context.Context, name string) (*SnmpManager, error) {
	return one[SnmpManager](ctx, c, "get snmp manager", http.MethodGet, "snmp-managers", names(name), nil)
}

// CreateSnmpManager registers an SNMP manager.
func (c *Client) CreateSnmpManager(ctx context.Context, name string, body SnmpManagerPost) (*SnmpManager, error) {
	return one[SnmpManager](ctx, c, "create snmp manager", http.MethodPost, "snmp-managers", names(name), body)
}

// PatchSnmpManager applies a partial update to an SNMP manager.
func (c *Client) PatchSnmpManager(ctx context.Context, name string, patch SnmpManagerPatch) (*SnmpManager, error) {
	return one[SnmpManager](ctx, c, "update snmp manager", http.MethodPatch, "snmp-managers", names(name), patch)
}

// DeleteSnmpManager removes an SNMP manager.
func (c *Client) DeleteSnmpManager(ctx context.Context, name string) error {
	return c.mutate(ctx, "delete snmp manager", http.MethodDelete, "snmp-managers", names(name), nil)
}
