package flasharray

import (
	"context"
	"net/http"
	"net/url"
)

// ProtectionGroup mirrors the REST 2.x protection-group resource.
type ProtectionGroup struct {
	Name      string `json:"name"`
	Destroyed bool   `json:"destroyed"`
}

// ProtectionGroupSnapshot mirrors one point-in-time snapshot of a
// protection group. Snapshot names are <group>.<suffix>.
type ProtectionGroupSnapshot struct {
	Name      string `json:"name"`
	Suffix    string `json:"suffix,omitempty"`
	Destroyed bool   `json:"destroyed"`
	Created   int64  `json:"created,omitempty"`
}

// GetProtectionGroup fetches one protection group. Returns nil when absent.
func (c *Client) GetProtectionGroup(ctx context.Context, name string) (*ProtectionGroup, error) {
	return one[ProtectionGroup](ctx, c, "get protection group", http.MethodGet, "protection-groups", names(name), nil)
}

// GetProtectionGroupSnapshot fetches one snapshot by full name
// (<group>.<suffix>), falling back to the destroyed bucket. Returns nil
// when absent.
func (c *Client) GetProtectionGroupSnapshot(ctx context.Context, name string) (*ProtectionGroupSnapshot, error) {
	snap, err := one[ProtectionGroupSnapshot](ctx, c, "get pgroup snapshot", http.MethodGet, "protection-group-snapshots", names(name), nil)
	if err != nil || snap != nil {
		return snap, err
	}

	q := names(name)
	q.Set("destroyed", "true")
	return one[ProtectionGroupSnapshot](ctx, c, "get pgroup snapshot", http.MethodGet, "protection-group-snapshots", q, nil)
}

// CreateProtectionGroupSnapshot snapshots a protection group with the
// given suffix, optionally applying the group's retention policy.
func (c *Client) CreateProtectionGroupSnapshot(ctx context.Context, group, suffix string, applyRetention bool) (*ProtectionGroupSnapshot, error) {
	q := url.Values{}
	q.Set("source_names", group)
	if applyRetention {
		q.Set("apply_retention", "true")
	}

	body := struct {
		Suffix string `json:"suffix,omitempty"`
	}{Suffix: suffix}

	return one[ProtectionGroupSnapshot](ctx, c, "create pgroup snapshot", http.MethodPost, "protection-group-snapshots", q, body)
}

// DestroyProtectionGroupSnapshot moves a snapshot to the destroyed bucket.
func (c *Client) DestroyProtectionGroupSnapshot(ctx context.Context, name string) error {
	body := struct {
		Destroyed bool `json:"destroyed"`
	}{Destroyed: true}
	return c.mutate(ctx, "destroy pgroup snapshot", http.MethodPatch, "protection-group-snapshots", names(name), body)
}

// EradicateProtectionGroupSnapshot permanently removes a destroyed snapshot.
func (c *Client) EradicateProtectionGroupSnapshot(ctx context.Context, name string) error {
	return c.mutate(ctx, "eradicate pgroup snapshot", http.MethodDelete, "protection-group-snapshots", names(name), nil)
}
