package flasharray

import (
	"context"
	"net/http"
)

// PriorityAdjustment carries the DMM priority tweak for a volume group.
type PriorityAdjustment struct {
	PriorityAdjustmentOperator string `json:"priority_adjustment_operator,omitempty"`
	PriorityAdjustmentValue    int    `json:"priority_adjustment_value,omitempty"`
}

// VolumeGroup mirrors the REST 2.x volume-group resource.
type VolumeGroup struct {
	Name               string              `json:"name"`
	Destroyed          bool                `json:"destroyed"`
	QoS                *QoS                `json:"qos,omitempty"`
	PriorityAdjustment *PriorityAdjustment `json:"priority_adjustment,omitempty"`
}

// VolumeGroupPost carries the attributes sent with a volume-group create.
type VolumeGroupPost struct {
	QoS                *QoS                `json:"qos,omitempty"`
	PriorityAdjustment *PriorityAdjustment `json:"priority_adjustment,omitempty"`
}

// VolumeGroupPatch carries a partial volume-group update.
type VolumeGroupPatch struct {
	Destroyed          *bool               `json:"destroyed,omitempty"`
	QoS                *QoS                `json:"qos,omitempty"`
	PriorityAdjustment *PriorityAdjustment `json:"priority_adjustment,omitempty"`
}

// GetVolumeGroup fetches one volume group, falling back to the destroyed
// bucket. Returns nil when absent.
func (c *Client) GetVolumeGroup(ctx context.Context, name string) (*VolumeGroup, error) {
	vg, err := one[VolumeGroup](ctx, c, "get volume group", http.MethodGet, "volume-groups", names(name), nil)
	if err != nil || vg != nil {
		return vg, err
	}

	q := names(name)
	q.Set("destroyed", "true")
	return one[VolumeGroup](ctx, c, "get volume group", http.MethodGet, "volume-groups", q, nil)
}

// CreateVolumeGroup creates a volume group.
func (c *Client) CreateVolumeGroup(ctx context.Context, name string, body VolumeGroupPost) (*VolumeGroup, error) {
	return one[VolumeGroup](ctx, c, "create volume group", http.MethodPost, "volume-groups", names(name), body)
}

// PatchVolumeGroup applies a partial update to a volume group.
func (c *Client) PatchVolumeGroup(ctx context.Context, name string, patch VolumeGroupPatch) (*VolumeGroup, error) {
	return one[VolumeGroup](ctx, c, "update volume group", http.MethodPatch, "volume-groups", names(name), patch)
}

// DestroyVolumeGroup moves a volume group to the destroyed bucket.
func (c *Client) DestroyVolumeGroup(ctx context.Context, name string) error {
	destroyed := true
	_, err := c.PatchVolumeGroup(ctx, name, VolumeGroupPatch{Destroyed: &destroyed})
	return err
}

// EradicateVolumeGroup permanently removes a destroyed volume group.
func (c *Client) EradicateVolumeGroup(ctx context.Context, name string) error {
	return c.mutate(ctx, "eradicate volume group", http.MethodDelete, "volume-groups", names(name), nil)
}
