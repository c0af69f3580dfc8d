package flasharray

import (
	"context"
	"net/http"
)

// QoS carries the volume-scoped performance limits.
type QoS struct {
	BandwidthLimit int64 `json:"bandwidth_limit,omitempty"`
	IopsLimit      int64 `json:"iops_limit,omitempty"`
}

// Ref is a name reference to another resource.
type Ref struct {
	Name string `json:"name"`
}

// Volume mirrors the REST 2.x volume resource.
type Volume struct {
	Name        string `json:"name"`
	Provisioned int64  `json:"provisioned"`
	Destroyed   bool   `json:"destroyed"`
	Serial      string `json:"serial,omitempty"`
	QoS         *QoS   `json:"qos,omitempty"`
	VolumeGroup *Ref   `json:"volume_group,omitempty"`
}

// VolumeCreate carries the attributes sent with a volume create call.
type VolumeCreate struct {
	Provisioned int64 `json:"provisioned"`
	QoS         *QoS  `json:"qos,omitempty"`
}

// VolumePatch carries a partial volume update. Nil fields are omitted.
type VolumePatch struct {
	Name        *string `json:"name,omitempty"`
	Provisioned *int64  `json:"provisioned,omitempty"`
	Destroyed   *bool   `json:"destroyed,omitempty"`
	QoS         *QoS    `json:"qos,omitempty"`
	// Truncate permits a shrinking resize; sent as a query parameter.
	Truncate bool `json:"-"`
}

// GetVolume fetches one volume by name, falling back to the destroyed
// bucket so a pending eradication is still observable. Returns nil when no
// such volume exists in either bucket.
func (c *Client) GetVolume(ctx context.Context, name string) (*Volume, error) {
	vol, err := one[Volume](ctx, c, "get volume", http.MethodGet, "volumes", names(name), nil)
	if err != nil || vol != nil {
		return vol, err
	}

	q := names(name)
	q.Set("destroyed", "true")
	return one[Volume](ctx, c, "get volume", http.MethodGet, "volumes", q, nil)
}

// CreateVolume creates a volume with the supplied attributes.
func (c *Client) CreateVolume(ctx context.Context, name string, body VolumeCreate) (*Volume, error) {
	return one[Volume](ctx, c, "create volume", http.MethodPost, "volumes", names(name), body)
}

// PatchVolume applies a partial update to a volume.
func (c *Client) PatchVolume(ctx context.Context, name string, patch VolumePatch) (*Volume, error) {
	q := names(name)
	if patch.Truncate {
		q.Set("truncate", "true")
	}
	return one[Volume](ctx, c, "update volume", http.MethodPatch, "volumes", q, patch)
}

// DestroyVolume moves a volume to the destroyed bucket.
func (c *Client) DestroyVolume(ctx context.Context, name string) error {
	destroyed := true
	_, err := c.PatchVolume(ctx, name, VolumePatch{Destroyed: &destroyed})
	return err
}

// EradicateVolume permanently removes a destroyed volume.
func (c *Client) EradicateVolume(ctx context.Context, name string) error {
	return c.mutate(ctx, "eradicate volume", http.MethodDelete, "volumes", names(name), nil)
}

// MoveVolume reassigns a volume into (or out of, with an empty group name)
// a volume group.
func (c *Client) MoveVolume(ctx context.Context, name, volumeGroup string) (*Volume, error) {
	body := struct {
		VolumeGroup Ref `json:"volume_group"`
	}{VolumeGroup: Ref{Name: volumeGroup}}
	return one[Volume](ctx, c, "move volume", http.MethodPatch, "volumes", names(name), body)
}
