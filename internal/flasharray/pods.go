package flasharray

import (
	"context"
	"net/http"
	"net/url"
)

// PodArrayMember is one array a pod is stretched across.
type PodArrayMember struct {
	Name   string `json:"name"`
	Status string `json:"status,omitempty"`
}

// Pod mirrors the REST 2.x pod resource.
type Pod struct {
	Name                 string           `json:"name"`
	Destroyed            bool             `json:"destroyed"`
	Arrays               []PodArrayMember `json:"arrays,omitempty"`
	FailoverPreferences  []Ref            `json:"failover_preferences,omitempty"`
	QuotaLimit           int64            `json:"quota_limit,omitempty"`
	RequestedPromotstate string           `json:"requested_promotion_state,omitempty"`
}

// PodPost carries the attributes sent with a pod create call.
type PodPost struct {
	FailoverPreferences []Ref `json:"failover_preferences,omitempty"`
	QuotaLimit          int64 `json:"quota_limit,omitempty"`
}

// PodPatch carries a partial pod update.
type PodPatch struct {
	Destroyed           *bool  `json:"destroyed,omitempty"`
	FailoverPreferences *[]Ref `json:"failover_preferences,omitempty"`
	QuotaLimit          *int64 `json:"quota_limit,omitempty"`
}

// GetPod fetches one pod, falling back to the destroyed bucket. Returns
// nil when absent.
func (c *Client) GetPod(ctx context.Context, name string) (*Pod, error) {
	pod, err := one[Pod](ctx, c, "get pod", http.MethodGet, "pods", names(name), nil)
	if err != nil || pod != nil {
		return pod, err
	}

	q := names(name)
	q.Set("destroyed", "true")
	return one[Pod](ctx, c, "get pod", http.MethodGet, "pods", q, nil)
}

// CreatePod creates a pod on the local array.
func (c *Client) CreatePod(ctx context.Context, name string, body PodPost) (*Pod, error) {
	return one[Pod](ctx, c, "create pod", http.MethodPost, "pods", names(name), body)
}

// PatchPod applies a partial update to a pod.
func (c *Client) PatchPod(ctx context.Context, name string, patch PodPatch) (*Pod, error) {
	return one[Pod](ctx, c, "update pod", http.MethodPatch, "pods", names(name), patch)
}

// StretchPod adds a peer array to a pod.
func (c *Client) StretchPod(ctx context.Context, pod, array string) error {
	return c.mutate(ctx, "stretch pod", http.MethodPost, "pods/arrays", podArrayQuery(pod, array), nil)
}

// UnstretchPod removes a peer array from a pod.
func (c *Client) UnstretchPod(ctx context.Context, pod, array string) error {
	return c.mutate(ctx, "unstretch pod", http.MethodDelete, "pods/arrays", podArrayQuery(pod, array), nil)
}

func podArrayQuery(pod, array string) url.Values {
	q := url.Values{}
	q.Set("group_names", pod)
	q.Set("member_names", array)
	return q
}

// DestroyPod moves a pod to the destroyed bucket.
func (c *Client) DestroyPod(ctx context.Context, name string) error {
	destroyed := true
	_, err := c.PatchPod(ctx, name, PodPatch{Destroyed: &destroyed})
	return err
}

// EradicatePod permanently removes a destroyed pod.
func (c *Client) EradicatePod(ctx context.Context, name string) error {
	return c.mutate(ctx, "eradicate pod", http.MethodDelete, "pods", names(name), nil)
}
