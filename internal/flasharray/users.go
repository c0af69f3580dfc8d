package flasharray

import (
	"context"
	"net/http"
)

// AdminUser mirrors the REST 2.x local administrator resource. Passwords
// are write-only and never returned by the array.
type AdminUser struct {
	Name string `json:"name"`
	Role *Ref   `json:"role,omitempty"`
}

// AdminPost carries the attributes sent with an admin create call.
type AdminPost struct {
	Password string `json:"password"`
	Role     *Ref   `json:"role,omitempty"`
}

// AdminPatch carries a partial admin update.
type AdminPatch struct {
	Password    *string `json:"password,omitempty"`
	OldPassword *string `json:"old_password,omitempty"`
	Role        *Ref    `json:"role,omitempty"`
}

// GetAdmin fetches one local user by name. Returns nil when absent.
func (c *Client) GetAdmin(ctx context.Context, name string) (*AdminUser, error) {
	return one[AdminUser](ctx, c, "get admin", http.MethodGet, "admins", names(name), nil)
}

// CreateAdmin creates a local user.
func (c *Client) CreateAdmin(ctx context.Context, name string, body AdminPost) (*AdminUser, error) {
	return one[AdminUser](ctx, c, "create admin", http.MethodPost, "admins", names(name), body)
}

// PatchAdmin applies a partial update to a local user.
func (c *Client) PatchAdmin(ctx context.Context, name string, patch AdminPatch) (*AdminUser, error) {
	return one[AdminUser](ctx, c, "update admin", http.MethodPatch, "admins", names(name), patch)
}

// DeleteAdmin removes a local user.
func (c *Client) DeleteAdmin(ctx context.Context, name string) error {
	return c.mutate(ctx, "delete admin", http.MethodDelete, "admins", names(name), nil)
}

// ApiToken mirrors a user's API token metadata.
type ApiToken struct {
	Token     string `json:"token,omitempty"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

// CreateAdminApiToken issues a new API token for a user, replacing any
// existing one.
func (c *Client) CreateAdminApiToken(ctx context.Context, name string) (*ApiToken, error) {
	type tokenHolder struct {
		ApiToken *ApiToken `json:"api_token"`
	}
	holder, err := one[tokenHolder](ctx, c, "create api token", http.MethodPost, "admins/api-tokens", names(name), nil)
	if err != nil || holder == nil {
		return nil, err
	}
	return holder.ApiToken, nil
}

// DeleteAdminApiToken revokes a user's API token.
func (c *Client) DeleteAdminApiToken(ctx context.Context, name string) error {
	return c.mutate(ctx, "delete api token", http.MethodDelete, "admins/api-tokens", names(name), nil)
}
