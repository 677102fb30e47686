package totalsdk

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/imroc/req/v3"
)

const (
	tenantsBase = "/tenants"
	tenantsItem = "/tenants/{id}"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type TenantsAPI struct {
	c *Client
}

func newTenantsAPI(c *Client) *TenantsAPI {
	return &TenantsAPI{c: c}
}

// List returns all tenants, or the one matching tenantID when it is set
func (t *TenantsAPI) List(ctx context.Context, tenantID string) ([]Tenant, error) {
	var tenants []Tenant
	err := t.c.call(ctx, "list tenants", func(r *req.Request) (*req.Response, error) {
		tenants = nil
		if tenantID != "" {
			r.SetQueryParam("tenantId", tenantID)
		}
		return r.SetSuccessResult(&tenants).Get(tenantsBase)
	})
	if err != nil {
		return nil, err
	}
	return tenants, nil
}

func (t *TenantsAPI) Get(ctx context.Context, id string) (*Tenant, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrInvalidTenant)
	}

	var tenant Tenant
	err := t.c.call(ctx, "get tenant", func(r *req.Request) (*req.Response, error) {
		return r.SetPathParam("id", id).SetSuccessResult(&tenant).Get(tenantsItem)
	})
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (t *TenantsAPI) Create(ctx context.Context, params *CreateTenantRequest) (*Tenant, error) {
	if params == nil {
		return nil, fmt.Errorf("%w: nil request", ErrInvalidTenant)
	}
	params.normalize()
	if err := validate.Struct(params); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTenant, err)
	}

	var tenant Tenant
	err := t.c.call(ctx, "create tenant", func(r *req.Request) (*req.Response, error) {
		return r.SetBody(params).SetSuccessResult(&tenant).Post(tenantsBase)
	})
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// Update applies a partial change; the API takes it as POST /tenants/{id}
func (t *TenantsAPI) Update(ctx context.Context, id string, params *UpdateTenantRequest) (*Tenant, error) {
	if id == "" || params == nil {
		return nil, fmt.Errorf("%w: missing id or fields", ErrInvalidTenant)
	}
	params.normalize()
	if err := validate.Struct(params); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTenant, err)
	}

	var tenant Tenant
	err := t.c.call(ctx, "update tenant", func(r *req.Request) (*req.Response, error) {
		return r.SetPathParam("id", id).SetBody(params).SetSuccessResult(&tenant).Post(tenantsItem)
	})
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (t *TenantsAPI) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidTenant)
	}
	return t.c.call(ctx, "delete tenant", func(r *req.Request) (*req.Response, error) {
		return r.SetPathParam("id", id).Delete(tenantsItem)
	})
}
