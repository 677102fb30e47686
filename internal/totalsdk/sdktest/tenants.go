package sdktest

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/totalapp/tenantfiles/internal/totalsdk"
)

type createTenantBody struct {
	Name         string                 `json:"name" binding:"required,min=3"`
	CUI          string                 `json:"cui"`
	Emails       []string               `json:"emails" binding:"omitempty,dive,email"`
	PhoneNumbers []string               `json:"phoneNumbers"`
	Observations []totalsdk.Observation `json:"observations"`
	PF           bool                   `json:"pf"`
}

type updateTenantBody struct {
	Name         *string                `json:"name" binding:"omitempty,min=3"`
	CUI          *string                `json:"cui"`
	Emails       []string               `json:"emails" binding:"omitempty,dive,email"`
	PhoneNumbers []string               `json:"phoneNumbers"`
	Observations []totalsdk.Observation `json:"observations"`
	PF           *bool                  `json:"pf"`
	Active       *bool                  `json:"active"`
}

func (s *Server) listTenants(ctx *gin.Context) {
	filter := ctx.Query("tenantId")

	s.mu.Lock()
	out := make([]totalsdk.Tenant, 0, len(s.tenants))
	for id, t := range s.tenants {
		if filter != "" && id != filter {
			continue
		}
		out = append(out, *t)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	ctx.PureJSON(http.StatusOK, out)
}

func (s *Server) getTenant(ctx *gin.Context) {
	s.mu.Lock()
	t, ok := s.tenants[ctx.Param("id")]
	var tenant totalsdk.Tenant
	if ok {
		tenant = *t
	}
	s.mu.Unlock()

	if !ok {
		abortWithError(ctx, http.StatusNotFound, codeNotFound, "Chiriasul nu exista")
		return
	}
	ctx.PureJSON(http.StatusOK, tenant)
}

func (s *Server) createTenant(ctx *gin.Context) {
	var body createTenantBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		abortWithError(ctx, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}

	tenant := totalsdk.Tenant{
		ID:           tenantID(body.Name),
		Name:         strings.TrimSpace(body.Name),
		CUI:          body.CUI,
		Emails:       body.Emails,
		PhoneNumbers: body.PhoneNumbers,
		Observations: body.Observations,
		PF:           body.PF,
		Active:       true,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tenants[tenant.ID]; exists {
		abortWithError(ctx, http.StatusConflict, codeInvalidRequest, "Chiriasul exista deja")
		return
	}
	s.tenants[tenant.ID] = &tenant

	ctx.PureJSON(http.StatusCreated, tenant)
}

func (s *Server) updateTenant(ctx *gin.Context) {
	var body updateTenantBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		abortWithError(ctx, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tenants[ctx.Param("id")]
	if !ok {
		abortWithError(ctx, http.StatusNotFound, codeNotFound, "Chiriasul nu exista")
		return
	}

	if body.Name != nil {
		t.Name = strings.TrimSpace(*body.Name)
	}
	if body.CUI != nil {
		t.CUI = *body.CUI
	}
	if body.Emails != nil {
		t.Emails = body.Emails
	}
	if body.PhoneNumbers != nil {
		t.PhoneNumbers = body.PhoneNumbers
	}
	if body.Observations != nil {
		t.Observations = body.Observations
	}
	if body.PF != nil {
		t.PF = *body.PF
	}
	if body.Active != nil {
		t.Active = *body.Active
	}

	ctx.PureJSON(http.StatusOK, *t)
}

func (s *Server) deleteTenant(ctx *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := ctx.Param("id")
	if _, ok := s.tenants[id]; !ok {
		abortWithError(ctx, http.StatusNotFound, codeNotFound, "Chiriasul nu exista")
		return
	}
	delete(s.tenants, id)
	ctx.Status(http.StatusNoContent)
}
