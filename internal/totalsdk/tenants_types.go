package totalsdk

import "strings"

type ObservationType string

const (
	ObservationSimple ObservationType = "SIMPLE"
	ObservationUrgent ObservationType = "URGENT"
	ObservationTodo   ObservationType = "TODO"
)

type Observation struct {
	ID      string          `json:"id,omitempty"`
	Message string          `json:"message" validate:"required"`
	Type    ObservationType `json:"type" validate:"oneof=SIMPLE URGENT TODO"`
}

type Tenant struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	CUI           string        `json:"cui,omitempty"`
	Emails        []string      `json:"emails,omitempty"`
	PhoneNumbers  []string      `json:"phoneNumbers,omitempty"`
	Observations  []Observation `json:"observations,omitempty"`
	PF            bool          `json:"pf"`
	Active        bool          `json:"active"`
	AttachmentIDs []string      `json:"attachmentIds,omitempty"`
}

// CreateTenantRequest is a Tenant without the server-assigned fields
type CreateTenantRequest struct {
	Name         string        `json:"name" validate:"required,min=3"`
	CUI          string        `json:"cui,omitempty"`
	Emails       []string      `json:"emails,omitempty" validate:"omitempty,dive,email"`
	PhoneNumbers []string      `json:"phoneNumbers,omitempty" validate:"omitempty,dive,required"`
	Observations []Observation `json:"observations,omitempty" validate:"omitempty,dive"`
	PF           bool          `json:"pf"`
}

func (r *CreateTenantRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.CUI = strings.TrimSpace(r.CUI)
}

// UpdateTenantRequest carries only the fields being changed
type UpdateTenantRequest struct {
	Name         *string       `json:"name,omitempty" validate:"omitempty,min=3"`
	CUI          *string       `json:"cui,omitempty"`
	Emails       []string      `json:"emails,omitempty" validate:"omitempty,dive,email"`
	PhoneNumbers []string      `json:"phoneNumbers,omitempty"`
	Observations []Observation `json:"observations,omitempty" validate:"omitempty,dive"`
	PF           *bool         `json:"pf,omitempty"`
	Active       *bool         `json:"active,omitempty"`
}

func (r *UpdateTenantRequest) normalize() {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		r.Name = &name
	}
}
