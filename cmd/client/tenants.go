package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/totalapp/tenantfiles/internal/totalsdk"
)

var tenantHeaders = []string{"ID", "NAME", "CUI", "EMAILS", "ACTIVE"}

func tenantRows(tenants []totalsdk.Tenant) [][]string {
	rows := make([][]string, 0, len(tenants))
	for _, t := range tenants {
		active := "no"
		if t.Active {
			active = "yes"
		}
		rows = append(rows, []string{t.ID, t.Name, t.CUI, strings.Join(t.Emails, ", "), active})
	}
	return rows
}

func newTenantsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenants",
		Short: "Manage tenants",
	}
	cmd.AddCommand(
		newTenantsListCmd(),
		newTenantsGetCmd(),
		newTenantsCreateCmd(),
		newTenantsUpdateCmd(),
		newTenantsDeleteCmd(),
	)
	return cmd
}

// runTenants wraps the app and printer setup shared by every tenants command
func runTenants(fn func(cmd *cobra.Command, args []string, api *totalsdk.TenantsAPI, p *printer) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		p, err := newPrinter(cmd)
		if err != nil {
			return err
		}
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, args, a.api.Tenants, p)
	}
}

func (p *printer) tenants(tenants []totalsdk.Tenant) error {
	if ok, err := p.structured(tenants); ok {
		return err
	}
	return p.table(tenantHeaders, tenantRows(tenants))
}

func (p *printer) tenant(t *totalsdk.Tenant) error {
	if ok, err := p.structured(t); ok {
		return err
	}
	return p.table(tenantHeaders, tenantRows([]totalsdk.Tenant{*t}))
}

func newTenantsListCmd() *cobra.Command {
	var tenantID string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tenants",
		Args:    cobra.NoArgs,
		RunE: runTenants(func(cmd *cobra.Command, args []string, api *totalsdk.TenantsAPI, p *printer) error {
			tenants, err := api.List(cmd.Context(), tenantID)
			if err != nil {
				return err
			}
			return p.tenants(tenants)
		}),
	}
	cmd.Flags().StringVar(&tenantID, "tenant-id", "", "only the tenant with this id")
	return cmd
}

func newTenantsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one tenant",
		Args:  cobra.ExactArgs(1),
		RunE: runTenants(func(cmd *cobra.Command, args []string, api *totalsdk.TenantsAPI, p *printer) error {
			tenant, err := api.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return p.tenant(tenant)
		}),
	}
}

func newTenantsCreateCmd() *cobra.Command {
	var req totalsdk.CreateTenantRequest
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a tenant",
		Args:  cobra.NoArgs,
		RunE: runTenants(func(cmd *cobra.Command, args []string, api *totalsdk.TenantsAPI, p *printer) error {
			tenant, err := api.Create(cmd.Context(), &req)
			if err != nil {
				return err
			}
			return p.tenant(tenant)
		}),
	}
	cmd.Flags().SortFlags = false
	cmd.Flags().StringVar(&req.Name, "name", "", "tenant name")
	cmd.Flags().StringVar(&req.CUI, "cui", "", "fiscal code")
	cmd.Flags().StringSliceVar(&req.Emails, "email", nil, "contact email, repeatable")
	cmd.Flags().StringSliceVar(&req.PhoneNumbers, "phone", nil, "phone number, repeatable")
	cmd.Flags().BoolVar(&req.PF, "pf", false, "tenant is a natural person")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newTenantsUpdateCmd() *cobra.Command {
	var (
		name, cui      string
		emails, phones []string
		pf, active     bool
	)
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change fields of a tenant; only the flags given are sent",
		Args:  cobra.ExactArgs(1),
		RunE: runTenants(func(cmd *cobra.Command, args []string, api *totalsdk.TenantsAPI, p *printer) error {
			flags := cmd.Flags()
			var req totalsdk.UpdateTenantRequest
			if flags.Changed("name") {
				req.Name = &name
			}
			if flags.Changed("cui") {
				req.CUI = &cui
			}
			if flags.Changed("email") {
				req.Emails = emails
			}
			if flags.Changed("phone") {
				req.PhoneNumbers = phones
			}
			if flags.Changed("pf") {
				req.PF = &pf
			}
			if flags.Changed("active") {
				req.Active = &active
			}
			tenant, err := api.Update(cmd.Context(), args[0], &req)
			if err != nil {
				return err
			}
			return p.tenant(tenant)
		}),
	}
	cmd.Flags().SortFlags = false
	cmd.Flags().StringVar(&name, "name", "", "tenant name")
	cmd.Flags().StringVar(&cui, "cui", "", "fiscal code")
	cmd.Flags().StringSliceVar(&emails, "email", nil, "contact emails, replaces the list")
	cmd.Flags().StringSliceVar(&phones, "phone", nil, "phone numbers, replaces the list")
	cmd.Flags().BoolVar(&pf, "pf", false, "tenant is a natural person")
	cmd.Flags().BoolVar(&active, "active", true, "tenant is active")
	return cmd
}

func newTenantsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a tenant",
		Args:  cobra.ExactArgs(1),
		RunE: runTenants(func(cmd *cobra.Command, args []string, api *totalsdk.TenantsAPI, p *printer) error {
			if err := api.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			p.line("Deleted tenant %s", args[0])
			return nil
		}),
	}
}
