package main

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/totalapp/tenantfiles/internal/totalsdk"
	"github.com/totalapp/tenantfiles/internal/utils"
)

var (
	presetHeaders     = []string{"ID", "NAME", "RECIPIENTS", "SUBJECT", "KEYWORDS"}
	presetFileHeaders = []string{"ID", "NAME", "SIZE"}
	presetSendHeaders = []string{"PRESET", "RECIPIENTS", "FILES"}

	errNoPresetFiles   = errors.New("no preset files uploaded: add some with totalapp presets upload")
	errNoPresetsPicked = errors.New("no presets given: pass --preset ID or --all")
)

func presetRows(presets []totalsdk.EmailPreset) [][]string {
	rows := make([][]string, 0, len(presets))
	for _, p := range presets {
		rows = append(rows, []string{
			p.ID, p.Name, strings.Join(p.Recipients, ", "), p.Subject, strings.Join(p.Keywords, ", "),
		})
	}
	return rows
}

func presetFileRows(files []totalsdk.EmailFile) [][]string {
	rows := make([][]string, 0, len(files))
	for _, f := range files {
		rows = append(rows, []string{f.ID, f.Name, formatSize(f.Size)})
	}
	return rows
}

func newPresetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "presets",
		Aliases: []string{"emails"},
		Short:   "Manage email presets and send them with matching files",
	}
	cmd.AddCommand(
		newPresetsListCmd(),
		newPresetsCreateCmd(),
		newPresetsUpdateCmd(),
		newPresetsFilesCmd(),
		newPresetsUploadCmd(),
		newPresetsDeleteFileCmd(),
		newPresetsSendCmd(),
	)
	return cmd
}

func runPresets(fn func(cmd *cobra.Command, args []string, api *totalsdk.EmailPresetsAPI, p *printer) error) func(*cobra.Command, []string) error {
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
		return fn(cmd, args, a.api.Presets, p)
	}
}

func (p *printer) presets(presets []totalsdk.EmailPreset) error {
	if ok, err := p.structured(presets); ok {
		return err
	}
	return p.table(presetHeaders, presetRows(presets))
}

func (p *printer) preset(preset *totalsdk.EmailPreset) error {
	if ok, err := p.structured(preset); ok {
		return err
	}
	return p.table(presetHeaders, presetRows([]totalsdk.EmailPreset{*preset}))
}

func (p *printer) presetFiles(files []totalsdk.EmailFile) error {
	if ok, err := p.structured(files); ok {
		return err
	}
	return p.table(presetFileHeaders, presetFileRows(files))
}

// presetFlags binds the preset fields shared by create and update
type presetFlags struct {
	req totalsdk.EmailPresetRequest
}

func (f *presetFlags) bind(cmd *cobra.Command) {
	cmd.Flags().SortFlags = false
	cmd.Flags().StringVar(&f.req.Name, "name", "", "preset name")
	cmd.Flags().StringSliceVar(&f.req.Recipients, "recipient", nil, "recipient address, repeatable")
	cmd.Flags().StringVar(&f.req.Subject, "subject", "", "email subject")
	cmd.Flags().StringVar(&f.req.Message, "message", "", "email body")
	cmd.Flags().StringSliceVar(&f.req.Keywords, "keyword", nil, "attach files whose name contains this, repeatable")
}

// merge fills the fields whose flag was not given from the current preset
func (f *presetFlags) merge(cmd *cobra.Command, current totalsdk.EmailPreset) *totalsdk.EmailPresetRequest {
	flags := cmd.Flags()
	req := f.req
	if !flags.Changed("name") {
		req.Name = current.Name
	}
	if !flags.Changed("recipient") {
		req.Recipients = current.Recipients
	}
	if !flags.Changed("subject") {
		req.Subject = current.Subject
	}
	if !flags.Changed("message") {
		req.Message = current.Message
	}
	if !flags.Changed("keyword") {
		req.Keywords = current.Keywords
	}
	return &req
}

func newPresetsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List email presets",
		Args:    cobra.NoArgs,
		RunE: runPresets(func(cmd *cobra.Command, args []string, api *totalsdk.EmailPresetsAPI, p *printer) error {
			presets, err := api.List(cmd.Context())
			if err != nil {
				return err
			}
			return p.presets(presets)
		}),
	}
}

func newPresetsCreateCmd() *cobra.Command {
	var flags presetFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an email preset",
		Args:  cobra.NoArgs,
		RunE: runPresets(func(cmd *cobra.Command, args []string, api *totalsdk.EmailPresetsAPI, p *printer) error {
			preset, err := api.Create(cmd.Context(), &flags.req)
			if err != nil {
				return err
			}
			return p.preset(preset)
		}),
	}
	flags.bind(cmd)
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("recipient")
	return cmd
}

func newPresetsUpdateCmd() *cobra.Command {
	var flags presetFlags
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change an email preset; fields without a flag keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: runPresets(func(cmd *cobra.Command, args []string, api *totalsdk.EmailPresetsAPI, p *printer) error {
			presets, err := api.List(cmd.Context())
			if err != nil {
				return err
			}
			idx := slices.IndexFunc(presets, func(x totalsdk.EmailPreset) bool { return x.ID == args[0] })
			if idx < 0 {
				return fmt.Errorf("no email preset with id %s", args[0])
			}

			preset, err := api.Update(cmd.Context(), args[0], flags.merge(cmd, presets[idx]))
			if err != nil {
				return err
			}
			return p.preset(preset)
		}),
	}
	flags.bind(cmd)
	return cmd
}

func newPresetsFilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "files",
		Short: "List files available to attach",
		Args:  cobra.NoArgs,
		RunE: runPresets(func(cmd *cobra.Command, args []string, api *totalsdk.EmailPresetsAPI, p *printer) error {
			files, err := api.ListFiles(cmd.Context())
			if err != nil {
				return err
			}
			return p.presetFiles(files)
		}),
	}
}

func newPresetsUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload PATH...",
		Short: "Upload files to attach to preset emails (globs allowed)",
		Args:  cobra.MinimumNArgs(1),
		RunE: runPresets(func(cmd *cobra.Command, args []string, api *totalsdk.EmailPresetsAPI, p *printer) error {
			paths, err := utils.ExpandPaths(args)
			if err != nil {
				return err
			}

			uploaded := make([]totalsdk.EmailFile, 0, len(paths))
			for _, path := range paths {
				file, err := api.UploadFile(cmd.Context(), path)
				if err != nil {
					return err
				}
				uploaded = append(uploaded, *file)
			}
			if ok, err := p.structured(uploaded); ok {
				return err
			}
			p.line("Uploaded %s", plural(len(uploaded), "file"))
			return nil
		}),
	}
}

func newPresetsDeleteFileCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete-file ID",
		Aliases: []string{"rm-file"},
		Short:   "Remove a file from the attachment pool",
		Args:    cobra.ExactArgs(1),
		RunE: runPresets(func(cmd *cobra.Command, args []string, api *totalsdk.EmailPresetsAPI, p *printer) error {
			if err := api.DeleteFile(cmd.Context(), args[0]); err != nil {
				return err
			}
			p.line("Deleted file %s", args[0])
			return nil
		}),
	}
}

func newPresetsSendCmd() *cobra.Command {
	var (
		presetIDs, fileIDs []string
		all, dryRun        bool
	)
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send presets, each with the uploaded files its keywords match",
		Args:  cobra.NoArgs,
		RunE: runPresets(func(cmd *cobra.Command, args []string, api *totalsdk.EmailPresetsAPI, p *printer) error {
			ctx := cmd.Context()

			presets, err := api.List(ctx)
			if err != nil {
				return err
			}
			picked, err := pickPresets(presets, presetIDs, all)
			if err != nil {
				return err
			}

			files, err := api.ListFiles(ctx)
			if err != nil {
				return err
			}
			attach, err := pickFiles(files, fileIDs)
			if err != nil {
				return err
			}

			if dryRun {
				return p.sendPlan(picked, attach)
			}

			res, err := api.Send(ctx, &totalsdk.SendPresetsRequest{
				PresetIDs: presetIDsOf(picked),
				FileIDs:   fileIDsOf(attach),
			})
			if err != nil {
				return err
			}
			return p.sent(res, picked, attach)
		}),
	}
	cmd.Flags().StringSliceVar(&presetIDs, "preset", nil, "preset id, repeatable")
	cmd.Flags().BoolVar(&all, "all", false, "send every preset")
	cmd.Flags().StringSliceVar(&fileIDs, "file", nil, "limit attachments to these file ids (default: every uploaded file)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show which files each preset would get without sending")
	cmd.MarkFlagsMutuallyExclusive("preset", "all")
	return cmd
}

func pickPresets(presets []totalsdk.EmailPreset, ids []string, all bool) ([]totalsdk.EmailPreset, error) {
	if all {
		if len(presets) == 0 {
			return nil, errors.New("no email presets defined")
		}
		return presets, nil
	}
	if len(ids) == 0 {
		return nil, errNoPresetsPicked
	}

	picked := make([]totalsdk.EmailPreset, 0, len(ids))
	for _, id := range ids {
		idx := slices.IndexFunc(presets, func(x totalsdk.EmailPreset) bool { return x.ID == id })
		if idx < 0 {
			return nil, fmt.Errorf("no email preset with id %s", id)
		}
		picked = append(picked, presets[idx])
	}
	return picked, nil
}

func pickFiles(files []totalsdk.EmailFile, ids []string) ([]totalsdk.EmailFile, error) {
	if len(files) == 0 {
		return nil, errNoPresetFiles
	}
	if len(ids) == 0 {
		return files, nil
	}

	picked := make([]totalsdk.EmailFile, 0, len(ids))
	for _, id := range ids {
		idx := slices.IndexFunc(files, func(f totalsdk.EmailFile) bool { return f.ID == id })
		if idx < 0 {
			return nil, fmt.Errorf("no preset file with id %s", id)
		}
		picked = append(picked, files[idx])
	}
	return picked, nil
}

func presetIDsOf(presets []totalsdk.EmailPreset) []string {
	ids := make([]string, len(presets))
	for i, p := range presets {
		ids[i] = p.ID
	}
	return ids
}

func fileIDsOf(files []totalsdk.EmailFile) []string {
	ids := make([]string, len(files))
	for i, f := range files {
		ids[i] = f.ID
	}
	return ids
}

func fileNames(files []totalsdk.EmailFile) string {
	if len(files) == 0 {
		return yellow.Render("(no matching files)")
	}
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return strings.Join(names, ", ")
}

// sendPlan shows what send would attach to each preset
func (p *printer) sendPlan(presets []totalsdk.EmailPreset, files []totalsdk.EmailFile) error {
	type planned struct {
		PresetID string               `json:"presetId"`
		Name     string               `json:"name"`
		Files    []totalsdk.EmailFile `json:"files"`
	}
	plan := make([]planned, 0, len(presets))
	rows := make([][]string, 0, len(presets))
	for _, preset := range presets {
		matched := preset.MatchFiles(files)
		plan = append(plan, planned{PresetID: preset.ID, Name: preset.Name, Files: matched})
		rows = append(rows, []string{preset.Name, strings.Join(preset.Recipients, ", "), fileNames(matched)})
	}

	if ok, err := p.structured(plan); ok {
		return err
	}
	return p.table(presetSendHeaders, rows)
}

func (p *printer) sent(res *totalsdk.SendPresetsResult, presets []totalsdk.EmailPreset, files []totalsdk.EmailFile) error {
	if ok, err := p.structured(res); ok {
		return err
	}

	names := make(map[string]string, len(presets))
	for _, preset := range presets {
		names[preset.ID] = preset.Name
	}

	rows := make([][]string, 0, len(res.Sent))
	for _, email := range res.Sent {
		attached := slices.DeleteFunc(slices.Clone(files), func(f totalsdk.EmailFile) bool {
			return !slices.Contains(email.FileIDs, f.ID)
		})
		rows = append(rows, []string{names[email.PresetID], strings.Join(email.Recipients, ", "), fileNames(attached)})
	}
	if err := p.table(presetSendHeaders, rows); err != nil {
		return err
	}
	p.line("Sent %s", plural(len(res.Sent), "email"))
	return nil
}
