package totalsdk_test

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/totalapp/tenantfiles/internal/totalsdk"
	"github.com/totalapp/tenantfiles/internal/totalsdk/sdktest"
)

func TestEmailPreset_MatchFiles(t *testing.T) {
	files := []totalsdk.EmailFile{
		{ID: "1", Name: "Factura_Ana_martie.pdf"},
		{ID: "2", Name: "contract-ion.docx"},
		{ID: "3", Name: "FACTURA_ION.pdf"},
	}

	tests := []struct {
		name     string
		keywords []string
		want     []string
	}{
		{name: "case insensitive", keywords: []string{"factura"}, want: []string{"1", "3"}},
		{name: "any keyword", keywords: []string{"ana", "contract"}, want: []string{"1", "2"}},
		{name: "blank keywords match nothing", keywords: []string{"", "  "}, want: nil},
		{name: "no keywords", want: nil},
		{name: "trimmed keyword", keywords: []string{" ion "}, want: []string{"2", "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := totalsdk.EmailPreset{Keywords: tt.keywords}
			var got []string
			for _, f := range p.MatchFiles(files) {
				got = append(got, f.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEmailPresets_CRUD(t *testing.T) {
	srv := sdktest.New(t)
	client := srv.Client(t)
	ctx := context.Background()

	created, err := client.Presets.Create(ctx, &totalsdk.EmailPresetRequest{
		Name:       " Facturi lunare ",
		Recipients: []string{"ana@brutaria.ro", " "},
		Subject:    "Factura",
		Message:    "Buna ziua, atasat gasiti factura.",
		Keywords:   []string{"factura", ""},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Facturi lunare", created.Name)
	assert.Equal(t, []string{"ana@brutaria.ro"}, created.Recipients)
	assert.Equal(t, []string{"factura"}, created.Keywords)

	updated, err := client.Presets.Update(ctx, created.ID, &totalsdk.EmailPresetRequest{
		Name:       "Facturi",
		Recipients: []string{"ana@brutaria.ro", "ion@firma.ro"},
		Subject:    "Factura luna curenta",
		Message:    "Atasat.",
		Keywords:   []string{"factura", "aviz"},
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Facturi", updated.Name)
	assert.Len(t, updated.Recipients, 2)

	list, err := client.Presets.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, *updated, list[0])

	_, err = client.Presets.Update(ctx, "missing", &totalsdk.EmailPresetRequest{
		Name: "x", Recipients: []string{"a@b.ro"}, Subject: "s", Message: "m",
	})
	var apiErr *totalsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())
	assert.Equal(t, "Presetul nu exista", totalsdk.UserMessage(err, "error"))
}

func TestEmailPresets_Validation(t *testing.T) {
	srv := sdktest.New(t)
	client := srv.Client(t)
	ctx := context.Background()

	valid := func() *totalsdk.EmailPresetRequest {
		return &totalsdk.EmailPresetRequest{
			Name: "Facturi", Recipients: []string{"ana@brutaria.ro"}, Subject: "Factura", Message: "Atasat.",
		}
	}

	tests := []struct {
		name   string
		mutate func(*totalsdk.EmailPresetRequest)
	}{
		{name: "blank name", mutate: func(r *totalsdk.EmailPresetRequest) { r.Name = "  " }},
		{name: "no recipients", mutate: func(r *totalsdk.EmailPresetRequest) { r.Recipients = []string{" "} }},
		{name: "bad recipient", mutate: func(r *totalsdk.EmailPresetRequest) { r.Recipients = []string{"ana"} }},
		{name: "blank subject", mutate: func(r *totalsdk.EmailPresetRequest) { r.Subject = "" }},
		{name: "blank message", mutate: func(r *totalsdk.EmailPresetRequest) { r.Message = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := valid()
			tt.mutate(params)
			_, err := client.Presets.Create(ctx, params)
			assert.ErrorIs(t, err, totalsdk.ErrInvalidPreset)
		})
	}

	_, err := client.Presets.Create(ctx, nil)
	assert.ErrorIs(t, err, totalsdk.ErrInvalidPreset)
	_, err = client.Presets.Update(ctx, "", valid())
	assert.ErrorIs(t, err, totalsdk.ErrInvalidPreset)

	_, err = client.Presets.Send(ctx, &totalsdk.SendPresetsRequest{PresetIDs: []string{"p"}})
	assert.ErrorIs(t, err, totalsdk.ErrInvalidPreset)
	_, err = client.Presets.Send(ctx, &totalsdk.SendPresetsRequest{FileIDs: []string{"f"}})
	assert.ErrorIs(t, err, totalsdk.ErrInvalidPreset)

	assert.Zero(t, srv.Calls(http.MethodPost, "/email-presets"))
	assert.Zero(t, srv.Calls(http.MethodPost, "/email-presets/send"))
}

func TestEmailPresets_FilesAndSend(t *testing.T) {
	srv := sdktest.New(t)
	client := srv.Client(t)
	ctx := context.Background()

	dir := t.TempDir()
	invoice := filepath.Join(dir, "factura_ana.pdf")
	require.NoError(t, os.WriteFile(invoice, []byte("%PDF-1.4 factura"), 0o644))
	contract := filepath.Join(dir, "contract_ion.txt")
	require.NoError(t, os.WriteFile(contract, []byte("contract"), 0o644))

	invoiceFile, err := client.Presets.UploadFile(ctx, invoice)
	require.NoError(t, err)
	assert.Equal(t, "factura_ana.pdf", invoiceFile.Name)
	assert.EqualValues(t, len("%PDF-1.4 factura"), invoiceFile.Size)

	contractFile, err := client.Presets.UploadFile(ctx, contract)
	require.NoError(t, err)

	_, err = client.Presets.UploadFile(ctx, dir)
	require.Error(t, err)
	_, err = client.Presets.UploadFile(ctx, filepath.Join(dir, "missing.pdf"))
	require.Error(t, err)

	files, err := client.Presets.ListFiles(ctx)
	require.NoError(t, err)
	assert.Len(t, files, 2)

	ana := srv.SeedPreset(totalsdk.EmailPreset{
		Name: "Ana", Recipients: []string{"ana@brutaria.ro"}, Subject: "Factura", Message: "m",
		Keywords: []string{"ANA"},
	})
	ion := srv.SeedPreset(totalsdk.EmailPreset{
		Name: "Ion", Recipients: []string{"ion@firma.ro"}, Subject: "Contract", Message: "m",
		Keywords: []string{"ion"},
	})

	res, err := client.Presets.Send(ctx, &totalsdk.SendPresetsRequest{
		PresetIDs: []string{ana.ID, ion.ID},
		FileIDs:   []string{invoiceFile.ID, contractFile.ID},
	})
	require.NoError(t, err)
	require.Len(t, res.Sent, 2)
	assert.Equal(t, ana.ID, res.Sent[0].PresetID)
	assert.Equal(t, []string{invoiceFile.ID}, res.Sent[0].FileIDs)
	assert.Equal(t, []string{contractFile.ID}, res.Sent[1].FileIDs)
	assert.Equal(t, res.Sent, srv.Sent())

	_, err = client.Presets.Send(ctx, &totalsdk.SendPresetsRequest{
		PresetIDs: []string{"missing"},
		FileIDs:   []string{invoiceFile.ID},
	})
	var apiErr *totalsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())

	require.NoError(t, client.Presets.DeleteFile(ctx, contractFile.ID))
	assert.Equal(t, []totalsdk.EmailFile{*invoiceFile}, srv.PresetFiles())

	err = client.Presets.DeleteFile(ctx, contractFile.ID)
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())
	assert.ErrorIs(t, client.Presets.DeleteFile(ctx, ""), totalsdk.ErrNoFileIDs)
}
