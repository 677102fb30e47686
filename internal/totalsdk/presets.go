package totalsdk

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/imroc/req/v3"
	"github.com/totalapp/tenantfiles/internal/utils"
)

const (
	presetsBase  = "/email-presets"
	presetsItem  = "/email-presets/{id}"
	presetsFiles = "/email-presets/files"
	presetsFile  = "/email-presets/files/{id}"
	presetsSend  = "/email-presets/send"
)

// EmailPresetsAPI manages email presets, their attachment pool and bulk sends
type EmailPresetsAPI struct {
	c *Client
}

func newEmailPresetsAPI(c *Client) *EmailPresetsAPI {
	return &EmailPresetsAPI{c: c}
}

func (p *EmailPresetsAPI) List(ctx context.Context) ([]EmailPreset, error) {
	var presets []EmailPreset
	err := p.c.call(ctx, "list email presets", func(r *req.Request) (*req.Response, error) {
		presets = nil
		return r.SetSuccessResult(&presets).Get(presetsBase)
	})
	if err != nil {
		return nil, err
	}
	return presets, nil
}

func (p *EmailPresetsAPI) Create(ctx context.Context, params *EmailPresetRequest) (*EmailPreset, error) {
	if err := validatePreset(params); err != nil {
		return nil, err
	}

	var preset EmailPreset
	err := p.c.call(ctx, "create email preset", func(r *req.Request) (*req.Response, error) {
		return r.SetBody(params).SetSuccessResult(&preset).Post(presetsBase)
	})
	if err != nil {
		return nil, err
	}
	return &preset, nil
}

// Update replaces the preset with id; the API takes the full preset
func (p *EmailPresetsAPI) Update(ctx context.Context, id string, params *EmailPresetRequest) (*EmailPreset, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrInvalidPreset)
	}
	if err := validatePreset(params); err != nil {
		return nil, err
	}

	var preset EmailPreset
	err := p.c.call(ctx, "update email preset", func(r *req.Request) (*req.Response, error) {
		return r.SetPathParam("id", id).SetBody(params).SetSuccessResult(&preset).Put(presetsItem)
	})
	if err != nil {
		return nil, err
	}
	return &preset, nil
}

// UploadFile adds one local file to the attachment pool
func (p *EmailPresetsAPI) UploadFile(ctx context.Context, path string) (*EmailFile, error) {
	path, err := utils.ResolvePath(path)
	if err != nil {
		return nil, fmt.Errorf("sdk: upload preset file: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("sdk: upload preset file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("sdk: upload preset file: %s is a directory", path)
	}

	upload := req.FileUpload{
		ParamName: "file",
		FileName:  filepath.Base(path),
		FileSize:  info.Size(),
		GetFileContent: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
		ContentType: utils.DetectContentType(path),
	}

	var file EmailFile
	err = p.c.call(ctx, "upload preset file", func(r *req.Request) (*req.Response, error) {
		return r.SetFileUpload(upload).SetSuccessResult(&file).Post(presetsFiles)
	})
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func (p *EmailPresetsAPI) ListFiles(ctx context.Context) ([]EmailFile, error) {
	var files []EmailFile
	err := p.c.call(ctx, "list preset files", func(r *req.Request) (*req.Response, error) {
		files = nil
		return r.SetSuccessResult(&files).Get(presetsFiles)
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (p *EmailPresetsAPI) DeleteFile(ctx context.Context, id string) error {
	if id == "" {
		return ErrNoFileIDs
	}
	return p.c.call(ctx, "delete preset file", func(r *req.Request) (*req.Response, error) {
		return r.SetPathParam("id", id).Delete(presetsFile)
	})
}

// Send mails every preset in params with the files its keywords match
func (p *EmailPresetsAPI) Send(ctx context.Context, params *SendPresetsRequest) (*SendPresetsResult, error) {
	if params == nil {
		return nil, fmt.Errorf("%w: nil request", ErrInvalidPreset)
	}
	if err := validate.Struct(params); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPreset, err)
	}

	var result SendPresetsResult
	err := p.c.call(ctx, "send email presets", func(r *req.Request) (*req.Response, error) {
		return r.SetBody(params).SetSuccessResult(&result).Post(presetsSend)
	})
	if err != nil {
		return nil, err
	}

	p.c.log.Debug("email presets sent", "presets", len(params.PresetIDs), "emails", len(result.Sent))
	return &result, nil
}

func validatePreset(params *EmailPresetRequest) error {
	if params == nil {
		return fmt.Errorf("%w: nil request", ErrInvalidPreset)
	}
	params.normalize()
	if err := validate.Struct(params); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPreset, err)
	}
	return nil
}
