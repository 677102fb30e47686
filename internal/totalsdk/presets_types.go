package totalsdk

import (
	"slices"
	"strings"
)

// EmailPreset is a reusable notification: who gets it, what it says, and the
// keywords that pick its attachments out of the uploaded preset files.
type EmailPreset struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Recipients []string `json:"recipients"`
	Subject    string   `json:"subject"`
	Message    string   `json:"message"`
	Keywords   []string `json:"keywords"`
}

// MatchFiles returns the files whose name contains one of the preset's
// keywords, case-insensitively, in the order given. Blank keywords match nothing.
func (p *EmailPreset) MatchFiles(files []EmailFile) []EmailFile {
	var keywords []string
	for _, k := range p.Keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keywords = append(keywords, k)
		}
	}

	var out []EmailFile
	for _, f := range files {
		name := strings.ToLower(f.Name)
		if slices.ContainsFunc(keywords, func(k string) bool { return strings.Contains(name, k) }) {
			out = append(out, f)
		}
	}
	return out
}

// EmailFile is an attachment uploaded for preset sends
type EmailFile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// EmailPresetRequest is the body of preset create and update
type EmailPresetRequest struct {
	Name       string   `json:"name" validate:"required"`
	Recipients []string `json:"recipients" validate:"min=1,dive,email"`
	Subject    string   `json:"subject" validate:"required"`
	Message    string   `json:"message" validate:"required"`
	Keywords   []string `json:"keywords"`
}

func (r *EmailPresetRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Subject = strings.TrimSpace(r.Subject)
	r.Recipients = trimAll(r.Recipients)
	r.Keywords = trimAll(r.Keywords)
}

// SendPresetsRequest sends every listed preset with its matching files
type SendPresetsRequest struct {
	PresetIDs []string `json:"presetIds" validate:"min=1,dive,required"`
	FileIDs   []string `json:"fileIds" validate:"min=1,dive,required"`
}

// SentEmail describes one preset as the server sent it
type SentEmail struct {
	PresetID   string   `json:"presetId"`
	Recipients []string `json:"recipients"`
	Subject    string   `json:"subject"`
	FileIDs    []string `json:"fileIds"`
}

type SendPresetsResult struct {
	Sent []SentEmail `json:"sent"`
}

// trimAll trims every entry and drops the blank ones
func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
