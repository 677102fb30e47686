package sdktest

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/totalapp/tenantfiles/internal/totalsdk"
)

type presetBody struct {
	Name       string   `json:"name" binding:"required"`
	Recipients []string `json:"recipients" binding:"min=1,dive,email"`
	Subject    string   `json:"subject" binding:"required"`
	Message    string   `json:"message" binding:"required"`
	Keywords   []string `json:"keywords"`
}

type sendBody struct {
	PresetIDs []string `json:"presetIds" binding:"min=1"`
	FileIDs   []string `json:"fileIds" binding:"min=1"`
}

// SeedPreset stores a preset directly
func (s *Server) SeedPreset(p totalsdk.EmailPreset) totalsdk.EmailPreset {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	s.presets = append(s.presets, &p)
	return p
}

// SeedPresetFile stores an attachment directly
func (s *Server) SeedPresetFile(name string, size int64) totalsdk.EmailFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := totalsdk.EmailFile{ID: uuid.NewString(), Name: name, Size: size}
	s.presetFiles = append(s.presetFiles, f)
	return f
}

// PresetFiles returns the attachment pool
func (s *Server) PresetFiles() []totalsdk.EmailFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.presetFiles)
}

// Sent returns every email the fake has sent, in order
func (s *Server) Sent() []totalsdk.SentEmail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.sent)
}

func (s *Server) listPresets(ctx *gin.Context) {
	s.mu.Lock()
	out := make([]totalsdk.EmailPreset, 0, len(s.presets))
	for _, p := range s.presets {
		out = append(out, *p)
	}
	s.mu.Unlock()

	ctx.PureJSON(http.StatusOK, out)
}

func (s *Server) createPreset(ctx *gin.Context) {
	var body presetBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		abortWithError(ctx, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}

	preset := body.preset(uuid.NewString())

	s.mu.Lock()
	s.presets = append(s.presets, &preset)
	s.mu.Unlock()

	ctx.PureJSON(http.StatusCreated, preset)
}

func (s *Server) updatePreset(ctx *gin.Context) {
	var body presetBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		abortWithError(ctx, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.presetLocked(ctx.Param("id"))
	if p == nil {
		abortWithError(ctx, http.StatusNotFound, codeNotFound, "Presetul nu exista")
		return
	}
	*p = body.preset(p.ID)

	ctx.PureJSON(http.StatusOK, *p)
}

func (s *Server) uploadPresetFile(ctx *gin.Context) {
	fh, err := ctx.FormFile("file")
	if err != nil {
		abortWithError(ctx, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}

	file := totalsdk.EmailFile{ID: uuid.NewString(), Name: fh.Filename, Size: fh.Size}

	s.mu.Lock()
	s.presetFiles = append(s.presetFiles, file)
	s.mu.Unlock()

	ctx.PureJSON(http.StatusCreated, file)
}

func (s *Server) listPresetFiles(ctx *gin.Context) {
	s.mu.Lock()
	out := slices.Clone(s.presetFiles)
	s.mu.Unlock()

	if out == nil {
		out = []totalsdk.EmailFile{}
	}
	ctx.PureJSON(http.StatusOK, out)
}

func (s *Server) deletePresetFile(ctx *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := ctx.Param("id")
	idx := slices.IndexFunc(s.presetFiles, func(f totalsdk.EmailFile) bool { return f.ID == id })
	if idx < 0 {
		abortWithError(ctx, http.StatusNotFound, codeNotFound, "Fisierul nu exista")
		return
	}
	s.presetFiles = slices.Delete(s.presetFiles, idx, idx+1)
	ctx.Status(http.StatusNoContent)
}

// sendPresets pairs each preset with the chosen files its keywords match
func (s *Server) sendPresets(ctx *gin.Context) {
	var body sendBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		abortWithError(ctx, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	files := make([]totalsdk.EmailFile, 0, len(body.FileIDs))
	for _, id := range body.FileIDs {
		idx := slices.IndexFunc(s.presetFiles, func(f totalsdk.EmailFile) bool { return f.ID == id })
		if idx < 0 {
			abortWithError(ctx, http.StatusNotFound, codeNotFound, "Fisierul nu exista")
			return
		}
		files = append(files, s.presetFiles[idx])
	}

	sent := make([]totalsdk.SentEmail, 0, len(body.PresetIDs))
	for _, id := range body.PresetIDs {
		p := s.presetLocked(id)
		if p == nil {
			abortWithError(ctx, http.StatusNotFound, codeNotFound, "Presetul nu exista")
			return
		}
		email := totalsdk.SentEmail{
			PresetID:   p.ID,
			Recipients: p.Recipients,
			Subject:    p.Subject,
			FileIDs:    []string{},
		}
		for _, f := range p.MatchFiles(files) {
			email.FileIDs = append(email.FileIDs, f.ID)
		}
		sent = append(sent, email)
	}
	s.sent = append(s.sent, sent...)

	ctx.PureJSON(http.StatusOK, totalsdk.SendPresetsResult{Sent: sent})
}

func (s *Server) presetLocked(id string) *totalsdk.EmailPreset {
	for _, p := range s.presets {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (b *presetBody) preset(id string) totalsdk.EmailPreset {
	keywords := b.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return totalsdk.EmailPreset{
		ID:         id,
		Name:       strings.TrimSpace(b.Name),
		Recipients: b.Recipients,
		Subject:    b.Subject,
		Message:    b.Message,
		Keywords:   keywords,
	}
}
