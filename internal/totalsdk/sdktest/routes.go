package sdktest

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	slogGin "github.com/samber/slog-gin"
)

func (s *Server) routes() http.Handler {
	r := gin.New()
	r.MaxMultipartMemory = 8 << 20

	r.Use(slogGin.NewWithConfig(slog.Default().WithGroup("sdktest"), slogGin.Config{
		DefaultLevel:     slog.LevelDebug,
		ClientErrorLevel: slog.LevelDebug,
		ServerErrorLevel: slog.LevelWarn,
	}))
	r.Use(gin.Recovery())
	r.Use(gzip.Gzip(gzip.BestSpeed, gzip.WithExcludedPaths([]string{"/files"})))
	r.Use(s.countCalls, s.injectFailures)

	r.POST("/auth/login", s.login)
	r.POST("/auth/refresh-token", s.refreshToken)

	api := r.Group("/")
	api.Use(s.requireAuth)
	{
		api.POST("/files/temp", s.uploadTemp)
		api.POST("/files/commit", s.commitFiles)
		api.GET("/files", s.listFiles)
		api.GET("/files/:id", s.downloadFile)
		api.POST("/files/download-zip", s.downloadZip)

		api.GET("/tenants", s.listTenants)
		api.POST("/tenants", s.createTenant)
		api.GET("/tenants/:id", s.getTenant)
		api.POST("/tenants/:id", s.updateTenant)
		api.DELETE("/tenants/:id", s.deleteTenant)

		api.GET("/email-presets", s.listPresets)
		api.POST("/email-presets", s.createPreset)
		api.PUT("/email-presets/:id", s.updatePreset)
		api.GET("/email-presets/files", s.listPresetFiles)
		api.POST("/email-presets/files", s.uploadPresetFile)
		api.DELETE("/email-presets/files/:id", s.deletePresetFile)
		api.POST("/email-presets/send", s.sendPresets)
	}

	r.NoRoute(func(ctx *gin.Context) {
		abortWithError(ctx, http.StatusNotFound, codeNotFound, "not found")
	})

	return r.Handler()
}

func (s *Server) countCalls(ctx *gin.Context) {
	s.mu.Lock()
	s.calls[ctx.Request.Method+" "+ctx.FullPath()]++
	s.mu.Unlock()
	ctx.Next()
}

func (s *Server) injectFailures(ctx *gin.Context) {
	s.mu.Lock()
	var hit *failure
	for i := range s.failures {
		f := s.failures[i]
		if f.method != ctx.Request.Method || f.path != ctx.FullPath() {
			continue
		}
		if f.match != nil && !f.match(ctx.Request) {
			continue
		}
		hit = &f
		break
	}
	s.mu.Unlock()

	if hit != nil {
		abortWithError(ctx, hit.status, codeInjected, hit.message)
		return
	}
	ctx.Next()
}

func init() {
	gin.SetMode(gin.ReleaseMode)
}
