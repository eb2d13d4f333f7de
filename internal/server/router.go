// Package server exposes the operator console surface over HTTP: snapshot
// reads, operator commands and the live websocket stream. It owns no control
// logic; everything is delegated to the engine.
package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/forlenza/fis-control/internal/engine"
	"github.com/forlenza/fis-control/internal/metrics"
)

// Dependencies groups objects the HTTP layer needs.
type Dependencies struct {
	Engine      *engine.Engine
	Hub         *Hub
	Logger      zerolog.Logger
	CORSOrigins []string
}

// NewRouter configures all HTTP routes.
func NewRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	if len(deps.CORSOrigins) > 0 {
		cfg := cors.DefaultConfig()
		cfg.AllowOrigins = deps.CORSOrigins
		r.Use(cors.New(cfg))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	api.GET("/status", func(c *gin.Context) {
		if deps.Engine == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "missing engine"})
			return
		}
		snap := deps.Engine.Snapshot()
		resp := gin.H{
			"compatible":       snap.Compatible,
			"connectionStatus": snap.ConnectionStatus,
			"mode":             snap.Mode,
			"interval":         deps.Engine.Interval().String(),
		}
		if !snap.Compatible {
			resp["reason"] = snap.IncompatibleReason
		}
		if deps.Hub != nil {
			resp["streamClients"] = deps.Hub.ClientCount()
		}
		c.JSON(http.StatusOK, resp)
	})

	api.GET("/sensors", func(c *gin.Context) {
		if deps.Engine == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "missing engine"})
			return
		}
		c.JSON(http.StatusOK, deps.Engine.Snapshot())
	})

	api.GET("/diagnostic", func(c *gin.Context) {
		if deps.Engine == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "missing engine"})
			return
		}
		snap := deps.Engine.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"running": snap.DiagnosticRunning,
			"log":     snap.DiagnosticLog,
		})
	})

	commands := api.Group("/commands")
	commands.POST("/diagnostic", commandHandler(deps, "diagnostic", func(e *engine.Engine) { e.RunDiagnostic() }))
	commands.POST("/shutdown", commandHandler(deps, "shutdown", func(e *engine.Engine) { e.EmergencyShutdown() }))
	commands.POST("/reset", commandHandler(deps, "reset", func(e *engine.Engine) { e.Reset() }))

	if deps.Hub != nil {
		api.GET("/stream", func(c *gin.Context) {
			deps.Hub.HandleWS(c.Writer, c.Request)
		})
	}

	return r
}

// commandHandler wraps an operator command. Wrong-state commands are silent
// no-ops in the engine, so the handler answers 202 once the platform gate
// passed; an incompatible system answers 409 with the gate's reason.
func commandHandler(deps Dependencies, name string, apply func(*engine.Engine)) gin.HandlerFunc {
	return func(c *gin.Context) {
		if deps.Engine == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "missing engine"})
			return
		}
		if !deps.Engine.Compatible() {
			c.JSON(http.StatusConflict, gin.H{
				"error":  "system incompatible",
				"reason": deps.Engine.IncompatibleReason(),
			})
			return
		}
		apply(deps.Engine)
		deps.Logger.Info().Str("command", name).Msg("operator command accepted")
		c.JSON(http.StatusAccepted, gin.H{
			"accepted": true,
			"mode":     deps.Engine.Mode(),
		})
	}
}
