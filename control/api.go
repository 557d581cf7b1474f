package control

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"smartcar/lock"
	"smartcar/logger"
	"smartcar/steering"
)

// API is the operator surface on the host: lock reset, tracking toggle and
// dead-zone sensitivity, plus a status snapshot.
type API struct {
	loop   *Loop
	lock   *lock.Manager
	steer  *steering.Controller
	router *gin.Engine
}

func NewAPI(loop *Loop, lk *lock.Manager, st *steering.Controller) *API {
	a := &API{
		loop:   loop,
		lock:   lk,
		steer:  st,
		router: gin.Default(),
	}
	a.router.POST("/api/reset", a.reset)
	a.router.POST("/api/tracking/enable", a.trackingEnable)
	a.router.POST("/api/tracking/sensitivity", a.trackingSensitivity)
	a.router.GET("/api/status", a.status)
	return a
}

func (a *API) reset(c *gin.Context) {
	a.lock.Reset()
	c.JSON(http.StatusOK, gin.H{"status": "ok", "lock": "unlocked"})
}

func (a *API) trackingEnable(c *gin.Context) {
	var req struct {
		Enabled *bool `json:"enabled" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must carry enabled: true|false"})
		return
	}
	a.steer.SetEnabled(*req.Enabled)
	logger.S().Infow("tracking toggled", "enabled", *req.Enabled)
	c.JSON(http.StatusOK, gin.H{"status": "ok", "enabled": *req.Enabled})
}

func (a *API) trackingSensitivity(c *gin.Context) {
	var req struct {
		Threshold int `json:"threshold" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Threshold < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "threshold must be a positive pixel count"})
		return
	}
	a.steer.SetDeadZone(req.Threshold)
	logger.S().Infow("dead-zone adjusted", "px", req.Threshold)
	c.JSON(http.StatusOK, gin.H{"status": "ok", "deadZonePx": a.steer.DeadZone()})
}

func (a *API) status(c *gin.Context) {
	c.JSON(http.StatusOK, a.loop.Status())
}

// Handler exposes the router for tests.
func (a *API) Handler() http.Handler {
	return a.router
}

// Run serves the operator API. Blocks until the listener fails.
func (a *API) Run(port int) error {
	return a.router.Run(fmt.Sprintf(":%d", port))
}
