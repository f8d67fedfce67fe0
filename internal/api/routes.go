package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/frontline-project/frontline/internal/util"
)

var startTime = time.Now()

// handlePing is a simple liveness check.
func (s *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(startTime).Round(time.Second).String(),
	})
}

// handleHealth reports host resource usage and catalogue status.
func (s *Server) handleHealth(c *gin.Context) {
	health := gin.H{
		"status":  "ok",
		"servers": s.registry.Count(),
		"system":  util.GetSystemInfo(),
	}

	if cpuUsage, err := util.GetCPUUsage(); err == nil {
		health["cpu_percent"] = cpuUsage
	}
	if memUsage, err := util.GetMemoryUsage(); err == nil {
		health["memory"] = memUsage
	}
	if diskUsage, err := util.GetDiskUsage("."); err == nil {
		health["disk"] = diskUsage
	}

	if lastErr := s.catalogue.LastRefreshError(); lastErr != "" {
		health["catalogue_error"] = lastErr
	}

	c.JSON(http.StatusOK, health)
}

// handleListServers returns the configured servers with their display
// names.
func (s *Server) handleListServers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"servers": s.registry.ListServers()})
}

// handleCurrentMap returns the map a server is currently running.
// Unreachable servers report the Unknown sentinel, not an error.
func (s *Server) handleCurrentMap(c *gin.Context) {
	index, ok := s.serverIndex(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"index": index,
		"map":   s.registry.CurrentMap(index),
	})
}

type changeMapRequest struct {
	MapID string `json:"map_id" binding:"required"`
}

// handleChangeMap switches a server to the requested layer.
func (s *Server) handleChangeMap(c *gin.Context) {
	index, ok := s.serverIndex(c)
	if !ok {
		return
	}

	var req changeMapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "map_id is required"})
		return
	}

	ok, msg := s.registry.ChangeMap(c.Request.Context(), index, req.MapID)
	status := http.StatusOK
	if !ok {
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{
		"success": ok,
		"message": msg,
	})
}

// handleCatalogue returns the full catalogue grouped by mode and map.
func (s *Server) handleCatalogue(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"maps": s.catalogue.Snapshot(c.Request.Context())})
}

// handleMapsForMode returns the map names for one game mode.
func (s *Server) handleMapsForMode(c *gin.Context) {
	mode := c.Param("mode")
	names := s.catalogue.MapsForMode(c.Request.Context(), mode)
	if len(names) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown game mode"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"mode": mode, "maps": names})
}

// handleVariants returns the variants of one map, selected by the
// "name" query parameter because map names contain spaces.
func (s *Server) handleVariants(c *gin.Context) {
	mode := c.Param("mode")
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name query parameter is required"})
		return
	}

	variants := s.catalogue.VariantsForMap(c.Request.Context(), mode, name)
	if len(variants) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown map"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": name, "mode": mode, "variants": variants})
}

// handleRefreshCatalogue forces a catalogue refresh.
func (s *Server) handleRefreshCatalogue(c *gin.Context) {
	if err := s.catalogue.Refresh(c.Request.Context(), true); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "refreshed"})
}

// handleGamestate proxies the CRCON live gamestate.
func (s *Server) handleGamestate(c *gin.Context) {
	if s.crcon == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "crcon is not configured"})
		return
	}

	gs, err := s.crcon.GetGamestate(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gs)
}
