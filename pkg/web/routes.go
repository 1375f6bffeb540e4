// Package web provides API routes for the web server.
package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lunalink/lunalink/pkg/lavalink"
)

// SetupAPIRoutes mounts the read-only status API over a manager.
func SetupAPIRoutes(s *Server, m *lavalink.Manager) {
	api := s.Group("/v1")
	{
		api.GET("/health", healthHandler)
		api.GET("/nodes", nodesHandler(m))
		api.GET("/players", playersHandler(m))
		api.GET("/players/:guildId", playerHandler(m))
	}
}

// healthHandler returns a simple health check response
func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "lunalink is running",
	})
}

func nodeView(node *lavalink.Node) gin.H {
	view := gin.H{
		"uuid":       node.UUID,
		"identifier": node.Identifier(),
		"address":    node.Address(),
		"state":      node.State(),
		"sessionId":  node.SessionID(),
	}
	if stats := node.Stats(); stats != nil {
		view["stats"] = stats
	}
	return view
}

// nodesHandler lists every registered node with its state and last stats
func nodesHandler(m *lavalink.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		nodes := m.Nodes().All()
		views := make([]gin.H, 0, len(nodes))
		for _, node := range nodes {
			views = append(views, nodeView(node))
		}
		c.JSON(http.StatusOK, gin.H{"nodes": views})
	}
}

// playersHandler lists every active player
func playersHandler(m *lavalink.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"players": m.Players().All()})
	}
}

// playerHandler returns one player by guild id
func playerHandler(m *lavalink.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		player := m.Players().Get(c.Param("guildId"))
		if player == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Not Found",
				"message": "No player for that guild.",
			})
			return
		}
		c.JSON(http.StatusOK, player)
	}
}
