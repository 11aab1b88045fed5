package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sykell/phishguard/internal/history"
	"github.com/sykell/phishguard/internal/middleware"
)

// ClearLogsHandler deletes the entire scan history
func ClearLogsHandler(store *history.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := store.Clear(); err != nil {
			log.Printf("Failed to clear scan history: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear history"})
			return
		}

		if user, ok := middleware.GetUserFromContext(c); ok {
			log.Printf("Scan history cleared by %s", user.Username)
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// StatsHandler reports per-bucket record counts
func StatsHandler(store *history.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		good, bad := store.ReadAll()
		c.JSON(http.StatusOK, gin.H{
			"good":  len(good),
			"bad":   len(bad),
			"total": len(good) + len(bad),
		})
	}
}
