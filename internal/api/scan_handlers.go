package api

import (
	_ "embed"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sykell/phishguard/internal/history"
	"github.com/sykell/phishguard/internal/scoring"
)

//go:embed index.html
var indexHTML []byte

// Classifier is the narrow view of the trained model the scan path needs:
// the probability that the text matches the phishing class, in [0, 1].
type Classifier interface {
	BadProbability(text string) float64
}

// AgeLookup resolves a URL's domain registration age in days. A nil result
// means the age is unknown; the scan proceeds without the adjustment.
type AgeLookup interface {
	Lookup(rawURL string) *int
}

// AnalyzeRequest represents the scan request payload
type AnalyzeRequest struct {
	URL string `json:"url"`
}

// AnalyzeResponse represents a completed scan
type AnalyzeResponse struct {
	Status  string   `json:"status"`
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
	Age     string   `json:"age"`
}

// ErrorResponse is the shape every failed scan surfaces as. Failures are
// reported in the body, not as 5xx status codes.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func errorResponse(c *gin.Context, message string) {
	c.JSON(http.StatusOK, ErrorResponse{Status: "error", Message: message})
}

// AnalyzeHandler handles URL scan requests
func AnalyzeHandler(clf Classifier, ages AgeLookup, store *history.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		// No failure in the scan path may escape as an unhandled fault.
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Scan panicked: %v", r)
				errorResponse(c, fmt.Sprintf("%v", r))
			}
		}()

		var req AnalyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			log.Printf("Scan request decode error: %v", err)
			errorResponse(c, err.Error())
			return
		}

		if req.URL == "" {
			errorResponse(c, "Empty URL")
			return
		}

		badProbability := clf.BadProbability(req.URL)
		age := ages.Lookup(req.URL)
		result := scoring.Score(badProbability, age)

		if err := store.Upsert(req.URL, string(result.Status), result.Score); err != nil {
			log.Printf("Failed to record scan for %s: %v", req.URL, err)
			errorResponse(c, err.Error())
			return
		}

		log.Printf("Scanned %s: status=%s score=%.1f", req.URL, result.Status, result.Score)
		c.JSON(http.StatusOK, AnalyzeResponse{
			Status:  string(result.Status),
			Score:   result.Score,
			Reasons: result.Reasons,
			Age:     formatAge(age),
		})
	}
}

// LogsHandler returns the scan history split into safe and flagged buckets,
// most recent first within each.
func LogsHandler(store *history.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		good, bad := store.ReadAll()
		c.JSON(http.StatusOK, gin.H{
			"good": good,
			"bad":  bad,
		})
	}
}

// IndexHandler serves the embedded single-page UI
func IndexHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
	}
}

// formatAge renders a domain age for display
func formatAge(age *int) string {
	if age == nil {
		return "Unknown"
	}
	return fmt.Sprintf("%d days", *age)
}
