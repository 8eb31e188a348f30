// export.go handles video caption export in multiple formats.
//
// Supported formats:
//   - txt  — Plain text captions
//   - md   — Markdown with a metadata header and, when available, the
//     latest summary insight
//   - json — Full JSON with all metadata
//
// Each format is its own function, so adding a format is a new case in
// the switch plus one formatter.
package handlers

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Lumio-Labs/video-insights-api/internal/models"
)

// ExportVideo exports a video's captions in the requested format.
// GET /api/v1/videos/:id/export?format=txt|md|json
//
// Response headers are set for file download:
//   - Content-Type: appropriate MIME type
//   - Content-Disposition: attachment with filename
func (h *Handler) ExportVideo(c *gin.Context) {
	id := c.Param("id")
	format := c.DefaultQuery("format", "txt")

	// Validate format before doing any database work
	validFormats := map[string]bool{"txt": true, "md": true, "json": true}
	if !validFormats[format] {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_format",
			Message: "Supported formats: txt, md, json",
			Code:    http.StatusBadRequest,
		})
		return
	}

	v, err := h.DB.GetVideo(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "Video not found",
			Code:    http.StatusNotFound,
		})
		return
	}

	// Only export completed videos
	if v.Status != models.StatusCompleted {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_ready",
			Message: "Video is not completed (status: " + string(v.Status) + ")",
			Code:    http.StatusNotFound,
		})
		return
	}

	filename := sanitizeFilename(v.Title)
	if filename == "" {
		filename = v.YouTubeID
	}

	switch format {
	case "txt":
		exportTXT(c, v, filename)
	case "md":
		h.exportMarkdown(c, v, filename)
	case "json":
		exportJSON(c, v, filename)
	}
}

// exportTXT returns the captions as plain text.
func exportTXT(c *gin.Context, v *models.Video, filename string) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.txt"`, filename))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(v.CaptionText))
}

// exportMarkdown returns the captions as Markdown with a metadata header.
// The latest completed summary insight is included when one exists.
func (h *Handler) exportMarkdown(c *gin.Context, v *models.Video, filename string) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", v.Title))
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Channel | %s |\n", v.ChannelName))
	sb.WriteString(fmt.Sprintf("| Duration | %s |\n", formatDuration(v.Duration)))
	sb.WriteString(fmt.Sprintf("| Words | %d |\n", v.WordCount))
	sb.WriteString(fmt.Sprintf("| Language | %s |\n", v.Language))
	sb.WriteString(fmt.Sprintf("| Captions | %s |\n", v.CaptionSource))
	sb.WriteString(fmt.Sprintf("| URL | %s |\n", v.YouTubeURL))
	sb.WriteString(fmt.Sprintf("| Fetched | %s |\n", v.CreatedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString("\n---\n\n")

	if summary, err := h.DB.GetLatestInsightByKind(c.Request.Context(), v.ID, models.InsightSummary); err == nil {
		sb.WriteString("## Summary\n\n")
		sb.WriteString(summary.Content)
		sb.WriteString("\n\n---\n\n")
	}

	sb.WriteString("## Captions\n\n")
	sb.WriteString(v.CaptionText)
	sb.WriteString("\n")

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.md"`, filename))
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(sb.String()))
}

// exportJSON returns the full video data as JSON.
func exportJSON(c *gin.Context, v *models.Video, filename string) {
	exportData := map[string]interface{}{
		"id":             v.ID,
		"youtube_url":    v.YouTubeURL,
		"youtube_id":     v.YouTubeID,
		"title":          v.Title,
		"channel_name":   v.ChannelName,
		"duration":       v.Duration,
		"duration_human": formatDuration(v.Duration),
		"language":       v.Language,
		"caption_source": v.CaptionSource,
		"caption_text":   v.CaptionText,
		"word_count":     v.WordCount,
		"reading_time":   fmt.Sprintf("%d min", int(math.Ceil(float64(v.WordCount)/200.0))),
		"status":         v.Status,
		"created_at":     v.CreatedAt,
		"updated_at":     v.UpdatedAt,
	}

	jsonBytes, err := json.MarshalIndent(exportData, "", "  ")
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "export_error",
			Message: "Failed to generate JSON export",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.json"`, filename))
	c.Data(http.StatusOK, "application/json; charset=utf-8", jsonBytes)
}

// --- Helper Functions ---

// formatDuration converts seconds to a human-readable duration string.
func formatDuration(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// sanitizeFilename removes characters that aren't safe for filenames.
// This only needs to satisfy the Content-Disposition header, not a
// full filesystem-safe sanitizer.
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "-", "\\", "-", ":", "-", "*", "-",
		"?", "-", "\"", "-", "<", "-", ">", "-",
		"|", "-", "\n", " ", "\r", "",
	)
	name = replacer.Replace(name)

	// Collapse multiple hyphens/spaces
	for strings.Contains(name, "  ") {
		name = strings.ReplaceAll(name, "  ", " ")
	}
	for strings.Contains(name, "--") {
		name = strings.ReplaceAll(name, "--", "-")
	}

	name = strings.TrimSpace(name)

	if len(name) > 100 {
		name = name[:100]
	}

	return name
}
