package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/bugyard/internal/apperr"
	"github.com/zulandar/bugyard/internal/bug"
	"github.com/zulandar/bugyard/internal/logger"
	"github.com/zulandar/bugyard/internal/models"
	"github.com/zulandar/bugyard/internal/notify"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// registerRoutes mounts the bug collection on g. Static segments are
// registered before /:id so they are never read as ids.
func registerRoutes(g *gin.RouterGroup, db *gorm.DB, n notify.Notifier) {
	g.GET("", handleList(db))
	g.GET("/", handleList(db))
	g.GET("/stats", handleStats(db))
	g.GET("/status/:status", handleByStatus(db))
	g.GET("/:id", handleGet(db))

	g.POST("", handleCreate(db, n))
	g.POST("/", handleCreate(db, n))
	g.POST("/:id/comments", handleAddComment(db))

	g.PUT("/:id", handleUpdate(db))
	g.PATCH("/:id/status", handleUpdateStatus(db, n))
	g.DELETE("/:id", handleDelete(db))
}

type commentRequest struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

type statusRequest struct {
	Status string `json:"status"`
}

func handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"status": "ok"}})
	}
}

func handleList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		plan, err := bug.BuildPlan(bug.ListParams{
			Status:   c.Query("status"),
			Priority: c.Query("priority"),
			Severity: c.Query("severity"),
			Search:   c.Query("search"),
			Sort:     c.Query("sort"),
			Page:     c.Query("page"),
			Limit:    c.Query("limit"),
		})
		if err != nil {
			c.Error(err)
			return
		}

		bugs, total, err := bug.List(c.Request.Context(), db, plan)
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"count":   len(bugs),
			"total":   total,
			"pagination": gin.H{
				"page":  plan.Page,
				"limit": plan.Limit,
				"pages": plan.Pages(total),
			},
			"data": bugs,
		})
	}
}

func handleStats(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := bug.Stats(c.Request.Context(), db)
		if err != nil {
			c.Error(err)
			return
		}
		ok(c, http.StatusOK, s)
	}
}

func handleByStatus(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		bugs, err := bug.ByStatus(c.Request.Context(), db, c.Param("status"))
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "count": len(bugs), "data": bugs})
	}
}

func handleGet(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		b, err := bug.Get(c.Request.Context(), db, c.Param("id"))
		if err != nil {
			c.Error(err)
			return
		}
		ok(c, http.StatusOK, b)
	}
}

func handleCreate(db *gorm.DB, n notify.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		var p bug.Patch
		if !bindJSON(c, &p) {
			return
		}
		b, err := bug.Create(c.Request.Context(), db, p)
		if err != nil {
			c.Error(err)
			return
		}
		publish(c.Request.Context(), n, notify.Event{Kind: notify.KindCreated, Bug: b})
		ok(c, http.StatusCreated, b)
	}
}

func handleUpdate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var p bug.Patch
		if !bindJSON(c, &p) {
			return
		}
		b, err := bug.Update(c.Request.Context(), db, c.Param("id"), p)
		if err != nil {
			c.Error(err)
			return
		}
		ok(c, http.StatusOK, b)
	}
}

func handleDelete(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := bug.Delete(c.Request.Context(), db, c.Param("id")); err != nil {
			c.Error(err)
			return
		}
		ok(c, http.StatusOK, gin.H{})
	}
}

func handleAddComment(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req commentRequest
		if !bindJSON(c, &req) {
			return
		}
		b, err := bug.AddComment(c.Request.Context(), db, c.Param("id"), req.Author, req.Content)
		if err != nil {
			c.Error(err)
			return
		}
		ok(c, http.StatusOK, b)
	}
}

func handleUpdateStatus(db *gorm.DB, n notify.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statusRequest
		if !bindJSON(c, &req) {
			return
		}
		ctx := c.Request.Context()
		id := c.Param("id")

		// Read the previous status for the notification; a failed read
		// is reported by UpdateStatus itself.
		var prev string
		if before, err := bug.Get(ctx, db, id); err == nil {
			prev = before.Status
		}

		b, err := bug.UpdateStatus(ctx, db, id, req.Status)
		if err != nil {
			c.Error(err)
			return
		}
		if prev != b.Status {
			publish(ctx, n, notify.Event{Kind: notify.KindStatusChanged, Bug: b, PrevStatus: prev})
		}
		ok(c, http.StatusOK, b)
	}
}

// bindJSON decodes the request body into dst. An empty body leaves dst
// zero. On malformed JSON it records a 400 and returns false.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		c.Error(apperr.BadRequest(apperr.MsgInvalidJSON))
		return false
	}
	return true
}

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// publish delivers e without failing the request; errors are only logged.
func publish(ctx context.Context, n notify.Notifier, e notify.Event) {
	if err := n.Notify(ctx, e); err != nil {
		logger.Warn("notification failed",
			zap.String("kind", e.Kind),
			zap.String("bug_id", bugID(e.Bug)),
			zap.Error(err),
		)
	}
}

func bugID(b *models.Bug) string {
	if b == nil {
		return ""
	}
	return b.ID
}
