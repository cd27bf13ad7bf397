// auditread.go exposes the audit trail for the activity feed and per-record
// history views. Writes live in internal/audit; these handlers only read.
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditRecent returns the newest audit entries, default 50, capped at 500.
//
// GET /audit/recent?limit=
func (s *Server) AuditRecent(c *gin.Context) {
	limit := 50
	if raw, ok := c.GetQuery("limit"); ok {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	data, err := s.audit.Recent(c.Request.Context(), limit)
	if err != nil {
		s.internalError(c, "audit.recent", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": data, "total": limit})
}

// AuditForEntity returns the audit history of one record, newest first.
//
// GET /audit/:entity_type/:entity_id
func (s *Server) AuditForEntity(c *gin.Context) {
	entityType := c.Param("entity_type")
	entityID, err := uuid.Parse(c.Param("entity_id"))
	if err != nil {
		badRequest(c, "Invalid entity id")
		return
	}

	data, err := s.audit.ForEntity(c.Request.Context(), entityType, entityID.String())
	if err != nil {
		s.internalError(c, "audit.entity", err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}
