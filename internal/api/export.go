package api

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/propllia/backoffice/internal/entity"
)

// Export streams every row of a registered entity as CSV. The header row
// comes from the result columns, so it stays correct across schema
// migrations without a hand-maintained column list. The table name comes
// from the registry, never from the request.
//
// GET /export/:entity
func (s *Server) Export(c *gin.Context) {
	token := c.Param("entity")
	schema, ok := entity.Lookup(token)
	if !ok {
		badRequest(c, "Unknown entity: "+token)
		return
	}

	sqlText := fmt.Sprintf("SELECT * FROM %s ORDER BY created_at DESC", schema.TableName)
	rows, err := s.db.QueryxContext(c.Request.Context(), sqlText)
	if err != nil {
		s.internalError(c, "export", err)
		return
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		s.internalError(c, "export", err)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", token+".csv"))
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	if err := w.Write(columns); err != nil {
		return
	}

	record := make([]string, len(columns))
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			// Headers are already out; the truncated body is the best signal
			// left to give the client.
			return
		}
		for i, v := range values {
			record[i] = csvField(v)
		}
		if err := w.Write(record); err != nil {
			return
		}
	}
	w.Flush()
}

// csvField renders a driver value as CSV cell text.
func csvField(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case string:
		return val
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprint(val)
	}
}
