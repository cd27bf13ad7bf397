package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/propllia/backoffice/internal/middleware"
)

// jsonAgg runs a query whose single column is a JSON document (row_to_json or
// json_agg) and returns it raw, to be embedded in a response without a
// decode/encode round trip.
func (s *Server) jsonAgg(ctx context.Context, sqlText string, binds ...interface{}) (json.RawMessage, error) {
	var data json.RawMessage
	err := s.db.QueryRowContext(ctx, sqlText, binds...).Scan(&data)
	return data, err
}

// fetchJSONRows collects a multi-row row_to_json query into raw JSON
// documents.
func (s *Server) fetchJSONRows(ctx context.Context, sqlText string, binds []interface{}) ([]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx, sqlText, binds...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]json.RawMessage, 0)
	for rows.Next() {
		var row json.RawMessage
		if err := rows.Scan(&row); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

func notFound(c *gin.Context, label string) {
	c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": label + " not found"})
}

// internalError logs the failure under the given operation name and answers
// with a generic message plus the request correlation id.
func (s *Server) internalError(c *gin.Context, op string, err error) {
	requestID := c.GetString(middleware.RequestIDKey)
	slog.Error("query failed",
		"operation", op,
		"request_id", requestID,
		"error", err,
	)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error":      "internal error",
		"request_id": requestID,
	})
}
