// Package crud implements the five generic entity handlers: list, get by id,
// create, update, and delete. Each handler is parameterized by an
// entity.Schema, so the same code serves every registered entity; the router
// binds one handler set per entity at startup.
//
// Mutations append a best-effort audit record after the primary statement
// succeeds; the two are deliberately not wrapped in a transaction (see the
// audit package). Store errors are logged with their table and operation and
// surfaced to the caller as a generic message plus the request correlation
// id; raw SQL error text never reaches the client.
package crud

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/propllia/backoffice/internal/audit"
	"github.com/propllia/backoffice/internal/entity"
	"github.com/propllia/backoffice/internal/middleware"
	"github.com/propllia/backoffice/internal/query"
	"github.com/propllia/backoffice/internal/telemetry"
)

// Handlers produces the generic CRUD gin handlers for any entity schema.
type Handlers struct {
	db    *sqlx.DB
	audit *audit.Log
}

// New creates a Handlers set executing against db and recording mutations in
// auditLog.
func New(db *sqlx.DB, auditLog *audit.Log) *Handlers {
	return &Handlers{db: db, audit: auditLog}
}

// ParseListParams extracts pagination, search, sort, and the schema's filter
// values from the request query string. Exported for list handlers outside
// this package that extend the generic list response.
func ParseListParams(c *gin.Context, s entity.Schema) query.Params {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		page = 1
	}

	perPage := query.DefaultPerPage
	if raw, ok := c.GetQuery("per_page"); ok {
		if n, err := strconv.Atoi(raw); err == nil {
			perPage = n // zero or negative disables pagination
		}
	}

	filters := make(map[string]string, len(s.FilterFields))
	for _, field := range s.FilterFields {
		if v, ok := c.GetQuery(field); ok {
			filters[field] = v
		}
	}

	return query.Params{
		Page:    page,
		PerPage: perPage,
		Search:  c.Query("search"),
		Sort:    c.Query("sort"),
		Order:   c.Query("order"),
		Filters: filters,
	}
}

// List returns a paginated, filtered, sorted window of rows plus the total
// row count over the same conditions.
//
// GET /{entities}?page=&per_page=&search=&sort=&order=&<filter fields>
func (h *Handlers) List(s entity.Schema) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := ParseListParams(c, s)
		qb := query.ForSchema(s, p)
		where := qb.WhereClause()
		sortCol, sortDir := query.ResolveSort(s, p.Sort, p.Order)
		limitOffset := query.LimitOffset(p.Page, p.PerPage)

		dataSQL := fmt.Sprintf(
			"SELECT row_to_json(t) FROM (SELECT * FROM %s %s ORDER BY %s %s %s) t",
			s.TableName, where, sortCol, sortDir, limitOffset,
		)
		countSQL := fmt.Sprintf("SELECT COUNT(*)::bigint FROM %s %s", s.TableName, where)

		ctx := c.Request.Context()
		binds := qb.Binds()

		// The windowed query and the count run concurrently on two pool
		// connections. No shared transaction: total and data may observe
		// different snapshots under concurrent writes, which is acceptable
		// for this reporting-oriented surface.
		var (
			wg       sync.WaitGroup
			rows     []json.RawMessage
			total    int64
			dataErr  error
			countErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			rows, dataErr = h.fetchJSONRows(ctx, dataSQL, binds)
		}()
		go func() {
			defer wg.Done()
			countErr = h.db.QueryRowContext(ctx, countSQL, binds...).Scan(&total)
		}()
		wg.Wait()

		if dataErr != nil || countErr != nil {
			err := dataErr
			if err == nil {
				err = countErr
			}
			h.internalError(c, s, "list", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": rows, "total": total})
	}
}

func (h *Handlers) fetchJSONRows(ctx context.Context, sqlText string, binds []interface{}) ([]json.RawMessage, error) {
	rows, err := h.db.QueryContext(ctx, sqlText, binds...)
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

// Get returns a single row by id as a bare JSON object.
//
// GET /{entities}/{id}
func (h *Handlers) Get(s entity.Schema) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}

		sqlText := fmt.Sprintf(
			"SELECT row_to_json(t) FROM (SELECT * FROM %s WHERE id = $1) t",
			s.TableName,
		)

		var row json.RawMessage
		err := h.db.QueryRowContext(c.Request.Context(), sqlText, id).Scan(&row)
		switch {
		case err == sql.ErrNoRows:
			notFound(c, s.Label)
		case err != nil:
			h.internalError(c, s, "get", err)
		default:
			c.Data(http.StatusOK, "application/json; charset=utf-8", row)
		}
	}
}

// Create inserts a new row from the writable fields present in the JSON body.
// Unknown fields are ignored; the id is always generated server-side.
//
// POST /{entities}
func (h *Handlers) Create(s entity.Schema) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, ok := objectBody(c)
		if !ok {
			return
		}

		columns := []string{"id"}
		placeholders := []string{"gen_random_uuid()"}
		values := make([]interface{}, 0, len(s.WritableFields))
		idx := 1

		for _, field := range s.WritableFields {
			if val, present := body[field]; present {
				columns = append(columns, field)
				placeholders = append(placeholders, fmt.Sprintf("$%d", idx))
				values = append(values, coerceValue(val))
				idx++
			}
		}

		sqlText := fmt.Sprintf(
			"INSERT INTO %s (%s) VALUES (%s) RETURNING id::text",
			s.TableName, strings.Join(columns, ", "), strings.Join(placeholders, ", "),
		)

		var id string
		if err := h.db.QueryRowContext(c.Request.Context(), sqlText, values...).Scan(&id); err != nil {
			h.internalError(c, s, "create", err)
			return
		}

		telemetry.EntityMutationsTotal.WithLabelValues(s.Label, audit.ActionCreate).Inc()
		h.audit.Record(c.Request.Context(), s.Label, id, audit.ActionCreate, nil, body)
		c.JSON(http.StatusCreated, gin.H{"success": true, "id": id})
	}
}

// Update applies the writable fields present in the JSON body as a SET list.
// A body with zero recognized fields is rejected before any store access.
// updated_at is always refreshed on success.
//
// PUT /{entities}/{id}
func (h *Handlers) Update(s entity.Schema) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		body, ok := objectBody(c)
		if !ok {
			return
		}

		sets := make([]string, 0, len(s.WritableFields)+1)
		values := make([]interface{}, 0, len(s.WritableFields)+1)
		idx := 1

		for _, field := range s.WritableFields {
			if val, present := body[field]; present {
				sets = append(sets, fmt.Sprintf("%s = $%d", field, idx))
				values = append(values, coerceValue(val))
				idx++
			}
		}

		if len(sets) == 0 {
			badRequest(c, "No valid fields to update")
			return
		}

		sets = append(sets, "updated_at = NOW()")
		values = append(values, id)

		sqlText := fmt.Sprintf(
			"UPDATE %s SET %s WHERE id = $%d RETURNING id::text",
			s.TableName, strings.Join(sets, ", "), idx,
		)

		var returnedID string
		err := h.db.QueryRowContext(c.Request.Context(), sqlText, values...).Scan(&returnedID)
		switch {
		case err == sql.ErrNoRows:
			notFound(c, s.Label)
		case err != nil:
			h.internalError(c, s, "update", err)
		default:
			telemetry.EntityMutationsTotal.WithLabelValues(s.Label, audit.ActionUpdate).Inc()
			h.audit.Record(c.Request.Context(), s.Label, returnedID, audit.ActionUpdate, nil, body)
			c.JSON(http.StatusOK, gin.H{"success": true})
		}
	}
}

// Delete removes a row by id.
//
// DELETE /{entities}/{id}
func (h *Handlers) Delete(s entity.Schema) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}

		sqlText := fmt.Sprintf("DELETE FROM %s WHERE id = $1 RETURNING id::text", s.TableName)

		var returnedID string
		err := h.db.QueryRowContext(c.Request.Context(), sqlText, id).Scan(&returnedID)
		switch {
		case err == sql.ErrNoRows:
			notFound(c, s.Label)
		case err != nil:
			h.internalError(c, s, "delete", err)
		default:
			telemetry.EntityMutationsTotal.WithLabelValues(s.Label, audit.ActionDelete).Inc()
			h.audit.Record(c.Request.Context(), s.Label, returnedID, audit.ActionDelete, nil, nil)
			c.JSON(http.StatusOK, gin.H{"success": true})
		}
	}
}

// ---------------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------------

// pathID validates the :id path segment as a UUID before it reaches SQL. An
// invalid id aborts with 400 and returns ok=false.
func pathID(c *gin.Context) (string, bool) {
	raw := c.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		badRequest(c, "Invalid id")
		return "", false
	}
	return id.String(), true
}

// objectBody decodes the request body and requires it to be a JSON object.
// Arrays, scalars, and malformed JSON abort with 400 before any SQL runs.
// JSON null decodes into a nil map without a binding error, so it needs its
// own check; otherwise a null body would insert an id-only row.
func objectBody(c *gin.Context) (map[string]interface{}, bool) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil || body == nil {
		badRequest(c, "Expected JSON object")
		return nil, false
	}
	return body, true
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

func notFound(c *gin.Context, label string) {
	c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": label + " not found"})
}

// internalError logs the store failure with its table and operation, then
// answers with a generic message and the request correlation id so the error
// can be found in the logs without leaking schema details to the client.
func (h *Handlers) internalError(c *gin.Context, s entity.Schema, op string, err error) {
	requestID := c.GetString(middleware.RequestIDKey)
	slog.Error("store operation failed",
		"table", s.TableName,
		"operation", op,
		"request_id", requestID,
		"error", err,
	)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error":      "internal error",
		"request_id": requestID,
	})
}
