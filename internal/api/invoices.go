package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/propllia/backoffice/internal/api/crud"
	"github.com/propllia/backoffice/internal/entity"
	"github.com/propllia/backoffice/internal/query"
)

// InvoiceList is the invoice variant of the generic list: same search,
// filter, sort, and pagination semantics, plus amount and paid sums computed
// over the same WHERE clause so the figures always match the listed window's
// filters.
//
// GET /invoices
func (s *Server) InvoiceList(c *gin.Context) {
	schema := entity.Registry["invoices"]

	p := crud.ParseListParams(c, schema)
	qb := query.ForSchema(schema, p)
	where := qb.WhereClause()
	sortCol, sortDir := query.ResolveSort(schema, p.Sort, p.Order)
	limitOffset := query.LimitOffset(p.Page, p.PerPage)

	dataSQL := fmt.Sprintf(
		"SELECT row_to_json(t) FROM (SELECT * FROM %s %s ORDER BY %s %s %s) t",
		schema.TableName, where, sortCol, sortDir, limitOffset,
	)
	countSQL := fmt.Sprintf("SELECT COUNT(*)::bigint FROM %s %s", schema.TableName, where)
	totalsSQL := fmt.Sprintf(
		"SELECT COALESCE(SUM(amount), 0)::float8, COALESCE(SUM(paid), 0)::float8 FROM %s %s",
		schema.TableName, where,
	)

	ctx := c.Request.Context()
	binds := qb.Binds()

	var (
		wg        sync.WaitGroup
		rows      []json.RawMessage
		total     int64
		sumAmount float64
		sumPaid   float64
		dataErr   error
		countErr  error
		totalsErr error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		rows, dataErr = s.fetchJSONRows(ctx, dataSQL, binds)
	}()
	go func() {
		defer wg.Done()
		countErr = s.db.QueryRowContext(ctx, countSQL, binds...).Scan(&total)
	}()
	go func() {
		defer wg.Done()
		totalsErr = s.db.QueryRowContext(ctx, totalsSQL, binds...).Scan(&sumAmount, &sumPaid)
	}()
	wg.Wait()

	for _, err := range []error{dataErr, countErr, totalsErr} {
		if err != nil {
			s.internalError(c, "invoices.list", err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  rows,
		"total": total,
		"totals": gin.H{
			"amount": sumAmount,
			"paid":   sumPaid,
		},
	})
}
