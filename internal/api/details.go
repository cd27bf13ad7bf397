// details.go serves the composite detail views that join an entity row with
// its related records in one response.
package api

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	propertyRowSQL = `SELECT row_to_json(t) FROM (SELECT * FROM admin_properties WHERE id = $1) t`

	propertyFinancialSQL = `SELECT
		COALESCE(SUM(amount), 0)::float8,
		COALESCE(SUM(paid), 0)::float8,
		COALESCE(SUM(amount - paid), 0)::float8
	FROM admin_invoices
	WHERE property_name = (SELECT property_name FROM admin_properties WHERE id = $1) AND type = 'income'`

	propertyInvoicesSQL = `SELECT COALESCE(json_agg(row_to_json(t)), '[]') FROM (
		SELECT * FROM admin_invoices
		WHERE property_name = (SELECT property_name FROM admin_properties WHERE id = $1)
		ORDER BY invoice_date DESC LIMIT 10
	) t`

	contractRowSQL = `SELECT row_to_json(t) FROM (SELECT * FROM admin_contracts WHERE id = $1) t`
)

// detailID validates the :id path segment as a UUID.
func detailID(c *gin.Context) (string, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid id")
		return "", false
	}
	return id.String(), true
}

// PropertyDetail returns the property row together with its income summary
// and the ten most recent invoices. The three queries run concurrently; a
// missing property wins over any side-query failure and reports 404.
//
// GET /properties/:id/detail
func (s *Server) PropertyDetail(c *gin.Context) {
	id, ok := detailID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var (
		wg               sync.WaitGroup
		property         json.RawMessage
		propertyErr      error
		totalInvoiced    float64
		totalCollected   float64
		totalOutstanding float64
		financialErr     error
		invoices         json.RawMessage
		invoicesErr      error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		property, propertyErr = s.jsonAgg(ctx, propertyRowSQL, id)
	}()
	go func() {
		defer wg.Done()
		financialErr = s.db.QueryRowContext(ctx, propertyFinancialSQL, id).
			Scan(&totalInvoiced, &totalCollected, &totalOutstanding)
	}()
	go func() {
		defer wg.Done()
		invoices, invoicesErr = s.jsonAgg(ctx, propertyInvoicesSQL, id)
	}()
	wg.Wait()

	switch {
	case propertyErr == sql.ErrNoRows:
		notFound(c, "Property")
		return
	case propertyErr != nil:
		s.internalError(c, "properties.detail", propertyErr)
		return
	}
	if financialErr != nil {
		slog.Warn("property financial summary failed", "error", financialErr)
	}
	if invoicesErr != nil {
		slog.Warn("property invoices query failed", "error", invoicesErr)
		invoices = json.RawMessage("[]")
	}

	c.JSON(http.StatusOK, gin.H{
		"property": property,
		"financial": gin.H{
			"total_invoiced":    totalInvoiced,
			"total_collected":   totalCollected,
			"total_outstanding": totalOutstanding,
		},
		"invoices": invoices,
	})
}

// ContractDetail returns the contract row in the detail envelope.
//
// GET /contracts/:id/detail
func (s *Server) ContractDetail(c *gin.Context) {
	id, ok := detailID(c)
	if !ok {
		return
	}

	contract, err := s.jsonAgg(c.Request.Context(), contractRowSQL, id)
	switch {
	case err == sql.ErrNoRows:
		notFound(c, "Contract")
	case err != nil:
		s.internalError(c, "contracts.detail", err)
	default:
		c.JSON(http.StatusOK, gin.H{"contract": contract})
	}
}
