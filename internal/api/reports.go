package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const arrearsSQL = `SELECT COALESCE(json_agg(row_to_json(t)), '[]') FROM (
	SELECT payer, property_name,
		COUNT(*)::int AS outstanding_invoices,
		SUM(amount)::float8 AS total_outstanding,
		SUM(paid)::float8 AS total_paid,
		SUM(amount - paid)::float8 AS debt,
		MIN(invoice_date) AS oldest_date
	FROM admin_invoices
	WHERE status IN ('Unpaid', 'Partial') AND type = 'income'
	GROUP BY payer, property_name
	ORDER BY debt DESC
) t`

const profitabilitySQL = `SELECT COALESCE(json_agg(row_to_json(t)), '[]') FROM (
	SELECT property_name,
		COALESCE(SUM(CASE WHEN type = 'income' THEN amount ELSE 0 END), 0)::float8 AS income,
		COALESCE(SUM(CASE WHEN type = 'expense' THEN amount ELSE 0 END), 0)::float8 AS expenses,
		COALESCE(SUM(CASE WHEN type = 'income' THEN amount ELSE -amount END), 0)::float8 AS margin,
		COALESCE(SUM(CASE WHEN type = 'income' THEN paid ELSE 0 END), 0)::float8 AS collected
	FROM admin_invoices
	WHERE property_name != ''
	GROUP BY property_name
	ORDER BY margin DESC
) t`

// ArrearsReport lists outstanding income invoices grouped by payer and
// property, ordered by debt.
//
// GET /reports/arrears
func (s *Server) ArrearsReport(c *gin.Context) {
	data, err := s.jsonAgg(c.Request.Context(), arrearsSQL)
	if err != nil {
		s.internalError(c, "reports.arrears", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}

// ProfitabilityReport summarizes income, expenses, and margin per property.
//
// GET /reports/profitability
func (s *Server) ProfitabilityReport(c *gin.Context) {
	data, err := s.jsonAgg(c.Request.Context(), profitabilitySQL)
	if err != nil {
		s.internalError(c, "reports.profitability", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}
