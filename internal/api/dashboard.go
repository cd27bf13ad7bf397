package api

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
)

// dashboard aggregate queries. Each returns a ready-to-embed JSON array so
// the handler never re-encodes row data.
const (
	dashboardStatsSQL = `SELECT
		(SELECT COUNT(*)::bigint FROM admin_properties),
		COALESCE(SUM(amount), 0)::float8,
		COALESCE(SUM(paid), 0)::float8,
		COALESCE(SUM(amount - paid), 0)::float8,
		COUNT(*) FILTER (WHERE status IN ('Unpaid', 'Partial'))::bigint
	FROM admin_invoices WHERE type = 'income'`

	propertiesByStatusSQL = `SELECT COALESCE(json_agg(row_to_json(t)), '[]') FROM (
		SELECT status, COUNT(*)::int AS count FROM admin_properties GROUP BY status ORDER BY count DESC
	) t`

	overdueInvoicesSQL = `SELECT COALESCE(json_agg(row_to_json(t)), '[]') FROM (
		SELECT * FROM admin_invoices
		WHERE status IN ('Unpaid', 'Partial') AND type = 'income'
		AND invoice_date < CURRENT_DATE - INTERVAL '15 days' ORDER BY invoice_date ASC
	) t`

	expiringLetsSQL = `SELECT COALESCE(json_agg(row_to_json(t)), '[]') FROM (
		SELECT * FROM admin_properties
		WHERE end_date IS NOT NULL AND end_date <= CURRENT_DATE + INTERVAL '90 days'
		AND status = 'Let' ORDER BY end_date ASC
	) t`

	recentActivitySQL = `SELECT COALESCE(json_agg(row_to_json(t)), '[]') FROM (
		SELECT * FROM admin_audit_log ORDER BY created_at DESC LIMIT 5
	) t`

	financialByPayeeSQL = `SELECT COALESCE(json_agg(row_to_json(t)), '[]') FROM (
		SELECT payee,
			SUM(amount)::float8 AS total_invoiced,
			SUM(paid)::float8 AS total_collected,
			SUM(amount - paid)::float8 AS total_outstanding,
			COUNT(DISTINCT property_name)::int AS num_properties
		FROM admin_invoices WHERE type = 'income'
		GROUP BY payee ORDER BY total_invoiced DESC
	) t`

	financialByPropertySQL = `SELECT COALESCE(json_agg(row_to_json(t)), '[]') FROM (
		SELECT property_name,
			SUM(amount)::float8 AS total_invoiced,
			SUM(paid)::float8 AS total_collected,
			SUM(amount - paid)::float8 AS total_outstanding,
			COUNT(*)::int AS num_invoices
		FROM admin_invoices WHERE type = 'income'
		GROUP BY property_name ORDER BY total_invoiced DESC
	) t`
)

// Dashboard returns the portfolio overview: headline counts and income
// figures, plus the JSON aggregates the dashboard page renders directly.
//
// The scalar stats travel in one round trip; the six aggregates run
// concurrently. A failed aggregate degrades to an empty list with a warning
// instead of failing the whole page, since the dashboard is a best-effort
// overview rather than a system of record.
//
// GET /dashboard
func (s *Server) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		totalProperties  int64
		totalInvoiced    float64
		totalCollected   float64
		totalOutstanding float64
		pendingCount     int64
	)
	err := s.db.QueryRowContext(ctx, dashboardStatsSQL).Scan(
		&totalProperties, &totalInvoiced, &totalCollected, &totalOutstanding, &pendingCount,
	)
	if err != nil {
		s.internalError(c, "dashboard", err)
		return
	}

	collectionRate := 0.0
	if totalInvoiced > 0 {
		collectionRate = math.Round(totalCollected/totalInvoiced*1000) / 10
	}

	aggregates := map[string]string{
		"properties_by_status":  propertiesByStatusSQL,
		"overdue_invoices":      overdueInvoicesSQL,
		"expiring_leases":       expiringLetsSQL,
		"recent_activity":       recentActivitySQL,
		"financial_by_payee":    financialByPayeeSQL,
		"financial_by_property": financialByPropertySQL,
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	results := make(map[string]json.RawMessage, len(aggregates))
	for key, sqlText := range aggregates {
		wg.Add(1)
		go func(key, sqlText string) {
			defer wg.Done()
			data, err := s.jsonAgg(ctx, sqlText)
			if err != nil {
				slog.Warn("dashboard aggregate failed", "aggregate", key, "error", err)
				data = json.RawMessage("[]")
			}
			mu.Lock()
			results[key] = data
			mu.Unlock()
		}(key, sqlText)
	}
	wg.Wait()

	resp := gin.H{
		"total_properties":  totalProperties,
		"total_invoiced":    totalInvoiced,
		"total_collected":   totalCollected,
		"total_outstanding": totalOutstanding,
		"pending_count":     pendingCount,
		"collection_rate":   collectionRate,
	}
	for key, data := range results {
		resp[key] = data
	}

	c.JSON(http.StatusOK, resp)
}
