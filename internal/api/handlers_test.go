package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

const auditID = "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"

// ---------------------------------------------------------------------------
// Invoice list with totals
// ---------------------------------------------------------------------------

func TestInvoiceList_IncludesTotals(t *testing.T) {
	router, mock := newTestRouter(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT row_to_json(t) FROM (SELECT * FROM admin_invoices  ORDER BY invoice_date DESC LIMIT 25 OFFSET 0) t",
	)).WillReturnRows(jsonDoc(`{"id":"i1","amount":100}`))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)::bigint FROM admin_invoices")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(SUM(amount), 0)::float8, COALESCE(SUM(paid), 0)::float8")).
		WillReturnRows(sqlmock.NewRows([]string{"amount", "paid"}).AddRow(100.0, 40.0))

	w := get(router, "/invoices")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data   []json.RawMessage `json:"data"`
		Total  int64             `json:"total"`
		Totals struct {
			Amount float64 `json:"amount"`
			Paid   float64 `json:"paid"`
		} `json:"totals"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Data) != 1 || resp.Total != 1 {
		t.Errorf("data/total = %d/%d, want 1/1", len(resp.Data), resp.Total)
	}
	if resp.Totals.Amount != 100 || resp.Totals.Paid != 40 {
		t.Errorf("totals = %+v, want amount 100 paid 40", resp.Totals)
	}
}

func TestInvoiceList_FilterAppliesToTotals(t *testing.T) {
	router, mock := newTestRouter(t)

	// All three queries share the same WHERE clause and bind.
	mock.ExpectQuery(regexp.QuoteMeta("row_to_json")).
		WithArgs("Unpaid").WillReturnRows(jsonDoc(`{"id":"i1"}`))
	mock.ExpectQuery(regexp.QuoteMeta("COUNT(*)::bigint")).
		WithArgs("Unpaid").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery(regexp.QuoteMeta("SUM(amount)")).
		WithArgs("Unpaid").WillReturnRows(sqlmock.NewRows([]string{"amount", "paid"}).AddRow(60.0, 0.0))

	w := get(router, "/invoices?status=Unpaid")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", w.Code, w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// ---------------------------------------------------------------------------
// CSV export
// ---------------------------------------------------------------------------

func TestExport_WritesCSV(t *testing.T) {
	router, mock := newTestRouter(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM admin_tenants ORDER BY created_at DESC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}).
			AddRow("t1", "Jo Smith", "jo@example.com").
			AddRow("t2", `Quote "Me"`, nil))

	w := get(router, "/export/tenants")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/csv") {
		t.Errorf("Content-Type = %q, want text/csv", got)
	}
	if got := w.Header().Get("Content-Disposition"); !strings.Contains(got, "tenants.csv") {
		t.Errorf("Content-Disposition = %q", got)
	}

	lines := strings.Split(strings.TrimRight(w.Body.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("line count = %d, want header + 2 rows; body = %s", len(lines), w.Body.String())
	}
	if lines[0] != "id,name,email" {
		t.Errorf("header = %q", lines[0])
	}
	// csv quoting applies to the embedded quotes; NULL renders empty.
	if !strings.Contains(lines[2], `"Quote ""Me"""`) || !strings.HasSuffix(lines[2], ",") {
		t.Errorf("row = %q", lines[2])
	}
}

func TestExport_UnknownEntity(t *testing.T) {
	router, _ := newTestRouter(t)

	w := get(router, "/export/nonsense")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Unknown entity: nonsense") {
		t.Errorf("body = %s", w.Body.String())
	}
}

// ---------------------------------------------------------------------------
// Session endpoints
// ---------------------------------------------------------------------------

func TestSetSession_SetsCookie(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/session",
		strings.NewReader(`{"access_token":"tok-123","expires_in":600}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", w.Code, w.Body.String())
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookie count = %d, want 1", len(cookies))
	}
	cookie := cookies[0]
	if cookie.Name != "access_token" || cookie.Value != "tok-123" {
		t.Errorf("cookie = %s=%s", cookie.Name, cookie.Value)
	}
	if cookie.MaxAge != 600 {
		t.Errorf("MaxAge = %d, want 600", cookie.MaxAge)
	}
}

func TestSetSession_RequiresToken(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/session", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body = %s", w.Code, w.Body.String())
	}
}

func TestClearSession_ExpiresCookie(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodDelete, "/auth/session", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", w.Code, w.Body.String())
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 || cookies[0].Value != "" {
		t.Fatalf("cookies = %+v, want one expired empty cookie", cookies)
	}
}

// ---------------------------------------------------------------------------
// Audit reads
// ---------------------------------------------------------------------------

func TestAuditRecent_DefaultLimit(t *testing.T) {
	router, mock := newTestRouter(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM admin_audit_log ORDER BY created_at DESC LIMIT $1")).
		WithArgs(50).WillReturnRows(jsonDoc(`[{"action":"create"}]`))

	w := get(router, "/audit/recent")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"total":50`) {
		t.Errorf("body = %s, want total 50", w.Body.String())
	}
}

func TestAuditRecent_CapsLimit(t *testing.T) {
	router, mock := newTestRouter(t)

	mock.ExpectQuery(regexp.QuoteMeta("LIMIT $1")).
		WithArgs(500).WillReturnRows(jsonDoc(`[]`))

	w := get(router, "/audit/recent?limit=9999")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"total":500`) {
		t.Errorf("body = %s, want total 500", w.Body.String())
	}
}

func TestAuditForEntity(t *testing.T) {
	router, mock := newTestRouter(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE entity_type = $1 AND entity_id = $2::uuid")).
		WithArgs("Property", auditID).
		WillReturnRows(jsonDoc(`[{"action":"update"}]`))

	w := get(router, "/audit/Property/"+auditID)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", w.Code, w.Body.String())
	}
	if w.Body.String() != `[{"action":"update"}]` {
		t.Errorf("body = %s, want bare JSON array", w.Body.String())
	}
}

func TestAuditForEntity_InvalidID(t *testing.T) {
	router, _ := newTestRouter(t)

	w := get(router, "/audit/Property/not-a-uuid")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body = %s", w.Code, w.Body.String())
	}
}

// ---------------------------------------------------------------------------
// Dashboard and details
// ---------------------------------------------------------------------------

func TestDashboard(t *testing.T) {
	router, mock := newTestRouter(t)

	mock.ExpectQuery(regexp.QuoteMeta("COUNT(*) FILTER (WHERE status IN ('Unpaid', 'Partial'))")).
		WillReturnRows(sqlmock.NewRows([]string{"props", "inv", "coll", "out", "pending"}).
			AddRow(int64(12), 1000.0, 750.0, 250.0, int64(3)))
	for _, fragment := range []string{
		"GROUP BY status ORDER BY count DESC",
		"INTERVAL '15 days'",
		"INTERVAL '90 days'",
		"FROM admin_audit_log ORDER BY created_at DESC LIMIT 5",
		"GROUP BY payee",
		"COUNT(*)::int AS num_invoices",
	} {
		mock.ExpectQuery(regexp.QuoteMeta(fragment)).WillReturnRows(jsonDoc(`[]`))
	}

	w := get(router, "/dashboard")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", w.Code, w.Body.String())
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp["total_properties"] != float64(12) {
		t.Errorf("total_properties = %v, want 12", resp["total_properties"])
	}
	if resp["collection_rate"] != 75.0 {
		t.Errorf("collection_rate = %v, want 75", resp["collection_rate"])
	}
	for _, key := range []string{
		"properties_by_status", "overdue_invoices", "expiring_leases",
		"recent_activity", "financial_by_payee", "financial_by_property",
	} {
		if _, ok := resp[key]; !ok {
			t.Errorf("response missing %q", key)
		}
	}
}

func TestPropertyDetail(t *testing.T) {
	router, mock := newTestRouter(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM admin_properties WHERE id = $1")).
		WithArgs(auditID).WillReturnRows(jsonDoc(`{"id":"` + auditID + `","property_name":"Flat 2"}`))
	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(SUM(amount - paid), 0)::float8")).
		WithArgs(auditID).
		WillReturnRows(sqlmock.NewRows([]string{"inv", "coll", "out"}).AddRow(500.0, 300.0, 200.0))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY invoice_date DESC LIMIT 10")).
		WithArgs(auditID).WillReturnRows(jsonDoc(`[{"id":"i1"}]`))

	w := get(router, "/properties/"+auditID+"/detail")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Property  json.RawMessage `json:"property"`
		Financial struct {
			TotalInvoiced    float64 `json:"total_invoiced"`
			TotalCollected   float64 `json:"total_collected"`
			TotalOutstanding float64 `json:"total_outstanding"`
		} `json:"financial"`
		Invoices json.RawMessage `json:"invoices"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Financial.TotalOutstanding != 200 {
		t.Errorf("total_outstanding = %v, want 200", resp.Financial.TotalOutstanding)
	}
	if !strings.Contains(string(resp.Property), "Flat 2") {
		t.Errorf("property = %s", resp.Property)
	}
}

func TestPropertyDetail_NotFound(t *testing.T) {
	router, mock := newTestRouter(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM admin_properties WHERE id = $1")).
		WithArgs(auditID).WillReturnRows(sqlmock.NewRows([]string{"json"}))
	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(SUM(amount - paid), 0)::float8")).
		WithArgs(auditID).
		WillReturnRows(sqlmock.NewRows([]string{"inv", "coll", "out"}).AddRow(0.0, 0.0, 0.0))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY invoice_date DESC LIMIT 10")).
		WithArgs(auditID).WillReturnRows(jsonDoc(`[]`))

	w := get(router, "/properties/"+auditID+"/detail")

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404; body = %s", w.Code, w.Body.String())
	}
}

func TestContractDetail_NotFound(t *testing.T) {
	router, mock := newTestRouter(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM admin_contracts WHERE id = $1")).
		WithArgs(auditID).WillReturnRows(sqlmock.NewRows([]string{"json"}))

	w := get(router, "/contracts/"+auditID+"/detail")

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404; body = %s", w.Code, w.Body.String())
	}
}
