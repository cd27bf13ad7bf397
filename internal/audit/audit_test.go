package audit

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

var errDB = errors.New("db error")

func newLog(t *testing.T) (*Log, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewLog(sqlx.NewDb(db, "postgres")), mock
}

func TestRecord_InsertsRow(t *testing.T) {
	log, mock := newLog(t)
	mock.ExpectExec("INSERT INTO admin_audit_log").
		WithArgs("properties", "11111111-2222-3333-4444-555555555555", ActionCreate,
			nil, []byte(`{"property_name":"Oak House"}`)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	log.Record(context.Background(), "properties", "11111111-2222-3333-4444-555555555555",
		ActionCreate, nil, map[string]interface{}{"property_name": "Oak House"})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestRecord_DeleteStoresNullValues(t *testing.T) {
	log, mock := newLog(t)
	mock.ExpectExec("INSERT INTO admin_audit_log").
		WithArgs("tenants", "id-1", ActionDelete, nil, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	log.Record(context.Background(), "tenants", "id-1", ActionDelete, nil, nil)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// A failed insert must be swallowed: Record has no error return and must not
// panic.
func TestRecord_SwallowsFailure(t *testing.T) {
	log, mock := newLog(t)
	mock.ExpectExec("INSERT INTO admin_audit_log").
		WillReturnError(errDB)

	log.Record(context.Background(), "properties", "id-1", ActionUpdate, nil,
		map[string]interface{}{"status": "Let"})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestRecent_DefaultAndCap(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"default", 0, 50},
		{"explicit", 10, 10},
		{"capped", 9999, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, mock := newLog(t)
			mock.ExpectQuery("SELECT COALESCE\\(json_agg").
				WithArgs(tt.want).
				WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow([]byte("[]")))

			data, err := log.Recent(context.Background(), tt.limit)
			if err != nil {
				t.Fatalf("Recent: %v", err)
			}
			if string(data) != "[]" {
				t.Errorf("data = %s, want []", data)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("expectations: %v", err)
			}
		})
	}
}

func TestForEntity(t *testing.T) {
	log, mock := newLog(t)
	mock.ExpectQuery("SELECT COALESCE\\(json_agg").
		WithArgs("properties", "id-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).
			AddRow([]byte(`[{"action":"create"}]`)))

	data, err := log.ForEntity(context.Background(), "properties", "id-1")
	if err != nil {
		t.Fatalf("ForEntity: %v", err)
	}
	if string(data) != `[{"action":"create"}]` {
		t.Errorf("data = %s", data)
	}
}

func TestForEntity_DBError(t *testing.T) {
	log, mock := newLog(t)
	mock.ExpectQuery("SELECT COALESCE\\(json_agg").
		WillReturnError(errDB)

	if _, err := log.ForEntity(context.Background(), "properties", "id-1"); err == nil {
		t.Error("expected error, got nil")
	}
}
