package entity

import (
	"strings"
	"testing"
)

// Every schema must keep its default sort column inside the sortable
// whitelist, otherwise the fallback path in the query builder would emit an
// unvalidated identifier.
func TestRegistry_DefaultSortIsSortable(t *testing.T) {
	for token, s := range Registry {
		if !s.Sortable(s.DefaultSort) {
			t.Errorf("%s: default sort %q not in sortable fields %v", token, s.DefaultSort, s.SortableFields)
		}
	}
}

// System columns are never client-writable.
func TestRegistry_SystemColumnsNotWritable(t *testing.T) {
	for token, s := range Registry {
		for _, sys := range []string{"id", "created_at", "updated_at"} {
			if s.Writable(sys) {
				t.Errorf("%s: system column %q must not be writable", token, sys)
			}
		}
	}
}

func TestRegistry_TableNamesArePrefixed(t *testing.T) {
	for token, s := range Registry {
		if !strings.HasPrefix(s.TableName, "admin_") {
			t.Errorf("%s: table %q missing admin_ prefix", token, s.TableName)
		}
		if s.Label == "" {
			t.Errorf("%s: empty label", token)
		}
	}
}

func TestLookup(t *testing.T) {
	s, ok := Lookup("properties")
	if !ok {
		t.Fatal("properties not registered")
	}
	if s.TableName != "admin_properties" {
		t.Errorf("TableName = %q, want admin_properties", s.TableName)
	}

	if _, ok := Lookup("no-such-entity"); ok {
		t.Error("Lookup returned ok for unregistered entity")
	}
}

func TestSortable(t *testing.T) {
	s := Registry["properties"]
	if !s.Sortable("rent") {
		t.Error("rent should be sortable")
	}
	if s.Sortable("image_folder") {
		t.Error("image_folder should not be sortable")
	}
	// A column name that is valid SQL but not whitelisted.
	if s.Sortable("id; DROP TABLE admin_properties") {
		t.Error("injection-shaped field must not be sortable")
	}
}

func TestRegistry_CoversAllEntities(t *testing.T) {
	expected := []string{
		"properties", "tenants", "owners", "contracts", "invoices",
		"deposits", "sepa-batches", "issues", "insurance", "alerts",
		"contacts", "leads", "lead-notes",
	}
	for _, token := range expected {
		if _, ok := Registry[token]; !ok {
			t.Errorf("entity %q missing from registry", token)
		}
	}
	if len(Registry) != len(expected) {
		t.Errorf("registry has %d entries, want %d", len(Registry), len(expected))
	}
}
