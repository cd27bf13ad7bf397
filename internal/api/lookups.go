// lookups.go serves the small "names" endpoints the UI uses to populate
// dropdowns. Each returns a JSON array straight from the store.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) lookup(c *gin.Context, op, sqlText string) {
	data, err := s.jsonAgg(c.Request.Context(), sqlText)
	if err != nil {
		s.internalError(c, op, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// PropertyNames returns [{id, name}] for every property, ordered by name.
//
// GET /properties/names
func (s *Server) PropertyNames(c *gin.Context) {
	s.lookup(c, "properties.names", `SELECT COALESCE(json_agg(row_to_json(t)), '[]') FROM (
		SELECT id, property_name AS name FROM admin_properties ORDER BY property_name
	) t`)
}

// TenantNames returns the distinct tenant names as a flat string array.
//
// GET /tenants/names
func (s *Server) TenantNames(c *gin.Context) {
	s.lookup(c, "tenants.names", `SELECT COALESCE(json_agg(t.name), '[]') FROM (
		SELECT DISTINCT name FROM admin_tenants ORDER BY name
	) t`)
}

// ContactNames returns [{id, name}] for every contact, ordered by name.
//
// GET /contacts/names
func (s *Server) ContactNames(c *gin.Context) {
	s.lookup(c, "contacts.names", `SELECT COALESCE(json_agg(row_to_json(t)), '[]') FROM (
		SELECT id, name FROM admin_contacts ORDER BY name
	) t`)
}

// SepaCreditors returns the distinct non-empty creditors as a string array.
//
// GET /sepa-batches/creditors
func (s *Server) SepaCreditors(c *gin.Context) {
	s.lookup(c, "sepa-batches.creditors", `SELECT COALESCE(json_agg(t.creditor), '[]') FROM (
		SELECT DISTINCT creditor FROM admin_sepa_batches WHERE creditor != '' ORDER BY creditor
	) t`)
}

// InvoicePayees returns the distinct non-empty payees as a string array.
//
// GET /invoices/payees
func (s *Server) InvoicePayees(c *gin.Context) {
	s.lookup(c, "invoices.payees", `SELECT COALESCE(json_agg(t.payee), '[]') FROM (
		SELECT DISTINCT payee FROM admin_invoices WHERE payee != '' ORDER BY payee
	) t`)
}

// InvoiceOwners returns [{id, name}] for every owner, ordered by name.
//
// GET /invoices/owners
func (s *Server) InvoiceOwners(c *gin.Context) {
	s.lookup(c, "invoices.owners", `SELECT COALESCE(json_agg(row_to_json(t)), '[]') FROM (
		SELECT id, name FROM admin_owners ORDER BY name
	) t`)
}
