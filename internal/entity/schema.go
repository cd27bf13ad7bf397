// Package entity declares the static per-entity schemas that drive the generic
// CRUD layer. A Schema names an entity's backing table and the column
// whitelists the query builder and dispatcher are allowed to touch. Adding an
// entity is a pure data change: declare its Schema here and register it in the
// Registry map, with no handler code changes.
//
// The whitelists are the safety boundary of the whole API surface: column and
// table identifiers that end up in SQL text come only from this package, never
// from request data.
package entity

import "slices"

// Schema describes one managed entity type.
type Schema struct {
	// TableName is the physical storage relation.
	TableName string
	// Label is the human-readable name used in error messages and audit records.
	Label string
	// SearchFields are OR-combined into a case-insensitive substring match
	// when ?search= is provided.
	SearchFields []string
	// FilterFields are allowed as exact-match query filters (?status=Let).
	FilterFields []string
	// SortableFields is the whitelist of columns permitted in ORDER BY.
	SortableFields []string
	// WritableFields are the columns accepted in INSERT/UPDATE payloads.
	// Excludes id, created_at, updated_at, which are always server-managed.
	WritableFields []string
	// DefaultSort is the ORDER BY column used when no valid sort is supplied.
	// Must be a member of SortableFields.
	DefaultSort string
}

// Sortable reports whether field may appear in an ORDER BY clause.
func (s Schema) Sortable(field string) bool {
	return slices.Contains(s.SortableFields, field)
}

// Writable reports whether field may appear in an INSERT or UPDATE.
func (s Schema) Writable(field string) bool {
	return slices.Contains(s.WritableFields, field)
}

// Registry maps the entity's route token (the {entities} path segment) to its
// schema. Read-only after process start; shared freely across requests.
var Registry = map[string]Schema{
	"properties": {
		TableName:    "admin_properties",
		Label:        "properties",
		SearchFields: []string{"property_name", "address", "contract_ref", "status", "image_folder"},
		FilterFields: []string{"status"},
		SortableFields: []string{
			"property_name", "address", "status", "rent",
			"start_date", "end_date", "created_at", "updated_at",
		},
		WritableFields: []string{
			"property_name", "address", "contract_ref", "status", "rent",
			"start_date", "end_date", "tags", "image_folder",
		},
		DefaultSort: "created_at",
	},
	"tenants": {
		TableName:      "admin_tenants",
		Label:          "tenants",
		SearchFields:   []string{"name", "tax_id", "email", "phone", "property_name"},
		FilterFields:   []string{"is_legacy"},
		SortableFields: []string{"name", "email", "property_name", "created_at", "updated_at"},
		WritableFields: []string{
			"name", "tax_id", "email", "phone", "address", "bank_account",
			"property_name", "property_address", "is_legacy",
		},
		DefaultSort: "created_at",
	},
	"owners": {
		TableName:      "admin_owners",
		Label:          "owners",
		SearchFields:   []string{"name", "tax_id", "email", "phone", "property_name"},
		FilterFields:   []string{},
		SortableFields: []string{"name", "email", "property_name", "created_at", "updated_at"},
		WritableFields: []string{
			"name", "tax_id", "email", "phone", "address", "bank_account",
			"property_name", "property_address",
		},
		DefaultSort: "created_at",
	},
	"contracts": {
		TableName:    "admin_contracts",
		Label:        "contracts",
		SearchFields: []string{"contract_ref", "property_name", "address", "tenant_name", "status"},
		FilterFields: []string{"status"},
		SortableFields: []string{
			"contract_ref", "property_name", "tenant_name", "status", "rent",
			"total_value", "start_date", "end_date", "created_at", "updated_at",
		},
		WritableFields: []string{
			"contract_ref", "property_name", "address", "tenant_name", "status",
			"rent", "total_value", "start_date", "end_date", "tags", "doc_count",
		},
		DefaultSort: "created_at",
	},
	"invoices": {
		TableName: "admin_invoices",
		Label:     "invoices",
		SearchFields: []string{
			"reference", "description", "contract_ref", "property_name",
			"payer", "payee", "status",
		},
		FilterFields: []string{"status", "type", "expense_category", "payee"},
		SortableFields: []string{
			"reference", "description", "property_name", "payer", "payee",
			"status", "amount", "paid", "invoice_date", "payment_date", "type",
			"created_at", "updated_at",
		},
		WritableFields: []string{
			"reference", "description", "contract_ref", "property_name",
			"payer", "payee", "status", "amount", "paid", "vat", "currency",
			"invoice_date", "payment_date", "type", "expense_category", "notes",
		},
		DefaultSort: "invoice_date",
	},
	"deposits": {
		TableName:    "admin_deposits",
		Label:        "deposits",
		SearchFields: []string{"property_name", "contract_ref", "payer", "payee", "status"},
		FilterFields: []string{"status", "deposit_type"},
		SortableFields: []string{
			"property_name", "contract_ref", "status", "amount",
			"deposit_date", "created_at", "updated_at",
		},
		WritableFields: []string{
			"deposit_date", "payment_date", "refund_date", "property_name",
			"contract_ref", "payer", "payee", "deposit_type", "status",
			"amount", "paid", "refunded",
		},
		DefaultSort: "created_at",
	},
	"sepa-batches": {
		TableName: "admin_sepa_batches",
		Label:     "sepa_batches",
		SearchFields: []string{
			"batch_id", "creditor", "creditor_iban", "debtor", "debtor_iban", "reference",
		},
		FilterFields: []string{},
		SortableFields: []string{
			"batch_id", "collection_date", "creditor", "amount", "debtor",
			"created_at", "updated_at",
		},
		WritableFields: []string{
			"batch_id", "collection_date", "creditor", "creditor_iban",
			"amount", "currency", "debtor", "debtor_iban", "mandate_id", "reference",
		},
		DefaultSort: "created_at",
	},
	"issues": {
		TableName:    "admin_issues",
		Label:        "issues",
		SearchFields: []string{"property_name", "title", "description", "priority", "status"},
		FilterFields: []string{"status", "priority"},
		SortableFields: []string{
			"property_name", "title", "priority", "status", "cost",
			"created_at", "updated_at",
		},
		WritableFields: []string{"property_name", "title", "description", "priority", "status", "cost"},
		DefaultSort:    "created_at",
	},
	"insurance": {
		TableName:    "admin_insurance",
		Label:        "insurance",
		SearchFields: []string{"property_name", "insurance_type", "company", "policy_number", "status"},
		FilterFields: []string{"status", "insurance_type"},
		SortableFields: []string{
			"property_name", "company", "insurance_type", "status", "premium",
			"start_date", "end_date", "created_at", "updated_at",
		},
		WritableFields: []string{
			"property_name", "insurance_type", "company", "policy_number",
			"start_date", "end_date", "premium", "status", "notes",
		},
		DefaultSort: "created_at",
	},
	"alerts": {
		TableName:    "admin_alerts",
		Label:        "alerts",
		SearchFields: []string{"type", "entity_type", "title", "description", "status"},
		FilterFields: []string{"status", "priority", "type"},
		SortableFields: []string{
			"type", "entity_type", "title", "status", "priority",
			"created_at", "updated_at",
		},
		WritableFields: []string{
			"type", "entity_type", "entity_id", "title", "description",
			"status", "priority",
		},
		DefaultSort: "created_at",
	},
	"contacts": {
		TableName:      "admin_contacts",
		Label:          "contacts",
		SearchFields:   []string{"name", "email", "phone", "contact_type"},
		FilterFields:   []string{"contact_type"},
		SortableFields: []string{"name", "email", "contact_type", "created_at", "updated_at"},
		WritableFields: []string{
			"name", "tax_id", "iban", "email", "phone", "address",
			"contact_type", "notes",
		},
		DefaultSort: "created_at",
	},
	"leads": {
		TableName:    "admin_leads",
		Label:        "leads",
		SearchFields: []string{"name", "email", "phone", "company", "property_name", "status"},
		FilterFields: []string{"status", "source", "interest_type", "assigned_to"},
		SortableFields: []string{
			"name", "company", "status", "source", "score", "contact_date",
			"follow_up_date", "created_at", "updated_at",
		},
		WritableFields: []string{
			"name", "email", "phone", "company", "source", "status",
			"interest_type", "property_name", "budget_min", "budget_max",
			"min_bedrooms", "min_sqm", "preferred_area", "contact_date",
			"follow_up_date", "assigned_to", "score", "notes",
		},
		DefaultSort: "created_at",
	},
	"lead-notes": {
		TableName:      "admin_lead_notes",
		Label:          "lead_notes",
		SearchFields:   []string{"content", "author"},
		FilterFields:   []string{"lead_id", "author"},
		SortableFields: []string{"author", "created_at", "updated_at"},
		WritableFields: []string{"lead_id", "content", "author"},
		DefaultSort:    "created_at",
	},
}

// Lookup returns the schema registered for the given route token.
func Lookup(token string) (Schema, bool) {
	s, ok := Registry[token]
	return s, ok
}
