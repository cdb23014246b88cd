package types

// AuthProvider identifies who issued and verifies credentials for a user
type AuthProvider string

const (
	AuthProviderInvoicegen AuthProvider = "invoicegen"
)
