package types

// Status is a type for the status of a resource (e.g. auth record) in the Database
// Any changes to this type should be reflected in the database schema by running migrations
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)
