package types

import (
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	return ulid.Make().String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier
// with a prefix ex inv_01HZX3M4Q8W6Y0V2T9B7C5D1EA
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}

// IsUUIDWithPrefix reports whether id has the shape produced by GenerateUUIDWithPrefix
func IsUUIDWithPrefix(id, prefix string) bool {
	raw, ok := strings.CutPrefix(id, prefix+"_")
	if !ok {
		return false
	}
	_, err := ulid.ParseStrict(raw)
	return err == nil
}

const (
	// Prefixes for all domains and entities

	UUID_PREFIX_INVOICE = "inv"
	UUID_PREFIX_USER    = "user"
	UUID_PREFIX_EVENT   = "event"
)
