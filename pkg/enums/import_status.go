package enums

import "fmt"

// ImportStatus is the per-item outcome of a bulk item import.
type ImportStatus string

const (
	ImportStatusImported ImportStatus = "imported"
	ImportStatusDeclined ImportStatus = "declined"
)

var validImportStatuses = []ImportStatus{
	ImportStatusImported,
	ImportStatusDeclined,
}

// String implements fmt.Stringer.
func (s ImportStatus) String() string {
	return string(s)
}

// IsValid reports whether the status is recognized.
func (s ImportStatus) IsValid() bool {
	for _, candidate := range validImportStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseImportStatus converts a raw string into an ImportStatus.
func ParseImportStatus(value string) (ImportStatus, error) {
	for _, candidate := range validImportStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid import status %q", value)
}
