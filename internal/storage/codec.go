package storage

import (
	"database/sql"
	"encoding/json"
)

// List-valued columns (failing_tests, calls_functions, post_bow) are stored
// as JSON text. Every read and write of those columns goes through
// encodeList and decodeList.

// encodeList serializes an ordered sequence. A nil slice is stored as "[]".
func encodeList(items []string) string {
	if items == nil {
		return "[]"
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// decodeList parses a stored sequence. NULL, empty and malformed values
// decode to an empty slice.
func decodeList(raw sql.NullString) []string {
	out := make([]string, 0)
	if !raw.Valid || raw.String == "" {
		return out
	}
	var items []string
	if err := json.Unmarshal([]byte(raw.String), &items); err != nil {
		return out
	}
	return append(out, items...)
}

// Nullable column helpers

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	i := v.Int64
	return &i
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
