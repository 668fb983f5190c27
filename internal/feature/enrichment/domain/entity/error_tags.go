package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ErrorTags is the ordered list of error tags recorded for a fetch attempt.
// It is stored as a JSON-encoded TEXT column so the quarantine predicate
// (LIKE '%404_NOT_FOUND%') works identically on PostgreSQL and SQLite.
type ErrorTags []string

// Contains reports whether the list carries the given tag.
func (t ErrorTags) Contains(tag string) bool {
	for _, v := range t {
		if v == tag {
			return true
		}
	}
	return false
}

// Value implements driver.Valuer. 空のリストは NULL として保存します。
func (t ErrorTags) Value() (driver.Value, error) {
	if len(t) == 0 {
		return nil, nil
	}
	b, err := json.Marshal([]string(t))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (t *ErrorTags) Scan(src any) error {
	if src == nil {
		*t = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("error_tags: unsupported scan type %T", src)
	}
	if len(data) == 0 {
		*t = nil
		return nil
	}
	return json.Unmarshal(data, (*[]string)(t))
}
