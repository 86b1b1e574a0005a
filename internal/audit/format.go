package audit

import (
	"fmt"
	"reflect"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Placeholders written instead of the real value
const (
	Redacted        = "[REDACTED]"
	Unrenderable    = "<unrenderable>"
	TruncatedSuffix = "…[truncated]"
)

// FormatValue renders a property value for an audit trail. A nil value or nil
// pointer yields nil. Strings longer than maxLen runes are truncated; maxLen
// <= 0 disables truncation. FormatValue never panics.
func FormatValue(v any, maxLen int) (out *string) {
	defer func() {
		if r := recover(); r != nil {
			s := Unrenderable
			out = &s
		}
	}()

	s, ok := render(v)
	if !ok {
		return nil
	}
	s = truncate(s, maxLen)
	return &s
}

func render(v any) (string, bool) {
	if v == nil {
		return "", false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false
		}
		return render(rv.Elem().Interface())
	}

	switch x := v.(type) {
	case string:
		return x, true
	case bool:
		return strconv.FormatBool(x), true
	case int:
		return strconv.Itoa(x), true
	case int8, int16, int32, int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(rv.Uint(), 10), true
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), true
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), true
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano), true
	case uuid.UUID:
		return x.String(), true
	case []byte:
		return fmt.Sprintf("<binary %d bytes>", len(x)), true
	case fmt.Stringer:
		return x.String(), true
	}

	// Named scalar types such as enums
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), true
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64), true
	}

	return fmt.Sprintf("%v", v), true
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen]) + TruncatedSuffix
}

func formatRedacted(v any, maxLen int) *string {
	s := FormatValue(v, maxLen)
	if s == nil || *s == "" {
		return s
	}
	r := Redacted
	return &r
}
