package interact

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/itlightning/dateparse"
)

// ValueType is the declared type of a NameValuePair value.
type ValueType string

const (
	TypeString   ValueType = "string"
	TypeNumeric  ValueType = "numeric"
	TypeDateTime ValueType = "datetime"
)

// dateTimeLayout is the layout Interact expects for datetime values.
const dateTimeLayout = "01/02/06 15:04:05"

// NameValuePair is the typed triple used for audience keys, event parameters,
// session variables, profile entries and offer attributes.
type NameValuePair struct {
	Name  string    `json:"n"`
	Value any       `json:"v"`
	Type  ValueType `json:"t"`
}

// NewNameValuePair creates a pair. A string value equal to "NULL" (any case)
// is stored as nil.
func NewNameValuePair(name string, value any, typ ValueType) NameValuePair {
	if s, ok := value.(string); ok && strings.EqualFold(s, "NULL") {
		value = nil
	}
	return NameValuePair{Name: name, Value: value, Type: typ}
}

// NewDateTimePair creates a datetime pair formatted the way the server parses it.
func NewDateTimePair(name string, t time.Time) NameValuePair {
	return NameValuePair{Name: name, Value: t.Format(dateTimeLayout), Type: TypeDateTime}
}

// String returns the value as text, or "" for a nil value.
func (p NameValuePair) String() string {
	switch v := p.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// Float returns the numeric value of the pair.
func (p NameValuePair) Float() (float64, bool) {
	switch v := p.Value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

// Time parses a datetime value. Numeric values are taken as epoch milliseconds.
func (p NameValuePair) Time() (time.Time, error) {
	switch v := p.Value.(type) {
	case time.Time:
		return v, nil
	case float64:
		return time.UnixMilli(int64(v)), nil
	case string:
		if t, err := time.Parse(dateTimeLayout, v); err == nil {
			return t, nil
		}
		return dateparse.ParseAny(v)
	}
	return time.Time{}, fmt.Errorf("value of %q is not a datetime", p.Name)
}

// Encode renders the pair in the "name,value,type" delimited form.
func (p NameValuePair) Encode() string {
	v := p.String()
	if p.Value == nil {
		v = "NULL"
	}
	return p.Name + "," + v + "," + string(p.Type)
}

// ParseNameValuePairs parses "name,value,type" entries separated by ';'.
// Commas inside a value are kept: the value is every segment between the
// first and the last. Numeric values that do not parse stay strings.
// It returns nil for an empty input.
func ParseNameValuePairs(text string) []NameValuePair {
	if text == "" {
		return nil
	}

	parts := strings.Split(text, ";")
	pairs := make([]NameValuePair, 0, len(parts))
	for _, part := range parts {
		fields := strings.Split(part, ",")
		name := fields[0]
		typ := ValueType(fields[len(fields)-1])

		raw := ""
		if len(fields) > 2 {
			raw = strings.Join(fields[1:len(fields)-1], ",")
		}

		var value any = raw
		if typ == TypeNumeric {
			if f, ok := parseNumber(raw); ok {
				value = f
			}
		}
		pairs = append(pairs, NewNameValuePair(name, value, typ))
	}
	return pairs
}

// EncodeNameValuePairs is the inverse of ParseNameValuePairs.
func EncodeNameValuePairs(pairs []NameValuePair) string {
	encoded := make([]string, len(pairs))
	for i, p := range pairs {
		encoded[i] = p.Encode()
	}
	return strings.Join(encoded, ";")
}

// parseNumber parses a numeric value. Blank text is zero.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// findPair looks a pair up by name, ignoring case.
func findPair(pairs []NameValuePair, name string) (NameValuePair, bool) {
	for _, p := range pairs {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return NameValuePair{}, false
}
