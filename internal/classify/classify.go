// Package classify identifies error "kinds" by structural inspection
// rather than type identity. Two structurally equivalent error types
// defined in different packages classify identically, because the
// classifier only looks at the shape of the value: a numeric status-code
// field, a boolean operational flag, and a declared name string.
package classify

import (
	"net/http"
	"reflect"
	"strings"
	"unicode"
)

// Kind is the classification of an inspected error.
type Kind string

// The fixed set of error kinds.
const (
	KindValidation    Kind = "validation"
	KindBusiness      Kind = "business"
	KindAuthorization Kind = "authorization"
	KindNotFound      Kind = "not_found"
	KindHTTP          Kind = "http"
	KindUnknown       Kind = "unknown"
)

// Traits is the structural profile extracted from an error value.
type Traits struct {
	// Name is the error's declared name ("ValidationError", ...), from a
	// Name() method or an exported Name field. Empty when absent.
	Name string

	// StatusCode is the numeric HTTP status, valid only when HasStatus.
	StatusCode int
	HasStatus  bool

	// Operational reports the boolean "expected failure" flag, valid only
	// when HasOperational.
	Operational    bool
	HasOperational bool

	// Code is an application-level error code, when present.
	Code string

	// ValidationErrors is a field-to-message map, when present.
	ValidationErrors map[string]string

	// Extra holds any additional exported fields found on the error,
	// excluding the standard message/name/status/operational/code/
	// validation-errors set. Keys follow the field's json tag when one
	// exists, otherwise the lower-camel form of the field name.
	Extra map[string]any
}

// statusCoder is satisfied by errors that expose their HTTP status as a
// method. Both forms seen in the wild are probed.
type statusCoder interface{ StatusCode() int }

type httpStatuser interface{ HTTPStatus() int }

type namer interface{ ErrorName() string }

type operational interface{ IsOperational() bool }

type coder interface{ ErrorCode() string }

type validationMapper interface{ ValidationErrors() map[string]string }

type fielder interface{ Fields() map[string]any }

// standardFields are excluded from Traits.Extra. They are either carried
// explicitly on Traits or are never propagated to clients.
var standardFields = map[string]struct{}{
	"Message":          {},
	"Msg":              {},
	"Name":             {},
	"StatusCode":       {},
	"Status":           {},
	"IsOperational":    {},
	"Operational":      {},
	"Code":             {},
	"ValidationErrors": {},
	"Stack":            {},
	"Err":              {},
	"Cause":            {},
}

// Inspect extracts the structural profile of err. It never fails; an
// error with no recognizable shape yields zero-valued Traits.
func Inspect(err error) Traits {
	var tr Traits
	if err == nil {
		return tr
	}

	// Method probes first: they are the cheapest and the most explicit
	// way for an error type to declare its shape.
	if sc, ok := err.(statusCoder); ok {
		tr.StatusCode = sc.StatusCode()
		tr.HasStatus = true
	} else if hs, ok := err.(httpStatuser); ok {
		tr.StatusCode = hs.HTTPStatus()
		tr.HasStatus = true
	}
	if n, ok := err.(namer); ok {
		tr.Name = n.ErrorName()
	}
	if op, ok := err.(operational); ok {
		tr.Operational = op.IsOperational()
		tr.HasOperational = true
	}
	if c, ok := err.(coder); ok {
		tr.Code = c.ErrorCode()
	}
	if vm, ok := err.(validationMapper); ok {
		tr.ValidationErrors = vm.ValidationErrors()
	}
	if f, ok := err.(fielder); ok {
		for k, v := range f.Fields() {
			if tr.Extra == nil {
				tr.Extra = make(map[string]any)
			}
			tr.Extra[k] = v
		}
	}

	inspectFields(err, &tr)
	return tr
}

// inspectFields fills any traits the method probes missed by reflecting
// over the error's exported struct fields.
func inspectFields(err error, tr *Traits) {
	v := reflect.ValueOf(err)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		fv := v.Field(i)

		switch field.Name {
		case "StatusCode", "Status":
			if !tr.HasStatus && fv.Kind() >= reflect.Int && fv.Kind() <= reflect.Int64 {
				if code := int(fv.Int()); code != 0 {
					tr.StatusCode = code
					tr.HasStatus = true
				}
			}
		case "Name":
			if tr.Name == "" && fv.Kind() == reflect.String {
				tr.Name = fv.String()
			}
		case "IsOperational", "Operational":
			if !tr.HasOperational && fv.Kind() == reflect.Bool {
				tr.Operational = fv.Bool()
				tr.HasOperational = true
			}
		case "Code":
			if tr.Code == "" && fv.Kind() == reflect.String {
				tr.Code = fv.String()
			}
		case "ValidationErrors":
			if tr.ValidationErrors == nil {
				if m, ok := fv.Interface().(map[string]string); ok {
					tr.ValidationErrors = m
				}
			}
		default:
			if _, skip := standardFields[field.Name]; skip {
				continue
			}
			if fv.IsZero() {
				continue
			}
			if tr.Extra == nil {
				tr.Extra = make(map[string]any)
			}
			tr.Extra[jsonKey(field)] = fv.Interface()
		}
	}
}

// jsonKey derives the wire key for an extra field: its json tag when one
// exists, otherwise the lower-camel form of the Go field name.
func jsonKey(field reflect.StructField) string {
	if tag, ok := field.Tag.Lookup("json"); ok {
		name, _, _ := strings.Cut(tag, ",")
		if name != "" && name != "-" {
			return name
		}
	}
	runes := []rune(field.Name)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

// Classify buckets err into one of the fixed kinds using only its
// structural traits.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	tr := Inspect(err)

	switch {
	case strings.Contains(tr.Name, "Validation") || len(tr.ValidationErrors) > 0:
		return KindValidation
	case strings.Contains(tr.Name, "Business"):
		return KindBusiness
	case tr.HasStatus && (tr.StatusCode == http.StatusUnauthorized || tr.StatusCode == http.StatusForbidden):
		return KindAuthorization
	case strings.Contains(tr.Name, "Unauthorized") || strings.Contains(tr.Name, "Forbidden"):
		return KindAuthorization
	case tr.HasStatus && tr.StatusCode == http.StatusNotFound:
		return KindNotFound
	case strings.Contains(tr.Name, "NotFound"):
		return KindNotFound
	case tr.HasStatus:
		return KindHTTP
	default:
		return KindUnknown
	}
}

// StatusCode resolves the HTTP status to report for err, walking the
// wrap chain and defaulting to 500 when no status is discoverable.
func StatusCode(err error) int {
	for e := err; e != nil; e = unwrap(e) {
		if tr := Inspect(e); tr.HasStatus {
			return tr.StatusCode
		}
	}
	return http.StatusInternalServerError
}

func unwrap(err error) error {
	u, ok := err.(interface{ Unwrap() error })
	if !ok {
		return nil
	}
	return u.Unwrap()
}
