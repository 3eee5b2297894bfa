package fuzzyx

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// FieldSpec selects the searchable text of a record. Build one with Path,
// Paths, Func, FuncE or Fields.
type FieldSpec interface {
	extractors() []extractor
}

// DefaultFieldNames are the identity fields common to suppliers, customers,
// products and orders.
var DefaultFieldNames = []string{
	"name", "title", "companyName", "businessName",
	"description",
	"email", "phone",
	"code", "sku", "poNumber", "orderNumber",
}

// DefaultFields searches DefaultFieldNames and is used when no fields are given.
var DefaultFields = Paths(DefaultFieldNames...)

type extractor struct {
	name string
	fn   func(any) (string, error)
}

// extract never panics; a panicking accessor yields ErrAccessorPanic.
func (e extractor) extract(item any) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", errors.Wrapf(ErrAccessorPanic, "field %s: %v", e.name, r)
		}
	}()
	return e.fn(item)
}

func resolveFields(spec FieldSpec) []extractor {
	if spec == nil {
		spec = DefaultFields
	}
	return spec.extractors()
}

type pathField string

// Path selects a field by dot-separated path, e.g. "contact.email".
func Path(path string) FieldSpec {
	return pathField(path)
}

func (p pathField) extractors() []extractor {
	path := string(p)
	return []extractor{{name: path, fn: func(item any) (string, error) {
		v, err := Lookup(item, path)
		if err != nil {
			return "", err
		}
		return Text(v), nil
	}}}
}

type funcField struct {
	name string
	fn   func(any) (string, error)
}

func (f funcField) extractors() []extractor {
	fn := f.fn
	if fn == nil {
		fn = func(any) (string, error) {
			return "", errors.Newf("field %s: nil accessor", f.name)
		}
	}
	return []extractor{{name: f.name, fn: fn}}
}

// Func selects text with an accessor. A panic inside fn counts as an empty
// field for that item only.
func Func(fn func(item any) string) FieldSpec {
	if fn == nil {
		return funcField{name: "func"}
	}
	return funcField{name: "func", fn: func(item any) (string, error) {
		return fn(item), nil
	}}
}

// FuncE is Func for accessors that report failures. An error counts as an
// empty field.
func FuncE(fn func(item any) (string, error)) FieldSpec {
	return funcField{name: "func", fn: fn}
}

type fieldList []FieldSpec

func (l fieldList) extractors() []extractor {
	var out []extractor
	for _, spec := range l {
		if spec != nil {
			out = append(out, spec.extractors()...)
		}
	}
	return out
}

// Fields combines several specs; an item's score is its best field.
func Fields(specs ...FieldSpec) FieldSpec {
	return fieldList(specs)
}

// Paths is Fields of Path specs.
func Paths(paths ...string) FieldSpec {
	l := make(fieldList, len(paths))
	for i, p := range paths {
		l[i] = Path(p)
	}
	return l
}

// Lookup resolves a dot path on maps with string keys, structs (by field
// name, case-insensitive name or json tag), pointers and slices (numeric
// segments). A missing segment returns ErrFieldNotFound.
func Lookup(item any, path string) (any, error) {
	cur := item
	for _, seg := range strings.Split(path, ".") {
		next, ok := child(cur, seg)
		if !ok {
			return nil, errors.Wrapf(ErrFieldNotFound, "path %q: no %q", path, seg)
		}
		cur = next
	}
	return cur, nil
}

func child(v any, key string) (any, bool) {
	switch m := v.(type) {
	case map[string]any:
		x, ok := m[key]
		return x, ok
	case map[string]string:
		x, ok := m[key]
		return x, ok
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		kt := rv.Type().Key()
		if kt.Kind() != reflect.String {
			return nil, false
		}
		mv := rv.MapIndex(reflect.ValueOf(key).Convert(kt))
		if !mv.IsValid() {
			return nil, false
		}
		return mv.Interface(), true
	case reflect.Struct:
		return structField(rv, key)
	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= rv.Len() {
			return nil, false
		}
		return rv.Index(i).Interface(), true
	}
	return nil, false
}

func structField(rv reflect.Value, key string) (any, bool) {
	rt := rv.Type()
	if sf, ok := rt.FieldByName(key); ok && sf.IsExported() {
		fv, err := rv.FieldByIndexErr(sf.Index)
		if err != nil {
			return nil, false
		}
		return fv.Interface(), true
	}
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if tag == key || (tag == "" && strings.EqualFold(sf.Name, key)) {
			return rv.Field(i).Interface(), true
		}
	}
	return nil, false
}

// Text renders a field value as searchable text. Lists are joined with single
// spaces; nil, maps and structs render as "".
func Text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case []string:
		return strings.Join(x, " ")
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = Text(e)
		}
		return strings.Join(parts, " ")
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return ""
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return ""
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = Text(rv.Index(i).Interface())
		}
		return strings.Join(parts, " ")
	case reflect.Map, reflect.Struct, reflect.Func, reflect.Chan:
		return ""
	default:
		return fmt.Sprint(rv.Interface())
	}
}
