package binder

import (
	"net/http"
	"reflect"
)

// Path binds URL parameters into fields tagged `path:"name"`. The resolver
// extracts a parameter by name, e.g. chi.URLParam or (*http.Request).PathValue.
func Path(resolve func(r *http.Request, name string) string) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		names := taggedNames(v, "path")
		if len(names) == 0 {
			return ErrBinderNotApplicable
		}

		values := make(map[string][]string, len(names))
		for _, name := range names {
			if val := resolve(r, name); val != "" {
				values[name] = []string{val}
			}
		}
		return bindToStruct(v, "path", values, ErrFailedToParsePath)
	}
}

// taggedNames lists the explicit tag values for tagName on v's fields.
func taggedNames(v any, tagName string) []string {
	rt := reflect.TypeOf(v)
	for rt != nil && rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	if rt == nil || rt.Kind() != reflect.Struct {
		return nil
	}

	var names []string
	for i := range rt.NumField() {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		if name, ok := tagValue(f, tagName); ok {
			names = append(names, name)
		}
	}
	return names
}
