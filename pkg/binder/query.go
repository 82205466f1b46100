package binder

import "net/http"

// Query binds URL query parameters into fields tagged `query:"name"`.
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		q := r.URL.Query()
		if len(q) == 0 {
			return ErrBinderNotApplicable
		}
		return bindToStruct(v, "query", q, ErrFailedToParseQuery)
	}
}
