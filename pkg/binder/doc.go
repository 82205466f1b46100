// Package binder populates request structs from JSON bodies, query strings
// and URL parameters.
//
//	type selectRequest struct {
//		Level string `path:"level"`
//		ID    string `json:"id"`
//	}
//
//	h := handler.Wrap(selectLocation,
//		handler.WithBinders[selectRequest](binder.Path(chi.URLParam), binder.JSON()),
//	)
//
// Binders return ErrBinderNotApplicable when the request carries nothing for
// them; callers skip to the next binder in that case.
package binder
