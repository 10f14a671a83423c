// Package model talks to the eventum API.
//
// Models is what screens depend on; Client implements it over HTTP. Every
// call takes a context and returns typed data or an *Error that says which
// class of failure happened, so a controller can render the matching view
// without inspecting status codes:
//
//	profile, err := models.GetProfile(ctx)
//	switch {
//	case errors.Is(err, model.ErrUnauthorized):
//		views.Unauthorized(...)
//	case errors.Is(err, model.ErrServer):
//		views.Error(...)
//	}
//
// TagCache loads the tag list once per process and shares the result.
package model
