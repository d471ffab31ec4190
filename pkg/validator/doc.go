// Package validator builds declarative field checks for request input.
//
// Each rule pairs a Check func with the ValidationError reported when the
// check fails. Apply evaluates all rules and aggregates failures into a
// ValidationErrors value, so callers can report every problem at once.
//
//	err := validator.Apply(
//	    validator.Required("name", name),
//	    validator.ValidEmail("email", email),
//	    validator.MinLen("password", password, 8),
//	)
//	if errs := validator.ExtractValidationErrors(err); errs != nil {
//	    _ = errs.Map() // field -> messages
//	}
package validator
