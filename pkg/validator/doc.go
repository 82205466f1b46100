// Package validator provides small declarative rules for form fields.
//
// A Rule pairs a Check function with the ValidationError reported when the
// check fails. Apply evaluates rules in order and keeps only the first failure
// per field, so every field maps to exactly one message:
//
//	err := validator.Apply(
//	    validator.RequiredString("email", d.Email),
//	    validator.ValidEmail("email", d.Email),
//	    validator.RequiredString("password", d.Password),
//	)
//	if verrs := validator.ExtractValidationErrors(err); verrs != nil {
//	    fmt.Println(verrs.Map()) // map[email:must be a valid email address]
//	}
//
// Format rules accept empty values; pair them with a Required rule when the
// field is mandatory. This keeps a missing field reported once, as missing,
// instead of also failing its format checks.
package validator
