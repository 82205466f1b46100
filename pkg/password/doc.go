// Package password scores password strength for signup forms and decides
// whether a password clears the submit threshold.
//
// The score is additive: one point each for reaching 8 and 12 characters and
// one point per character class (lowercase, uppercase, digit, special). Common
// passwords score zero regardless of composition.
//
//	password.Classify("abc")           // Weak
//	password.Classify("Str0ng!Pass99") // Strong
//	password.Acceptable("abc")         // false
package password
