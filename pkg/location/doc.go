// Package location drives the four-level location picker: state, district,
// mandal and gram panchayat.
//
// A Cascade keeps the option list and selection of every level. Selecting
// an option clears everything below it, cancels any fetch still running for
// a lower level and loads the options of the next level. Fetch failures are
// returned to the caller. A response that arrives after a newer selection
// has replaced it is dropped and the superseded call gets ErrSuperseded.
package location
