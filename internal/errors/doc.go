// Package errors provides structured, coded errors for upform.
//
// Every failure the library reports to a caller synchronously carries a
// registered code (e.g. "F001") that maps to:
//   - A category (form, transport, config)
//   - A short message describing the failure
//   - A longer explanation of what went wrong
//
// Errors compare by code, so a registered error can be used as a sentinel:
//
//	var ErrInvalidOperation = errors.New(errors.CodeDefaultsOnFactory)
//
//	err := errors.New(errors.CodeDefaultsOnFactory).
//	    WithSuggestion("Build the form with form.New to change its defaults")
//	stderrors.Is(err, ErrInvalidOperation) // true
//
// # Error Categories
//
//   - form: misuse of the form state API (defaults on a factory form, unknown fields)
//   - transport: request encoding, network and response decoding failures
//   - config: configuration file and option problems
//
// Format renders an error for terminal display:
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR F001: Defaults cannot change on a factory form
//	//
//	//   The form was built from a function, so its baseline is regenerated on
//	//   every Reset and cannot be edited in place.
//	//
//	//   Hint: Build the form with form.New to change its defaults
package errors
