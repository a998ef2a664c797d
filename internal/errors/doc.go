// Package errors provides coded, actionable errors for the wsio command and
// its configuration loader.
//
// Each error carries a code (e.g. "W101") that maps to a registered
// template: a category, a short message and a longer explanation.
//
//	err := errors.New("W101").
//	    WithFile("wsio.toml").
//	    WithSuggestion("Check the TOML syntax near the reported line").
//	    Wrap(parseErr)
//
//	errors.PrintError(err)
//	// ERROR W101: Config file is invalid
//	//
//	//   wsio.toml
//	//
//	//   The configuration file could not be parsed.
//	//
//	//   Hint: Check the TOML syntax near the reported line
//
// Errors returned by the wsio library itself are plain sentinel errors; this
// package only wraps them at the command boundary.
package errors
