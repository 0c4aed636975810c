// Package errors provides the structured errors used across sipa.
//
// Every error raised by the engine, the hook dispatcher, the navigator, the
// store and the config loader carries a short code (for example "S101") that
// maps to a registered template:
//
//	err := errors.New("S101").Wrap(evalErr).WithComponent("todo-list")
//	fmt.Println(err.Format())
//	// ERROR S101: Template evaluation failed
//	//
//	//   component todo-list
//	//
//	//   The component's template function returned an error. The previously
//	//   attached node is left untouched.
//
// Codes are grouped by category:
//   - S1xx engine (render, slots, lists, events)
//   - S2xx hooks and navigation
//   - S3xx store
//   - S4xx configuration and CLI
//
// The package also exports the sentinels ErrInvalidArgument and ErrNotFound.
// Structured errors whose category implies one of them report it through
// errors.Is.
package errors
