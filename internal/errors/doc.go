// Package errors provides coded, actionable errors for the eventum CLI
// and configuration loader.
//
// Every error has a code that maps to a category, a short message, and a
// longer explanation. Callers add a detail, a suggestion, or the
// underlying cause:
//
//	err := errors.New("E101").
//	    WithDetail("No eventum.json or eventum.yaml in /srv/app").
//	    WithSuggestion("Run 'eventum serve' from the project root")
//
//	fmt.Fprint(os.Stderr, err.Format())
//	// ERROR E101: Configuration file not found
//	//
//	//   No eventum.json or eventum.yaml in /srv/app
//	//
//	//   Hint: Run 'eventum serve' from the project root
//
// # Codes
//
//   - E1xx: configuration
//   - E2xx: command line and dev server
package errors
