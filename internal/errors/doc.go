// Package errors provides structured, coded errors for pagebridge.
//
// Every failure that crosses a package boundary and that a developer may need
// to act on carries a stable code (e.g. "E060") that maps to:
//   - A short message describing the error
//   - A detailed explanation
//   - A documentation URL
//
// # Error Categories
//
//   - protocol: the change stream and the live DOM disagree (unknown node,
//     duplicate creation, double deletion, broken structure)
//   - event: event payload shaping or transport failures
//   - cache: offline cache installation and activation failures
//   - config: invalid pagebridge.json
//   - cli: command line usage errors
//
// Protocol errors are fatal for the change record that raised them: they mean
// the host and the page are out of sync, which cannot be repaired locally.
//
// # Usage
//
//	err := errors.New("E060").
//	    WithDetail("setText references node 42").
//	    Wrap(cause)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E060: Unknown node ID
//	//
//	//   setText references node 42
//	//
//	//   Learn more: https://pagebridge.dev/docs/errors/E060
package errors
