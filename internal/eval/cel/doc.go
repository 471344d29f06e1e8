// Package cel compiles operator-defined lookup rules written in CEL (Common
// Expression Language).
//
// A rule sees three string variables and must return a bool:
//   - text - the utterance as typed
//   - cleaned - the utterance with spaces removed
//   - language - the language tag sent with the utterance
//
// Besides the standard library, strings have an isDigits() method that is true
// for a non-empty string of decimal digits.
//
// Example usage:
//
//	rule, err := cel.Compile("cleaned.isDigits() && size(cleaned) in [8, 10]")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	matched, err := rule.Match(ctx, cel.Input{Text: "1234 5678", Cleaned: "12345678"})
package cel
