// Package router turns a user utterance into the prompt sent to the agent.
//
// An utterance is either a transport number (eight characters that are digits
// once spaces are removed) or free-form text:
//   - Lookup: the knowledge base is queried with the number as typed and the
//     top record is embedded in the prompt together with an instruction to
//     summarize it. Missing records, an unreachable or unconfigured knowledge
//     base become fixed notices in the prompt.
//   - Free-form: the text is passed through with an instruction to reply in
//     the utterance's language.
//
// Classification never performs I/O. Route never returns an error.
//
// Example:
//
//	r, err := router.NewRouter(searchClient, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result := r.Route(ctx, router.Utterance{Text: "12345678", Language: "de-AT"})
//	fmt.Println(result.Kind, result.Outcome)
//	fmt.Println(result.Prompt)
//
// An operator rule can replace the built-in classification:
//
//	c, err := router.NewRuleClassifier("size(cleaned) == 10 && cleaned.matches('^[0-9]+$')", logger)
//	r, err := router.NewRouter(searchClient, logger, router.WithClassifier(c))
package router
