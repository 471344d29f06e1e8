package router

import "fmt"

// Notices embedded in place of a record when none can be shown
const (
	NotFoundNotice      = "Knowledge base: no information found for this transport number."
	UnreachableNotice   = "Knowledge base error: the lookup service is unreachable."
	NotConfiguredNotice = "Knowledge base is not configured."
)

// Default prompt templates. Values are triple-stashed so user text is not HTML escaped.
const (
	DefaultLookupTemplate = "{{{knowledge}}}\n\n" +
		"Instruction: The user asked about transport number '{{{key}}}'. " +
		"Summarize the information from the 'Record found' line clearly and simply."

	DefaultFreeformTemplate = "{{{message}}}\n\n" +
		"Instruction: ALWAYS reply in the language with the code: {{{language}}}."
)

// promptData is the data handed to prompt templates
func promptData(u Utterance, knowledge string, outcome LookupOutcome) map[string]interface{} {
	return map[string]interface{}{
		"message":   u.Text,
		"key":       u.Text,
		"language":  u.Language,
		"knowledge": knowledge,
		"outcome":   string(outcome),
	}
}

// fallbackLookupPrompt matches DefaultLookupTemplate without the template engine
func fallbackLookupPrompt(u Utterance, knowledge string) string {
	return fmt.Sprintf("%s\n\nInstruction: The user asked about transport number '%s'. "+
		"Summarize the information from the 'Record found' line clearly and simply.", knowledge, u.Text)
}

// fallbackFreeformPrompt matches DefaultFreeformTemplate without the template engine
func fallbackFreeformPrompt(u Utterance) string {
	return fmt.Sprintf("%s\n\nInstruction: ALWAYS reply in the language with the code: %s.", u.Text, u.Language)
}
