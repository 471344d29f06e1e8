// Package template keeps the Handlebars templates that shape agent prompts.
//
// Templates are compiled once when added to a Set and rendered by name.
// Prompt data contains user text, so templates should use the triple-stash
// form ({{{message}}}) to avoid HTML escaping.
//
// Helpers: uppercase, lowercase, trim, default, eq, ne, contains.
//
//	{{#if (eq outcome "not_found")}}No record for {{{key}}}.{{else}}{{{knowledge}}}{{/if}}
package template
