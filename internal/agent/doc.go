// Package agent talks to the conversational agent behind the chat endpoint.
//
// Two backends implement Agent:
//   - FoundryClient drives an Azure AI Foundry agent: it posts the prompt to
//     the thread, starts a run, polls it until it reaches a terminal status
//     and reads the newest message.
//   - LLMAgent keeps thread history in Redis and asks an LLM provider (via
//     dago-adapters) for a completion.
//
// Run reports agent-side failures in RunResult rather than as errors; an error
// means the service could not be reached or answered unexpectedly.
package agent
