// Package speech issues browser tokens for, and synthesizes audio with, the
// Azure Speech service REST API.
package speech
