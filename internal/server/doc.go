// Package server exposes the chat gateway over HTTP.
//
// The public server handles POST /chat, POST /api/get-speech-token,
// POST /api/speak, the frontend page at / and static assets under /static/.
// A separate HealthServer serves /health, /ready and /metrics.
package server
