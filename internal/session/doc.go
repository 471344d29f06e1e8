// Package session maps browser sessions to agent conversation threads.
//
// A thread is created the first time a session chats and reused afterwards.
// Store implementations guarantee at most one stored thread per session;
// Resolver additionally collapses concurrent first requests in one process.
package session
