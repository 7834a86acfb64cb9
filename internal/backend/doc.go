// Package backend is the HTTP client for the storytelling backend.
//
// Each backend capability maps to one method. Methods never return a Go
// error: failures come back as a Result with Success false and a message
// suitable for showing to the user. Nothing is retried or cached.
package backend
