// Package api implements the HTTP transport layer: request decoding and
// validation, sanitized error mapping, and the chi routing tree. Handlers
// talk to the store interfaces and to the scheduler jobs through small
// runner contracts; no business rules live here.
package api
