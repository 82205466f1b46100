// Package requestid tags every HTTP request with a correlation ID that is
// echoed in the X-Request-ID response header and attached to log records.
package requestid
