// Package api defines the wire-format types for the tagger HTTP API. The
// field names mirror the upstream tagger extension contract (snake_case
// request fields, caption/captions response envelopes) so existing clients
// keep working.
package api
