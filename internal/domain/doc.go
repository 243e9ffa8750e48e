// Package domain defines the operational error types that step functions
// return to describe expected failures. The types carry the structural
// shape (name, numeric status code, operational flag) that the
// classifier and the response emitter inspect, so equivalent types
// defined elsewhere are handled identically.
package domain
