// Package feature defines the core value types of the routing engine:
// route definitions, step and async-task descriptors, the per-request
// Context shared across a pipeline, the error wrapper that preserves the
// originally thrown error, and the registry that binds step file names
// discovered on disk to registered Go functions.
package feature
