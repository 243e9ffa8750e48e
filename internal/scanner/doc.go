// Package scanner discovers route definitions in a features directory
// tree. It walks the tree for method-boundary directories, builds step
// and async-task descriptors from their file listings, applies per-route
// override files, and ranks the resulting routes so that more specific
// paths always match before less specific ones.
//
// All filesystem access goes through io/fs, so scans are testable
// against testing/fstest.MapFS without touching a real disk.
package scanner
