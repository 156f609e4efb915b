// Package memory provides in-memory implementations of the storage ports
// for tests and dry runs. Nothing is persisted across processes.
package memory
