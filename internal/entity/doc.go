// Package entity provides typed access to task-list and task rows during a
// mutation.
//
// Values wraps a set of named scalar columns and tracks which of them were
// explicitly set ("touched") by the current operation, so that "not set" can
// be distinguished from "set to its previous value".
//
// Adapter pairs the pending (touched) values of one operation with the loaded
// row it targets, exposing the effective post-mutation view of each field and
// a Commit that persists all touched fields as a single row write.
package entity
