// Package pipeline implements the entity mutation pipeline.
//
// Every insert, update, or delete of a list or task runs through an ordered
// chain of stages fixed per (entity kind, operation) at construction time:
//
//  1. Validate - field-level and cross-field rules, caller-privilege gating.
//     A violation fails the operation immediately; nothing is written.
//  2. SideEffect - marks instances stale and registers the materializer with
//     the transaction-end queue (once per transaction, not once per task).
//  3. Commit - persists the adapter's touched fields as one row write, or
//     issues the delete. Never rejects; validation has already passed.
//
// All requested operations of a batch run in caller order inside a single
// storage transaction; the materializer then observes only the final
// post-batch state. A failure at any stage rolls the whole transaction back.
//
// Errors carry one of four codes: UNAUTHORIZED, INVALID_ARGUMENT, NOT_FOUND,
// STORAGE_FAILURE. They surface synchronously to the caller; nothing retries.
package pipeline
