// Package auxindex holds the side structures kept beside the todo store.
//
// FlagSet and MetadataMap are keyed by todo ID and must be reconciled by the
// caller when a todo goes away. HistoryLog is keyed by the todo instance
// itself and forgets an instance once the garbage collector reclaims it.
//
// FlagSet and MetadataMap are not safe for concurrent use. HistoryLog is,
// because its evictions run on the runtime's cleanup goroutine.
package auxindex
