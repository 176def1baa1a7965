package core

import "context"

// GrantStore records object-level read capabilities. A grant is issued once,
// right after a transfer is first persisted, scoping that record to its
// owning user.
type GrantStore interface {
	Grant(ctx context.Context, userID, object string, objectID uint64) error
}
