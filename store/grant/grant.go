package grant

import (
	"context"

	"github.com/grinex/grinex/core"
	"github.com/grinex/grinex/store"
	"github.com/tsenart/nap"
)

func New(db *nap.DB) core.GrantStore {
	return &grantStore{db: db}
}

type grantStore struct {
	db *nap.DB
}

func (s *grantStore) Grant(ctx context.Context, userID, object string, objectID uint64) error {
	b := store.Builder.Insert("object_grants").
		Columns("user_id", "object", "object_id").
		Values(userID, object, objectID).
		Suffix("ON CONFLICT (user_id, object, object_id) DO NOTHING")

	_, err := b.RunWith(s.db).ExecContext(ctx)
	return err
}
