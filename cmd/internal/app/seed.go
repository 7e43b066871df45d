package app

import (
	"context"
	"fmt"

	"github.com/gltdhd/Spring-MVC-2/cmd/identity"
	"github.com/gltdhd/Spring-MVC-2/cmd/internal/item"
)

// seedDemoData adds the demo member and items to empty stores.
func seedDemoData(ctx context.Context, log Logger, auth *identity.Authenticator, members identity.Store, items item.Store) error {
	existing, err := members.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("seed: list members: %w", err)
	}
	if len(existing) == 0 {
		m, err := auth.Register(ctx, identity.RegisterInput{LoginID: "test", Name: "tester", Password: "test!"})
		if err != nil && !identity.IsConflict(err) {
			return fmt.Errorf("seed: member: %w", err)
		}
		log.Info("seed.member", "member_id", m.ID, "login_id", "test")
	}

	stock, err := items.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("seed: list items: %w", err)
	}
	if len(stock) == 0 {
		for _, it := range []item.Item{
			{ItemName: "itemA", Price: intPtr(10000), Quantity: intPtr(10)},
			{ItemName: "itemB", Price: intPtr(20000), Quantity: intPtr(20)},
		} {
			if _, err := items.Save(ctx, it); err != nil {
				return fmt.Errorf("seed: item %s: %w", it.ItemName, err)
			}
		}
		log.Info("seed.items", "count", 2)
	}
	return nil
}

func intPtr(v int) *int { return &v }
