package item

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStore_CRUD(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := NewMemoryStore()

	a, err := st.Save(ctx, Item{ItemName: "itemA", Price: intp(10000), Quantity: intp(10)})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	b, _ := st.Save(ctx, Item{ItemName: "itemB", Price: intp(20000), Quantity: intp(20)})
	if a.ID != 1 || b.ID != 2 {
		t.Fatalf("ids=(%d,%d)", a.ID, b.ID)
	}

	got, err := st.FindByID(ctx, a.ID)
	if err != nil || got.ItemName != "itemA" || *got.Price != 10000 {
		t.Fatalf("FindByID=(%+v,%v)", got, err)
	}

	if err := st.Update(ctx, a.ID, Item{ItemName: "itemA2", Price: intp(15000), Quantity: intp(3)}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ = st.FindByID(ctx, a.ID)
	if got.ID != a.ID || got.ItemName != "itemA2" || *got.Quantity != 3 {
		t.Fatalf("after update: %+v", got)
	}

	all, err := st.FindAll(ctx)
	if err != nil || len(all) != 2 || all[0].ID != 1 {
		t.Fatalf("FindAll=(%+v,%v)", all, err)
	}
}

func TestMemoryStore_NotFound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := NewMemoryStore()

	if _, err := st.FindByID(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("FindByID: %v", err)
	}
	if err := st.Update(ctx, 42, Item{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update: %v", err)
	}
}

func TestMemoryStore_IsolatesCallerPointers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := NewMemoryStore()

	price := 10000
	saved, _ := st.Save(ctx, Item{ItemName: "x", Price: &price, Quantity: intp(1)})
	price = 1

	got, _ := st.FindByID(ctx, saved.ID)
	if *got.Price != 10000 {
		t.Fatalf("stored price changed through caller pointer: %d", *got.Price)
	}
	*got.Price = 5
	again, _ := st.FindByID(ctx, saved.ID)
	if *again.Price != 10000 {
		t.Fatalf("stored price changed through returned pointer: %d", *again.Price)
	}
}
