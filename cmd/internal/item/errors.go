package item

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned for a missing item id.
var ErrNotFound = errors.New("item not found")

func notFound(id int64) error {
	return fmt.Errorf("%w: %d", ErrNotFound, id)
}
