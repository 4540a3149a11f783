package filter

import (
	"fmt"
	"sort"

	"github.com/openv2x/openv2x/internal/ldm/model"
)

// Direction of an ordering key.
type Direction string

const (
	Ascending  Direction = "ASC"
	Descending Direction = "DESC"
)

// OrderBy is one ordering key: a dotted field path and a direction.
type OrderBy struct {
	Path      string
	Direction Direction
}

// ValidateOrder checks ordering keys for structural errors.
func ValidateOrder(order []OrderBy) error {
	for _, o := range order {
		if o.Path == "" {
			return fmt.Errorf("order key has an empty field path")
		}
		switch o.Direction {
		case Ascending, Descending, "":
		default:
			return fmt.Errorf("unknown order direction %q", o.Direction)
		}
	}
	return nil
}

// Sort orders objects by the given keys, in place. The sort is stable:
// objects comparing equal on every key keep their relative insertion order.
// Objects missing a field sort after objects that have it; incomparable
// values rank equal. An empty key list leaves the slice untouched.
func Sort(objs []*model.DataObject, order []OrderBy) {
	if len(order) == 0 {
		return
	}

	sort.SliceStable(objs, func(i, j int) bool {
		for _, key := range order {
			vi, oki := objs[i].Payload.Field(key.Path)
			vj, okj := objs[j].Payload.Field(key.Path)

			if !oki && !okj {
				continue
			}
			if oki != okj {
				return oki // present before missing, regardless of direction
			}

			cmp, comparable := compareValues(vi, vj)
			if !comparable || cmp == 0 {
				continue
			}
			if key.Direction == Descending {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}
