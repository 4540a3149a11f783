// Package store defines the LDM storage backend contract and its in-memory
// baseline implementation.
package store

import (
	"github.com/openv2x/openv2x/internal/ldm/model"
)

// Backend is the keyed table of data-object records underneath the LDM.
// It holds no business logic: validity, permissions and filtering live above.
//
// All mutating operations are atomic with respect to each other, and Scan
// yields a consistent snapshot: no record is ever observed half-updated.
// Implementations must preserve a record's insertion sequence across in-place
// updates, so result ordering can break ties by first insertion.
type Backend interface {
	// Upsert inserts the record or replaces the one stored under the same
	// key, keeping the original insertion sequence on replacement.
	Upsert(key string, obj *model.DataObject) error

	// Get returns the record stored under key, if any.
	Get(key string) (*model.DataObject, bool)

	// Scan returns a snapshot of all records in insertion order.
	Scan() []*model.DataObject

	// Delete removes the record stored under key. Deleting an absent key is
	// a no-op.
	Delete(key string)

	// Len returns the number of stored records.
	Len() int
}
