package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"iter"

	"github.com/dgraph-io/badger/v4"
)

// Entity provides generic CRUD operations for one domain type, stored as
// JSON under "<prefix><id>" keys. An optional unique secondary index maps
// "<prefix>idx:<name>:<value>" to the primary ID.
type Entity[T any] struct {
	store  *Store
	prefix string
	index  *index[T]
}

type index[T any] struct {
	name   string
	keyGen func(*T) string
}

// NewEntity creates an Entity for type T under the given key prefix.
func NewEntity[T any](s *Store, prefix string) *Entity[T] {
	return &Entity[T]{store: s, prefix: prefix}
}

// WithUniqueIndex adds a unique secondary index. keyGen returns the indexed
// value for an entity; an empty value is not indexed.
func (e *Entity[T]) WithUniqueIndex(name string, keyGen func(*T) string) *Entity[T] {
	e.index = &index[T]{name: name, keyGen: keyGen}
	return e
}

// Create stores a new entity. Returns ErrAlreadyExists when the ID or an
// indexed value is already taken.
func (e *Entity[T]) Create(ctx context.Context, id string, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return ErrInvalidInput.WithCause(fmt.Errorf("marshal entity: %w", err))
	}

	return e.store.db.Update(func(txn *badger.Txn) error {
		key := []byte(e.prefix + id)
		if _, err := txn.Get(key); err == nil {
			return ErrAlreadyExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return ErrInternal.WithCause(err)
		}

		if idxKey := e.indexKey(entity); idxKey != nil {
			if _, err := txn.Get(idxKey); err == nil {
				return ErrAlreadyExists.WithMessage(e.index.name + " already in use")
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return ErrInternal.WithCause(err)
			}
			if err := txn.Set(idxKey, []byte(id)); err != nil {
				return ErrInternal.WithCause(err)
			}
		}

		return txn.Set(key, data)
	})
}

// Get loads an entity by ID.
func (e *Entity[T]) Get(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out T
	err := e.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(e.prefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return ErrInternal.WithCause(err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &out)
		})
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetByIndex loads an entity through its unique index.
func (e *Entity[T]) GetByIndex(ctx context.Context, value string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.index == nil {
		return nil, ErrInvalidInput.WithMessage("entity has no index")
	}

	var id string
	err := e.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(e.prefix + "idx:" + e.index.name + ":" + value))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return ErrInternal.WithCause(err)
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return e.Get(ctx, id)
}

// Put stores an entity unconditionally, creating or replacing it. Index
// entries are rewritten when the indexed value changed.
func (e *Entity[T]) Put(ctx context.Context, id string, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return ErrInvalidInput.WithCause(fmt.Errorf("marshal entity: %w", err))
	}

	return e.store.db.Update(func(txn *badger.Txn) error {
		key := []byte(e.prefix + id)

		// Drop a stale index entry before writing the new one.
		if e.index != nil {
			if item, err := txn.Get(key); err == nil {
				var old T
				if err := item.Value(func(val []byte) error {
					return json.Unmarshal(val, &old)
				}); err == nil {
					if oldKey := e.indexKey(&old); oldKey != nil {
						if err := txn.Delete(oldKey); err != nil {
							return ErrInternal.WithCause(err)
						}
					}
				}
			}
			if idxKey := e.indexKey(entity); idxKey != nil {
				if err := txn.Set(idxKey, []byte(id)); err != nil {
					return ErrInternal.WithCause(err)
				}
			}
		}

		return txn.Set(key, data)
	})
}

// Delete removes an entity and its index entry. Deleting a missing entity
// returns ErrNotFound.
func (e *Entity[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return e.store.db.Update(func(txn *badger.Txn) error {
		key := []byte(e.prefix + id)
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return ErrInternal.WithCause(err)
		}

		if e.index != nil {
			var old T
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &old)
			}); err == nil {
				if idxKey := e.indexKey(&old); idxKey != nil {
					if err := txn.Delete(idxKey); err != nil {
						return ErrInternal.WithCause(err)
					}
				}
			}
		}

		return txn.Delete(key)
	})
}

// List iterates all entities under the prefix. Index keys are skipped.
func (e *Entity[T]) List(ctx context.Context) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		idxPrefix := []byte(e.prefix + "idx:")

		err := e.store.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(e.prefix)
			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Rewind(); it.Valid(); it.Next() {
				if err := ctx.Err(); err != nil {
					return err
				}
				item := it.Item()
				if hasPrefix(item.Key(), idxPrefix) {
					continue
				}

				var out T
				err := item.Value(func(val []byte) error {
					return json.Unmarshal(val, &out)
				})
				if err != nil {
					if !yield(nil, ErrInternal.WithCause(err)) {
						return errStopIteration
					}
					continue
				}
				if !yield(&out, nil) {
					return errStopIteration
				}
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStopIteration) && ctx.Err() == nil {
			yield(nil, ErrInternal.WithCause(err))
		}
	}
}

var errStopIteration = errors.New("stop iteration")

func (e *Entity[T]) indexKey(entity *T) []byte {
	if e.index == nil {
		return nil
	}
	value := e.index.keyGen(entity)
	if value == "" {
		return nil
	}
	return []byte(e.prefix + "idx:" + e.index.name + ":" + value)
}

func hasPrefix(key, prefix []byte) bool {
	if len(key) < len(prefix) {
		return false
	}
	for i := range prefix {
		if key[i] != prefix[i] {
			return false
		}
	}
	return true
}
