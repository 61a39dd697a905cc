package usecase

import "context"

type cascadeKey struct {
	Key   string
	Level int
}

type lookupFunc[T any] func(ctx context.Context, key string) (T, bool, error)

// lookupResult is either Found with the record and the key/level that
// produced it, or NotFound.
type lookupResult[T any] struct {
	Record T
	Key    string
	Level  int
	Found  bool
}

// findMostSpecific tries keys in order (most specific first) and stops at the
// first hit. Consecutive identical keys are queried once.
func findMostSpecific[T any](ctx context.Context, keys []cascadeKey, lookup lookupFunc[T]) (lookupResult[T], error) {
	previous := ""
	for _, k := range keys {
		if k.Key == previous {
			continue
		}
		previous = k.Key

		record, found, err := lookup(ctx, k.Key)
		if err != nil {
			return lookupResult[T]{}, err
		}
		if found {
			return lookupResult[T]{Record: record, Key: k.Key, Level: k.Level, Found: true}, nil
		}
	}
	return lookupResult[T]{}, nil
}
