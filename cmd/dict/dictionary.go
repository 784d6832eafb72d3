package dict

import (
	"context"
	"fmt"

	"github.com/ValentinKolb/braidwood/lib/db"
	"github.com/ValentinKolb/braidwood/lib/repository"
	"github.com/shopspring/decimal"
)

// dictionary is a dictionary with string keys whose values are passed as text,
// so the commands work the same for plain and incrementing dictionaries
type dictionary interface {
	Add(ctx context.Context, key, value string) error
	TryGet(ctx context.Context, key string) (string, bool, error)
	ContainsKey(ctx context.Context, key string) (bool, error)
	Remove(ctx context.Context, key string) (bool, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
	Increment(ctx context.Context, key, delta string) error

	// Scan calls fn for the keys in [from, to] in ascending order, all keys if bounded is false
	Scan(ctx context.Context, bounded bool, from, to string, fn func(key, value string) error) error
	Info() db.DictInfo
}

// textDict adapts a db.SortedDict with values of type V to the dictionary interface
type textDict[V any] struct {
	dict      db.SortedDict[string, V]
	inc       db.IncrementingDict[string, V]
	parse     func(string) (V, error)
	formatter func(V) string
}

// openDictionary resolves the named dictionary. Plain dictionaries hold strings,
// incrementing dictionaries hold decimals.
func openDictionary(ctx context.Context, repo *repository.Repository, name string, incrementing bool) (dictionary, error) {
	if incrementing {
		d, err := repository.IncrementingDict[string, decimal.Decimal](ctx, repo, name)
		if err != nil {
			return nil, err
		}
		return &textDict[decimal.Decimal]{
			dict:      d,
			inc:       d,
			parse:     decimal.NewFromString,
			formatter: decimal.Decimal.String,
		}, nil
	}

	d, err := repository.Dict[string, string](ctx, repo, name)
	if err != nil {
		return nil, err
	}
	return &textDict[string]{
		dict:      d,
		parse:     func(s string) (string, error) { return s, nil },
		formatter: func(s string) string { return s },
	}, nil
}

func (t *textDict[V]) Add(ctx context.Context, key, value string) error {
	v, err := t.parse(value)
	if err != nil {
		return fmt.Errorf("invalid value %q: %w", value, err)
	}
	return t.dict.Add(ctx, key, v)
}

func (t *textDict[V]) TryGet(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := t.dict.TryGet(ctx, key)
	if err != nil || !ok {
		return "", ok, err
	}
	return t.formatter(v), true, nil
}

func (t *textDict[V]) ContainsKey(ctx context.Context, key string) (bool, error) {
	return t.dict.ContainsKey(ctx, key)
}

func (t *textDict[V]) Remove(ctx context.Context, key string) (bool, error) {
	return t.dict.Remove(ctx, key)
}

func (t *textDict[V]) Count(ctx context.Context) (int, error) {
	return t.dict.Count(ctx)
}

func (t *textDict[V]) Clear(ctx context.Context) error {
	return t.dict.Clear(ctx)
}

func (t *textDict[V]) Increment(ctx context.Context, key, delta string) error {
	if t.inc == nil {
		return fmt.Errorf("dictionary %s is not an incrementing dictionary", t.dict.Name())
	}
	d, err := t.parse(delta)
	if err != nil {
		return fmt.Errorf("invalid delta %q: %w", delta, err)
	}
	return t.inc.Increment(ctx, key, d)
}

func (t *textDict[V]) Scan(ctx context.Context, bounded bool, from, to string, fn func(key, value string) error) error {
	var it db.Iterator[string, V]
	if bounded {
		it = t.dict.Range(ctx, from, to)
	} else {
		it = t.dict.All(ctx)
	}
	defer it.Close()

	for it.Next() {
		if err := fn(it.Key(), t.formatter(it.Value())); err != nil {
			return err
		}
	}
	return it.Err()
}

func (t *textDict[V]) Info() db.DictInfo {
	return t.dict.Info()
}
