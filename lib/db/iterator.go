package db

// --------------------------------------------------------------------------
// Iterator Helpers
// --------------------------------------------------------------------------

// Collect drains an iterator into a slice and closes it.
func Collect[K comparable, V any](it Iterator[K, V]) ([]Entry[K, V], error) {
	defer it.Close()
	var res []Entry[K, V]
	for it.Next() {
		res = append(res, Entry[K, V]{Key: it.Key(), Value: it.Value()})
	}
	return res, it.Err()
}

// CollectKeys drains an iterator into a slice of keys and closes it.
func CollectKeys[K comparable, V any](it Iterator[K, V]) ([]K, error) {
	defer it.Close()
	var res []K
	for it.Next() {
		res = append(res, it.Key())
	}
	return res, it.Err()
}

// --------------------------------------------------------------------------
// Empty & Failed Iterators
// --------------------------------------------------------------------------

type errIterator[K comparable, V any] struct {
	err error
}

// EmptyIterator returns an iterator without entries.
func EmptyIterator[K comparable, V any]() Iterator[K, V] {
	return &errIterator[K, V]{}
}

// ErrIterator returns an iterator without entries whose Err returns err.
func ErrIterator[K comparable, V any](err error) Iterator[K, V] {
	return &errIterator[K, V]{err: err}
}

func (e *errIterator[K, V]) Next() bool   { return false }
func (e *errIterator[K, V]) Key() (k K)   { return }
func (e *errIterator[K, V]) Value() (v V) { return }
func (e *errIterator[K, V]) Err() error   { return e.err }
func (e *errIterator[K, V]) Close() error { return nil }

// --------------------------------------------------------------------------
// Paged Iterator
// --------------------------------------------------------------------------

// PageFunc loads up to limit entries in ascending order that come strictly after
// the key after. A nil after requests the first page.
type PageFunc[K comparable, V any] func(after *K, limit int) ([]Entry[K, V], error)

// DefaultPageSize is the page size used by the in-process backends
const DefaultPageSize = 128

type pagedIterator[K comparable, V any] struct {
	fetch    PageFunc[K, V]
	pageSize int
	page     []Entry[K, V]
	pos      int
	last     *K
	done     bool
	err      error
}

// NewPagedIterator creates an iterator that pulls entries page by page.
// No page is fetched before the first call to Next. Between pages no resources are held,
// so backends that hold a lock or a transaction per fetch release it after every page.
func NewPagedIterator[K comparable, V any](fetch PageFunc[K, V], pageSize int) Iterator[K, V] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &pagedIterator[K, V]{fetch: fetch, pageSize: pageSize, pos: -1}
}

func (p *pagedIterator[K, V]) Next() bool {
	if p.done {
		return false
	}

	p.pos++
	if p.pos < len(p.page) {
		return true
	}

	// current page is exhausted, stop if it was a short one
	if p.page != nil && len(p.page) < p.pageSize {
		p.Close()
		return false
	}

	page, err := p.fetch(p.last, p.pageSize)
	if err != nil {
		p.err = err
		p.Close()
		return false
	}
	if len(page) == 0 {
		p.Close()
		return false
	}

	p.page = page
	p.pos = 0
	last := page[len(page)-1].Key
	p.last = &last
	return true
}

func (p *pagedIterator[K, V]) Key() (k K) {
	if p.done || p.pos < 0 || p.pos >= len(p.page) {
		return
	}
	return p.page[p.pos].Key
}

func (p *pagedIterator[K, V]) Value() (v V) {
	if p.done || p.pos < 0 || p.pos >= len(p.page) {
		return
	}
	return p.page[p.pos].Value
}

func (p *pagedIterator[K, V]) Err() error {
	return p.err
}

func (p *pagedIterator[K, V]) Close() error {
	p.done = true
	p.page = nil
	return nil
}
