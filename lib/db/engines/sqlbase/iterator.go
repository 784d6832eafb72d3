package sqlbase

import (
	"context"
	"database/sql"
	"time"
)

// --------------------------------------------------------------------------
// Rows Iterator
// --------------------------------------------------------------------------

// rowsIterator streams the rows of one ordered query. The query is issued by the
// first call to Next, the result set is held open until it is exhausted or closed.
type rowsIterator[K comparable, V any] struct {
	ctx  context.Context
	d    *tableDict[K, V]
	op   string
	cmd  Command
	scan func(rows *sql.Rows) (K, V, error)

	rows   *sql.Rows
	opened bool
	done   bool
	key    K
	value  V
	err    error
}

func (it *rowsIterator[K, V]) Next() bool {
	if it.done {
		return false
	}

	if !it.opened {
		it.opened = true
		if err := it.open(); err != nil {
			it.err = err
			it.Close()
			return false
		}
	}

	if !it.rows.Next() {
		it.err = it.rows.Err()
		it.Close()
		return false
	}

	key, value, err := it.scan(it.rows)
	if err != nil {
		it.err = err
		it.Close()
		return false
	}
	it.key, it.value = key, value
	return true
}

// open issues the query
func (it *rowsIterator[K, V]) open() (err error) {
	defer observe(string(it.d.dialect.Impl), it.op, time.Now(), &err)
	it.rows, err = query(it.ctx, it.d.conn, it.cmd)
	return err
}

func (it *rowsIterator[K, V]) Key() (k K) {
	if it.done {
		return
	}
	return it.key
}

func (it *rowsIterator[K, V]) Value() (v V) {
	if it.done {
		return
	}
	return it.value
}

func (it *rowsIterator[K, V]) Err() error {
	return it.err
}

func (it *rowsIterator[K, V]) Close() error {
	if it.done {
		return nil
	}
	it.done = true
	if it.rows != nil {
		return it.rows.Close()
	}
	return nil
}
