package ledger

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Ids of transactions, entries and periods are version 7 UUIDs, their byte order
// is the order of their millisecond timestamps.

const maxSeq = 0x0fff // rand_a holds 12 bits

// idSource hands out version 7 ids in strictly ascending byte order. Ids of the same
// millisecond carry a sequence number in rand_a, so entries sort in booking order.
//
// Thread-safety: next is safe for concurrent use.
type idSource struct {
	mu     sync.Mutex
	millis int64
	seq    uint16
}

// next returns a version 7 id carrying the timestamp of t. If t is not after the
// last id's millisecond the last millisecond is reused with the next sequence number,
// once the sequence is exhausted the id moves on to the following millisecond.
func (s *idSource) next(t time.Time) (uuid.UUID, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return uuid.Nil, err
	}

	s.mu.Lock()
	ms := t.UnixMilli()
	if ms <= s.millis {
		ms = s.millis
		if s.seq++; s.seq > maxSeq {
			ms++
			s.seq = 0
		}
	} else {
		s.seq = 0
	}
	s.millis = ms
	seq := s.seq
	s.mu.Unlock()

	putMillis(&id, ms)
	id[6] = 0x70 | byte(seq>>8) // version 7
	id[7] = byte(seq)
	id[8] = id[8]&0x3f | 0x80 // RFC 4122 variant
	return id, nil
}

// lowerV7 returns the smallest version 7 UUID of the millisecond of t
func lowerV7(t time.Time) uuid.UUID {
	var id uuid.UUID
	putMillis(&id, t.UnixMilli())
	id[6] = 0x70
	id[8] = 0x80
	return id
}

// upperV7 returns the largest version 7 UUID of the millisecond of t
func upperV7(t time.Time) uuid.UUID {
	id := maxUUID()
	putMillis(&id, t.UnixMilli())
	id[6] = 0x7f
	id[8] = 0xbf
	return id
}

// maxUUID returns the UUID with all bits set
func maxUUID() uuid.UUID {
	var id uuid.UUID
	for i := range id {
		id[i] = 0xff
	}
	return id
}

// putMillis writes unix milliseconds into the first 48 bits of id
func putMillis(id *uuid.UUID, ms int64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(ms))
	copy(id[0:6], buf[2:8])
}
