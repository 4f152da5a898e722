package idgen

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

const (
	DefaultMinID int64 = 1_000_000_000_000
	DefaultMaxID int64 = 9_999_999_999_999

	StockCodeLength = 8
	BarcodeLength   = 24
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Generator produces row identifiers and uppercase alphanumeric codes.
// Implementations must be safe for concurrent use.
type Generator interface {
	NextID() int64
	Code(length int) string
}

// Random draws identifiers uniformly from [min, max]. Collisions are possible
// and surface as unique violations at insert time.
type Random struct {
	min, max int64

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandom returns a generator backed by the runtime's shared random source.
func NewRandom(min, max int64) (*Random, error) {
	if min <= 0 || max <= min {
		return nil, fmt.Errorf("idgen: invalid id range [%d, %d]", min, max)
	}
	return &Random{min: min, max: max}, nil
}

// NewSeeded returns a reproducible generator; useful when a test needs a fixed sequence.
func NewSeeded(min, max int64, seed uint64) (*Random, error) {
	r, err := NewRandom(min, max)
	if err != nil {
		return nil, err
	}
	r.rnd = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return r, nil
}

func (r *Random) NextID() int64 {
	return r.min + r.int64N(r.max-r.min+1)
}

func (r *Random) Code(length int) string {
	if length <= 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(length)
	for range length {
		b.WriteByte(codeAlphabet[r.int64N(int64(len(codeAlphabet)))])
	}
	return b.String()
}

func (r *Random) int64N(n int64) int64 {
	if r.rnd == nil {
		return rand.Int64N(n)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Int64N(n)
}

// Sequence hands out strictly increasing identifiers and codes derived from
// them, so it never collides within one process.
type Sequence struct {
	next atomic.Int64
}

func NewSequence(start int64) *Sequence {
	s := &Sequence{}
	s.next.Store(start - 1)
	return s
}

func (s *Sequence) NextID() int64 {
	return s.next.Add(1)
}

func (s *Sequence) Code(length int) string {
	if length <= 0 {
		return ""
	}
	code := strings.ToUpper(strconv.FormatInt(s.next.Add(1), 36))
	if len(code) >= length {
		return code[len(code)-length:]
	}
	return strings.Repeat("0", length-len(code)) + code
}
