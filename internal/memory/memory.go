// Package memory provides the linear memory that integer records live in.
package memory

import (
	"pyrite/internal/diag"
)

// Addr is the word address of a record. Address 0 is never handed out so
// that it can stand for None.
type Addr = int32

// NoneAddr is the sentinel value for "no object".
const NoneAddr Addr = 0

// Memory is the contract the integer codec needs from the host memory.
// Allocation is monotonic; a returned address is never reused.
type Memory interface {
	Alloc(fields int32) (Addr, error)
	Load(addr Addr, off int32) (int32, error)
	Store(addr Addr, off int32, v int32) error
}

// Defaults mirror a host memory with 10 initial and 100 maximum pages.
const (
	DefaultPageWords    = 16384
	DefaultInitialPages = 10
	DefaultMaxPages     = 100
)

// Arena is an append-only, word-addressed memory. It is not safe for
// concurrent use.
type Arena struct {
	words     []int32
	cursor    int32
	pageWords int
	maxWords  int
}

// Option configures an Arena.
type Option func(*Arena)

// WithPages sets the initial and maximum size in pages of pageWords words.
func WithPages(pageWords, initial, maxPages int) Option {
	return func(a *Arena) {
		if pageWords > 0 {
			a.pageWords = pageWords
		}
		if initial > 0 {
			a.words = make([]int32, a.pageWords*initial)
		}
		if maxPages > 0 {
			a.maxWords = a.pageWords * maxPages
		}
	}
}

// NewArena returns an empty arena. Word 0 is reserved.
func NewArena(opts ...Option) *Arena {
	a := &Arena{
		pageWords: DefaultPageWords,
		maxWords:  DefaultPageWords * DefaultMaxPages,
	}
	a.words = make([]int32, DefaultPageWords*DefaultInitialPages)
	for _, opt := range opts {
		opt(a)
	}
	if len(a.words) == 0 {
		a.words = make([]int32, a.pageWords)
	}
	a.cursor = 1
	return a
}

// Alloc reserves fields contiguous words and returns their base address.
func (a *Arena) Alloc(fields int32) (Addr, error) {
	if fields < 0 {
		return NoneAddr, diag.Runtimef(diag.BadAccess, "cannot allocate %d fields", fields)
	}
	base := a.cursor
	end := int64(base) + int64(fields)
	if end > int64(a.maxWords) {
		return NoneAddr, diag.Runtimef(diag.OutOfMemory, "allocation of %d fields exceeds %d words", fields, a.maxWords)
	}
	a.grow(int(end))
	a.cursor = int32(end)
	return base, nil
}

// grow extends the backing store a page at a time until it holds n words.
func (a *Arena) grow(n int) {
	if n <= len(a.words) {
		return
	}
	size := len(a.words)
	for size < n {
		size += a.pageWords
	}
	if size > a.maxWords {
		size = a.maxWords
	}
	grown := make([]int32, size)
	copy(grown, a.words)
	a.words = grown
}

func (a *Arena) index(addr Addr, off int32) (int, error) {
	i := int64(addr) + int64(off)
	if addr <= NoneAddr || off < 0 || i >= int64(a.cursor) {
		return 0, diag.Runtimef(diag.BadAccess, "access at %d+%d outside allocated memory", addr, off)
	}
	return int(i), nil
}

// Load reads the word at addr+off.
func (a *Arena) Load(addr Addr, off int32) (int32, error) {
	i, err := a.index(addr, off)
	if err != nil {
		return 0, err
	}
	return a.words[i], nil
}

// Store writes v at addr+off.
func (a *Arena) Store(addr Addr, off int32, v int32) error {
	i, err := a.index(addr, off)
	if err != nil {
		return err
	}
	a.words[i] = v
	return nil
}

// Used returns the number of words handed out so far, including the
// reserved word 0.
func (a *Arena) Used() int32 { return a.cursor }

// Capacity returns the maximum number of words the arena may grow to.
func (a *Arena) Capacity() int { return a.maxWords }
