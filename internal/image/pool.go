package image

import (
	"errors"
	"fmt"
	"sync"
)

// ErrBudgetExceeded is returned by Pool.Get when the allocation would push the
// bytes leased from the pool past its budget.
var ErrBudgetExceeded = errors.New("image: pool budget exceeded")

// Pool is a thread-safe pool for reusing ImageBuf instances.
//
// Pool groups buffers by their dimensions and format. Buffers handed out by
// Get count against the budget until they are returned with Put.
//
// Thread safety: All methods are safe for concurrent use.
type Pool struct {
	mu      sync.Mutex
	buckets map[poolKey][]*ImageBuf
	maxSize int // max buffers per bucket
	budget  int // max leased bytes, 0 means unlimited
	leased  int
}

// poolKey identifies a bucket of buffers with identical size and format.
type poolKey struct {
	width  int
	height int
	format Format
}

// NewPool creates a pool retaining at most maxPerBucket idle buffers of each
// size and format, with budget bytes of leased memory (0 means unlimited).
func NewPool(maxPerBucket, budget int) *Pool {
	return &Pool{
		buckets: make(map[poolKey][]*ImageBuf),
		maxSize: maxPerBucket,
		budget:  budget,
	}
}

// Get retrieves a cleared buffer from the pool or creates a new one.
func (p *Pool) Get(width, height int, format Format) (*ImageBuf, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if !format.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedFormat, format)
	}
	size := width * height * format.BytesPerPixel()
	key := poolKey{width: width, height: height, format: format}

	p.mu.Lock()
	if p.budget > 0 && p.leased+size > p.budget {
		leased := p.leased
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: %d+%d > %d bytes", ErrBudgetExceeded, leased, size, p.budget)
	}
	p.leased += size

	bucket := p.buckets[key]
	if len(bucket) > 0 {
		buf := bucket[len(bucket)-1]
		p.buckets[key] = bucket[:len(bucket)-1]
		p.mu.Unlock()
		buf.Clear()
		return buf, nil
	}
	p.mu.Unlock()

	buf, err := NewImageBuf(width, height, format)
	if err != nil {
		p.mu.Lock()
		p.leased -= size
		p.mu.Unlock()
		return nil, err
	}
	return buf, nil
}

// Put returns a buffer obtained from Get. Putting nil is a no-op.
// If the bucket is full the buffer is discarded.
func (p *Pool) Put(buf *ImageBuf) {
	if buf == nil {
		return
	}
	key := poolKey{width: buf.width, height: buf.height, format: buf.format}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.leased -= buf.ByteSize()
	if p.leased < 0 {
		p.leased = 0
	}
	bucket := p.buckets[key]
	if p.maxSize > 0 && len(bucket) >= p.maxSize {
		return
	}
	p.buckets[key] = append(bucket, buf)
}

// Leased returns the number of bytes currently handed out.
func (p *Pool) Leased() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.leased
}

// Idle returns the number of buffers waiting for reuse.
func (p *Pool) Idle() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, b := range p.buckets {
		n += len(b)
	}
	return n
}
