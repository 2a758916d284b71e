package sscr

import (
	"fmt"
	"slices"

	"github.com/gogpu/sscr/internal/image"
)

// maxIdlePerSize bounds idle transient buffers kept per size and format.
const maxIdlePerSize = 2

// bufferPool owns the memory of a pipeline: transient per-frame buffers
// leased from an image pool, and the persistent raw/filtered pyramid pair.
//
// The pyramid survives across frames; its contents are invalidated at frame
// start by advancing the generation, so a level only counts as written once
// it is stamped with the current generation.
type bufferPool struct {
	transient *image.Pool
	mapping   ConeMapping
	size      int

	raw, filtered *image.Texture
	gen           uint64
}

func newBufferPool(budget int, mapping ConeMapping) *bufferPool {
	return &bufferPool{
		transient: image.NewPool(maxIdlePerSize, budget),
		mapping:   mapping,
		size:      PyramidSize,
	}
}

// beginFrame invalidates the pyramid and returns the new generation.
func (b *bufferPool) beginFrame() uint64 {
	b.gen++
	return b.gen
}

// pyramid returns the raw and filtered pyramid textures, allocating them on
// first use.
func (b *bufferPool) pyramid() (raw, filtered *image.Texture, err error) {
	if b.raw == nil {
		if b.raw, err = image.NewTexture(b.size, b.size, image.FormatRGBAHalf, b.mapping.Levels); err != nil {
			return nil, nil, fmt.Errorf("%w: pyramid raw: %w", ErrBufferUnavailable, err)
		}
	}
	if b.filtered == nil {
		if b.filtered, err = image.NewTexture(b.size, b.size, image.FormatRGBAHalf, b.mapping.Levels); err != nil {
			return nil, nil, fmt.Errorf("%w: pyramid filtered: %w", ErrBufferUnavailable, err)
		}
	}
	return b.raw, b.filtered, nil
}

// scope opens a frame scope for transient buffers.
func (b *bufferPool) scope() *frameScope {
	return &frameScope{pool: b.transient}
}

// frameScope tracks the transient buffers leased during one frame. Close
// returns whatever is still leased, so every exit path releases its buffers
// with a single deferred call.
type frameScope struct {
	pool   *image.Pool
	leased []*image.ImageBuf
}

// acquire leases a cleared buffer.
func (s *frameScope) acquire(name string, width, height int, format image.Format) (*image.ImageBuf, error) {
	buf, err := s.pool.Get(width, height, format)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBufferUnavailable, name, err)
	}
	s.leased = append(s.leased, buf)
	return buf, nil
}

// release returns buf to the pool once its last consumer is done.
func (s *frameScope) release(buf *image.ImageBuf) {
	i := slices.Index(s.leased, buf)
	if i < 0 {
		return
	}
	s.leased = slices.Delete(s.leased, i, i+1)
	s.pool.Put(buf)
}

// Close releases every buffer still leased.
func (s *frameScope) Close() {
	for _, buf := range s.leased {
		s.pool.Put(buf)
	}
	s.leased = nil
}
