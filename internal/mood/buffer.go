package mood

// FrameBuffer keeps the most recent Cap items, oldest first.
type FrameBuffer[T any] struct {
	items []T
	start int
	size  int
}

const DefaultBufferSize = 5

func NewFrameBuffer[T any](capacity int) (*FrameBuffer[T], error) {
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	return &FrameBuffer[T]{items: make([]T, capacity)}, nil
}

// Push appends item, evicting the oldest entry when the buffer is full.
func (b *FrameBuffer[T]) Push(item T) {
	capacity := len(b.items)
	if b.size < capacity {
		b.items[(b.start+b.size)%capacity] = item
		b.size++
		return
	}
	b.items[b.start] = item
	b.start = (b.start + 1) % capacity
}

// Midpoint returns the item at position Cap/2 counted from the oldest. It is
// only defined once the buffer is full.
func (b *FrameBuffer[T]) Midpoint() (T, bool) {
	var zero T
	if b.size < len(b.items) {
		return zero, false
	}
	return b.items[(b.start+len(b.items)/2)%len(b.items)], true
}

func (b *FrameBuffer[T]) Len() int { return b.size }

func (b *FrameBuffer[T]) Cap() int { return len(b.items) }

func (b *FrameBuffer[T]) Full() bool { return b.size == len(b.items) }

// Items returns a copy of the buffered items, oldest first.
func (b *FrameBuffer[T]) Items() []T {
	out := make([]T, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.items[(b.start+i)%len(b.items)]
	}
	return out
}

func (b *FrameBuffer[T]) Reset() {
	var zero T
	for i := range b.items {
		b.items[i] = zero
	}
	b.start = 0
	b.size = 0
}
