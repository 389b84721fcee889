package vm

import "classvm/pkg/diagnostic"

// Heap is an append-only, process-lifetime table of owned integer
// array buffers. A reference is a non-negative index into it. Each
// buffer's element 0 holds the array's logical length; elements 1..N
// hold the contents. The heap is shared across every frame through
// the Invoker; since only one frame ever executes at a time (spec:
// strictly single-threaded), no locking is needed to keep mutation
// race-free.
type Heap struct {
	buffers [][]int32
}

// NewHeap returns an empty heap.
func NewHeap() *Heap {
	return &Heap{}
}

// NewArray allocates a fresh buffer of length count+1 (slot 0 holds
// count, the rest are zero-initialized), appends it to the heap and
// returns its reference.
func (h *Heap) NewArray(count int32) int32 {
	if count < 0 {
		panic(diagnostic.Fatalf("newarray: negative length %d", count))
	}
	buf := make([]int32, count+1)
	buf[0] = count
	h.buffers = append(h.buffers, buf)
	return int32(len(h.buffers) - 1)
}

// buffer returns the backing buffer for ref, panicking with a
// FatalVMError if ref is out of range.
func (h *Heap) buffer(ref int32) []int32 {
	if ref < 0 || int(ref) >= len(h.buffers) {
		panic(diagnostic.Fatalf("invalid heap reference %d (heap size %d)", ref, len(h.buffers)))
	}
	return h.buffers[ref]
}

// Length returns the logical length of the array at ref.
func (h *Heap) Length(ref int32) int32 {
	return h.buffer(ref)[0]
}

// Load returns the element at idx within the array at ref, bounds
// checked against the array's logical length.
func (h *Heap) Load(ref, idx int32) int32 {
	buf := h.buffer(ref)
	h.checkBounds(buf, idx)
	return buf[idx+1]
}

// Store writes val at idx within the array at ref, bounds checked
// against the array's logical length.
func (h *Heap) Store(ref, idx, val int32) {
	buf := h.buffer(ref)
	h.checkBounds(buf, idx)
	buf[idx+1] = val
}

func (h *Heap) checkBounds(buf []int32, idx int32) {
	if idx < 0 || idx >= buf[0] {
		panic(diagnostic.Fatalf("array index %d out of bounds (length %d)", idx, buf[0]))
	}
}

// Size reports how many arrays have been allocated on the heap; used
// only by diagnostic snapshots, never by instruction semantics.
func (h *Heap) Size() int {
	return len(h.buffers)
}
