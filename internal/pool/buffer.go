package pool

import (
	"sync"
)

// CopyBufferSize is the chunk size used when streaming object bodies.
const CopyBufferSize = 512 * 1024

// PartPool hands out part buffers of exact lengths, pooling them per length.
type PartPool struct {
	mu    sync.Mutex
	pools map[int]*sync.Pool
}

// NewPartPool creates an empty part pool.
func NewPartPool() *PartPool {
	return &PartPool{
		pools: make(map[int]*sync.Pool),
	}
}

func (p *PartPool) pool(size int) *sync.Pool {
	p.mu.Lock()
	defer p.mu.Unlock()

	sp, ok := p.pools[size]
	if !ok {
		sp = &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, size)
				return &buf
			},
		}
		p.pools[size] = sp
	}
	return sp
}

// Get returns a buffer with length and capacity size.
// The caller is responsible for calling Put to return the buffer to the pool.
func (p *PartPool) Get(size int) []byte {
	bufPtr := p.pool(size).Get().(*[]byte)
	return (*bufPtr)[:size]
}

// Put returns a buffer obtained from Get. The buffer should not be used
// after calling Put.
func (p *PartPool) Put(buf []byte) {
	size := cap(buf)
	buf = buf[:size]
	p.pool(size).Put(&buf)
}

var copyBuffers = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, CopyBufferSize)
		return &buf
	},
}

// GetCopyBuffer returns a CopyBufferSize buffer from the global pool.
func GetCopyBuffer() []byte {
	return *copyBuffers.Get().(*[]byte)
}

// PutCopyBuffer returns a buffer obtained from GetCopyBuffer.
func PutCopyBuffer(buf []byte) {
	if cap(buf) != CopyBufferSize {
		return
	}
	buf = buf[:CopyBufferSize]
	copyBuffers.Put(&buf)
}
