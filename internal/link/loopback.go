package link

import "sync"

// Loopback is an in-memory Link pair for tests and for standing in as the
// controller box when no hardware is attached. Bytes written to one end
// become readable on the other.
type Loopback struct {
	in  *byteQueue
	out *byteQueue
}

// NewLoopback returns the two connected ends of an in-memory link.
func NewLoopback() (a, b *Loopback) {
	q1 := newByteQueue()
	q2 := newByteQueue()
	return &Loopback{in: q1, out: q2}, &Loopback{in: q2, out: q1}
}

// TryReadByte pops the next pending byte, if any.
func (l *Loopback) TryReadByte() (byte, bool, error) {
	return l.in.tryPop()
}

// ReadByte blocks until a byte arrives or the peer closes.
func (l *Loopback) ReadByte() (byte, error) {
	return l.in.pop()
}

// WriteByte queues a byte for the peer.
func (l *Loopback) WriteByte(b byte) error {
	return l.out.push(b)
}

// Close closes both directions. Pending bytes remain readable by the peer;
// reads past the end return ErrClosed.
func (l *Loopback) Close() error {
	l.in.close()
	l.out.close()
	return nil
}

// byteQueue is an unbounded FIFO of bytes with blocking pop.
type byteQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    []byte
	closed bool
}

func newByteQueue() *byteQueue {
	q := &byteQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *byteQueue) push(b byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	q.buf = append(q.buf, b)
	q.cond.Signal()
	return nil
}

func (q *byteQueue) tryPop() (byte, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.buf) == 0 {
		if q.closed {
			return 0, false, ErrClosed
		}
		return 0, false, nil
	}
	b := q.buf[0]
	q.buf = q.buf[1:]
	return b, true, nil
}

func (q *byteQueue) pop() (byte, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.buf) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.buf) == 0 {
		return 0, ErrClosed
	}
	b := q.buf[0]
	q.buf = q.buf[1:]
	return b, nil
}

func (q *byteQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}
