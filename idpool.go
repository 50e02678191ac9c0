package spanz

import (
	"sync"
)

// IDPool keeps a buffer of pre-generated identifiers so span creation does
// not wait on the random source. Each pooled ID is handed out exactly once.
type IDPool struct {
	next func() string
	ids  chan string
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewIDPool creates a pool holding up to capacity IDs produced by next and
// starts the background goroutine that keeps it full.
func NewIDPool(capacity int, next func() string) *IDPool {
	p := &IDPool{
		next: next,
		ids:  make(chan string, capacity),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go p.fill()
	return p
}

// Get returns a pooled ID, generating one directly when the pool is empty.
func (p *IDPool) Get() string {
	select {
	case id := <-p.ids:
		return id
	default:
		return p.next()
	}
}

// fill runs until Close. A panic from next (entropy failure) is not
// recovered here; it terminates the process.
func (p *IDPool) fill() {
	defer close(p.done)
	for {
		select {
		case <-p.stop:
			return
		default:
		}

		id := p.next()
		select {
		case p.ids <- id:
		case <-p.stop:
			return
		}
	}
}

// Close stops the refill goroutine and waits for it to exit.
// Get keeps working after Close by generating IDs directly.
func (p *IDPool) Close() {
	p.once.Do(func() {
		close(p.stop)
	})
	<-p.done
}
