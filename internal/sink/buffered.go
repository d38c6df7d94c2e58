package sink

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/stellarlinkco/onair/internal/perception"
)

const (
	flushBatchSize = 32
	flushInterval  = 2 * time.Second
	bufferSize     = 256
)

type record struct {
	utterance *utteranceRec
	chat      *perception.ChatEntry
	event     *perception.Event
}

type utteranceRec struct {
	kind    string
	text    string
	viewers int
}

// Buffered batches transcript writes so the broadcast loop never waits
// on disk. Records are flushed on batch size, on a timer, and on
// shutdown.
type Buffered struct {
	store *Store
	in    chan record
	done  chan struct{}
	once  sync.Once
}

func NewBuffered(store *Store) *Buffered {
	return &Buffered{
		store: store,
		in:    make(chan record, bufferSize),
		done:  make(chan struct{}),
	}
}

// RecordUtterance queues an utterance; drops it if the buffer is full.
func (b *Buffered) RecordUtterance(kind, text string, viewers int) {
	b.push(record{utterance: &utteranceRec{kind: kind, text: text, viewers: viewers}})
}

func (b *Buffered) RecordChat(entry perception.ChatEntry) {
	b.push(record{chat: &entry})
}

func (b *Buffered) RecordEvent(ev perception.Event) {
	b.push(record{event: &ev})
}

func (b *Buffered) push(r record) {
	select {
	case b.in <- r:
	default:
		log.Printf("[sink] buffer full, dropping record")
	}
}

// Run consumes the buffer until ctx is cancelled, then drains what is
// left.
func (b *Buffered) Run(ctx context.Context) {
	defer b.once.Do(func() { close(b.done) })

	batch := make([]record, 0, flushBatchSize)
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	flush := func() {
		for _, r := range batch {
			b.write(r)
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			for {
				select {
				case r := <-b.in:
					b.write(r)
				default:
					return
				}
			}
		case r := <-b.in:
			batch = append(batch, r)
			if len(batch) >= flushBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// Wait blocks until Run has drained and returned.
func (b *Buffered) Wait() {
	<-b.done
}

func (b *Buffered) write(r record) {
	var err error
	switch {
	case r.utterance != nil:
		err = b.store.InsertUtterance(r.utterance.kind, r.utterance.text, r.utterance.viewers)
	case r.chat != nil:
		err = b.store.InsertChat(*r.chat)
	case r.event != nil:
		err = b.store.InsertEvent(*r.event)
	}
	if err != nil {
		log.Printf("[sink] write failed: %v", err)
	}
}
