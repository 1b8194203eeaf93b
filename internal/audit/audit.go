package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Event is one audit trail entry. Email must already be redacted by the
// caller; nothing in this package ever sees a plaintext address.
type Event struct {
	Time    time.Time
	Action  string
	UserID  string
	Email   string
	IP      string
	Success bool
	Detail  string
}

// Sink consumes audit events.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// ZapSink writes audit events to the structured log.
type ZapSink struct {
	logger *zap.Logger
}

// NewZapSink constructs a sink over the given logger.
func NewZapSink(logger *zap.Logger) *ZapSink {
	return &ZapSink{logger: logger.Named("audit")}
}

// Emit logs the event.
func (s *ZapSink) Emit(_ context.Context, event Event) {
	s.logger.Info(event.Action,
		zap.Time("at", event.Time),
		zap.String("user_id", event.UserID),
		zap.String("email", event.Email),
		zap.String("ip", event.IP),
		zap.Bool("success", event.Success),
		zap.String("detail", event.Detail),
	)
}

// Recorder decouples the request path from the sink: events go through a
// buffered channel drained by one worker goroutine. Emission is best effort;
// when the buffer is full the event is dropped and counted, and the request
// path is never blocked or failed by auditing.
type Recorder struct {
	sink      Sink
	ch        chan Event
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closeOnce sync.Once
}

// NewRecorder starts the worker.
func NewRecorder(sink Sink, buffer int) *Recorder {
	if buffer <= 0 {
		buffer = 64
	}
	r := &Recorder{
		sink: sink,
		ch:   make(chan Event, buffer),
		done: make(chan struct{}),
	}
	r.wg.Add(1)
	go r.run()
	return r
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for {
		select {
		case event := <-r.ch:
			r.sink.Emit(context.Background(), event)
		case <-r.done:
			for {
				select {
				case event := <-r.ch:
					r.sink.Emit(context.Background(), event)
				default:
					return
				}
			}
		}
	}
}

// Record enqueues an event without blocking.
func (r *Recorder) Record(event Event) {
	if r == nil {
		return
	}
	if event.Time.IsZero() {
		event.Time = time.Now()
	}
	select {
	case r.ch <- event:
	case <-r.done:
	default:
		r.dropped.Add(1)
	}
}

// Dropped reports how many events were lost to a full buffer.
func (r *Recorder) Dropped() uint64 {
	if r == nil {
		return 0
	}
	return r.dropped.Load()
}

// Close drains the buffer and stops the worker.
func (r *Recorder) Close() {
	if r == nil {
		return
	}
	r.closeOnce.Do(func() {
		close(r.done)
		r.wg.Wait()
	})
}
