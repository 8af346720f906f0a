package logger

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
)

// allLevels is the threshold of sinks that accept every record.
const allLevels = slog.Level(math.MinInt)

// output is a destination plus the lowest level it accepts.
type output struct {
	w   io.Writer
	min slog.Level
}

func everything(ws ...io.Writer) []output {
	out := make([]output, 0, len(ws))
	for _, w := range ws {
		out = append(out, output{w: w, min: allLevels})
	}
	return out
}

type sink struct {
	buf *bufio.Writer
	min slog.Level
}

type entry struct {
	level slog.Level
	line  []byte
}

// asyncWriter fans formatted lines out to its sinks from a single goroutine.
// The first write error is sticky.
type asyncWriter struct {
	queue   chan entry
	flushes chan chan error
	done    chan struct{}
	once    sync.Once

	mu    sync.Mutex
	sinks []sink
	err   error
}

func newAsyncWriter(outputs []output, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	w := &asyncWriter{
		queue:   make(chan entry, 256),
		flushes: make(chan chan error),
		done:    make(chan struct{}),
	}
	for _, o := range outputs {
		if o.w == nil {
			continue
		}
		w.sinks = append(w.sinks, sink{buf: bufio.NewWriterSize(o.w, bufSize), min: o.min})
	}
	go w.loop()
	return w
}

func (w *asyncWriter) loop() {
	defer close(w.done)
	for {
		select {
		case e, ok := <-w.queue:
			if !ok {
				_ = w.flushAll()
				return
			}
			w.fail(w.writeAll(e))
		case ack := <-w.flushes:
			ack <- w.flushAll()
		}
	}
}

// Write copies line and queues it. It blocks when the queue is full rather
// than dropping the record.
func (w *asyncWriter) Write(level slog.Level, line []byte) error {
	if err := w.failed(); err != nil {
		return err
	}
	if len(line) == 0 {
		return nil
	}
	w.queue <- entry{level: level, line: append([]byte(nil), line...)}
	return nil
}

// Flush waits until everything queued so far reached the sinks.
func (w *asyncWriter) Flush() error {
	if err := w.failed(); err != nil {
		return err
	}
	ack := make(chan error, 1)
	w.flushes <- ack
	return <-ack
}

// Close drains the queue. The writer must not be used afterwards.
func (w *asyncWriter) Close() error {
	w.once.Do(func() { close(w.queue) })
	<-w.done
	return w.failed()
}

func (w *asyncWriter) writeAll(e entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, s := range w.sinks {
		if e.level < s.min {
			continue
		}
		if _, err := s.buf.Write(e.line); err != nil {
			return err
		}
		if err := s.buf.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func (w *asyncWriter) flushAll() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var errs []error
	for _, s := range w.sinks {
		if err := s.buf.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *asyncWriter) failed() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *asyncWriter) fail(err error) {
	if err == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err == nil {
		w.err = err
	}
}
