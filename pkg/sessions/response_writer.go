package sessions

import (
	"bufio"
	"net"
	"net/http"
)

// responseWriter wraps http.ResponseWriter to run registered hooks exactly
// once, right before the first byte of the response is written. The session
// cookie must be committed before headers are flushed; handlers are free to
// mutate the session at any point up to their first write.
type responseWriter struct {
	http.ResponseWriter
	hooks   []func()
	written bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w}
}

// onBeforeWrite registers a hook to run before the first write.
func (w *responseWriter) onBeforeWrite(fn func()) {
	w.hooks = append(w.hooks, fn)
}

// ensureCommitted runs pending hooks without writing anything. Called after
// the handler returns in case it produced no response body or status.
func (w *responseWriter) ensureCommitted() {
	w.runHooks()
}

func (w *responseWriter) runHooks() {
	hooks := w.hooks
	w.hooks = nil
	for _, fn := range hooks {
		fn()
	}
}

func (w *responseWriter) WriteHeader(code int) {
	if !w.written {
		w.written = true
		w.runHooks()
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.written = true
		w.runHooks()
	}
	return w.ResponseWriter.Write(b)
}

// Flush implements the http.Flusher interface.
func (w *responseWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Hijack implements the http.Hijacker interface.
func (w *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := w.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

// Unwrap returns the underlying ResponseWriter for http.ResponseController.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
