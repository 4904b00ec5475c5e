package progress

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/klauern/modsync/internal/logging"
)

// Translator classifies lines, logs them, and publishes the events.
type Translator struct {
	registry *Registry
	logger   *slog.Logger
	decoder  *encoding.Decoder
}

// NewTranslator returns a translator publishing to registry. A nil logger
// uses the default logger.
func NewTranslator(registry *Registry, logger *slog.Logger) *Translator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Translator{registry: registry, logger: logger}
}

// SetEncoding decodes subsequent tool output from the named charset,
// e.g. "windows-1252" or "shift_jis". Empty or "utf-8" disables decoding.
func (t *Translator) SetEncoding(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8") {
		t.decoder = nil
		return nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return fmt.Errorf("unknown output encoding %q: %w", name, err)
	}
	t.decoder = enc.NewDecoder()
	return nil
}

// Translate classifies line and publishes the event.
func (t *Translator) Translate(source, line string) Event {
	ev := Classify(line)
	t.logger.Debug(line, slog.String("source", source), slog.String("kind", ev.Kind()))
	if file, ok := ChecksumFailure(line); ok {
		t.logger.Warn("checksum error, file will be re-downloaded", logging.File(file))
	}
	if t.registry != nil {
		t.registry.Publish(ev)
	}
	return ev
}

// Status emits an overall status line through the normal pipeline.
func (t *Translator) Status(percent int, task string) {
	t.Translate("installer", FormatStatus(percent, task))
}

// Writer returns an io.WriteCloser that splits written bytes into lines on
// '\n', '\r' or '\b' and translates each one. 7z redraws its progress line
// with backspaces, so each redraw becomes its own line; the blank segments
// of an erase are dropped. Close flushes a trailing partial line.
func (t *Translator) Writer(source string) io.WriteCloser {
	return &lineWriter{t: t, source: source}
}

const lineBreaks = "\r\n\b"

type lineWriter struct {
	t      *Translator
	source string

	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		data := w.buf.Bytes()
		i := bytes.IndexAny(data, lineBreaks)
		if i < 0 {
			return len(p), nil
		}
		line := string(data[:i])
		w.buf.Next(i + 1)
		w.emit(line)
	}
}

func (w *lineWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf.Len() > 0 {
		line := w.buf.String()
		w.buf.Reset()
		w.emit(line)
	}
	return nil
}

func (w *lineWriter) emit(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	if w.t.decoder != nil {
		if decoded, err := w.t.decoder.String(line); err == nil {
			line = decoded
		}
	}
	w.t.Translate(w.source, line)
}
