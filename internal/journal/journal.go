package journal

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rendis/pipetrace/internal/pipeline"
	"github.com/rendis/pipetrace/internal/validation"
	"github.com/rendis/pipetrace/pkg/schema"
)

// MaxLineSize bounds a single journal line.
const MaxLineSize = 4 << 20

// RecordValidator checks a decoded line before it is turned into an action.
type RecordValidator interface {
	ValidateRecord(record map[string]any) error
}

// Reader decodes actions from a JSON-lines stream. Blank lines and lines
// starting with '#' are skipped.
type Reader struct {
	scanner   *bufio.Scanner
	validator RecordValidator
	line      int
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithValidator checks every line against v before decoding it.
func WithValidator(v RecordValidator) ReaderOption {
	return func(r *Reader) { r.validator = v }
}

// NewReader creates a Reader over src.
func NewReader(src io.Reader, opts ...ReaderOption) *Reader {
	s := bufio.NewScanner(src)
	s.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	r := &Reader{scanner: s}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewValidatingReader creates a Reader that checks lines against the built-in
// record schema.
func NewValidatingReader(src io.Reader) (*Reader, error) {
	v, err := validation.NewJSONSchemaValidator()
	if err != nil {
		return nil, err
	}
	return NewReader(src, WithValidator(v)), nil
}

// Line returns the number of the line last read.
func (r *Reader) Line() int {
	return r.line
}

// Next returns the next action, or io.EOF when the stream is exhausted.
// Errors are DECODE_ERROR TraceErrors carrying the line number.
func (r *Reader) Next() (pipeline.Action, error) {
	for r.scanner.Scan() {
		r.line++
		raw := bytes.TrimSpace(r.scanner.Bytes())
		if len(raw) == 0 || raw[0] == '#' {
			continue
		}
		a, err := r.decodeLine(raw)
		if err != nil {
			return nil, r.lineError(err)
		}
		return a, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, r.lineError(fmt.Errorf("read journal: %w", err))
	}
	return nil, io.EOF
}

func (r *Reader) decodeLine(raw []byte) (pipeline.Action, error) {
	if r.validator != nil {
		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		if err := r.validator.ValidateRecord(doc); err != nil {
			return nil, err
		}
	}

	var rec Record
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	return Decode(rec)
}

func (r *Reader) lineError(err error) error {
	details := map[string]any{"line": r.line}
	var te *schema.TraceError
	if errors.As(err, &te) {
		if v, ok := te.Details["violations"]; ok {
			details["violations"] = v
		}
		out := schema.NewErrorf(schema.ErrCodeDecode, "line %d: %s", r.line, te.Message).
			WithCause(err).
			WithDetails(details)
		if te.StepID != "" {
			out.StepID = te.StepID
		}
		return out
	}
	return schema.NewErrorf(schema.ErrCodeDecode, "line %d: %s", r.line, err.Error()).
		WithCause(err).
		WithDetails(details)
}

// ReadAll decodes the remaining actions. On error it returns the actions
// decoded before the failing line.
func (r *Reader) ReadAll() ([]pipeline.Action, error) {
	var actions []pipeline.Action
	for {
		a, err := r.Next()
		if errors.Is(err, io.EOF) {
			return actions, nil
		}
		if err != nil {
			return actions, err
		}
		actions = append(actions, a)
	}
}

// Writer encodes actions as JSON lines. It is safe for concurrent use.
type Writer struct {
	mu  sync.Mutex
	enc *json.Encoder
	now func() time.Time
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithTimestamps stamps every record with the time returned by now.
func WithTimestamps(now func() time.Time) WriterOption {
	return func(w *Writer) { w.now = now }
}

// NewWriter creates a Writer over dst.
func NewWriter(dst io.Writer, opts ...WriterOption) *Writer {
	enc := json.NewEncoder(dst)
	enc.SetEscapeHTML(false)
	w := &Writer{enc: enc}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write encodes a as one line.
func (w *Writer) Write(a pipeline.Action) error {
	rec, err := Encode(a)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.now != nil {
		at := w.now().UTC()
		rec.At = &at
	}
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	return nil
}

// WriteAll encodes every action in order and stops at the first error.
func (w *Writer) WriteAll(actions []pipeline.Action) error {
	for _, a := range actions {
		if err := w.Write(a); err != nil {
			return err
		}
	}
	return nil
}
