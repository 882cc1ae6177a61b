package journal

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/pipetrace/internal/pipeline"
	"github.com/rendis/pipetrace/pkg/schema"
)

const sampleJournal = `# a run with one failed step
{"type":"RESET"}
{"type":"START","enabled":["classification","search","generation"]}
{"type":"STEP_START","id":"classification"}
{"type":"STEP_COMPLETE","id":"classification","data":{"category":"factual","confidence":0.93}}

{"type":"STEP_START","id":"search"}
{"type":"STEP_ERROR","id":"search","error":"timeout"}
{"type":"STEP_START","id":"generation"}
{"type":"STEP_UPDATE","id":"generation","data":{"answer":"Par"}}
{"type":"STEP_COMPLETE","id":"generation","data":{"answer":"Paris","done":true}}
{"type":"ERROR","error":"search failed"}
`

func sampleActions() []pipeline.Action {
	return []pipeline.Action{
		pipeline.Reset{},
		pipeline.Start{Enabled: []schema.StepID{schema.StepClassification, schema.StepSearch, schema.StepGeneration}},
		pipeline.StepStart{ID: schema.StepClassification},
		pipeline.StepComplete{ID: schema.StepClassification, Data: pipeline.Classification{Category: "factual", Confidence: 0.93}},
		pipeline.StepStart{ID: schema.StepSearch},
		pipeline.StepError{ID: schema.StepSearch, Message: "timeout"},
		pipeline.StepStart{ID: schema.StepGeneration},
		pipeline.StepUpdate{ID: schema.StepGeneration, Data: pipeline.Generation{Answer: "Par"}},
		pipeline.StepComplete{ID: schema.StepGeneration, Data: pipeline.Generation{Answer: "Paris", Done: true}},
		pipeline.Fail{Message: "search failed"},
	}
}

func requireDecodeError(t *testing.T, err error) *schema.TraceError {
	t.Helper()
	require.Error(t, err)
	var te *schema.TraceError
	require.True(t, errors.As(err, &te), "expected *schema.TraceError, got %T", err)
	assert.Equal(t, schema.ErrCodeDecode, te.Code)
	return te
}

func TestReader_ReadAll(t *testing.T) {
	actions, err := NewReader(strings.NewReader(sampleJournal)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, sampleActions(), actions)
}

func TestNewValidatingReader(t *testing.T) {
	r, err := NewValidatingReader(strings.NewReader(sampleJournal))
	require.NoError(t, err)

	var got []pipeline.Action
	for {
		a, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, a)
	}
	assert.Equal(t, sampleActions(), got)
	assert.Equal(t, 12, r.Line())
}

func TestReader_Errors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		validate bool
		line     int
	}{
		{"bad json", "{\"type\":\"RESET\"}\n{oops\n", false, 2},
		{"unknown type", `{"type":"PAUSE"}`, false, 1},
		{"missing id", `{"type":"STEP_START"}`, false, 1},
		{"unknown field", `{"type":"RESET","extra":1}`, false, 1},
		{"schema violation", "\n\n" + `{"type":"STEP_UPDATE","id":"generation"}`, true, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				r   *Reader
				err error
			)
			if tt.validate {
				r, err = NewValidatingReader(strings.NewReader(tt.src))
				require.NoError(t, err)
			} else {
				r = NewReader(strings.NewReader(tt.src))
			}

			var nextErr error
			for nextErr == nil {
				_, nextErr = r.Next()
			}
			te := requireDecodeError(t, nextErr)
			assert.Equal(t, tt.line, te.Details["line"])
		})
	}
}

func TestReader_ReadAllReturnsPrefixOnError(t *testing.T) {
	src := "{\"type\":\"RESET\"}\n{\"type\":\"START\"}\nnot json\n"
	actions, err := NewReader(strings.NewReader(src)).ReadAll()
	requireDecodeError(t, err)
	assert.Equal(t, []pipeline.Action{pipeline.Reset{}, pipeline.Start{}}, actions)
}

func TestDecodePayload(t *testing.T) {
	tests := []struct {
		name string
		id   schema.StepID
		raw  string
		want pipeline.Payload
	}{
		{"absent", schema.StepSearch, "", nil},
		{"null", schema.StepSearch, "null", nil},
		{"search", schema.StepSearch, `{"hits":[{"id":"d1","score":0.5}]}`,
			pipeline.SearchHits{Hits: []pipeline.Hit{{ID: "d1", Score: 0.5}}}},
		{"confidence", schema.StepConfidence, `{"overall":0.7}`, pipeline.ConfidenceScores{Overall: 0.7}},
		{"followup", schema.StepFollowup, `{"questions":["why?"]}`, pipeline.Followups{Questions: []string{"why?"}}},
		{"wrong shape", schema.StepSearch, `[1,2]`, pipeline.Raw{Value: []any{1.0, 2.0}}},
		{"extra field", schema.StepGeneration, `{"answer":"x","tokens":12}`,
			pipeline.Raw{Value: map[string]any{"answer": "x", "tokens": 12.0}}},
		{"unknown step", schema.StepID("rerank"), `{"k":"v"}`, pipeline.Raw{Value: map[string]any{"k": "v"}}},
		{"scalar", schema.StepGeneration, `"partial"`, pipeline.Raw{Value: "partial"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodePayload(tt.id, json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := DecodePayload(schema.StepSearch, json.RawMessage(`{"hits":`))
	te := requireDecodeError(t, err)
	assert.Equal(t, "search", te.StepID)
}

func TestWriter_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteAll(sampleActions()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, len(sampleActions()))
	assert.Equal(t, `{"type":"STEP_ERROR","id":"search","error":"timeout"}`, lines[5])

	r, err := NewValidatingReader(&buf)
	require.NoError(t, err)
	var got []pipeline.Action
	for {
		a, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, a)
	}
	assert.Equal(t, sampleActions(), got)
}

func TestWriter_RawPayloadRoundTrip(t *testing.T) {
	actions := []pipeline.Action{
		pipeline.StepUpdate{ID: schema.StepSearch, Data: pipeline.Raw{Value: map[string]any{"hits": []any{}}}},
		pipeline.StepComplete{ID: schema.StepSearch, Data: pipeline.Raw{}},
		pipeline.StepComplete{ID: schema.StepFollowup, Data: pipeline.Raw{Value: "none"}},
		pipeline.StepComplete{ID: schema.StepGeneration},
	}

	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).WriteAll(actions))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, `{"type":"STEP_COMPLETE","id":"search","data":null,"raw":true}`, lines[1])
	assert.Equal(t, `{"type":"STEP_COMPLETE","id":"generation"}`, lines[3])

	r, err := NewValidatingReader(&buf)
	require.NoError(t, err)
	var got []pipeline.Action
	for {
		a, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, a)
	}
	assert.Equal(t, actions, got)
}

func TestWriter_Timestamps(t *testing.T) {
	var buf bytes.Buffer
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	w := NewWriter(&buf, WithTimestamps(func() time.Time { return at }))
	require.NoError(t, w.Write(pipeline.Complete{}))
	assert.Equal(t, `{"type":"COMPLETE","at":"2025-03-01T09:00:00Z"}`+"\n", buf.String())

	r, err := NewValidatingReader(&buf)
	require.NoError(t, err)
	a, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, pipeline.Complete{}, a)
}

func TestEncode(t *testing.T) {
	rec, err := Encode(pipeline.StepUpdate{ID: schema.StepGeneration})
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage("null"), rec.Data)

	rec, err = Encode(pipeline.StepComplete{ID: schema.StepSearch, Data: pipeline.Raw{Value: []any{"a"}}})
	require.NoError(t, err)
	assert.JSONEq(t, `["a"]`, string(rec.Data))
	assert.True(t, rec.Raw)

	rec, err = Encode(pipeline.StepComplete{ID: schema.StepSearch})
	require.NoError(t, err)
	assert.Nil(t, rec.Data)

	_, err = Encode(nil)
	requireDecodeError(t, err)

	_, err = Encode(pipeline.StepComplete{ID: schema.StepSearch, Data: pipeline.Raw{Value: func() {}}})
	te := requireDecodeError(t, err)
	assert.Equal(t, "search", te.StepID)
}

func TestDecode_StartCopiesEnabled(t *testing.T) {
	enabled := []schema.StepID{schema.StepSearch}
	a, err := Decode(Record{Type: pipeline.KindStart, Enabled: enabled})
	require.NoError(t, err)
	enabled[0] = schema.StepFollowup
	assert.Equal(t, pipeline.Start{Enabled: []schema.StepID{schema.StepSearch}}, a)
}
