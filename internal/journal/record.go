// Package journal encodes pipeline actions as JSON lines and decodes them
// back, with payloads typed by the step they address.
package journal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rendis/pipetrace/internal/pipeline"
	"github.com/rendis/pipetrace/pkg/schema"
)

// Record is the wire form of one action:
//
//	{"type":"STEP_COMPLETE","id":"search","data":{"hits":[...]}}
//	{"type":"STEP_ERROR","id":"search","error":"timeout"}
//	{"type":"STEP_UPDATE","id":"search","data":{"hits":[]},"raw":true}
//
// Raw marks a payload that must decode to pipeline.Raw even when its shape
// matches the step's typed arm, or when it is null.
type Record struct {
	Type    string          `json:"type"`
	ID      schema.StepID   `json:"id,omitempty"`
	Enabled []schema.StepID `json:"enabled,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Raw     bool            `json:"raw,omitempty"`
	Error   string          `json:"error,omitempty"`
	// At is informational; decoding ignores it.
	At *time.Time `json:"at,omitempty"`
}

// Encode converts a to its Record.
func Encode(a pipeline.Action) (Record, error) {
	switch a := a.(type) {
	case pipeline.Reset:
		return Record{Type: a.Kind()}, nil
	case pipeline.Start:
		return Record{Type: a.Kind(), Enabled: append([]schema.StepID(nil), a.Enabled...)}, nil
	case pipeline.StepStart:
		return Record{Type: a.Kind(), ID: a.ID}, nil
	case pipeline.StepComplete:
		return encodeData(a.Kind(), a.ID, a.Data)
	case pipeline.StepError:
		return Record{Type: a.Kind(), ID: a.ID, Error: a.Message}, nil
	case pipeline.StepUpdate:
		r, err := encodeData(a.Kind(), a.ID, a.Data)
		if err == nil && r.Data == nil {
			r.Data = json.RawMessage("null")
		}
		return r, err
	case pipeline.StepSkip:
		return Record{Type: a.Kind(), ID: a.ID}, nil
	case pipeline.Complete:
		return Record{Type: a.Kind()}, nil
	case pipeline.Fail:
		return Record{Type: a.Kind(), Error: a.Message}, nil
	default:
		return Record{}, schema.NewErrorf(schema.ErrCodeDecode, "cannot encode action %T", a)
	}
}

// Decode converts r to the action it describes.
func Decode(r Record) (pipeline.Action, error) {
	switch r.Type {
	case pipeline.KindReset:
		return pipeline.Reset{}, nil
	case pipeline.KindStart:
		return pipeline.Start{Enabled: append([]schema.StepID(nil), r.Enabled...)}, nil
	case pipeline.KindComplete:
		return pipeline.Complete{}, nil
	case pipeline.KindError:
		return pipeline.Fail{Message: r.Error}, nil
	}

	if r.ID == "" {
		return nil, schema.NewErrorf(schema.ErrCodeDecode, "%s record without step id", r.Type)
	}
	switch r.Type {
	case pipeline.KindStepStart:
		return pipeline.StepStart{ID: r.ID}, nil
	case pipeline.KindStepError:
		return pipeline.StepError{ID: r.ID, Message: r.Error}, nil
	case pipeline.KindStepSkip:
		return pipeline.StepSkip{ID: r.ID}, nil
	case pipeline.KindStepComplete:
		data, err := decodeData(r)
		if err != nil {
			return nil, err
		}
		return pipeline.StepComplete{ID: r.ID, Data: data}, nil
	case pipeline.KindStepUpdate:
		data, err := decodeData(r)
		if err != nil {
			return nil, err
		}
		return pipeline.StepUpdate{ID: r.ID, Data: data}, nil
	default:
		return nil, schema.NewErrorf(schema.ErrCodeDecode, "unknown record type %q", r.Type)
	}
}

func encodeData(kind string, id schema.StepID, p pipeline.Payload) (Record, error) {
	data, err := EncodePayload(p)
	if err != nil {
		return Record{}, withStep(err, id)
	}
	r := Record{Type: kind, ID: id, Data: data}
	if _, ok := p.(pipeline.Raw); ok {
		r.Raw = true
		if r.Data == nil {
			r.Data = json.RawMessage("null")
		}
	}
	return r, nil
}

func decodeData(r Record) (pipeline.Payload, error) {
	if !r.Raw {
		return DecodePayload(r.ID, r.Data)
	}
	var v any
	if len(bytes.TrimSpace(r.Data)) > 0 {
		if err := json.Unmarshal(r.Data, &v); err != nil {
			return nil, schema.NewErrorf(schema.ErrCodeDecode, "payload is not valid JSON: %s", err.Error()).
				WithStep(r.ID).
				WithCause(err)
		}
	}
	return pipeline.Raw{Value: v}, nil
}

// EncodePayload marshals p. Raw is written as its bare value; a nil payload
// yields nil.
func EncodePayload(p pipeline.Payload) (json.RawMessage, error) {
	if p == nil {
		return nil, nil
	}
	var v any = p
	if raw, ok := p.(pipeline.Raw); ok {
		v = raw.Value
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeDecode, "encode %T payload: %s", p, err.Error()).WithCause(err)
	}
	return b, nil
}

// DecodePayload decodes raw into the payload arm produced by step id. Values
// that do not fit that arm exactly, and payloads of steps with no arm, decode
// to Raw. An absent or null payload decodes to nil.
func DecodePayload(id schema.StepID, raw json.RawMessage) (pipeline.Payload, error) {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}

	var typed pipeline.Payload
	switch id {
	case schema.StepClassification:
		typed, _ = decodeStrict[pipeline.Classification](raw)
	case schema.StepSearch:
		typed, _ = decodeStrict[pipeline.SearchHits](raw)
	case schema.StepGeneration:
		typed, _ = decodeStrict[pipeline.Generation](raw)
	case schema.StepConfidence:
		typed, _ = decodeStrict[pipeline.ConfidenceScores](raw)
	case schema.StepFollowup:
		typed, _ = decodeStrict[pipeline.Followups](raw)
	}
	if typed != nil {
		return typed, nil
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeDecode, "payload is not valid JSON: %s", err.Error()).
			WithStep(id).
			WithCause(err)
	}
	return pipeline.Raw{Value: v}, nil
}

type payloadArm interface {
	pipeline.Classification | pipeline.SearchHits | pipeline.Generation |
		pipeline.ConfidenceScores | pipeline.Followups
	pipeline.Payload
}

// decodeStrict decodes raw into T, rejecting unknown fields and trailing data.
func decodeStrict[T payloadArm](raw json.RawMessage) (pipeline.Payload, error) {
	var v T
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after %T", v)
	}
	return v, nil
}

func withStep(err error, id schema.StepID) error {
	if te, ok := err.(*schema.TraceError); ok && te.StepID == "" {
		te.WithStep(id)
	}
	return err
}
