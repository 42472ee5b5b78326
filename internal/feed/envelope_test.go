package feed

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	want := Envelope{
		FrameID:  "livox_frame",
		Sequence: 42,
		Stride:   26,
		Flags:    FlagFrameEnd,
		Payload:  bytes.Repeat([]byte{0xAB}, 26*3),
	}

	data, err := EncodeEnvelope(want)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	got, err := DecodeEnvelope(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if !got.EndOfFrame() {
		t.Error("end-of-frame flag lost")
	}
	if got.Count() != 3 {
		t.Errorf("count = %d, want 3", got.Count())
	}
}

func TestEnvelopeDecodeCopiesPayload(t *testing.T) {
	env := Envelope{FrameID: "f", Sequence: 1, Stride: 2, Payload: []byte{1, 2, 3, 4}}
	data, err := EncodeEnvelope(env)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeEnvelope(data)
	if err != nil {
		t.Fatal(err)
	}
	// Clobber the receive buffer; the decoded payload must be unaffected.
	for i := range data {
		data[i] = 0xFF
	}
	if !bytes.Equal(got.Payload, []byte{1, 2, 3, 4}) {
		t.Errorf("payload aliases the receive buffer: %v", got.Payload)
	}
}

func TestEnvelopeDecodeErrors(t *testing.T) {
	valid, err := EncodeEnvelope(Envelope{FrameID: "f", Stride: 26, Payload: make([]byte, 26)})
	if err != nil {
		t.Fatal(err)
	}

	badMagic := append([]byte{}, valid...)
	badMagic[0] = 0x00

	badVersion := append([]byte{}, valid...)
	badVersion[2] = 99

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"short header", valid[:5], ErrShortEnvelope},
		{"bad magic", badMagic, ErrBadMagic},
		{"bad version", badVersion, ErrBadVersion},
		{"truncated payload", valid[:len(valid)-1], ErrTruncatedPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeEnvelope(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEnvelopeEncodeRejectsBadInput(t *testing.T) {
	if _, err := EncodeEnvelope(Envelope{Stride: 0}); err == nil {
		t.Error("zero stride accepted")
	}
	if _, err := EncodeEnvelope(Envelope{Stride: 26, Payload: make([]byte, 27)}); err == nil {
		t.Error("ragged payload accepted")
	}
	longID := make([]byte, 256)
	if _, err := EncodeEnvelope(Envelope{FrameID: string(longID), Stride: 26}); err == nil {
		t.Error("oversized frame id accepted")
	}
}

func TestSplitFrameReassembly(t *testing.T) {
	data := make([]byte, 26*10)
	for i := range data {
		data[i] = byte(i)
	}

	envelopes, err := SplitFrame("frame-1", 26, data, 3, 1)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	// 10 records at 3 per batch: 3+3+3+1.
	if len(envelopes) != 4 {
		t.Fatalf("split into %d envelopes, want 4", len(envelopes))
	}
	for i, env := range envelopes {
		if env.FrameID != "frame-1" || env.Stride != 26 {
			t.Errorf("envelope %d header mismatch: %+v", i, env)
		}
		if got, want := env.EndOfFrame(), i == len(envelopes)-1; got != want {
			t.Errorf("envelope %d end-of-frame = %v, want %v", i, got, want)
		}
		if env.Sequence != uint32(1+i) {
			t.Errorf("envelope %d sequence = %d, want %d", i, env.Sequence, 1+i)
		}
	}

	var reassembled []byte
	for _, env := range envelopes {
		reassembled = append(reassembled, env.Payload...)
	}
	if !bytes.Equal(reassembled, data) {
		t.Error("reassembled buffer differs from the original")
	}
}

func TestSplitFrameEmpty(t *testing.T) {
	envelopes, err := SplitFrame("frame-1", 26, nil, 100, 0)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	if len(envelopes) != 1 || !envelopes[0].EndOfFrame() || len(envelopes[0].Payload) != 0 {
		t.Errorf("empty frame should split into one empty end-marked envelope, got %+v", envelopes)
	}
}
