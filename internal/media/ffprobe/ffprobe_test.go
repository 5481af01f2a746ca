package ffprobe

import (
	"context"
	"math"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{Index: 0, CodecType: "video"},
			{Index: 1, CodecType: "audio", Channels: 2},
			{Index: 2, CodecType: "audio", Channels: 6},
		},
		Format: Format{Duration: "123.45"},
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.Channels() != 2 {
		t.Fatalf("expected channels of first audio stream, got %d", result.Channels())
	}
	if result.FirstAudioIndex() != 1 {
		t.Fatalf("expected first audio index 1, got %d", result.FirstAudioIndex())
	}
	if !result.HasPlayableAudio() {
		t.Fatal("expected playable audio")
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "audio"}},
		Format:  Format{Duration: "bad"},
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.HasPlayableAudio() {
		t.Fatal("NaN duration must not count as playable")
	}
}

func TestNoAudio(t *testing.T) {
	result := Result{Streams: []Stream{{CodecType: "video"}}, Format: Format{Duration: "10"}}
	if result.FirstAudioIndex() != -1 || result.Channels() != 0 {
		t.Fatalf("unexpected audio info: index=%d channels=%d", result.FirstAudioIndex(), result.Channels())
	}
	if result.HasPlayableAudio() {
		t.Fatal("video-only source is not playable audio")
	}
}

func TestParse(t *testing.T) {
	payload := []byte(`{"streams":[{"index":0,"codec_type":"audio","codec_name":"pcm_s16le","sample_rate":"16000","channels":1}],"format":{"duration":"899.98","format_name":"wav"}}`)
	result, err := Parse(payload)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if result.Streams[0].CodecName != "pcm_s16le" || result.Streams[0].SampleRate != "16000" {
		t.Fatalf("unexpected stream: %+v", result.Streams[0])
	}
	if result.Format.FormatName != "wav" || result.DurationSeconds() != 899.98 {
		t.Fatalf("unexpected format: %+v", result.Format)
	}
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestInspectRejectsEmptyPath(t *testing.T) {
	if _, err := Inspect(context.Background(), "ffprobe", "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
