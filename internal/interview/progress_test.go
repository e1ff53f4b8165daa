package interview

import (
	"testing"
	"time"
)

func TestWithVoiceMarker(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", VoiceMarker},
		{"   ", VoiceMarker},
		{"hello", "hello " + VoiceMarker},
		{"hello " + VoiceMarker, "hello " + VoiceMarker},
		{VoiceMarker + " " + VoiceMarker, VoiceMarker},
	}
	for _, tt := range tests {
		if got := WithVoiceMarker(tt.in); got != tt.want {
			t.Errorf("WithVoiceMarker(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStripVoiceMarker(t *testing.T) {
	if got := StripVoiceMarker("typed " + VoiceMarker); got != "typed" {
		t.Fatalf("got %q", got)
	}
	if got := StripVoiceMarker(VoiceMarker); got != "" {
		t.Fatalf("got %q", got)
	}
	if got := StripVoiceMarker("no marker"); got != "no marker" {
		t.Fatalf("got %q", got)
	}
}

func TestProgressMarshalRoundTrip(t *testing.T) {
	score := 72
	feedback := "solid"
	p := newProgress()
	p.Cursor = 1
	p.AutoAdvance = true
	p.markAnswered(1)
	p.markAnswered(1)
	p.Answers[1] = Answer{Text: "x", Score: &score, Feedback: &feedback, Timestamp: time.Unix(1700000000, 0).UTC()}
	retry := 1
	p.RetryTarget = &retry

	data, err := p.marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := decodeProgress(data, threeQuestions)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Cursor != 1 || !got.AutoAdvance || got.ShowNext {
		t.Fatalf("unexpected flags: %+v", got)
	}
	if len(got.Answered) != 1 || got.Answered[0] != 1 {
		t.Fatalf("answered = %v", got.Answered)
	}
	if *got.Answers[1].Score != 72 || *got.Answers[1].Feedback != "solid" {
		t.Fatalf("answer = %+v", got.Answers[1])
	}
	if got.RetryTarget != nil {
		t.Fatal("retry target should not survive a reload")
	}
}

func TestDecodeProgressRejects(t *testing.T) {
	tests := map[string]string{
		"negative cursor":     `{"cursor":-1}`,
		"duplicate answered":  `{"cursor":1,"answered":[1,1],"answers":{"1":{"text":"x"}}}`,
		"show next past last": `{"cursor":2,"show_next":true}`,
		"wrong type":          `{"cursor":"one"}`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := decodeProgress([]byte(data), threeQuestions); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestDecodeProgressAcceptsCompleted(t *testing.T) {
	data := `{"cursor":3,"answered":[2,1,3],"answers":{"1":{"text":"a"},"2":{"text":"b"},"3":{"text":"c"}}}`
	p, err := decodeProgress([]byte(data), threeQuestions)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Cursor != 3 {
		t.Fatalf("cursor = %d", p.Cursor)
	}
}
