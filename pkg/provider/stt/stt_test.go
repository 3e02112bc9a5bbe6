package stt

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/maeumlabs/maeum/pkg/types"
)

func seg(tag int, text string, start, end time.Duration, conf float64) types.TranscriptSegment {
	return types.TranscriptSegment{
		SpeakerTag: tag,
		Text:       text,
		Start:      start,
		End:        end,
		Confidence: conf,
	}
}

func TestNormalize_SortsChronologically(t *testing.T) {
	segments := []types.TranscriptSegment{
		seg(1, "둘째", 5*time.Second, 8*time.Second, 0.9),
		seg(2, "첫째", 0, 4*time.Second, 0.9),
	}

	got := Normalize(segments)
	if len(got) != 2 {
		t.Fatalf("segments = %d, want 2", len(got))
	}
	if got[0].Text != "첫째" || got[1].Text != "둘째" {
		t.Errorf("order = [%q %q], want chronological", got[0].Text, got[1].Text)
	}
	// Input slice must be untouched.
	if segments[0].Text != "둘째" {
		t.Error("input slice was modified")
	}
}

func TestNormalize_MergesShortFragments(t *testing.T) {
	segments := []types.TranscriptSegment{
		seg(1, "밥 먹었니", 0, 2*time.Second, 0.9),
		seg(1, "응", 2*time.Second, 2*time.Second+200*time.Millisecond, 0.9),
		seg(2, "네", 3*time.Second, 3*time.Second+100*time.Millisecond, 0.9),
	}

	got := Normalize(segments)
	if len(got) != 2 {
		t.Fatalf("segments = %d, want merged fragment plus speaker change", len(got))
	}
	if got[0].Text != "밥 먹었니 응" {
		t.Errorf("merged text = %q, want %q", got[0].Text, "밥 먹었니 응")
	}
	if got[0].End != 2*time.Second+200*time.Millisecond {
		t.Errorf("merged end = %v, want extended", got[0].End)
	}
	// The speaker-2 fragment has no same-speaker predecessor to merge into.
	if got[1].SpeakerTag != 2 {
		t.Errorf("tag = %d, want 2", got[1].SpeakerTag)
	}
}

func TestNormalize_DropsLowConfidence(t *testing.T) {
	segments := []types.TranscriptSegment{
		seg(1, "또렷한 발화", 0, 2*time.Second, 0.9),
		seg(2, "웅얼거림", 2*time.Second, 4*time.Second, 0.3),
	}

	got := Normalize(segments)
	if len(got) != 1 {
		t.Fatalf("segments = %d, want low-confidence segment dropped", len(got))
	}
	if got[0].Text != "또렷한 발화" {
		t.Errorf("kept = %q, want the confident segment", got[0].Text)
	}
}

func TestNormalize_Empty(t *testing.T) {
	if got := Normalize(nil); got != nil {
		t.Errorf("Normalize(nil) = %v, want nil", got)
	}
}

func TestOverallConfidence(t *testing.T) {
	segments := []types.TranscriptSegment{
		seg(1, "a", 0, 3*time.Second, 1.0),
		seg(2, "b", 3*time.Second, 4*time.Second, 0.6),
	}

	// 3s at 1.0 and 1s at 0.6 -> 3.6/4.
	got := OverallConfidence(segments)
	if math.Abs(got-0.9) > 1e-9 {
		t.Errorf("confidence = %v, want 0.9", got)
	}

	if got := OverallConfidence(nil); got != 0 {
		t.Errorf("confidence of empty = %v, want 0", got)
	}
}

func TestStats(t *testing.T) {
	segments := []types.TranscriptSegment{
		{SpeakerTag: 1, Text: "a", Start: 0, End: 2 * time.Second, Confidence: 0.8,
			Words: []types.WordDetail{{Word: "a"}, {Word: "b"}}},
		{SpeakerTag: 1, Text: "b", Start: 2 * time.Second, End: 3 * time.Second, Confidence: 0.6,
			Words: []types.WordDetail{{Word: "c"}}},
		{SpeakerTag: 2, Text: "c", Start: 3 * time.Second, End: 5 * time.Second, Confidence: 1.0},
	}

	got := Stats(segments)
	if len(got) != 2 {
		t.Fatalf("stats = %v, want two speakers", got)
	}

	s1 := got[1]
	if s1.SegmentCount != 2 || s1.WordCount != 3 {
		t.Errorf("speaker 1 = %+v, want 2 segments, 3 words", s1)
	}
	if s1.SpeechDuration != 3*time.Second {
		t.Errorf("speaker 1 duration = %v, want 3s", s1.SpeechDuration)
	}
	if math.Abs(s1.AvgConfidence-0.7) > 1e-9 {
		t.Errorf("speaker 1 confidence = %v, want 0.7", s1.AvgConfidence)
	}
}

func TestImbalanceWarnings(t *testing.T) {
	balanced := map[int]types.SpeakerStats{
		1: {SpeechDuration: 60 * time.Second},
		2: {SpeechDuration: 40 * time.Second},
	}
	if got := ImbalanceWarnings(balanced); got != nil {
		t.Errorf("warnings = %v, want none for balanced speakers", got)
	}

	imbalanced := map[int]types.SpeakerStats{
		1: {SpeechDuration: 95 * time.Second},
		2: {SpeechDuration: 5 * time.Second},
	}
	got := ImbalanceWarnings(imbalanced)
	if len(got) != 1 {
		t.Fatalf("warnings = %v, want one", got)
	}
	if !strings.Contains(got[0], "speaker 2") {
		t.Errorf("warning = %q, want speaker 2 named", got[0])
	}

	single := map[int]types.SpeakerStats{1: {SpeechDuration: time.Minute}}
	if got := ImbalanceWarnings(single); got != nil {
		t.Errorf("warnings = %v, want none for a single speaker", got)
	}
}
