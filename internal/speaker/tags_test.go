package speaker

import (
	"testing"
	"time"

	"github.com/maeumlabs/maeum/pkg/types"
)

func seg(tag int, text string, start, end time.Duration) types.TranscriptSegment {
	return types.TranscriptSegment{SpeakerTag: tag, Text: text, Start: start, End: end}
}

func TestTagAdapter_NumericTag(t *testing.T) {
	zero := 0
	two := 2

	tests := []struct {
		name   string
		offset *int
		label  string
		want   int
		wantOK bool
	}{
		{name: "engine zero to tag one", label: "화자 0", want: 1, wantOK: true},
		{name: "no space variant", label: "화자1", want: 2, wantOK: true},
		{name: "bare number", label: "3", want: 4, wantOK: true},
		{name: "zero offset", offset: &zero, label: "화자 0", want: 0, wantOK: true},
		{name: "custom offset", offset: &two, label: "화자 1", want: 3, wantOK: true},
		{name: "no digits", label: "할머니", wantOK: false},
		{name: "empty", label: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := TagAdapter{Offset: tt.offset}
			got, ok := a.NumericTag(tt.label)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("tag = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTagAdapter_Select(t *testing.T) {
	segments := []types.TranscriptSegment{
		seg(1, "밥 먹었니", 0, 2*time.Second),
		seg(2, "네 먹었어요", 2*time.Second, 3*time.Second),
		seg(1, "잘했다", 3*time.Second, 4*time.Second),
	}

	var a TagAdapter
	sel := a.Select(segments, "화자 0")

	if sel.Fallback {
		t.Fatalf("unexpected fallback: %q", sel.Reason)
	}
	if sel.Tag != 1 {
		t.Errorf("tag = %d, want 1", sel.Tag)
	}
	if got := sel.Text(); got != "밥 먹었니 잘했다" {
		t.Errorf("text = %q, want %q", got, "밥 먹었니 잘했다")
	}
	if got := sel.Duration(); got != 3*time.Second {
		t.Errorf("duration = %v, want 3s", got)
	}
}

func TestTagAdapter_Select_EmptyLabelFallsBack(t *testing.T) {
	segments := []types.TranscriptSegment{
		seg(1, "긴 발화", 0, 10*time.Second),
		seg(2, "짧은 발화", 10*time.Second, 11*time.Second),
	}

	var a TagAdapter
	sel := a.Select(segments, "")

	if !sel.Fallback {
		t.Fatal("expected fallback selection")
	}
	if sel.Reason != ReasonNoSpeakerInfo {
		t.Errorf("reason = %q, want %q", sel.Reason, ReasonNoSpeakerInfo)
	}
	if sel.Tag != 1 {
		t.Errorf("tag = %d, want majority speaker 1", sel.Tag)
	}
}

func TestTagAdapter_Select_UnmatchedLabelFallsBack(t *testing.T) {
	segments := []types.TranscriptSegment{
		seg(1, "a", 0, time.Second),
		seg(2, "b", time.Second, 5*time.Second),
	}

	var a TagAdapter
	sel := a.Select(segments, "화자 8")

	if !sel.Fallback {
		t.Fatal("expected fallback selection")
	}
	if sel.Reason != ReasonNoSeniorFound {
		t.Errorf("reason = %q, want %q", sel.Reason, ReasonNoSeniorFound)
	}
	if sel.Tag != 2 {
		t.Errorf("tag = %d, want majority speaker 2", sel.Tag)
	}
}

func TestTagAdapter_Select_NoSegments(t *testing.T) {
	var a TagAdapter
	sel := a.Select(nil, "")

	if !sel.Fallback {
		t.Fatal("expected fallback selection")
	}
	if len(sel.Segments) != 0 {
		t.Errorf("segments = %d, want 0", len(sel.Segments))
	}
	if sel.Reason != ReasonNoSpeakerInfo {
		t.Errorf("reason = %q, want %q", sel.Reason, ReasonNoSpeakerInfo)
	}
}

func TestTagAdapter_SelectByText(t *testing.T) {
	segments := []types.TranscriptSegment{
		seg(1, "밥 먹었니", 0, 2*time.Second),
		seg(2, "네 먹었어요", 2*time.Second, 3*time.Second),
		seg(1, "잘했다", 3*time.Second, 4*time.Second),
	}

	var a TagAdapter
	sel := a.SelectByText(segments, "밥 먹었니 잘했다")

	if sel.Fallback {
		t.Fatalf("unexpected fallback: %q", sel.Reason)
	}
	if sel.Tag != 1 {
		t.Errorf("tag = %d, want 1", sel.Tag)
	}
	if len(sel.Segments) != 2 {
		t.Errorf("segments = %d, want 2", len(sel.Segments))
	}
}

func TestTagAdapter_SelectByText_TieGoesToLowerTag(t *testing.T) {
	segments := []types.TranscriptSegment{
		seg(2, "하나", 0, time.Second),
		seg(1, "둘", time.Second, 2*time.Second),
	}

	var a TagAdapter
	sel := a.SelectByText(segments, "하나 둘")

	if sel.Tag != 1 {
		t.Errorf("tag = %d, want lower tag 1 on tie", sel.Tag)
	}
}

func TestTagAdapter_SelectByText_NoMatchFallsBack(t *testing.T) {
	segments := []types.TranscriptSegment{
		seg(1, "오늘 날씨가", 0, 4*time.Second),
		seg(2, "좋아요", 4*time.Second, 5*time.Second),
	}

	var a TagAdapter
	sel := a.SelectByText(segments, "전혀 다른 텍스트")

	if !sel.Fallback {
		t.Fatal("expected fallback selection")
	}
	if sel.Reason != ReasonNoSeniorFound {
		t.Errorf("reason = %q, want %q", sel.Reason, ReasonNoSeniorFound)
	}
	if sel.Tag != 1 {
		t.Errorf("tag = %d, want majority speaker 1", sel.Tag)
	}
}
