package speaker

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/maeumlabs/maeum/pkg/types"
)

// Reasons attached to a Selection when the senior's segments could not be
// identified directly and a fallback path was taken.
const (
	ReasonNoSpeakerInfo   = "no_speaker_info"
	ReasonNoSeniorFound   = "no_senior_segments_found"
	ReasonMajoritySpeaker = "majority_speaker"
)

// speakerLabelPattern extracts the numeric part of engine speaker labels
// such as "화자 0" or "화자1".
var speakerLabelPattern = regexp.MustCompile(`화자\s*(\d+)`)

// TagAdapter converts between engine speaker labels and the numeric tags
// carried on transcript segments. Engines number speakers from zero while
// segment tags start at one, hence the default offset.
type TagAdapter struct {
	// Offset is added to the engine's speaker number to obtain the
	// segment tag. Nil means the default of 1.
	Offset *int
}

func (a TagAdapter) offset() int {
	if a.Offset != nil {
		return *a.Offset
	}
	return 1
}

// NumericTag extracts the segment tag for an engine speaker label.
// "화자 0" with the default offset yields 1. A bare number is accepted as-is
// plus the offset. Labels with no digits return 0, false.
func (a TagAdapter) NumericTag(label string) (int, bool) {
	if m := speakerLabelPattern.FindStringSubmatch(label); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, false
		}
		return n + a.offset(), true
	}
	if n, err := strconv.Atoi(strings.TrimSpace(label)); err == nil {
		return n + a.offset(), true
	}
	return 0, false
}

// Selection is the set of transcript segments attributed to the senior,
// with how they were chosen.
type Selection struct {
	Segments []types.TranscriptSegment

	// Tag is the numeric speaker tag the segments were selected by,
	// or 0 when selection fell back to the full conversation.
	Tag int

	// Fallback is set when the senior could not be identified and a
	// degraded selection was made; Reason then names why.
	Fallback bool
	Reason   string
}

// Select picks the senior's segments out of a diarized transcript given the
// senior speaker label produced by role attribution. The label is matched
// both as a numeric tag and as a raw string against each segment's speaker
// field. When the label carries no speaker information, or matches nothing,
// Select falls back to the majority speaker — the tag holding the most
// speech time — and marks the selection as degraded.
func (a TagAdapter) Select(segments []types.TranscriptSegment, seniorLabel string) Selection {
	tag, ok := a.NumericTag(seniorLabel)
	if !ok && strings.TrimSpace(seniorLabel) == "" {
		return a.majorityFallback(segments, ReasonNoSpeakerInfo)
	}

	var picked []types.TranscriptSegment
	for _, seg := range segments {
		if ok && seg.SpeakerTag == tag {
			picked = append(picked, seg)
			continue
		}
		if !ok && strings.TrimSpace(seniorLabel) == seg.RawSpeaker {
			picked = append(picked, seg)
		}
	}
	if len(picked) == 0 {
		return a.majorityFallback(segments, ReasonNoSeniorFound)
	}
	return Selection{Segments: picked, Tag: tag}
}

// SelectByText picks the senior's segments by voting: each segment whose
// text appears inside the senior-attributed text votes for its speaker tag,
// and the tag with the most votes wins. This bridges role attribution (which
// splits text, not tags) back onto the diarization tags. An empty senior
// text or a vote with no winner degrades to the majority-speaker fallback.
func (a TagAdapter) SelectByText(segments []types.TranscriptSegment, seniorText string) Selection {
	seniorText = strings.TrimSpace(seniorText)
	if seniorText == "" {
		return a.majorityFallback(segments, ReasonNoSpeakerInfo)
	}

	votes := make(map[int]int)
	for _, seg := range segments {
		t := strings.TrimSpace(seg.Text)
		if t != "" && strings.Contains(seniorText, t) {
			votes[seg.SpeakerTag]++
		}
	}
	if len(votes) == 0 {
		return a.majorityFallback(segments, ReasonNoSeniorFound)
	}

	winner, best := 0, -1
	for tag, n := range votes {
		if n > best || (n == best && tag < winner) {
			winner, best = tag, n
		}
	}

	var picked []types.TranscriptSegment
	for _, seg := range segments {
		if seg.SpeakerTag == winner {
			picked = append(picked, seg)
		}
	}
	return Selection{Segments: picked, Tag: winner}
}

// majorityFallback selects every segment of the speaker holding the most
// speech time. With no segments at all the Selection is empty but still
// carries the reason, so the pipeline can report why it degraded.
func (a TagAdapter) majorityFallback(segments []types.TranscriptSegment, reason string) Selection {
	if len(segments) == 0 {
		return Selection{Fallback: true, Reason: reason}
	}

	talk := make(map[int]time.Duration)
	for _, seg := range segments {
		talk[seg.SpeakerTag] += seg.Duration()
	}
	majority, best := 0, time.Duration(-1)
	for tag, dur := range talk {
		if dur > best || (dur == best && tag < majority) {
			majority, best = tag, dur
		}
	}

	var picked []types.TranscriptSegment
	for _, seg := range segments {
		if seg.SpeakerTag == majority {
			picked = append(picked, seg)
		}
	}
	return Selection{
		Segments: picked,
		Tag:      majority,
		Fallback: true,
		Reason:   reason,
	}
}

// Text concatenates the selection's segment texts in order.
func (s Selection) Text() string {
	parts := make([]string, 0, len(s.Segments))
	for _, seg := range s.Segments {
		if t := strings.TrimSpace(seg.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// Duration is the total speech time of the selection.
func (s Selection) Duration() time.Duration {
	var total time.Duration
	for _, seg := range s.Segments {
		total += seg.Duration()
	}
	return total
}
