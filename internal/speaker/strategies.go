package speaker

import (
	"regexp"
	"strings"
)

// markerPattern matches a role label introducing an utterance, in either the
// half-width or full-width colon form ("엄마: ...", "아들： ...").
var markerPattern = regexp.MustCompile(`(엄마|어머니|아버지|아빠|아들|딸|보호자|시니어)[:：]`)

// seniorMarkers are the role labels naming the senior as the speaker. Labels
// not in this set (아들, 딸, 보호자) name the guardian.
var seniorMarkers = map[string]bool{
	"엄마":  true,
	"어머니": true,
	"아버지": true,
	"아빠":  true,
	"시니어": true,
}

// explicitMarkers attributes utterances using "label: utterance" markers in
// the text. Each utterance runs from its label to the next label (or the end
// of the text). Finding any marker yields a fixed confidence of 0.9.
func explicitMarkers(text string) Assignment {
	matches := markerPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return Assignment{Method: MethodExplicitMarkers}
	}

	var senior, guardian []string
	for i, m := range matches {
		label := text[m[2]:m[3]]
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		utterance := strings.TrimSpace(text[m[1]:end])
		if utterance == "" {
			continue
		}
		if seniorMarkers[label] {
			senior = append(senior, utterance)
		} else {
			guardian = append(guardian, utterance)
		}
	}

	return Assignment{
		SeniorText:   joinSentences(senior),
		GuardianText: joinSentences(guardian),
		Confidence:   0.9,
		Method:       MethodExplicitMarkers,
	}
}

// keywordCategory is one weighted taxonomy bucket.
type keywordCategory struct {
	weight float64
	words  []string
}

// seniorKeywords mark speech typical of the senior: addressing the child,
// first-person plain register, age-related vocabulary.
var seniorKeywords = []keywordCategory{
	{2.0, []string{"아들아", "딸아", "얘야", "여보", "우리 아들", "우리 딸"}},
	{1.5, []string{"내가", "나는", "나도", "이 늙은이"}},
	{1.0, []string{"구나", "더라", "거니", "단다"}},
	{1.2, []string{"무릎", "허리", "혈압", "약을", "옛날에"}},
}

// guardianKeywords mark speech typical of the guardian: addressing the
// parent, humble first person, honorific endings, caretaking vocabulary.
var guardianKeywords = []keywordCategory{
	{2.0, []string{"엄마", "어머니", "아버지", "아빠", "어머님", "아버님"}},
	{1.5, []string{"저는", "제가", "저도"}},
	{1.0, []string{"세요", "습니다", "셨어요", "드릴게요"}},
	{1.2, []string{"병원", "챙겨", "건강", "드셨"}},
}

// scoreNormalizer converts a raw weighted keyword count into [0, 1].
const scoreNormalizer = 5.0

func keywordScore(sentence string, categories []keywordCategory) float64 {
	var raw float64
	for _, cat := range categories {
		for _, word := range cat.words {
			raw += cat.weight * float64(strings.Count(sentence, word))
		}
	}
	norm := raw / scoreNormalizer
	if norm > 1 {
		return 1
	}
	return norm
}

// sentenceNet scores one sentence senior-positive: the difference between
// the normalized senior and guardian keyword scores, in [-1, 1].
func sentenceNet(sentence string) float64 {
	return keywordScore(sentence, seniorKeywords) - keywordScore(sentence, guardianKeywords)
}

// keywordScoring classifies each sentence by its net keyword score. Ties
// (net zero) go to the senior. Overall confidence is the mean of per-sentence
// score magnitudes, so a text with no role vocabulary scores near zero and
// is rejected by the threshold.
func keywordScoring(text string) Assignment {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return Assignment{Method: MethodKeywordScoring}
	}

	var (
		senior, guardian []string
		confSum          float64
	)
	for _, sentence := range sentences {
		net := sentenceNet(sentence)
		if net >= 0 {
			senior = append(senior, sentence)
			confSum += net
		} else {
			guardian = append(guardian, sentence)
			confSum += -net
		}
	}

	return Assignment{
		SeniorText:   joinSentences(senior),
		GuardianText: joinSentences(guardian),
		Confidence:   confSum / float64(len(sentences)),
		Method:       MethodKeywordScoring,
	}
}

// Honorific endings signal the guardian speaking up to the parent; plain
// endings signal the senior speaking down to the child.
var (
	honorificEnding = regexp.MustCompile(`(세요|습니다|어요|시나요|실까요)[?.!]?$`)
	plainEnding     = regexp.MustCompile(`(구나|네|거니|니|더라|어|아)[?.!]?$`)
)

// sentencePatterns classifies each sentence by its verb-ending register.
// Sentences matching neither pattern stay with the senior. Confidence is a
// fixed 0.7 when at least one sentence matched a pattern.
func sentencePatterns(text string) Assignment {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return Assignment{Method: MethodSentencePatterns}
	}

	var (
		senior, guardian []string
		matched          bool
	)
	for _, sentence := range sentences {
		switch {
		case honorificEnding.MatchString(sentence):
			guardian = append(guardian, sentence)
			matched = true
		case plainEnding.MatchString(sentence):
			senior = append(senior, sentence)
			matched = true
		default:
			senior = append(senior, sentence)
		}
	}

	conf := 0.0
	if matched {
		conf = 0.7
	}
	return Assignment{
		SeniorText:   joinSentences(senior),
		GuardianText: joinSentences(guardian),
		Confidence:   conf,
		Method:       MethodSentencePatterns,
	}
}

// turnTaking assumes strict speaker alternation: the first sentence's role
// comes from its keyword score, every following sentence flips. Fixed
// confidence 0.5 — a weak prior that only wins when everything else failed.
// A single sentence has no alternation to classify and scores zero.
func turnTaking(text string) Assignment {
	sentences := splitSentences(text)
	if len(sentences) < 2 {
		return Assignment{Method: MethodTurnTaking}
	}

	firstIsSenior := sentenceNet(sentences[0]) >= 0

	var senior, guardian []string
	for i, sentence := range sentences {
		isSenior := firstIsSenior == (i%2 == 0)
		if isSenior {
			senior = append(senior, sentence)
		} else {
			guardian = append(guardian, sentence)
		}
	}

	return Assignment{
		SeniorText:   joinSentences(senior),
		GuardianText: joinSentences(guardian),
		Confidence:   0.5,
		Method:       MethodTurnTaking,
	}
}
