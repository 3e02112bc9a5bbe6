package language

import (
	"fmt"
	"strings"
)

// systemPrompt instructs the model to act as a senior mental-health analyst
// and pins the exact JSON shape of the response. Kept in Korean since the
// analyzed speech is Korean and mixed-language prompts degrade scoring.
const systemPrompt = `당신은 시니어 정신건강 분석 전문가입니다.

주어진 텍스트를 분석하여 다음 지표들을 평가해주세요:
1. DRI (우울 위험 지수): 우울증 관련 언어 패턴
2. SDI (수면 장애 지수): 수면 문제 관련 표현
3. CFL (인지 기능 수준): 인지 능력 및 언어 구성력
4. ES (정서 안정성): 감정 변화 및 안정성
5. OV (전반적 활력): 에너지 및 활동성

각 지표는 0-1 사이의 값으로 평가하며, 높을수록 긍정적입니다.

JSON 형식으로 응답해주세요:
{
    "indicators": {
        "DRI": 0.0-1.0,
        "SDI": 0.0-1.0,
        "CFL": 0.0-1.0,
        "ES": 0.0-1.0,
        "OV": 0.0-1.0
    },
    "sentiment": {
        "positive": 0.0-1.0,
        "negative": 0.0-1.0,
        "neutral": 0.0-1.0
    },
    "emotions": {
        "joy": 0.0-1.0,
        "sadness": 0.0-1.0,
        "anger": 0.0-1.0,
        "fear": 0.0-1.0,
        "surprise": 0.0-1.0
    },
    "key_topics": ["주제1", "주제2"],
    "concerns": ["우려사항1", "우려사항2"],
    "coherence_score": 0.0-1.0,
    "interpretation": "종합 해석"
}`

// SystemPrompt returns the shared system prompt for analysis providers.
func SystemPrompt() string {
	return systemPrompt
}

// UserPrompt builds the per-request prompt from the senior's speech and
// whatever context is known about them.
func UserPrompt(text string, meta Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "다음 시니어의 발화를 분석해주세요:\n\n%s", text)

	if meta.Age > 0 || meta.Gender != "" || meta.HasPriorAnalysis {
		b.WriteString("\n\n추가 정보:\n")
		if meta.Age > 0 {
			fmt.Fprintf(&b, "- 연령: %d세\n", meta.Age)
		}
		if meta.Gender != "" {
			fmt.Fprintf(&b, "- 성별: %s\n", meta.Gender)
		}
		if meta.HasPriorAnalysis {
			b.WriteString("- 이전 분석 기록 있음\n")
		}
	}
	return b.String()
}
