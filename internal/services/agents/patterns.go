package agents

import (
	"math"
	"regexp"
	"strings"
)

// commonAIPhrases are stock constructions that mark text as machine-written.
// Detection is case-insensitive substring counting.
var commonAIPhrases = []string{
	"In conclusion",
	"It is important to note",
	"Furthermore",
	"Moreover",
	"Additionally",
	"It should be noted that",
	"It is worth noting that",
	"It is crucial to understand",
	"It is essential to recognize",
	"As we have seen",
	"As previously mentioned",
	"As stated above",
	"In summary",
	"To summarize",
	"In other words",
	"That is to say",
	"Needless to say",
	"It goes without saying",
	"First and foremost",
	"Last but not least",
	"Without a doubt",
	"Undoubtedly",
	"It is clear that",
	"It is evident that",
	"It can be seen that",
	"One can observe that",
	"It is apparent that",
	"This demonstrates that",
	"This indicates that",
	"This suggests that",
	"This highlights the fact that",
	"This underscores the importance of",
	"This serves to",
	"This allows for",
	"This enables",
	"This facilitates",
	"This provides",
	"This offers",
	"This represents",
	"This constitutes",
	"This embodies",
	"This exemplifies",
	"This illustrates",
	"This showcases",
	"This reveals",
	"This unveils",
	"This sheds light on",
	"This brings to light",
	"This draws attention to",
	"This calls attention to",
	"This emphasizes",
	"This reinforces",
	"This validates",
	"This confirms",
}

// mediaTypePatterns are additional phrases checked for specific media types
var mediaTypePatterns = map[string][]string{
	"news_article": {
		"It goes without saying",
		"Needless to say",
		"This enables",
		"This allows for",
		"This facilitates",
	},
	"blog_post": {
		"It is worth noting",
		"This highlights",
		"This underscores",
		"This reveals",
		"This unveils",
	},
	"press_release": {
		"It is important to recognize",
		"This represents",
		"This constitutes",
		"This embodies",
	},
	"linkedin_article": {
		"It should be noted that",
		"It is important to note that",
		"As can be seen",
		"This demonstrates",
		"This indicates",
	},
}

// PatternHit is one detected phrase with its occurrence count
type PatternHit struct {
	Phrase string
	Count  int
}

// DetectAIPatterns counts AI-sounding phrases in text. Media-type specific
// phrases are checked in addition to the common catalog.
func DetectAIPatterns(text, mediaType string) []PatternHit {
	var detected []PatternHit
	textLower := strings.ToLower(text)

	for _, phrase := range commonAIPhrases {
		if count := strings.Count(textLower, strings.ToLower(phrase)); count > 0 {
			detected = append(detected, PatternHit{Phrase: phrase, Count: count})
		}
	}

	for _, phrase := range mediaTypePatterns[mediaType] {
		if count := strings.Count(textLower, strings.ToLower(phrase)); count > 0 {
			detected = append(detected, PatternHit{Phrase: phrase, Count: count})
		}
	}

	return detected
}

// VariationMetrics describe sentence-length burstiness of a text. A higher
// VariationScore (std dev over mean) reads as more human.
type VariationMetrics struct {
	AvgSentenceLength float64
	LengthStdDev      float64
	SentenceCount     int
	VariationScore    float64
}

var sentenceSplitRegex = regexp.MustCompile(`[.!?]+`)

// AnalyzeSentenceVariation computes sentence-length statistics for text
func AnalyzeSentenceVariation(text string) VariationMetrics {
	var lengths []int
	for _, sentence := range sentenceSplitRegex.Split(text, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		lengths = append(lengths, len(strings.Fields(sentence)))
	}

	if len(lengths) == 0 {
		return VariationMetrics{}
	}

	sum := 0
	for _, n := range lengths {
		sum += n
	}
	avg := float64(sum) / float64(len(lengths))

	variance := 0.0
	for _, n := range lengths {
		diff := float64(n) - avg
		variance += diff * diff
	}
	variance /= float64(len(lengths))
	stdDev := math.Sqrt(variance)

	score := 0.0
	if avg > 0 {
		score = stdDev / avg
	}

	return VariationMetrics{
		AvgSentenceLength: avg,
		LengthStdDev:      stdDev,
		SentenceCount:     len(lengths),
		VariationScore:    score,
	}
}
