package weir

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/zoobzio/capitan"
)

// Default scoring weights. They sum to 1.0.
const (
	DefaultFrequencyWeight  = 0.4
	DefaultPositionWeight   = 0.3
	DefaultLengthWeight     = 0.2
	DefaultUniquenessWeight = 0.1
)

// Default token-length band: multi-word phrases up to four tokens score
// the full length signal; single common words and very long phrases are
// penalized.
const (
	DefaultBandMin = 2
	DefaultBandMax = 4
)

// ScorerConfig carries the scoring weights and the token-length band.
// Weights must sum to 1.0.
type ScorerConfig struct { //nolint:govet
	// FrequencyWeight scales the raw occurrence-count signal. Default 0.4.
	FrequencyWeight float64
	// PositionWeight scales the first-occurrence signal: earlier first
	// occurrence yields a higher signal. Default 0.3.
	PositionWeight float64
	// LengthWeight scales the token-length band signal. Default 0.2.
	LengthWeight float64
	// UniquenessWeight scales the rarity signal: inverse document
	// frequency against Corpus when set, otherwise the inverse of the
	// keyword's occurrence rate across all candidates. Default 0.1.
	UniquenessWeight float64

	// BandMin and BandMax bound the rewarded token count. Defaults 2 and 4.
	BandMin int
	BandMax int

	// Corpus optionally maps keywords to their document frequency (0..1)
	// in a reference corpus. Absent entries count as unseen.
	Corpus map[string]float64
}

// DefaultScorerConfig returns the documented default configuration.
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		FrequencyWeight:  DefaultFrequencyWeight,
		PositionWeight:   DefaultPositionWeight,
		LengthWeight:     DefaultLengthWeight,
		UniquenessWeight: DefaultUniquenessWeight,
		BandMin:          DefaultBandMin,
		BandMax:          DefaultBandMax,
	}
}

// ScoredKeyword is one ranked scoring result. Rank positions form a
// contiguous sequence starting at 1, strictly increasing with
// non-increasing score; ties break by first occurrence in the text.
type ScoredKeyword struct { //nolint:govet
	Keyword    string  `json:"keyword"`
	Frequency  int     `json:"frequency"`
	Score      float64 `json:"score"`
	Rank       int     `json:"rank"`
	FirstIndex int     `json:"first_index"`
}

// Scorer ranks candidate keywords against a text using four weighted
// signals: frequency, first-occurrence position, token-length band, and
// uniqueness. Scoring is deterministic: identical inputs and weights yield
// identical ordered output.
type Scorer struct {
	cfg ScorerConfig
}

// NewScorer validates the configuration and constructs a scorer. Weights
// must sum to 1.0; a zero band falls back to the defaults.
func NewScorer(cfg ScorerConfig) (*Scorer, error) {
	sum := cfg.FrequencyWeight + cfg.PositionWeight + cfg.LengthWeight + cfg.UniquenessWeight
	if math.Abs(sum-1.0) > 1e-9 {
		return nil, fmt.Errorf("scorer weights must sum to 1.0, got %v", sum)
	}
	if cfg.FrequencyWeight < 0 || cfg.PositionWeight < 0 || cfg.LengthWeight < 0 || cfg.UniquenessWeight < 0 {
		return nil, fmt.Errorf("scorer weights must be non-negative")
	}
	if cfg.BandMin <= 0 {
		cfg.BandMin = DefaultBandMin
	}
	if cfg.BandMax < cfg.BandMin {
		cfg.BandMax = cfg.BandMin
	}
	return &Scorer{cfg: cfg}, nil
}

type candidateStat struct {
	keyword    string
	frequency  int
	firstIndex int
	score      float64
}

// Score ranks candidates against the text and returns at most maxResults
// scored keywords. Candidates with zero occurrences are excluded entirely;
// empty text, an empty candidate set, or maxResults <= 0 yield an empty
// result, never an error.
func (s *Scorer) Score(text string, candidates []string, maxResults int) []ScoredKeyword {
	if text == "" || len(candidates) == 0 || maxResults <= 0 {
		return nil
	}

	lower := strings.ToLower(text)

	// Dedupe case-insensitively, keeping first-seen spelling, and drop
	// candidates absent from the text.
	seen := make(map[string]bool, len(candidates))
	stats := make([]candidateStat, 0, len(candidates))
	totalFreq := 0
	maxFreq := 0
	for _, cand := range candidates {
		key := strings.ToLower(strings.TrimSpace(cand))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		freq := strings.Count(lower, key)
		if freq == 0 {
			continue
		}
		stats = append(stats, candidateStat{
			keyword:    key,
			frequency:  freq,
			firstIndex: strings.Index(lower, key),
		})
		totalFreq += freq
		if freq > maxFreq {
			maxFreq = freq
		}
	}
	if len(stats) == 0 {
		return nil
	}

	for i := range stats {
		st := &stats[i]

		freqSignal := float64(st.frequency) / float64(maxFreq)
		posSignal := 1.0 / (1.0 + float64(st.firstIndex))
		lenSignal := s.lengthSignal(len(strings.Fields(st.keyword)))
		uniqSignal := s.uniquenessSignal(st.keyword, st.frequency, totalFreq)

		st.score = s.cfg.FrequencyWeight*freqSignal +
			s.cfg.PositionWeight*posSignal +
			s.cfg.LengthWeight*lenSignal +
			s.cfg.UniquenessWeight*uniqSignal
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].score != stats[j].score {
			return stats[i].score > stats[j].score
		}
		return stats[i].firstIndex < stats[j].firstIndex
	})

	if len(stats) > maxResults {
		stats = stats[:maxResults]
	}

	out := make([]ScoredKeyword, len(stats))
	for i, st := range stats {
		out[i] = ScoredKeyword{
			Keyword:    st.keyword,
			Frequency:  st.frequency,
			Score:      st.score,
			Rank:       i + 1,
			FirstIndex: st.firstIndex,
		}
	}

	capitan.Emit(context.Background(), KeywordsScored,
		KeyCount.Field(len(out)))
	return out
}

// lengthSignal rewards keywords inside the configured token band and
// decays linearly outside it.
func (s *Scorer) lengthSignal(tokens int) float64 {
	switch {
	case tokens >= s.cfg.BandMin && tokens <= s.cfg.BandMax:
		return 1.0
	case tokens < s.cfg.BandMin:
		return float64(tokens) / float64(s.cfg.BandMin)
	default:
		return float64(s.cfg.BandMax) / float64(tokens)
	}
}

// uniquenessSignal favors rare keywords: inverse document frequency when a
// reference corpus is configured, otherwise the inverse of the keyword's
// share of all candidate occurrences.
func (s *Scorer) uniquenessSignal(keyword string, freq, totalFreq int) float64 {
	if s.cfg.Corpus != nil {
		df := s.cfg.Corpus[keyword]
		if df < 0 {
			df = 0
		} else if df > 1 {
			df = 1
		}
		return 1.0 - df
	}
	if totalFreq == 0 {
		return 0
	}
	return 1.0 - float64(freq)/float64(totalFreq)
}

var wordPattern = regexp.MustCompile(`[a-zA-Z]{3,}`)

// Stop words excluded from candidate extraction.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true,
	"not": true, "you": true, "all": true, "can": true, "had": true,
	"her": true, "was": true, "one": true, "our": true, "out": true,
	"has": true, "have": true, "been": true, "being": true, "this": true,
	"that": true, "these": true, "those": true, "with": true, "will": true,
	"would": true, "could": true, "should": true, "from": true, "they": true,
	"them": true, "then": true, "than": true, "were": true, "when": true,
	"what": true, "which": true, "while": true, "your": true, "into": true,
	"over": true, "also": true, "just": true, "more": true, "most": true,
	"much": true, "some": true, "such": true, "very": true, "here": true,
	"there": true, "about": true, "after": true, "before": true, "does": true,
	"doing": true, "only": true, "other": true, "their": true, "because": true,
}

// Candidates extracts candidate keywords from a text: stop-word-filtered
// words of three or more letters plus adjacent two-word phrases, deduped in
// first-seen order. The result feeds Score directly.
func Candidates(text string) []string {
	if text == "" {
		return nil
	}

	words := wordPattern.FindAllString(strings.ToLower(text), -1)
	seen := make(map[string]bool)
	var out []string

	add := func(cand string) {
		if !seen[cand] {
			seen[cand] = true
			out = append(out, cand)
		}
	}

	var prev string
	for _, word := range words {
		if stopWords[word] {
			prev = ""
			continue
		}
		add(word)
		if prev != "" {
			add(prev + " " + word)
		}
		prev = word
	}
	return out
}
