package weir

import (
	"context"
	"strings"
)

// Step names of the built-in tasks.
const (
	StepDetectType        = "DetectType"
	StepExtractMetadata   = "ExtractMetadata"
	StepValidateStructure = "ValidateStructure"
	StepExtractKeywords   = "ExtractKeywords"
	StepScoreReadability  = "ScoreReadability"
)

// BuiltinTasks returns the tasks shipped with the engine: content-type
// detection, metadata extraction, structure validation, keyword extraction
// (backed by the scorer), and readability scoring. They cover the
// analysis stages every pipeline shares; generation stages are supplied by
// callers as external plugins.
func BuiltinTasks(scorer *Scorer) []TaskMeta {
	return []TaskMeta{
		{
			Task:        NewTask(StepDetectType, detectType),
			Description: "Detects the content kind for routing decisions",
			Tags:        []string{"analysis"},
		},
		{
			Task:        NewTask(StepExtractMetadata, extractMetadata),
			Description: "Extracts bookkeeping metadata from the content record",
			Tags:        []string{"analysis"},
		},
		{
			Task:        NewTask(StepValidateStructure, validateStructure),
			Description: "Validates the content record's structure before downstream work",
			Tags:        []string{"analysis", "validation"},
		},
		{
			Task:        NewTask(StepExtractKeywords, extractKeywordsTask(scorer)),
			Description: "Extracts and ranks relevance-scored keywords",
			Tags:        []string{"analysis", "keywords"},
		},
		{
			Task:        NewTask(StepScoreReadability, scoreReadability),
			Description: "Scores content readability on a 0-100 scale",
			Tags:        []string{"analysis"},
		},
	}
}

func detectType(_ context.Context, c Content, _ Input) (map[string]any, error) {
	return map[string]any{
		"kind":       string(c.Kind),
		"word_count": wordCount(c.Body),
	}, nil
}

func extractMetadata(_ context.Context, c Content, _ Input) (map[string]any, error) {
	data := map[string]any{
		"id":          c.ID,
		"kind":        string(c.Kind),
		"title":       c.Title,
		"word_count":  wordCount(c.Body),
		"has_snippet": c.Snippet != "",
		"has_meta":    len(c.Meta) > 0,
		"source_url":  c.SourceURL,
	}

	switch {
	case c.Transcript != nil:
		data["speakers"] = c.Transcript.Speakers
		data["duration"] = c.Transcript.Duration
		data["medium"] = c.Transcript.Medium
	case c.Article != nil:
		data["author"] = c.Article.Author
		data["tags"] = c.Article.Tags
		data["category"] = c.Article.Category
	case c.ReleaseNotes != nil:
		data["version"] = c.ReleaseNotes.Version
		data["changes_count"] = len(c.ReleaseNotes.Changes)
		data["features_count"] = len(c.ReleaseNotes.Features)
		data["fixes_count"] = len(c.ReleaseNotes.Fixes)
	}

	return data, nil
}

func validateStructure(_ context.Context, c Content, _ Input) (map[string]any, error) {
	// NewTask already rejected records with structural issues, so this
	// step reports warnings and completeness only.
	_, warnings := c.Validate()
	return map[string]any{
		"valid":        true,
		"warnings":     warnings,
		"completeness": completeness(c),
	}, nil
}

// completeness scores how fully a record is populated, 0-100.
func completeness(c Content) int {
	score := 0
	if c.Title != "" {
		score += 20
	}
	if c.Body != "" {
		score += 30
	}
	if c.Snippet != "" {
		score += 15
	}
	if len(c.Meta) > 0 {
		score += 15
	}
	if wordCount(c.Body) > 200 {
		score += 10
	}
	body := strings.ToLower(c.Body)
	if strings.Contains(body, "introduction") {
		score += 5
	}
	if strings.Contains(body, "conclusion") {
		score += 5
	}
	return score
}

func extractKeywordsTask(scorer *Scorer) TaskFunc {
	return func(_ context.Context, c Content, in Input) (map[string]any, error) {
		maxResults := 10
		if v, ok := in.Params["max_keywords"].(int); ok && v > 0 {
			maxResults = v
		}

		text := c.Text()
		candidates := Candidates(text)
		scored := scorer.Score(text, candidates, maxResults)

		return map[string]any{
			"keywords":         scored,
			"total_candidates": len(candidates),
		}, nil
	}
}

func scoreReadability(_ context.Context, c Content, _ Input) (map[string]any, error) {
	return map[string]any{
		"readability": readability(c.Body),
	}, nil
}

// readability computes a simplified Flesch reading-ease score, clamped to
// 0-100.
func readability(text string) float64 {
	if text == "" {
		return 0
	}

	words := strings.Fields(text)
	sentences := strings.Count(text, ".") + strings.Count(text, "!") + strings.Count(text, "?")
	if sentences == 0 || len(words) == 0 {
		return 0
	}

	totalSyllables := 0
	for _, w := range words {
		totalSyllables += syllables(w)
	}

	avgSentenceLen := float64(len(words)) / float64(sentences)
	avgSyllables := float64(totalSyllables) / float64(len(words))

	score := 206.835 - 1.015*avgSentenceLen - 84.6*avgSyllables
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func syllables(word string) int {
	word = strings.ToLower(strings.Trim(word, ".,!?"))
	if word == "" {
		return 0
	}

	count := 0
	prevVowel := false
	for _, r := range word {
		isVowel := strings.ContainsRune("aeiouy", r)
		if isVowel && !prevVowel {
			count++
		}
		prevVowel = isVowel
	}
	if strings.HasSuffix(word, "e") && count > 1 {
		count--
	}
	if count < 1 {
		return 1
	}
	return count
}
