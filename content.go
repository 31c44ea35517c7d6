package weir

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Kind discriminates the content variants flowing through the engine.
// The branching router switches on the kind only, never on field values.
type Kind string

// Content kinds. KindOther is reserved as the branching fallback key.
const (
	KindArticle      Kind = "article"
	KindTranscript   Kind = "transcript"
	KindReleaseNotes Kind = "release_notes"
	KindOther        Kind = "other"
)

// Article carries fields specific to written articles and blog posts.
type Article struct {
	Author   string   `json:"author,omitempty" yaml:"author,omitempty"`
	Tags     []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Category string   `json:"category,omitempty" yaml:"category,omitempty"`
}

// Transcript carries fields specific to spoken-word content.
type Transcript struct {
	Speakers []string `json:"speakers,omitempty" yaml:"speakers,omitempty"`
	Duration string   `json:"duration,omitempty" yaml:"duration,omitempty"`
	Medium   string   `json:"medium,omitempty" yaml:"medium,omitempty"` // podcast, video, meeting
}

// ReleaseNotes carries fields specific to software release notes.
type ReleaseNotes struct {
	Version  string   `json:"version,omitempty" yaml:"version,omitempty"`
	Changes  []string `json:"changes,omitempty" yaml:"changes,omitempty"`
	Features []string `json:"features,omitempty" yaml:"features,omitempty"`
	Fixes    []string `json:"fixes,omitempty" yaml:"fixes,omitempty"`
}

// Content is the unit traveling through a pipeline. The ID is non-empty and
// immutable for the life of the record; Kind is fixed at creation and
// determines which variant payload is populated. Records are created by an
// external source and are read-only to the engine.
type Content struct { //nolint:govet
	ID        string            `json:"id" yaml:"id"`
	Title     string            `json:"title,omitempty" yaml:"title,omitempty"`
	Body      string            `json:"body,omitempty" yaml:"body,omitempty"`
	Snippet   string            `json:"snippet,omitempty" yaml:"snippet,omitempty"`
	Meta      map[string]string `json:"meta,omitempty" yaml:"meta,omitempty"`
	CreatedAt time.Time         `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	SourceURL string            `json:"source_url,omitempty" yaml:"source_url,omitempty"`

	Kind         Kind          `json:"kind" yaml:"kind"`
	Article      *Article      `json:"article,omitempty" yaml:"article,omitempty"`
	Transcript   *Transcript   `json:"transcript,omitempty" yaml:"transcript,omitempty"`
	ReleaseNotes *ReleaseNotes `json:"release_notes,omitempty" yaml:"release_notes,omitempty"`
}

// Source supplies content records to a caller. The engine does not care
// whether the backing store is a filesystem, a network endpoint, or a
// database, only that records conform to the Content shape.
type Source interface {
	Fetch(ctx context.Context) ([]Content, error)
}

// Clone returns a deep copy of the record.
func (c Content) Clone() Content {
	out := c
	if c.Meta != nil {
		out.Meta = make(map[string]string, len(c.Meta))
		for k, v := range c.Meta {
			out.Meta[k] = v
		}
	}
	if c.Article != nil {
		a := *c.Article
		a.Tags = append([]string(nil), c.Article.Tags...)
		out.Article = &a
	}
	if c.Transcript != nil {
		t := *c.Transcript
		t.Speakers = append([]string(nil), c.Transcript.Speakers...)
		out.Transcript = &t
	}
	if c.ReleaseNotes != nil {
		r := *c.ReleaseNotes
		r.Changes = append([]string(nil), c.ReleaseNotes.Changes...)
		r.Features = append([]string(nil), c.ReleaseNotes.Features...)
		r.Fixes = append([]string(nil), c.ReleaseNotes.Fixes...)
		out.ReleaseNotes = &r
	}
	return out
}

// Text returns the title and body joined for analysis.
func (c Content) Text() string {
	if c.Title == "" {
		return c.Body
	}
	if c.Body == "" {
		return c.Title
	}
	return c.Title + " " + c.Body
}

// Validate runs the structural check every task performs before doing any
// work. Issues make the record unprocessable; warnings do not.
func (c Content) Validate() (issues, warnings []string) {
	if strings.TrimSpace(c.ID) == "" {
		issues = append(issues, "missing or empty id")
	}
	if strings.TrimSpace(c.Title) == "" && strings.TrimSpace(c.Body) == "" {
		issues = append(issues, "missing both title and body")
	}
	if strings.TrimSpace(c.Snippet) == "" {
		warnings = append(warnings, "missing snippet")
	}
	words := wordCount(c.Body)
	if words > 0 && words < 100 {
		warnings = append(warnings, "body is very short (less than 100 words)")
	} else if words > 5000 {
		warnings = append(warnings, "body is very long (more than 5000 words)")
	}
	return issues, warnings
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

// Normalize coerces a loosely-typed value into a Content record. Typed
// records pass through unchanged; map values go through ContentFromMap.
// Anything else cannot be normalized.
func Normalize(v any) (Content, error) {
	switch c := v.(type) {
	case Content:
		return c, nil
	case *Content:
		return *c, nil
	case map[string]any:
		return ContentFromMap(c)
	default:
		return Content{}, fmt.Errorf("content: cannot normalize %T", v)
	}
}

// ContentFromMap builds a Content record from a dictionary-like value,
// inferring the kind from discriminating fields when no explicit kind is
// given: speaker fields imply a transcript, version/change fields imply
// release notes, author/tag fields imply an article.
func ContentFromMap(m map[string]any) (Content, error) {
	id, err := stringField(m, "id")
	if err != nil {
		return Content{}, err
	}
	if strings.TrimSpace(id) == "" {
		return Content{}, fmt.Errorf("content: missing required field %q", "id")
	}

	c := Content{
		ID:        id,
		Title:     optString(m, "title"),
		Body:      optString(m, "body"),
		Snippet:   optString(m, "snippet"),
		SourceURL: optString(m, "source_url"),
		Meta:      optStringMap(m, "meta"),
	}
	if c.Body == "" {
		c.Body = optString(m, "content")
	}
	if ts, ok := m["created_at"]; ok {
		switch v := ts.(type) {
		case time.Time:
			c.CreatedAt = v
		case string:
			parsed, perr := time.Parse(time.RFC3339, v)
			if perr != nil {
				return Content{}, fmt.Errorf("content: invalid created_at %q: %w", v, perr)
			}
			c.CreatedAt = parsed
		default:
			return Content{}, fmt.Errorf("content: field %q must be a timestamp, got %T", "created_at", ts)
		}
	}

	switch {
	case optString(m, "kind") != "":
		c.Kind = Kind(optString(m, "kind"))
	case hasAny(m, "speakers", "duration", "medium", "transcript_type"):
		c.Kind = KindTranscript
	case hasAny(m, "version", "changes", "features", "fixes"):
		c.Kind = KindReleaseNotes
	case hasAny(m, "author", "tags", "category"):
		c.Kind = KindArticle
	default:
		c.Kind = KindOther
	}

	switch c.Kind {
	case KindTranscript:
		medium := optString(m, "medium")
		if medium == "" {
			medium = optString(m, "transcript_type")
		}
		c.Transcript = &Transcript{
			Speakers: optStringSlice(m, "speakers"),
			Duration: optString(m, "duration"),
			Medium:   medium,
		}
	case KindReleaseNotes:
		c.ReleaseNotes = &ReleaseNotes{
			Version:  optString(m, "version"),
			Changes:  optStringSlice(m, "changes"),
			Features: optStringSlice(m, "features"),
			Fixes:    optStringSlice(m, "fixes"),
		}
	case KindArticle:
		c.Article = &Article{
			Author:   optString(m, "author"),
			Tags:     optStringSlice(m, "tags"),
			Category: optString(m, "category"),
		}
	}

	return c, nil
}

func stringField(m map[string]any, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", fmt.Errorf("content: missing required field %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("content: field %q must be a string, got %T", key, v)
	}
	return s, nil
}

func optString(m map[string]any, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func optStringSlice(m map[string]any, key string) []string {
	v, ok := m[key]
	if !ok {
		return nil
	}
	switch vs := v.(type) {
	case []string:
		return append([]string(nil), vs...)
	case []any:
		out := make([]string, 0, len(vs))
		for _, item := range vs {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func optStringMap(m map[string]any, key string) map[string]string {
	v, ok := m[key]
	if !ok {
		return nil
	}
	switch vm := v.(type) {
	case map[string]string:
		out := make(map[string]string, len(vm))
		for k, s := range vm {
			out[k] = s
		}
		return out
	case map[string]any:
		out := make(map[string]string, len(vm))
		for k, item := range vm {
			if s, ok := item.(string); ok {
				out[k] = s
			}
		}
		return out
	}
	return nil
}

func hasAny(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}
