package search

import (
	"fmt"
	"strings"
	"time"
)

type Mode int

const (
	ModeNormal Mode = iota
	ModeAdvanced
)

var modeNames = map[Mode]string{
	ModeNormal:   "normal",
	ModeAdvanced: "advanced",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

func (m Mode) IsValid() bool {
	_, ok := modeNames[m]
	return ok
}

// ParseMode accepts a mode name case-insensitively; empty means ModeNormal.
func ParseMode(name string) (Mode, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ModeNormal, nil
	}
	for mode, modeName := range modeNames {
		if modeName == name {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("unknown search mode %q", name)
}

type TextMatch int

const (
	MatchSubstring TextMatch = iota
	MatchExact
	MatchFullText
)

var textMatchNames = map[TextMatch]string{
	MatchSubstring: "substring",
	MatchExact:     "exact",
	MatchFullText:  "fulltext",
}

func (m TextMatch) String() string {
	if name, ok := textMatchNames[m]; ok {
		return name
	}
	return fmt.Sprintf("TextMatch(%d)", int(m))
}

func (m TextMatch) IsValid() bool {
	_, ok := textMatchNames[m]
	return ok
}

// ParseTextMatch accepts a text match name case-insensitively; empty means
// MatchSubstring.
func ParseTextMatch(name string) (TextMatch, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return MatchSubstring, nil
	}
	for match, matchName := range textMatchNames {
		if matchName == name {
			return match, nil
		}
	}
	return 0, fmt.Errorf("unknown text match %q", name)
}

// Filter narrows a search. It is built once with NewFilter and never
// modified afterwards.
type Filter struct {
	categoryID   *uint64
	tag          string
	from         time.Time
	to           time.Time
	wordCountMin int
	wordCountMax int
	mode         Mode
	textMatch    TextMatch
}

type FilterOption func(*Filter)

func NewFilter(opts ...FilterOption) Filter {
	var f Filter
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

func WithCategory(id uint64) FilterOption {
	return func(f *Filter) { f.categoryID = &id }
}

func WithTag(name string) FilterOption {
	return func(f *Filter) { f.tag = strings.TrimSpace(name) }
}

// WithDateRange bounds UpdatedAt in advanced mode. The to date includes its
// whole day; a zero time leaves that side open.
func WithDateRange(from time.Time, to time.Time) FilterOption {
	return func(f *Filter) {
		f.from = from
		f.to = to
	}
}

// WithWordCountRange bounds WordCount in advanced mode. It only applies when
// maxWords is positive.
func WithWordCountRange(minWords int, maxWords int) FilterOption {
	return func(f *Filter) {
		f.wordCountMin = minWords
		f.wordCountMax = maxWords
	}
}

func WithMode(mode Mode) FilterOption {
	return func(f *Filter) { f.mode = mode }
}

func WithTextMatch(match TextMatch) FilterOption {
	return func(f *Filter) { f.textMatch = match }
}

func (f Filter) Mode() Mode { return f.mode }

func (f Filter) TextMatch() TextMatch { return f.textMatch }

// CategoryID returns the category facet, if any.
func (f Filter) CategoryID() (uint64, bool) {
	if f.categoryID == nil {
		return 0, false
	}
	return *f.categoryID, true
}

func (f Filter) Tag() string { return f.tag }
