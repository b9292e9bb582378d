package docstore

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/meghashyamc/notefind/textproc"
)

// ID identifies a document. Ids come from a monotonically increasing
// sequence and are never reused.
type ID uint64

type ContentFormat int

const (
	FormatPlain ContentFormat = iota
	FormatMarkdown
	FormatHTML
)

var contentFormatNames = map[ContentFormat]string{
	FormatPlain:    "plain",
	FormatMarkdown: "markdown",
	FormatHTML:     "html",
}

func (f ContentFormat) String() string {
	if name, ok := contentFormatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("ContentFormat(%d)", int(f))
}

func ParseContentFormat(name string) (ContentFormat, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return FormatPlain, nil
	}
	for format, formatName := range contentFormatNames {
		if formatName == normalized {
			return format, nil
		}
	}
	return FormatPlain, fmt.Errorf("unknown content format %q", name)
}

func (f ContentFormat) MarshalText() ([]byte, error) {
	if _, ok := contentFormatNames[f]; !ok {
		return nil, fmt.Errorf("unknown content format %d", int(f))
	}
	return []byte(f.String()), nil
}

func (f *ContentFormat) UnmarshalText(text []byte) error {
	format, err := ParseContentFormat(string(text))
	if err != nil {
		return err
	}
	*f = format
	return nil
}

type Document struct {
	ID           ID            `json:"id"`
	Title        string        `json:"title"`
	Content      string        `json:"content"`
	Format       ContentFormat `json:"format"`
	CategoryID   *uint64       `json:"category_id,omitempty"`
	Tags         []string      `json:"tags"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	WordCount    int           `json:"word_count"`
	ChineseCount int           `json:"chinese_count"`
	EnglishCount int           `json:"english_count"`
}

// PlainText is the content the index, the statistics and the similarity
// engine work on. HTML is reduced to its text; other formats are already text.
func (d Document) PlainText() string {
	if d.Format == FormatHTML {
		return textproc.HTMLToText(d.Content)
	}
	return d.Content
}

func (d Document) HasTag(name string) bool {
	_, found := slices.BinarySearch(d.Tags, strings.TrimSpace(name))
	return found
}

// Draft holds the fields a caller controls when creating or updating a
// document. Everything else is assigned by the store.
type Draft struct {
	Title      string
	Content    string
	Format     ContentFormat
	CategoryID *uint64
	Tags       []string
}

// Commit is the outcome of a successful store write. Warning is non-nil when
// the write is durable but the full-text index could not be updated; it
// wraps errs.ErrIndexInconsistency and is resolved by a repair.
type Commit struct {
	Document Document
	Warning  error
}

// Predicate selects documents in List. A nil predicate selects everything.
type Predicate func(Document) bool

type HistoryEntry struct {
	Query      string    `json:"query"`
	SearchedAt time.Time `json:"searched_at"`
}

func normalizeTags(tags []string) []string {
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		normalized = append(normalized, tag)
	}
	slices.Sort(normalized)
	return slices.Compact(normalized)
}

func applyDerivedCounts(doc *Document) {
	plain := doc.PlainText()
	doc.WordCount = textproc.CountRunes(plain)
	doc.ChineseCount = textproc.CountChinese(plain)
	doc.EnglishCount = textproc.CountEnglishWords(plain)
}
