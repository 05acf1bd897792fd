package types

import (
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode/utf16"
)

const (
	// PageSize is the number of issues rendered into one chat message.
	PageSize = 5
	// MinKeywordLength is counted by KeywordLength.
	MinKeywordLength = 2

	DefaultPromptTTL = 10 * time.Minute
)

var repoPathRe = regexp.MustCompile(`^[^/]+/[^/]+$`)

// UserRecord is the per-user state: the registered repositories and an optional
// GitHub access token. It is keyed by the stringified chat user id.
// Repos is kept duplicate-free and in insertion order.
// A nil Token means searches go out unauthenticated.
type UserRecord struct {
	ID    string   `json:"-" yaml:"id" dynamodbav:"user_id"`
	Repos []string `json:"repos" yaml:"repos" dynamodbav:"repos"`
	Token *string  `json:"token" yaml:"token,omitempty" dynamodbav:"token"`
}

// NewUserRecord returns the default record used when nothing is stored yet.
func NewUserRecord(id string) UserRecord {
	return UserRecord{ID: id, Repos: []string{}}
}

// InValid reports whether a search must not be attempted for this record.
func (u UserRecord) InValid() bool {
	return u.ID == "" || len(u.Repos) == 0
}

func (u UserRecord) HasRepo(repo string) bool {
	return slices.Contains(u.Repos, repo)
}

func (u UserRecord) HasToken() bool {
	return u.Token != nil && *u.Token != ""
}

// TokenValue returns the token or "" when none is set.
func (u UserRecord) TokenValue() string {
	if u.Token == nil {
		return ""
	}
	return *u.Token
}

// Issue is the subset of an upstream search hit the bot consumes.
type Issue struct {
	Title   string `json:"title"`
	HTMLURL string `json:"html_url"`
}

// ValidRepoPath accepts "owner/name": exactly one slash, both segments non-empty.
// Surrounding whitespace is ignored.
func ValidRepoPath(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	return repoPathRe.MatchString(s)
}

// KeywordLength counts UTF-16 code units, the unit chat clients use for
// text length. A character outside the Basic Multilingual Plane counts as 2.
func KeywordLength(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}
