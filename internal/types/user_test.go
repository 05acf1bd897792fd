package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidRepoPath(t *testing.T) {
	valid := []string{
		"octo/one",
		"yagop/node-telegram-bot-api",
		"  golang/go  ",
		"a/b",
		"my.org/repo_name",
	}
	for _, s := range valid {
		assert.True(t, ValidRepoPath(s), s)
	}

	invalid := []string{
		"",
		"   ",
		"octo",
		"/one",
		"octo/",
		"/",
		"octo/one/two",
		"a//b",
		"https://github.com/octo/one",
	}
	for _, s := range invalid {
		assert.False(t, ValidRepoPath(s), s)
	}
}

func TestUserRecordInValid(t *testing.T) {
	assert.True(t, NewUserRecord("42").InValid())
	assert.True(t, UserRecord{Repos: []string{"a/b"}}.InValid())
	assert.False(t, UserRecord{ID: "42", Repos: []string{"a/b"}}.InValid())
}

func TestUserRecordToken(t *testing.T) {
	u := NewUserRecord("1")
	assert.False(t, u.HasToken())
	assert.Equal(t, "", u.TokenValue())

	tok := "ghp_x"
	u.Token = &tok
	assert.True(t, u.HasToken())
	assert.Equal(t, "ghp_x", u.TokenValue())
}

func TestUpstreamError(t *testing.T) {
	err := &UpstreamError{StatusCode: 403, Message: "API rate limit exceeded"}
	assert.Equal(t, "API rate limit exceeded", err.Error())
	assert.True(t, errors.Is(err, ErrUpstream))

	err = &UpstreamError{StatusCode: 502}
	assert.Contains(t, err.Error(), "502")
}

func TestErrJoin(t *testing.T) {
	inner := errors.New("disk full")
	err := Err(ErrDataStoreAccess, inner, "write %s", "_config.json")
	assert.True(t, errors.Is(err, ErrDataStoreAccess))
	assert.True(t, errors.Is(err, inner))
	assert.Contains(t, err.Error(), "write _config.json")
}

func TestKeywordLength(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"x", 1},
		{"go", 2},
		{"内存", 2},
		{"内", 1},
		{"😀", 2},
		{"bug😀", 5},
		{"\xff", 1},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, KeywordLength(c.in), c.in)
	}
}
