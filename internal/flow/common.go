package flow

import "time"

// Event names published on registry mutations.
const (
	EventRepoAdded    = "repo_added"
	EventRepoRemoved  = "repo_removed"
	EventReposCleared = "repos_cleared"
	EventTokenSet     = "token_set"
	EventTokenCleared = "token_cleared"
)

var timeNow = time.Now

func EpochTime() int64 {
	return timeNow().Unix()
}

func SetTimeNowFn(f func() time.Time) {
	timeNow = f
}

func RestoreTimeNow() {
	timeNow = time.Now
}
