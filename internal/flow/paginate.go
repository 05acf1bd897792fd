package flow

import (
	"fmt"
	"issuebot/internal/types"
	"strings"
)

// Paginate splits items into consecutive chunks of at most size elements.
// Chunk k holds items[k*size : (k+1)*size]. size <= 0 means types.PageSize.
func Paginate[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = types.PageSize
	}
	pages := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		pages = append(pages, items[start:end])
	}
	return pages
}

// RenderIssues renders one page as "n. title：url" lines, numbered from 1.
func RenderIssues(issues []types.Issue) string {
	lines := make([]string, 0, len(issues))
	for i, issue := range issues {
		lines = append(lines, fmt.Sprintf("%d. %s：%s", i+1, issue.Title, issue.HTMLURL))
	}
	return strings.Join(lines, "\n")
}

// RenderRepoList renders repos as a Markdown bullet list of GitHub links.
func RenderRepoList(repos []string) string {
	var b strings.Builder
	b.WriteString("The following repos is \n")
	for i, repo := range repos {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- [%s](https://github.com/%s)", repo, repo)
	}
	return b.String()
}
