package flow

import (
	"issuebot/internal/types"
	"slices"
)

func (s *UnitTestSuite) TestPaginateTwelve() {
	items := make([]int, 12)
	for i := range items {
		items[i] = i
	}
	pages := Paginate(items, 5)
	s.Len(pages, 3)
	s.Len(pages[0], 5)
	s.Len(pages[1], 5)
	s.Len(pages[2], 2)
	s.Equal(items, slices.Concat(pages...))
	s.Equal([]int{5, 6, 7, 8, 9}, pages[1])
}

func (s *UnitTestSuite) TestPaginateEdges() {
	s.Empty(Paginate([]int{}, 5))
	s.Empty(Paginate[int](nil, 5))
	s.Equal([][]int{{1, 2, 3, 4, 5}}, Paginate([]int{1, 2, 3, 4, 5}, 5))
	s.Len(Paginate(make([]int, 6), 0), 2, "non-positive size falls back to PageSize")
}

func (s *UnitTestSuite) TestRenderIssuesRestartsNumbering() {
	all := issues("o/a", 7)
	pages := Paginate(all, types.PageSize)
	s.Equal(
		"1. o/a #6：https://github.com/o/a/issues/6\n2. o/a #7：https://github.com/o/a/issues/7",
		RenderIssues(pages[1]),
	)
	s.Equal("", RenderIssues(nil))
}

func (s *UnitTestSuite) TestRenderRepoList() {
	s.Equal(
		"The following repos is \n- [octo/one](https://github.com/octo/one)\n- [octo/two](https://github.com/octo/two)",
		RenderRepoList([]string{"octo/one", "octo/two"}),
	)
}
