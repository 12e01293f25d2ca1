package history

import (
	"sort"

	"github.com/masmgr/stemhistory/internal/vcs"
)

// AuthorStats tallies one contributor's revisions to a resource.
type AuthorStats struct {
	Author        string
	Revisions     int
	FirstRevision int
	LastRevision  int
}

// TallyAuthors counts revisions per author, most active first.
// Ties are broken by author name.
func TallyAuthors(revisions []vcs.RevisionInfo) []AuthorStats {
	byAuthor := make(map[string]*AuthorStats)
	for _, rev := range revisions {
		s, ok := byAuthor[rev.Author]
		if !ok {
			s = &AuthorStats{Author: rev.Author, FirstRevision: rev.Number, LastRevision: rev.Number}
			byAuthor[rev.Author] = s
		}
		s.Revisions++
		if rev.Number < s.FirstRevision {
			s.FirstRevision = rev.Number
		}
		if rev.Number > s.LastRevision {
			s.LastRevision = rev.Number
		}
	}

	result := make([]AuthorStats, 0, len(byAuthor))
	for _, s := range byAuthor {
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Revisions != result[j].Revisions {
			return result[i].Revisions > result[j].Revisions
		}
		return result[i].Author < result[j].Author
	})
	return result
}
