package devserver

import (
	"slices"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/eventum-app/eventum/pkg/model"
)

// Search filters events by req and returns one page. Every requested tag
// must be on an event. A query matches title or description fuzzily,
// closest first; without a query events are ordered by date.
func Search(events []model.Event, req model.SearchRequest) []model.Event {
	matched := make([]model.Event, 0, len(events))
	for _, e := range events {
		if req.UID != 0 && e.UID != req.UID {
			continue
		}
		if hasTags(e, req.Tags) {
			matched = append(matched, e)
		}
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		slices.SortStableFunc(matched, func(a, b model.Event) int {
			return a.Date.Compare(b.Date)
		})
	} else {
		labels := make([]string, len(matched))
		for i, e := range matched {
			labels[i] = e.Title + " " + e.Description
		}
		ranks := fuzzy.RankFindNormalizedFold(query, labels)
		sort.Stable(ranks)
		ranked := make([]model.Event, len(ranks))
		for i, r := range ranks {
			ranked[i] = matched[r.OriginalIndex]
		}
		matched = ranked
	}

	start := (req.Page - 1) * req.Limit
	if start >= len(matched) {
		return []model.Event{}
	}
	end := min(start+req.Limit, len(matched))
	return matched[start:end]
}

func hasTags(e model.Event, tags []int64) bool {
	for _, t := range tags {
		if !slices.Contains(e.Tags, t) {
			return false
		}
	}
	return true
}
