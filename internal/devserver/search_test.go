package devserver

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/eventum-app/eventum/pkg/model"
)

func TestSearch(t *testing.T) {
	day := 24 * time.Hour
	events := []model.Event{
		{ID: 1, UID: 2, Title: "City marathon", Description: "Ten kilometres along the river.", Tags: []int64{3}, Date: seedTime.Add(14 * day)},
		{ID: 2, UID: 1, Title: "Jazz in the park", Description: "Open air jam session.", Tags: []int64{1, 2}, Date: seedTime.Add(3 * day)},
		{ID: 3, UID: 1, Title: "Board games evening", Description: "Catan and snacks.", Tags: []int64{5}, Date: seedTime.Add(day)},
		{ID: 4, UID: 2, Title: "Go meetup", Description: "Talks about concurrency.", Tags: []int64{4}, Date: seedTime.Add(7 * day)},
		{ID: 5, UID: 2, Title: "Street food tour", Description: "Five stalls in two hours.", Tags: []int64{5, 2}, Date: seedTime.Add(5 * day)},
	}

	tests := []struct {
		name string
		req  model.SearchRequest
		want []int64
	}{
		{name: "all by date", req: model.SearchRequest{Page: 1, Limit: 20}, want: []int64{3, 2, 5, 4, 1}},
		{name: "one tag", req: model.SearchRequest{Tags: []int64{5}, Page: 1, Limit: 20}, want: []int64{3, 5}},
		{name: "every tag required", req: model.SearchRequest{Tags: []int64{5, 2}, Page: 1, Limit: 20}, want: []int64{5}},
		{name: "query", req: model.SearchRequest{Query: "  JAZZ ", Page: 1, Limit: 20}, want: []int64{2}},
		{name: "query and tag", req: model.SearchRequest{Query: "jazz", Tags: []int64{5}, Page: 1, Limit: 20}, want: []int64{}},
		{name: "owner", req: model.SearchRequest{UID: 1, Page: 1, Limit: 20}, want: []int64{3, 2}},
		{name: "second page", req: model.SearchRequest{Page: 2, Limit: 2}, want: []int64{5, 4}},
		{name: "past the end", req: model.SearchRequest{Page: 4, Limit: 2}, want: []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := []int64{}
			for _, e := range Search(events, tt.req) {
				got = append(got, e.ID)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Search (-want +got):\n%s", diff)
			}
		})
	}
}
