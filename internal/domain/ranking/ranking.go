// Package ranking computes rank strings and percentiles and fills in
// placements the source left undecided.
package ranking

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/benjmor/tabroom-auto-summarize/internal/domain/model"
)

// TOCBids is always reported as a top achievement.
const TOCBids = model.SetTOCBids

// Percentile is 100 − 100×place/total. A non-positive total yields 0.
func Percentile(place float64, total int) float64 {
	if total <= 0 {
		return 0
	}
	return 100 - 100*place/float64(total)
}

// TruncatedPercentile is Percentile truncated toward zero.
func TruncatedPercentile(place, total int) float64 {
	return math.Trunc(Percentile(float64(place), total))
}

// InclusivePercentile is 100 − (rank−1)×100/total, giving first place 100.
func InclusivePercentile(rank, total int) float64 {
	if total <= 0 {
		return 0
	}
	return 100 - float64(rank-1)*100/float64(total)
}

// RankString renders "rank/total".
func RankString(rank, total int) string {
	return fmt.Sprintf("%d/%d", rank, total)
}

// RankStringOf renders a raw rank value against total.
func RankStringOf(rank string, total int) string {
	return rank + "/" + strconv.Itoa(total)
}

// RecordRanks ranks an already ordered list of records. Equal neighbours
// share a rank; the next distinct record takes its 1-based position.
func RecordRanks(records []string) []int {
	ranks := make([]int, len(records))
	for i, rec := range records {
		if i > 0 && rec == records[i-1] {
			ranks[i] = ranks[i-1]
			continue
		}
		ranks[i] = i + 1
	}
	return ranks
}

// Clamp keeps a percentile within [0,100].
func Clamp(p float64) float64 {
	switch {
	case math.IsNaN(p), p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

// Finalize runs the post-dispatch pass over one event's results: undecided
// shards are ranked, TOC bids are overridden and percentiles clamped.
func Finalize(results []model.Result) []model.Result {
	if anyUndecided(results) {
		results = RankUndecided(results)
	}
	for i := range results {
		r := &results[i]
		if r.ResultSet == TOCBids {
			r.Percentile = 100
			r.Rank = model.NotApplicable
		}
		r.Percentile = Clamp(r.Percentile)
	}
	return results
}

func anyUndecided(results []model.Result) bool {
	for i := range results {
		if isUndecided(&results[i]) {
			return true
		}
	}
	return false
}

func isUndecided(r *model.Result) bool {
	return !r.Place.IsNumber() && r.Place.String() == model.ToBeDecided
}

// RankUndecided groups results by result set in first-appearance order. A
// shard whose first row has a placement is returned untouched; otherwise the
// shard is ordered by round reached then wins, both descending, and ranked
// sequentially from 1.
func RankUndecided(results []model.Result) []model.Result {
	var order []string
	shards := map[string][]model.Result{}
	for _, r := range results {
		if _, ok := shards[r.ResultSet]; !ok {
			order = append(order, r.ResultSet)
		}
		shards[r.ResultSet] = append(shards[r.ResultSet], r)
	}

	out := make([]model.Result, 0, len(results))
	for _, label := range order {
		shard := shards[label]
		if !isUndecided(&shard[0]) {
			out = append(out, shard...)
			continue
		}
		sort.SliceStable(shard, func(i, j int) bool {
			ri, rj := roundsReached(&shard[i]), roundsReached(&shard[j])
			if ri != rj {
				return ri > rj
			}
			return shard[i].WinCount() > shard[j].WinCount()
		})
		n := len(shard)
		for i := range shard {
			place := i + 1
			shard[i].Rank = RankString(place, n)
			shard[i].Place = model.Int(place)
			shard[i].Percentile = TruncatedPercentile(place, n)
		}
		out = append(out, shard...)
	}
	return out
}

func roundsReached(r *model.Result) int {
	n, _ := r.RoundReached.Int()
	return n
}
