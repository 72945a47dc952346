// Package interval defines the tagged time-range value type shared by the
// detectors, the skip-section store and the transcript filter, along with the
// merge engine that reconciles heuristic detections with manual skips.
package interval

import "sort"

// Tag identifies how an interval was produced. The set is closed: the only
// behavioral difference between tags is manual precedence during a merge.
type Tag string

const (
	TagBlackFrame Tag = "black_frame"
	TagSilence    Tag = "silence"
	TagManual     Tag = "manual"
)

// Interval is a half-open time range [Start, End) in seconds of video time.
type Interval struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Tag        Tag     `json:"tag"`
	Confidence float64 `json:"confidence"`
	Note       string  `json:"note,omitempty"`
}

// Duration returns End-Start.
func (iv Interval) Duration() float64 {
	return iv.End - iv.Start
}

// Overlaps reports whether two ranges strictly overlap. Touching endpoints
// (end1 == start2) do not count as overlap.
func Overlaps(start1, end1, start2, end2 float64) bool {
	return start1 < end2 && end1 > start2
}

// Overlaps reports whether iv strictly overlaps other.
func (iv Interval) Overlaps(other Interval) bool {
	return Overlaps(iv.Start, iv.End, other.Start, other.End)
}

// Merge combines detected and manual intervals into one sorted,
// non-overlapping set. Strictly overlapping intervals are merged by extending
// the end; if either side of a merge is manual the result is manual with
// confidence 1.0, otherwise the earlier tag is kept and the confidence is the
// max of the two. Adjacent intervals stay separate. The result is
// deterministic and idempotent: re-merging the output changes nothing.
func Merge(detected, manual []Interval) []Interval {
	all := make([]Interval, 0, len(detected)+len(manual))
	all = append(all, detected...)
	all = append(all, manual...)
	if len(all) == 0 {
		return nil
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Start < all[j].Start
	})

	merged := []Interval{all[0]}
	for _, next := range all[1:] {
		last := &merged[len(merged)-1]

		if next.Start >= last.End {
			merged = append(merged, next)
			continue
		}

		if next.End > last.End {
			last.End = next.End
		}
		if last.Tag == TagManual || next.Tag == TagManual {
			last.Tag = TagManual
			last.Confidence = 1.0
		} else if next.Confidence > last.Confidence {
			last.Confidence = next.Confidence
		}
		last.Note = "merged overlapping sections"
	}

	return merged
}

// TotalDuration sums the durations of all intervals.
func TotalDuration(intervals []Interval) float64 {
	var total float64
	for _, iv := range intervals {
		total += iv.Duration()
	}
	return total
}
