package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/lorekeep/canon/internal/domain"
)

// DefaultSegmentWidth is the drift-segmentation bucket width: weekly.
const DefaultSegmentWidth = 7 * 24 * time.Hour

// segment is one fixed-width time bucket of a fact slot's history.
type segment struct {
	start   time.Time
	label   string
	records []domain.EvidenceRecord
}

// segmentHistory buckets an ordered history into fixed-width segments and
// returns them oldest first. Empty buckets between observations are not
// materialized.
func segmentHistory(history []domain.EvidenceRecord, width time.Duration) []segment {
	buckets := make(map[int64][]domain.EvidenceRecord)
	for _, rec := range history {
		buckets[bucketIndex(rec.Timestamp, width)] = append(buckets[bucketIndex(rec.Timestamp, width)], rec)
	}

	indexes := make([]int64, 0, len(buckets))
	for idx := range buckets {
		indexes = append(indexes, idx)
	}
	sort.Slice(indexes, func(i, j int) bool { return indexes[i] < indexes[j] })

	segments := make([]segment, 0, len(indexes))
	for _, idx := range indexes {
		start := time.Unix(0, idx*width.Nanoseconds()).UTC()
		segments = append(segments, segment{
			start:   start,
			label:   segmentLabel(start, width),
			records: buckets[idx],
		})
	}
	return segments
}

func bucketIndex(ts time.Time, width time.Duration) int64 {
	ns := ts.UnixNano()
	w := width.Nanoseconds()
	idx := ns / w
	if ns < 0 && ns%w != 0 {
		idx--
	}
	return idx
}

// segmentLabel renders a human-readable bucket label: ISO week for the
// weekly default, bucket start date otherwise.
func segmentLabel(start time.Time, width time.Duration) string {
	if width == DefaultSegmentWidth {
		year, week := start.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	}
	return start.Format("2006-01-02")
}

// canonicalPerSegment resolves the winning record within each segment.
func canonicalPerSegment(segments []segment, band float64) []domain.EvidenceRecord {
	winners := make([]domain.EvidenceRecord, 0, len(segments))
	for _, seg := range segments {
		winner, ok := resolveCanonical(seg.records, band)
		if !ok {
			continue
		}
		winners = append(winners, winner)
	}
	return winners
}

// sortedKeys returns history keys in deterministic order.
func sortedKeys(histories map[domain.FactKey][]domain.EvidenceRecord) []domain.FactKey {
	keys := make([]domain.FactKey, 0, len(histories))
	for key := range histories {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Subject != keys[j].Subject {
			return keys[i].Subject < keys[j].Subject
		}
		return keys[i].Attribute < keys[j].Attribute
	})
	return keys
}
