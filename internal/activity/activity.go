// Package activity ranks documents by recent read/write behavior so the
// CLI can suggest what a user probably wants to open next, grounded in
// the bounded doc_events log (spec §6.2, and the original's
// service/activity.rs which this package otherwise mirrors closely).
package activity

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/lockbookgo/lbcore/internal/store"
	"github.com/lockbookgo/lbcore/internal/tree"
)

// suggestedCount bounds how many ids SuggestedDocs returns.
const suggestedCount = 10

// RankingWeights controls how temporality (recency) and io (read/write
// volume) trade off in a document's suggestion score.
type RankingWeights struct {
	Temporality int64
	IO          int64
}

// DefaultWeights matches the original implementation's tuning.
func DefaultWeights() RankingWeights {
	return RankingWeights{Temporality: 60, IO: 40}
}

type statRange struct {
	min, max int64
}

func (r statRange) normalize(v int64) float64 {
	span := r.max - r.min
	if span == 0 {
		span = 1
	}
	return float64(v-r.min) / float64(span)
}

type docMetrics struct {
	id         uuid.UUID
	lastRead   int64
	lastWrite  int64
	readCount  int64
	writeCount int64

	normLastRead   float64
	normLastWrite  float64
	normReadCount  float64
	normWriteCount float64
}

func (m docMetrics) score(w RankingWeights) int64 {
	temporality := (m.normLastRead + m.normLastWrite) * float64(w.Temporality)
	io := (m.normReadCount + m.normWriteCount) * float64(w.IO)
	return int64(math.Ceil(io + temporality))
}

// aggregate folds a flat event log into one metrics row per document id.
func aggregate(events []store.DocEvent) []docMetrics {
	byID := make(map[uuid.UUID]*docMetrics)

	for _, e := range events {
		m, ok := byID[e.ID]
		if !ok {
			m = &docMetrics{id: e.ID}
			byID[e.ID] = m
		}

		ts := e.At.UnixNano()
		switch e.Kind {
		case store.DocEventRead:
			m.readCount++
			if ts > m.lastRead {
				m.lastRead = ts
			}
		case store.DocEventWrite:
			m.writeCount++
			if ts > m.lastWrite {
				m.lastWrite = ts
			}
		}
	}

	out := make([]docMetrics, 0, len(byID))
	for _, m := range byID {
		out = append(out, *m)
	}

	// Deterministic ordering before scoring/truncation, independent of map
	// iteration order.
	sort.Slice(out, func(i, j int) bool { return out[i].id.String() < out[j].id.String() })

	return out
}

// normalize min-max normalizes each metric across the whole batch so
// documents with very different absolute counts are still comparable.
func normalize(docs []docMetrics) {
	var readR, writeR, lastReadR, lastWriteR statRange
	for i, d := range docs {
		if i == 0 {
			readR = statRange{d.readCount, d.readCount}
			writeR = statRange{d.writeCount, d.writeCount}
			lastReadR = statRange{d.lastRead, d.lastRead}
			lastWriteR = statRange{d.lastWrite, d.lastWrite}
			continue
		}
		readR.min, readR.max = minI64(readR.min, d.readCount), maxI64(readR.max, d.readCount)
		writeR.min, writeR.max = minI64(writeR.min, d.writeCount), maxI64(writeR.max, d.writeCount)
		lastReadR.min, lastReadR.max = minI64(lastReadR.min, d.lastRead), maxI64(lastReadR.max, d.lastRead)
		lastWriteR.min, lastWriteR.max = minI64(lastWriteR.min, d.lastWrite), maxI64(lastWriteR.max, d.lastWrite)
	}

	for i := range docs {
		docs[i].normReadCount = readR.normalize(docs[i].readCount)
		docs[i].normWriteCount = writeR.normalize(docs[i].writeCount)
		docs[i].normLastRead = lastReadR.normalize(docs[i].lastRead)
		docs[i].normLastWrite = lastWriteR.normalize(docs[i].lastWrite)
	}
}

func minI64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func maxI64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// SuggestedDocs ranks the account's doc_events log and returns up to 10
// live, non-pending-share document ids, highest score first.
func SuggestedDocs(events []store.DocEvent, lt *tree.LazyTree, ctx tree.AccessContext, weights RankingWeights) ([]uuid.UUID, error) {
	metrics := aggregate(events)
	normalize(metrics)

	sort.SliceStable(metrics, func(i, j int) bool {
		return metrics[i].score(weights) > metrics[j].score(weights)
	})

	var result []uuid.UUID
	for _, m := range metrics {
		if len(result) >= suggestedCount {
			break
		}

		if _, ok := lt.MaybeFind(m.id); !ok {
			continue
		}

		deleted, err := lt.CalculateDeleted(m.id)
		if err != nil {
			return nil, err
		}
		if deleted {
			continue
		}

		pending, err := lt.InPendingShare(m.id, ctx)
		if err != nil {
			return nil, err
		}
		if pending {
			continue
		}

		result = append(result, m.id)
	}

	return result, nil
}

// RecordRead logs a document open for activity ranking.
func RecordRead(s *store.Store, id uuid.UUID, at time.Time) error {
	return s.AddDocEvent(store.DocEventRead, id, at)
}

// RecordWrite logs a document mutation for activity ranking.
func RecordWrite(s *store.Store, id uuid.UUID, at time.Time) error {
	return s.AddDocEvent(store.DocEventWrite, id, at)
}

// ClearSuggested empties the whole activity log.
func ClearSuggested(s *store.Store) error {
	return s.ClearDocEvents()
}

// ClearSuggestedID removes a single document's entries from the activity
// log without disturbing the rest, e.g. once the user acts on a
// suggestion and no longer wants it resurfaced.
func ClearSuggestedID(s *store.Store, id uuid.UUID) error {
	return s.ClearDocEventsFor(id)
}
