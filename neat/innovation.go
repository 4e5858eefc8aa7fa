package neat

import "sort"

// innovationKey identifies the structural signature of a connection.
type innovationKey struct {
	SourceID int
	TargetID int
}

// innovationRecord remembers one allocated innovation together with the
// connection innovations the mutating brain held at the time.
type innovationRecord struct {
	Innovation int
	History    []int // sorted
}

// InnovationLedger is the per-run history of structural mutations. Two
// brains that make the same mutation from the same genetic starting point
// receive the same innovation number, which is what lets crossover and
// compatibility align genes. The ledger only grows. It is not safe for
// concurrent use; mutation happens on the single simulation driver.
type InnovationLedger struct {
	records map[innovationKey][]innovationRecord
	next    int
	count   int
}

// NewInnovationLedger creates an empty ledger. Innovation numbers start at 0.
func NewInnovationLedger() *InnovationLedger {
	return &InnovationLedger{
		records: make(map[innovationKey][]innovationRecord),
	}
}

// Len returns the number of recorded innovations.
func (l *InnovationLedger) Len() int {
	return l.count
}

// Lookup returns the innovation number for a source->target connection added
// to a brain whose current connections carry the given innovations. A
// recorded innovation is reused only when both the endpoints and the full
// connection history match; otherwise a new number is allocated and the
// history snapshot recorded.
func (l *InnovationLedger) Lookup(sourceID, targetID int, current []int) int {
	key := innovationKey{SourceID: sourceID, TargetID: targetID}
	history := sortedCopy(current)

	for _, rec := range l.records[key] {
		if equalInts(rec.History, history) {
			return rec.Innovation
		}
	}

	innovation := l.next
	l.next++
	l.count++
	l.records[key] = append(l.records[key], innovationRecord{
		Innovation: innovation,
		History:    history,
	})
	return innovation
}

func sortedCopy(values []int) []int {
	out := make([]int, len(values))
	copy(out, values)
	sort.Ints(out)
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
