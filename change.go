package loom

// ChangeMark is a single tick snapshot.
//
// Tick comparisons wrap around after 2^32 ticks without special handling —
// in a world that runs that long, marks stamped before the wrap compare as
// newer than snapshots taken after it, giving spurious "changed" results.
// This mirrors the upstream stance exactly rather than papering over it
// with a half-measure.
type ChangeMark struct {
	tick uint32
}

// NewerThan reports whether this mark was stamped after other.
func (m ChangeMark) NewerThan(other ChangeMark) bool { return m.tick > other.tick }

// ChangeMarks tracks when a piece of data was last inserted and last
// mutated, each as a ChangeMark. Added is always <= Updated.
type ChangeMarks struct {
	Added   ChangeMark
	Updated ChangeMark
}

// changeTick is the World's monotonic clock: Advance moves it forward, and a
// reader snapshots its value (via Tick) as "last seen" to answer
// is-added-since/is-updated-since queries.
type changeTick struct {
	current uint32
}

// Tick returns the current tick as a ChangeMark, suitable for stamping a
// newly-written or newly-inserted value.
func (c *changeTick) Tick() ChangeMark { return ChangeMark{tick: c.current} }

// Advance moves the world clock forward by one tick, as would happen
// between successive reads that want to distinguish what changed since the
// last one.
func (c *changeTick) Advance() { c.current++ }

// IsAddedSince reports whether marks.Added happened after last.
func (marks ChangeMarks) IsAddedSince(last ChangeMark) bool { return marks.Added.NewerThan(last) }

// IsUpdatedSince reports whether marks.Updated happened after last.
func (marks ChangeMarks) IsUpdatedSince(last ChangeMark) bool { return marks.Updated.NewerThan(last) }
