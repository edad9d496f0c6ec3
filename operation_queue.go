package loom

// structuralOp is a deferred structural mutation: a Spawn, Insert, Remove
// or Despawn captured as a closure while a WorldCell view was outstanding.
// This generalizes the original's per-kind operation structs
// (NewEntityOperation, DestroyEntityOperation, AddComponentOperation, ...)
// into one closure shape, since Go closures already capture exactly the
// per-call state those structs existed to hold.
type structuralOp func() error

// structuralQueue holds structural operations deferred while the owning
// World was locked, in the order they were issued.
type structuralQueue struct {
	ops []structuralOp
}

func (q *structuralQueue) enqueue(op structuralOp) {
	q.ops = append(q.ops, op)
}

// flush applies every queued operation in order and clears the queue. An
// operation's error return is discarded: by the time it runs here, the
// caller that issued it has long since moved on and has no way left to
// observe it — the same "keep queued, don't surface the error up" stance
// ProcessAll took while storage was locked.
func (q *structuralQueue) flush() {
	ops := q.ops
	q.ops = nil
	for _, op := range ops {
		_ = op()
	}
}
