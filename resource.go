package loom

import "reflect"

// ResourceId identifies one registered resource type, in either the send
// or non-send id space — two distinct dense sequences, not a shared one,
// so a send resource and a non-send resource may carry the same numeric
// index without colliding.
type ResourceId struct {
	index   int
	nonSend bool
}

func (id ResourceId) Index() int { return id.index }

type resourceSlot struct {
	value any
	typ   reflect.Type
	marks ChangeMarks
	owner *WorldCell // set only for non-send resources
}

// resourceTable holds at most one instance of each resource type: values
// are stored boxed (as `any`, typically *T) rather than through the
// column-style erased storage components use, since a resource is a
// singleton with no structure-of-arrays benefit to gain.
//
// Send resources are freely accessible from any WorldCell. Non-send
// resources are bound to whichever WorldCell first registered them;
// accessing one from a different WorldCell returns
// ThreadAffinityViolationError — the practical equivalent of the
// original's origin-thread record, since Go exposes no public goroutine id
// to compare against. It's returned rather than panicked: ordinary
// multi-threaded use can legitimately race two goroutines onto the same
// non-send resource, and the caller needs a chance to handle that, not an
// aborted goroutine.
type resourceTable struct {
	send     []resourceSlot
	nonSend  []resourceSlot
	sendIds  map[reflect.Type]int
	localIds map[reflect.Type]int
}

func newResourceTable() *resourceTable {
	return &resourceTable{
		sendIds:  make(map[reflect.Type]int),
		localIds: make(map[reflect.Type]int),
	}
}

func (r *resourceTable) insert(tick ChangeMark, typ reflect.Type, value any) ResourceId {
	if i, ok := r.sendIds[typ]; ok {
		r.send[i].value = value
		r.send[i].marks.Updated = tick
		return ResourceId{index: i}
	}
	i := len(r.send)
	r.send = append(r.send, resourceSlot{
		value: value,
		typ:   typ,
		marks: ChangeMarks{Added: tick, Updated: tick},
	})
	r.sendIds[typ] = i
	return ResourceId{index: i}
}

func (r *resourceTable) insertLocal(owner *WorldCell, tick ChangeMark, typ reflect.Type, value any) (ResourceId, error) {
	if i, ok := r.localIds[typ]; ok {
		id := ResourceId{index: i, nonSend: true}
		if err := r.checkAffinity(r.nonSend[i], owner, id); err != nil {
			return ResourceId{}, err
		}
		r.nonSend[i].value = value
		r.nonSend[i].marks.Updated = tick
		return id, nil
	}
	i := len(r.nonSend)
	r.nonSend = append(r.nonSend, resourceSlot{
		value: value,
		typ:   typ,
		owner: owner,
		marks: ChangeMarks{Added: tick, Updated: tick},
	})
	r.localIds[typ] = i
	return ResourceId{index: i, nonSend: true}, nil
}

// checkAffinity returns ThreadAffinityViolationError if caller isn't the
// WorldCell that registered slot's non-send resource.
func (r *resourceTable) checkAffinity(slot resourceSlot, caller *WorldCell, id ResourceId) error {
	if slot.owner != caller {
		return ThreadAffinityViolationError{Resource: id}
	}
	return nil
}

func (r *resourceTable) slot(id ResourceId) *resourceSlot {
	if id.nonSend {
		return &r.nonSend[id.index]
	}
	return &r.send[id.index]
}

func (r *resourceTable) idFor(typ reflect.Type) (ResourceId, bool) {
	if i, ok := r.sendIds[typ]; ok {
		return ResourceId{index: i}, true
	}
	if i, ok := r.localIds[typ]; ok {
		return ResourceId{index: i, nonSend: true}, true
	}
	return ResourceId{}, false
}

// get returns the resource's boxed value, checking thread affinity for
// non-send resources.
func (r *resourceTable) get(id ResourceId, caller *WorldCell) (any, error) {
	slot := r.slot(id)
	if id.nonSend {
		if err := r.checkAffinity(*slot, caller, id); err != nil {
			return nil, err
		}
	}
	return slot.value, nil
}

// touch stamps a resource as updated as of tick, checking affinity first.
func (r *resourceTable) touch(id ResourceId, caller *WorldCell, tick ChangeMark) error {
	slot := r.slot(id)
	if id.nonSend {
		if err := r.checkAffinity(*slot, caller, id); err != nil {
			return err
		}
	}
	slot.marks.Updated = tick
	return nil
}

// remove takes a resource out of the table, leaving a cleared hole so any
// outstanding ResourceId for a *different* resource stays valid.
func (r *resourceTable) remove(typ reflect.Type) (any, bool) {
	if i, ok := r.sendIds[typ]; ok {
		v := r.send[i].value
		delete(r.sendIds, typ)
		r.send[i] = resourceSlot{}
		return v, true
	}
	if i, ok := r.localIds[typ]; ok {
		v := r.nonSend[i].value
		delete(r.localIds, typ)
		r.nonSend[i] = resourceSlot{}
		return v, true
	}
	return nil, false
}
