package erased

import (
	"reflect"
	"unsafe"
)

// DropFn destroys the value at addr in place. It never frees addr itself;
// the owning container is responsible for the backing memory.
type DropFn func(addr unsafe.Pointer)

// Layout is the size and alignment of an erased value.
type Layout struct {
	Size  uintptr
	Align uintptr
}

// LayoutOf derives a Layout from a reflect.Type.
func LayoutOf(t reflect.Type) Layout {
	return Layout{Size: t.Size(), Align: uintptr(t.Align())}
}

func bytesAt(addr unsafe.Pointer, size uintptr) []byte {
	if size == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(addr), size)
}

// Ptr is a shared, read-only borrow of an erased value.
type Ptr struct {
	addr   unsafe.Pointer
	layout Layout
}

// NewPtr wraps addr as a shared borrow of a value with the given layout.
func NewPtr(addr unsafe.Pointer, layout Layout) Ptr { return Ptr{addr, layout} }

func (p Ptr) Addr() unsafe.Pointer { return p.addr }
func (p Ptr) Layout() Layout       { return p.layout }

// ByteOffset returns a Ptr n bytes past this one, same layout.
func (p Ptr) ByteOffset(n uintptr) Ptr { return Ptr{unsafe.Add(p.addr, n), p.layout} }

// Bytes returns the raw bytes of the pointee, valid only while the pointee
// is alive.
func (p Ptr) Bytes() []byte { return bytesAt(p.addr, p.layout.Size) }

// MutPtr is an exclusive, in-place borrow of an erased value.
type MutPtr struct {
	addr   unsafe.Pointer
	layout Layout
}

// NewMutPtr wraps addr as a mutable borrow of a value with the given layout.
func NewMutPtr(addr unsafe.Pointer, layout Layout) MutPtr { return MutPtr{addr, layout} }

func (p MutPtr) Addr() unsafe.Pointer { return p.addr }
func (p MutPtr) Layout() Layout       { return p.layout }
func (p MutPtr) Borrow() Ptr          { return Ptr{p.addr, p.layout} }

func (p MutPtr) ByteOffset(n uintptr) MutPtr { return MutPtr{unsafe.Add(p.addr, n), p.layout} }

func (p MutPtr) Bytes() []byte { return bytesAt(p.addr, p.layout.Size) }

// Own converts this borrow into an owning pointer over the same bytes,
// without copying. Used when a slot is being decommissioned (e.g. a
// swap-remove) and its contents are handed to the caller in place.
func (p MutPtr) Own(dropper DropFn) OwnedPtr {
	return OwnedPtr{addr: p.addr, layout: p.layout, dropper: dropper}
}

// Write overwrites the pointee with src's bytes, consuming src, and returns
// the overwritten slot's previous contents copied into an owning pointer
// backed by a fresh allocation (the caller must Drop or MoveTo it exactly
// once).
func (p MutPtr) Write(src OwnedPtr) OwnedPtr {
	prev := make([]byte, p.layout.Size)
	copy(prev, p.Bytes())
	copy(p.Bytes(), bytesAt(src.Take(), p.layout.Size))

	var addr unsafe.Pointer
	if len(prev) > 0 {
		addr = unsafe.Pointer(&prev[0])
	}
	return OwnedPtr{addr: addr, layout: p.layout, dropper: nil}
}

// OwnedPtr is an owning handle to an erased value. It must be consumed
// exactly once: Take (move the bytes out without running a destructor),
// Drop (run the destructor), or MoveTo (copy into another slot).
type OwnedPtr struct {
	addr    unsafe.Pointer
	layout  Layout
	dropper DropFn
}

// NewOwned wraps addr as an owning pointer over a value with the given
// layout and optional destructor.
func NewOwned(addr unsafe.Pointer, layout Layout, dropper DropFn) OwnedPtr {
	return OwnedPtr{addr: addr, layout: layout, dropper: dropper}
}

func (p OwnedPtr) Layout() Layout { return p.layout }

// Take consumes the owned pointer and returns its address. The caller now
// owns those bytes and must move or drop them exactly once.
func (p OwnedPtr) Take() unsafe.Pointer { return p.addr }

// Borrow returns a read-only view without consuming the owned pointer.
func (p OwnedPtr) Borrow() Ptr { return Ptr{p.addr, p.layout} }

// Drop runs the value's destructor, if any, consuming the owned pointer.
func (p OwnedPtr) Drop() {
	if p.dropper != nil {
		p.dropper(p.addr)
	}
}

// DropWith runs an explicit destructor instead of the one the pointer was
// constructed with, consuming the owned pointer.
func (p OwnedPtr) DropWith(dropper DropFn) {
	if dropper != nil {
		dropper(p.addr)
	}
}

// MoveTo copies the owned bytes into dst without running a destructor;
// ownership transfers to dst.
func (p OwnedPtr) MoveTo(dst MutPtr) {
	copy(dst.Bytes(), bytesAt(p.addr, p.layout.Size))
}
