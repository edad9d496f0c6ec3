/*
Package erased provides type-erased, fixed-layout storage primitives: a
pointer discipline over unsafe.Pointer (Ptr/MutPtr/OwnedPtr), a growable
erased buffer (Vec), and a sparse set built on top of it (SparseSet).

None of these types know the Go type of the values they store — callers
supply a Layout (size/align) and, where destruction matters, a DropFn.
Ownership is a convention enforced by naming and by the caller, not by the
compiler: an OwnedPtr must be consumed exactly once, by Take, Drop, or
MoveTo.
*/
package erased
