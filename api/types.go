// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared API-level type declarations and constants: pool kinds, event types
// and subtypes, free-list strategies.

package api

// PoolType enumerates the object kind a pool produces.
type PoolType int

const (
	PoolTypeInvalid PoolType = iota
	PoolBuffer
	PoolPacket
	PoolTimeout
)

func (t PoolType) String() string {
	switch t {
	case PoolBuffer:
		return "buffer"
	case PoolPacket:
		return "packet"
	case PoolTimeout:
		return "timeout"
	default:
		return "invalid"
	}
}

// EventType is the coarse classification of an event.
type EventType uint16

const (
	EventTypeInvalid EventType = iota
	EventBuffer
	EventPacket
	EventTimeout
)

func (t EventType) String() string {
	switch t {
	case EventBuffer:
		return "buffer"
	case EventPacket:
		return "packet"
	case EventTimeout:
		return "timeout"
	default:
		return "invalid"
	}
}

// EventSubtype refines EventType. Only packets have subtypes today; callers
// that only check EventType are unaffected by new values.
type EventSubtype uint16

const (
	SubtypeNone EventSubtype = iota
	SubtypePacketBasic
	SubtypePacketCrypto
	SubtypePacketIPsec
	SubtypePacketComp
)

func (s EventSubtype) String() string {
	switch s {
	case SubtypeNone:
		return "none"
	case SubtypePacketBasic:
		return "packet_basic"
	case SubtypePacketCrypto:
		return "packet_crypto"
	case SubtypePacketIPsec:
		return "packet_ipsec"
	case SubtypePacketComp:
		return "packet_comp"
	default:
		return "unknown"
	}
}

// EventTypeOf maps a pool kind to the event type of its objects.
func EventTypeOf(t PoolType) EventType {
	switch t {
	case PoolBuffer:
		return EventBuffer
	case PoolPacket:
		return EventPacket
	case PoolTimeout:
		return EventTimeout
	default:
		return EventTypeInvalid
	}
}

// FreeListKind selects the per-pool free-list implementation.
type FreeListKind int

const (
	// FreeListDefault defers to the manager default.
	FreeListDefault FreeListKind = iota
	// FreeListLockFree is a bounded MPMC ring with sequence numbers.
	FreeListLockFree
	// FreeListLocked is a FIFO guarded by a mutex.
	FreeListLocked
)

func (k FreeListKind) String() string {
	switch k {
	case FreeListLockFree:
		return "lockfree"
	case FreeListLocked:
		return "locked"
	case FreeListDefault:
		return "default"
	default:
		return "unknown"
	}
}

// ParseFreeListKind accepts the names produced by String.
func ParseFreeListKind(s string) (FreeListKind, bool) {
	switch s {
	case "", "default":
		return FreeListDefault, true
	case "lockfree":
		return FreeListLockFree, true
	case "locked":
		return FreeListLocked, true
	}
	return FreeListDefault, false
}
