package pagecache

import "unsafe"

// Unassigned marks a span that is not carved for any size class.
const Unassigned = -1

// Span is a contiguous run of operating-system pages. While free it sits in
// the page cache's free index; once handed out it belongs to the caller
// (typically the central cache, which carves it for one size class).
//
// Spans never overlap. Splitting preserves total byte coverage exactly.
type Span struct {
	base  unsafe.Pointer
	pages int
	class int
	next  *Span // free index linkage, nil while handed out
}

// Base returns the address of the span's first byte.
func (s *Span) Base() unsafe.Pointer { return s.base }

// Pages returns the span length in whole pages.
func (s *Span) Pages() int { return s.pages }

// Bytes returns the span length in bytes.
func (s *Span) Bytes() int { return s.pages * PageSize }

// Class returns the size class the span was carved for, or Unassigned.
func (s *Span) Class() int { return s.class }

// SetClass records the size class a span has been carved into.
func (s *Span) SetClass(class int) { s.class = class }

func (s *Span) start() uintptr { return uintptr(s.base) }

func (s *Span) end() uintptr { return uintptr(s.base) + uintptr(s.Bytes()) }
