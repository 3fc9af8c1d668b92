// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package freeset

import "github.com/mindbergh/malloc/internal/offset"

// frame records a descent step so put/take can rewrite the parent's child
// link after finding (or creating) a node, without recursion — an
// iterative rewrite of what the original put/take/ceiling expressed
// recursively.
type frame struct {
	node  offset.Word
	right bool
}

func (s *Set) setChild(parent offset.Word, right bool, child offset.Word) {
	h := s.header(parent)
	if right {
		h.SetTreeRight(child)
	} else {
		h.SetTreeLeft(child)
	}
}

func (s *Set) newNode(addr offset.Word) offset.Word {
	h := s.header(addr)
	h.SetRingPrev(offset.Nil)
	h.SetRingNext(offset.Nil)
	h.SetTreeLeft(offset.Nil)
	h.SetTreeRight(offset.Nil)
	return addr
}

// put inserts addr (a same-size-keyed block) into the BST rooted at root,
// returning the (possibly unchanged) new root.
func (s *Set) put(addr, root offset.Word) offset.Word {
	if root.IsNil() {
		return s.newNode(addr)
	}

	sz := s.size(addr)
	var stack []frame
	cur := root

	for {
		curSz := s.size(cur)
		switch {
		case sz == curSz:
			newCanonical := s.ringInsert(cur, addr)
			if newCanonical == cur {
				return root
			}
			if len(stack) == 0 {
				return newCanonical
			}
			top := stack[len(stack)-1]
			s.setChild(top.node, top.right, newCanonical)
			return root
		case sz < curSz:
			left := s.header(cur).TreeLeft()
			if left.IsNil() {
				s.header(cur).SetTreeLeft(s.newNode(addr))
				return root
			}
			stack = append(stack, frame{cur, false})
			cur = left
		default:
			right := s.header(cur).TreeRight()
			if right.IsNil() {
				s.header(cur).SetTreeRight(s.newNode(addr))
				return root
			}
			stack = append(stack, frame{cur, true})
			cur = right
		}
	}
}

// take removes addr from the BST rooted at root, returning the new root.
func (s *Set) take(addr, root offset.Word) offset.Word {
	if root.IsNil() {
		return root
	}

	sz := s.size(addr)
	var stack []frame
	cur := root

	for s.size(cur) != sz {
		var next offset.Word
		if sz < s.size(cur) {
			stack = append(stack, frame{cur, false})
			next = s.header(cur).TreeLeft()
		} else {
			stack = append(stack, frame{cur, true})
			next = s.header(cur).TreeRight()
		}
		if next.IsNil() {
			// Not found: caller violated the Contains(addr) precondition.
			return root
		}
		cur = next
	}

	newCanon, wasCanonical, ringEmpty := s.ringDelete(addr)

	var replacement offset.Word
	switch {
	case !wasCanonical:
		replacement = cur
	case !ringEmpty:
		oldH, newH := s.header(cur), s.header(newCanon)
		newH.SetTreeLeft(oldH.TreeLeft())
		newH.SetTreeRight(oldH.TreeRight())
		replacement = newCanon
	default:
		replacement = s.deleteNode(cur)
	}

	if len(stack) == 0 {
		return replacement
	}
	top := stack[len(stack)-1]
	s.setChild(top.node, top.right, replacement)
	return root
}

// deleteNode performs standard BST node deletion of cur, which has an empty
// ring (the last block of its size class was just removed).
func (s *Set) deleteNode(cur offset.Word) offset.Word {
	h := s.header(cur)
	left, right := h.TreeLeft(), h.TreeRight()

	switch {
	case left.IsNil():
		return right
	case right.IsNil():
		return left
	}

	// In-order successor: leftmost node of the right subtree.
	var parents []offset.Word
	succ := right
	for {
		l := s.header(succ).TreeLeft()
		if l.IsNil() {
			break
		}
		parents = append(parents, succ)
		succ = l
	}

	succRight := s.header(succ).TreeRight()
	if len(parents) == 0 {
		s.header(succ).SetTreeLeft(left)
		s.header(succ).SetTreeRight(succRight)
		return succ
	}

	parent := parents[len(parents)-1]
	s.header(parent).SetTreeLeft(succRight)
	s.header(succ).SetTreeLeft(left)
	s.header(succ).SetTreeRight(right)
	return succ
}

// ceiling finds the node whose size is the smallest size >= words,
// iteratively tracking the best candidate seen on the way down.
func (s *Set) ceiling(words uint32, root offset.Word) offset.Word {
	best := offset.Nil
	cur := root
	for !cur.IsNil() {
		curSz := s.size(cur)
		switch {
		case words == curSz:
			return cur
		case words < curSz:
			best = cur
			cur = s.header(cur).TreeLeft()
		default:
			cur = s.header(cur).TreeRight()
		}
	}
	return best
}

// ringInsert splices addr into the address-ordered ring headed by
// canonical, returning the (possibly new) canonical address. Unlike the
// original mm-tree-sb.c's add(), which always prepends the new block
// regardless of address (an address-order invariant it never actually
// enforces), this keeps the ring genuinely address-ordered — the
// canonical entry is always the address-minimum, so no separate "find
// ring minimum" walk is ever needed.
func (s *Set) ringInsert(canonical, addr offset.Word) offset.Word {
	if addr < canonical {
		oldCanon := s.header(canonical)
		h := s.header(addr)
		h.SetRingPrev(offset.Nil)
		h.SetRingNext(canonical)
		h.SetTreeLeft(oldCanon.TreeLeft())
		h.SetTreeRight(oldCanon.TreeRight())
		oldCanon.SetRingPrev(addr)
		return addr
	}

	prev := canonical
	cur := s.header(canonical).RingNext()
	for !cur.IsNil() && cur < addr {
		prev = cur
		cur = s.header(cur).RingNext()
	}

	h := s.header(addr)
	h.SetRingPrev(prev)
	h.SetRingNext(cur)
	s.header(prev).SetRingNext(addr)
	if !cur.IsNil() {
		s.header(cur).SetRingPrev(addr)
	}
	return canonical
}

// ringDelete unlinks addr from its ring. If addr was the canonical
// (address-minimum) entry, wasCanonical is true and newCanon is its
// successor (Nil if the ring is now empty).
func (s *Set) ringDelete(addr offset.Word) (newCanon offset.Word, wasCanonical, ringEmpty bool) {
	h := s.header(addr)
	p, n := h.RingPrev(), h.RingNext()

	if !p.IsNil() {
		s.header(p).SetRingNext(n)
	}
	if !n.IsNil() {
		s.header(n).SetRingPrev(p)
	}

	if p.IsNil() {
		return n, true, n.IsNil()
	}
	return offset.Nil, false, false
}
