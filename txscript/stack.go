// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// asBool interprets a stack item as a boolean.  Any non-zero byte makes the
// item true, except that a sign bit alone in the final byte is negative zero
// and therefore false.
func asBool(item []byte) bool {
	last := len(item) - 1
	for i, b := range item {
		switch {
		case b == 0:
		case i == last && b == 0x80:
			return false
		default:
			return true
		}
	}
	return false
}

// fromBool returns the canonical stack encoding of a boolean.
func fromBool(v bool) []byte {
	if v {
		return []byte{1}
	}
	return nil
}

// stack is the LIFO item store used for both the data stack and the alternate
// stack.  Items are never mutated in place, so the same backing slice may
// appear more than once.
//
// Positions passed to the accessors are counted from the top, so 0 is the top
// item.
type stack struct {
	items [][]byte

	// minimalNums rejects non-minimally encoded numbers when items are
	// interpreted as integers.
	minimalNums bool
}

// underflow returns the error for an access that needs more items than the
// stack holds.
func (s *stack) underflow(op string, need int) error {
	str := fmt.Sprintf("%s needs %d stack items, but only %d are present",
		op, need, len(s.items))
	return scriptError(ErrInvalidStackOperation, str)
}

// badCount returns the error for a group operation with a non-positive count.
func badCount(op string, n int) error {
	str := fmt.Sprintf("%s requested with invalid count %d", op, n)
	return scriptError(ErrInvalidStackOperation, str)
}

// index converts a position from the top into a slice index.
func (s *stack) index(op string, pos int) (int, error) {
	if pos < 0 || pos >= len(s.items) {
		return 0, s.underflow(op, pos+1)
	}
	return len(s.items) - 1 - pos, nil
}

// depth returns the number of items on the stack.
func (s *stack) depth() int {
	return len(s.items)
}

// push places an item on top of the stack.
func (s *stack) push(item []byte) {
	s.items = append(s.items, item)
}

// pushNum pushes the minimal encoding of n.
func (s *stack) pushNum(n scriptNum) {
	s.push(n.Bytes())
}

// pushBool pushes [0x01] for true and the empty item for false.
func (s *stack) pushBool(v bool) {
	s.push(fromBool(v))
}

// peek returns the item at pos without removing it.
func (s *stack) peek(pos int) ([]byte, error) {
	i, err := s.index("peek", pos)
	if err != nil {
		return nil, err
	}
	return s.items[i], nil
}

// peekNum interprets the item at pos as a four byte script number.
func (s *stack) peekNum(pos int) (scriptNum, error) {
	item, err := s.peek(pos)
	if err != nil {
		return 0, err
	}
	return MakeScriptNum(item, s.minimalNums, defaultScriptNumLen)
}

// remove deletes the item at pos and returns it.
//
// Stack transformation: remove(1): [... x1 x2 x3] -> [... x1 x3]
func (s *stack) remove(pos int) ([]byte, error) {
	i, err := s.index("remove", pos)
	if err != nil {
		return nil, err
	}
	item := s.items[i]
	s.items = append(s.items[:i], s.items[i+1:]...)
	return item, nil
}

// pop removes and returns the top item.
func (s *stack) pop() ([]byte, error) {
	if len(s.items) == 0 {
		return nil, s.underflow("pop", 1)
	}
	top := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return top, nil
}

// popNum pops the top item and interprets it as a four byte script number.
func (s *stack) popNum() (scriptNum, error) {
	item, err := s.pop()
	if err != nil {
		return 0, err
	}
	return MakeScriptNum(item, s.minimalNums, defaultScriptNumLen)
}

// popBool pops the top item and interprets it as a boolean.
func (s *stack) popBool() (bool, error) {
	item, err := s.pop()
	if err != nil {
		return false, err
	}
	return asBool(item), nil
}

// drop discards the top n items.
//
// Stack transformation: drop(2): [... x1 x2 x3] -> [... x1]
func (s *stack) drop(n int) error {
	if n < 1 {
		return badCount("drop", n)
	}
	if n > len(s.items) {
		return s.underflow("drop", n)
	}
	s.items = s.items[:len(s.items)-n]
	return nil
}

// clear empties the stack.
func (s *stack) clear() {
	s.items = s.items[:0]
}

// copyGroup appends copies of the n items that start at pos, keeping their
// order.  It backs dup, over and pick.
func (s *stack) copyGroup(op string, pos, n int) error {
	if pos+n > len(s.items) {
		return s.underflow(op, pos+n)
	}
	start := len(s.items) - pos - n
	s.items = append(s.items, s.items[start:start+n]...)
	return nil
}

// dup duplicates the top n items.
//
// Stack transformation: dup(2): [... x1 x2] -> [... x1 x2 x1 x2]
func (s *stack) dup(n int) error {
	if n < 1 {
		return badCount("dup", n)
	}
	return s.copyGroup("dup", 0, n)
}

// over copies the n items below the top n items to the top.
//
// Stack transformation: over(1): [... x1 x2] -> [... x1 x2 x1]
func (s *stack) over(n int) error {
	if n < 1 {
		return badCount("over", n)
	}
	return s.copyGroup("over", n, n)
}

// pick copies the item at pos to the top.
//
// Stack transformation: pick(2): [x1 x2 x3] -> [x1 x2 x3 x1]
func (s *stack) pick(pos int) error {
	item, err := s.peek(pos)
	if err != nil {
		return err
	}
	s.push(item)
	return nil
}

// roll moves the item at pos to the top.
//
// Stack transformation: roll(2): [x1 x2 x3] -> [x2 x3 x1]
func (s *stack) roll(pos int) error {
	item, err := s.remove(pos)
	if err != nil {
		return err
	}
	s.push(item)
	return nil
}

// moveGroup moves the n items that start at pos to the top, keeping their
// order.  It backs rot and swap.
func (s *stack) moveGroup(op string, pos, n int) error {
	if pos+n > len(s.items) {
		return s.underflow(op, pos+n)
	}
	start := len(s.items) - pos - n
	group := make([][]byte, n)
	copy(group, s.items[start:start+n])
	s.items = append(s.items[:start], s.items[start+n:]...)
	s.items = append(s.items, group...)
	return nil
}

// rot moves the third group of n items from the top onto the top.
//
// Stack transformation: rot(1): [... x1 x2 x3] -> [... x2 x3 x1]
func (s *stack) rot(n int) error {
	if n < 1 {
		return badCount("rot", n)
	}
	return s.moveGroup("rot", 2*n, n)
}

// swap exchanges the top n items with the n items below them.
//
// Stack transformation: swap(2): [... x1 x2 x3 x4] -> [... x3 x4 x1 x2]
func (s *stack) swap(n int) error {
	if n < 1 {
		return badCount("swap", n)
	}
	return s.moveGroup("swap", n, n)
}

// tuck inserts a copy of the top item below the second item.
//
// Stack transformation: [... x1 x2] -> [... x2 x1 x2]
func (s *stack) tuck() error {
	if len(s.items) < 2 {
		return s.underflow("tuck", 2)
	}
	top := s.items[len(s.items)-1]
	s.items = append(s.items, top)
	n := len(s.items)
	s.items[n-2], s.items[n-3] = s.items[n-3], top
	return nil
}

// contents returns a copy of the items, bottom first.
func (s *stack) contents() [][]byte {
	out := make([][]byte, len(s.items))
	copy(out, s.items)
	return out
}

// replace sets the items, bottom first.
func (s *stack) replace(items [][]byte) {
	s.items = append(s.items[:0], items...)
}

// String returns a hex dump of every item, bottom first.
func (s *stack) String() string {
	var b strings.Builder
	for _, item := range s.items {
		b.WriteString(hex.Dump(item))
	}
	return b.String()
}
