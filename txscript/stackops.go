// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"
	"crypto/sha1"
	"crypto/sha256"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"golang.org/x/crypto/ripemd160"
)

// stackOp adapts a group operation of the data stack into an opcode handler.
func stackOp(fn func(*stack, int) error, n int) opFunc {
	return func(op *opcode, data []byte, vm *Engine) error {
		return fn(&vm.dstack, n)
	}
}

func opcodeToAltStack(op *opcode, data []byte, vm *Engine) error {
	item, err := vm.dstack.pop()
	if err != nil {
		return err
	}
	vm.astack.push(item)
	return nil
}

func opcodeFromAltStack(op *opcode, data []byte, vm *Engine) error {
	item, err := vm.astack.pop()
	if err != nil {
		return scriptError(ErrInvalidAltStackOperation,
			"OP_FROMALTSTACK with an empty alternate stack")
	}
	vm.dstack.push(item)
	return nil
}

// opcodeIfDup duplicates the top item when it is true.
func opcodeIfDup(op *opcode, data []byte, vm *Engine) error {
	top, err := vm.dstack.peek(0)
	if err != nil {
		return err
	}
	if asBool(top) {
		vm.dstack.push(top)
	}
	return nil
}

func opcodeDepth(op *opcode, data []byte, vm *Engine) error {
	vm.dstack.pushNum(scriptNum(vm.dstack.depth()))
	return nil
}

// opcodeNip removes the second item.
func opcodeNip(op *opcode, data []byte, vm *Engine) error {
	_, err := vm.dstack.remove(1)
	return err
}

func opcodeTuck(op *opcode, data []byte, vm *Engine) error {
	return vm.dstack.tuck()
}

// opcodePick copies the item n below the top to the top, where n is popped
// first.
func opcodePick(op *opcode, data []byte, vm *Engine) error {
	n, err := vm.dstack.popNum()
	if err != nil {
		return err
	}
	return vm.dstack.pick(int(n.Int32()))
}

// opcodeRoll is opcodePick but moves the item instead of copying it.
func opcodeRoll(op *opcode, data []byte, vm *Engine) error {
	n, err := vm.dstack.popNum()
	if err != nil {
		return err
	}
	return vm.dstack.roll(int(n.Int32()))
}

// opcodeSize pushes the byte length of the top item without removing it.
func opcodeSize(op *opcode, data []byte, vm *Engine) error {
	top, err := vm.dstack.peek(0)
	if err != nil {
		return err
	}
	vm.dstack.pushNum(scriptNum(len(top)))
	return nil
}

// opcodeEqual replaces the top two items with whether they are byte-equal.
func opcodeEqual(op *opcode, data []byte, vm *Engine) error {
	a, err := vm.dstack.pop()
	if err != nil {
		return err
	}
	b, err := vm.dstack.pop()
	if err != nil {
		return err
	}
	vm.dstack.pushBool(bytes.Equal(a, b))
	return nil
}

// boolNum converts a comparison result into the numbers 1 and 0.
func boolNum(v bool) scriptNum {
	if v {
		return 1
	}
	return 0
}

func absNum(a scriptNum) scriptNum {
	if a < 0 {
		return -a
	}
	return a
}

func minNum(a, b scriptNum) scriptNum {
	if a < b {
		return a
	}
	return b
}

func maxNum(a, b scriptNum) scriptNum {
	if a > b {
		return a
	}
	return b
}

func numEqual(a, b scriptNum) scriptNum {
	return boolNum(a == b)
}

// unaryNum builds a handler that replaces the top number with fn of it.
func unaryNum(fn func(a scriptNum) scriptNum) opFunc {
	return func(op *opcode, data []byte, vm *Engine) error {
		a, err := vm.dstack.popNum()
		if err != nil {
			return err
		}
		vm.dstack.pushNum(fn(a))
		return nil
	}
}

// binaryNum builds a handler that replaces the top two numbers with fn of
// them.  a is the deeper operand and b the top one.
func binaryNum(fn func(a, b scriptNum) scriptNum) opFunc {
	return func(op *opcode, data []byte, vm *Engine) error {
		b, err := vm.dstack.popNum()
		if err != nil {
			return err
		}
		a, err := vm.dstack.popNum()
		if err != nil {
			return err
		}
		vm.dstack.pushNum(fn(a, b))
		return nil
	}
}

// opcodeWithin pushes whether x is in the half-open range [min, max).
//
// Stack transformation: [... x min max] -> [... bool]
func opcodeWithin(op *opcode, data []byte, vm *Engine) error {
	var nums [3]scriptNum
	for i := len(nums) - 1; i >= 0; i-- {
		n, err := vm.dstack.popNum()
		if err != nil {
			return err
		}
		nums[i] = n
	}
	x, lo, hi := nums[0], nums[1], nums[2]
	vm.dstack.pushBool(lo <= x && x < hi)
	return nil
}

func ripemd160Sum(b []byte) []byte {
	h := ripemd160.New()
	h.Write(b)
	return h.Sum(nil)
}

func sha1Sum(b []byte) []byte {
	sum := sha1.Sum(b)
	return sum[:]
}

func sha256Sum(b []byte) []byte {
	sum := sha256.Sum256(b)
	return sum[:]
}

func hash160(b []byte) []byte {
	return btcutil.Hash160(b)
}

func hash256(b []byte) []byte {
	return chainhash.DoubleHashB(b)
}

// hashOp builds a handler that replaces the top item with its digest.
func hashOp(sum func([]byte) []byte) opFunc {
	return func(op *opcode, data []byte, vm *Engine) error {
		item, err := vm.dstack.pop()
		if err != nil {
			return err
		}
		vm.dstack.push(sum(item))
		return nil
	}
}
