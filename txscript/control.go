// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/wire"
)

// condState is the execution state of one open OP_IF or OP_NOTIF block.
type condState uint8

const (
	// condFalse is a block whose current branch is not taken.
	condFalse condState = iota

	// condTrue is a block whose current branch executes.
	condTrue

	// condSkip is a block nested inside a branch that is not taken.  OP_ELSE
	// leaves it untouched.
	condSkip
)

// condStack tracks the open conditional blocks, innermost last.
type condStack []condState

// executing reports whether opcodes at the current position run.
func (c condStack) executing() bool {
	return len(c) == 0 || c[len(c)-1] == condTrue
}

// open starts a new block.
func (c *condStack) open(state condState) {
	*c = append(*c, state)
}

func unbalanced(op *opcode) error {
	str := fmt.Sprintf("encountered opcode %s with no matching opcode to "+
		"begin conditional execution", op.name)
	return scriptError(ErrUnbalancedConditional, str)
}

// flip switches the innermost block to its other branch.
func (c condStack) flip(op *opcode) error {
	if len(c) == 0 {
		return unbalanced(op)
	}
	switch top := &c[len(c)-1]; *top {
	case condTrue:
		*top = condFalse
	case condFalse:
		*top = condTrue
	}
	return nil
}

// close ends the innermost block.
func (c *condStack) close(op *opcode) error {
	if len(*c) == 0 {
		return unbalanced(op)
	}
	*c = (*c)[:len(*c)-1]
	return nil
}

// popIfBool pops the operand of OP_IF or OP_NOTIF.  Under
// ScriptVerifyMinimalIf the operand of a version 0 witness script must be
// empty or exactly [0x01].  Legacy and P2SH scripts keep the plain boolean
// rule, matching the deployed soft fork.
func popIfBool(vm *Engine) (bool, error) {
	if !vm.hasFlag(ScriptVerifyMinimalIf) ||
		!vm.isWitnessVersionActive(BaseSegwitWitnessVersion) {

		return vm.dstack.popBool()
	}

	item, err := vm.dstack.pop()
	if err != nil {
		return false, err
	}
	if len(item) > 1 || (len(item) == 1 && item[0] != 1) {
		str := fmt.Sprintf("minimal if requires an empty item or 0x01, "+
			"got %x", item)
		return false, scriptError(ErrMinimalIf, str)
	}
	return len(item) == 1, nil
}

// openBranch implements OP_IF and OP_NOTIF.  The block runs its first branch
// when the operand equals want.  Inside a branch that is not taken the
// operand is not consumed and the whole block is skipped.
func openBranch(vm *Engine, want bool) error {
	if !vm.condStack.executing() {
		vm.condStack.open(condSkip)
		return nil
	}

	v, err := popIfBool(vm)
	if err != nil {
		return err
	}
	state := condFalse
	if v == want {
		state = condTrue
	}
	vm.condStack.open(state)
	return nil
}

// opcodeIf runs the following branch when the top item is true.
//
// Data stack transformation: [... bool] -> [...]
func opcodeIf(op *opcode, data []byte, vm *Engine) error {
	return openBranch(vm, true)
}

// opcodeNotIf runs the following branch when the top item is false.
//
// Data stack transformation: [... bool] -> [...]
func opcodeNotIf(op *opcode, data []byte, vm *Engine) error {
	return openBranch(vm, false)
}

func opcodeElse(op *opcode, data []byte, vm *Engine) error {
	return vm.condStack.flip(op)
}

func opcodeEndif(op *opcode, data []byte, vm *Engine) error {
	return vm.condStack.close(op)
}

// opcodeVerify fails the script unless the top item is true.
//
// Data stack transformation: [... bool] -> [...]
func opcodeVerify(op *opcode, data []byte, vm *Engine) error {
	return popVerify(op, vm, ErrVerify)
}

func opcodeReturn(op *opcode, data []byte, vm *Engine) error {
	return scriptError(ErrEarlyReturn, "script returned early")
}

// peekLockOperand reads the top item as a five byte script number, which
// covers every uint32 lock time and sequence.  Negative values fail.
func peekLockOperand(vm *Engine) (int64, error) {
	item, err := vm.dstack.peek(0)
	if err != nil {
		return 0, err
	}
	n, err := MakeScriptNum(item, vm.dstack.minimalNums, cltvMaxScriptNumLen)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		str := fmt.Sprintf("negative lock time: %d", n)
		return 0, scriptError(ErrNegativeLockTime, str)
	}
	return int64(n), nil
}

// verifyLockTime checks that the required lock is of the same kind as the
// transaction's and has been reached.  Values below threshold are heights.
func verifyLockTime(txLockTime, threshold, lockTime int64) error {
	if (txLockTime < threshold) != (lockTime < threshold) {
		str := fmt.Sprintf("mismatched locktime types -- tx locktime "+
			"%d, stack locktime %d", txLockTime, lockTime)
		return scriptError(ErrUnsatisfiedLockTime, str)
	}
	if lockTime > txLockTime {
		str := fmt.Sprintf("locktime requirement not satisfied -- "+
			"locktime is greater than the transaction locktime: "+
			"%d > %d", lockTime, txLockTime)
		return scriptError(ErrUnsatisfiedLockTime, str)
	}
	return nil
}

// opcodeCheckLockTimeVerify implements BIP0065.  It leaves the stack alone
// and fails unless the transaction lock time satisfies the top item and the
// executing input is not final.  Without ScriptVerifyCheckLockTimeVerify it
// is OP_NOP2.
func opcodeCheckLockTimeVerify(op *opcode, data []byte, vm *Engine) error {
	if !vm.hasFlag(ScriptVerifyCheckLockTimeVerify) {
		return opcodeNop(op, data, vm)
	}

	lockTime, err := peekLockOperand(vm)
	if err != nil {
		return err
	}
	err = verifyLockTime(int64(vm.tx.LockTime), LockTimeThreshold, lockTime)
	if err != nil {
		return err
	}

	// A final input would let the transaction bypass its lock time
	// entirely.
	if Sequence(vm.tx.TxIn[vm.txIdx].Sequence).IsFinal() {
		return scriptError(ErrUnsatisfiedLockTime,
			"transaction input is finalized")
	}
	return nil
}

// opcodeCheckSequenceVerify implements BIP0112.  It leaves the stack alone and
// fails unless the executing input's relative lock satisfies the top item.
// Operands with the disable bit set pass.  Without
// ScriptVerifyCheckSequenceVerify it is OP_NOP3.
func opcodeCheckSequenceVerify(op *opcode, data []byte, vm *Engine) error {
	if !vm.hasFlag(ScriptVerifyCheckSequenceVerify) {
		return opcodeNop(op, data, vm)
	}

	operand, err := peekLockOperand(vm)
	if err != nil {
		return err
	}
	required := Sequence(uint32(operand))
	if !required.IsRelativeLock() {
		return nil
	}

	if uint32(vm.tx.Version) < 2 {
		str := fmt.Sprintf("invalid transaction version: %d",
			vm.tx.Version)
		return scriptError(ErrUnsatisfiedLockTime, str)
	}

	txSequence := Sequence(vm.tx.TxIn[vm.txIdx].Sequence)
	if !txSequence.IsRelativeLock() {
		str := fmt.Sprintf("transaction sequence has sequence "+
			"locktime disabled bit set: 0x%x", uint32(txSequence))
		return scriptError(ErrUnsatisfiedLockTime, str)
	}

	return verifyLockTime(int64(txSequence.Masked()),
		wire.SequenceLockTimeIsSeconds, int64(required.Masked()))
}

// opcodeCheckColdStakeVerify implements OP_CHECKCOLDSTAKEVERIFY, the
// redefinition of OP_NOP10.  It leaves the stack alone and asks the engine's
// ColdStakePolicy whether the spending transaction may take the staker
// branch.  Without ScriptVerifyCheckColdStakeVerify it is OP_NOP10.
func opcodeCheckColdStakeVerify(op *opcode, data []byte, vm *Engine) error {
	if !vm.hasFlag(ScriptVerifyCheckColdStakeVerify) {
		return opcodeNop(op, data, vm)
	}
	if vm.coldStakePolicy == nil {
		return scriptError(ErrCheckColdStakeVerify,
			"no cold-stake policy is configured")
	}

	err := vm.coldStakePolicy.CheckColdStake(&vm.tx, vm.txIdx, vm.prevScript)
	if err == nil {
		return nil
	}

	var scriptErr Error
	if errors.As(err, &scriptErr) {
		return err
	}
	str := fmt.Sprintf("%s failed: %v", op.name, err)
	return scriptError(ErrCheckColdStakeVerify, str)
}
