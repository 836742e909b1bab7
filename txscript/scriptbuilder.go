// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"encoding/binary"
	"fmt"
)

// defaultScriptAlloc is the initial capacity of a builder, enough for every
// standard script.
const defaultScriptAlloc = 500

// ErrScriptNotCanonical is the error a ScriptBuilder records when an addition
// would produce a script the engine refuses to execute.
type ErrScriptNotCanonical string

func (e ErrScriptNotCanonical) Error() string {
	return string(e)
}

// ScriptBuilder assembles a script from opcodes, integers and data, always
// choosing the minimal encoding.  The first addition that would exceed
// MaxScriptSize or push more than MaxScriptElementSize bytes is dropped and
// recorded, every later addition is ignored, and Script returns the script
// built so far together with that error.
//
// For example, the following builds a cold-stake script, which
// ColdStakeScript also produces directly:
//
//	builder := txscript.NewScriptBuilder()
//	builder.AddOp(txscript.OP_DUP).AddOp(txscript.OP_HASH160)
//	builder.AddOp(txscript.OP_ROT).AddOp(txscript.OP_IF)
//	builder.AddOp(txscript.OP_CHECKCOLDSTAKEVERIFY).AddData(stakerHash)
//	builder.AddOp(txscript.OP_ELSE).AddData(ownerHash)
//	builder.AddOp(txscript.OP_ENDIF)
//	builder.AddOp(txscript.OP_EQUALVERIFY).AddOp(txscript.OP_CHECKSIG)
//	script, err := builder.Script()
type ScriptBuilder struct {
	script []byte
	err    error
}

// NewScriptBuilder returns an empty builder.
func NewScriptBuilder() *ScriptBuilder {
	return &ScriptBuilder{script: make([]byte, 0, defaultScriptAlloc)}
}

// fits reports whether n more bytes keep the script within MaxScriptSize and
// records an error naming what when they do not.
func (b *ScriptBuilder) fits(n int, what string) bool {
	if len(b.script)+n <= MaxScriptSize {
		return true
	}
	b.err = ErrScriptNotCanonical(fmt.Sprintf("adding %s of %d bytes "+
		"would exceed the maximum script length of %d", what, n,
		MaxScriptSize))
	return false
}

// AddOp appends a single opcode.
func (b *ScriptBuilder) AddOp(opcode byte) *ScriptBuilder {
	if b.err == nil && b.fits(1, "an opcode") {
		b.script = append(b.script, opcode)
	}
	return b
}

// AddOps appends raw opcode bytes, typically another script.
func (b *ScriptBuilder) AddOps(opcodes []byte) *ScriptBuilder {
	if b.err == nil && b.fits(len(opcodes), "opcodes") {
		b.script = append(b.script, opcodes...)
	}
	return b
}

// AddOpsUnchecked appends raw bytes with no size limit.  It exists for tests
// that need scripts the engine rejects.
func (b *ScriptBuilder) AddOpsUnchecked(raw []byte) *ScriptBuilder {
	if b.err == nil {
		b.script = append(b.script, raw...)
	}
	return b
}

// canonicalDataSize returns the length of the minimal push of data.
func canonicalDataSize(data []byte) int {
	switch op := minimalPushOpcode(data); {
	case op == OP_0 || op >= OP_1NEGATE:
		return 1
	case op < OP_PUSHDATA1:
		return 1 + len(data)
	case op == OP_PUSHDATA1:
		return 2 + len(data)
	case op == OP_PUSHDATA2:
		return 3 + len(data)
	default:
		return 5 + len(data)
	}
}

// addData appends the smallest push of data, the same encoding
// ScriptVerifyMinimalData demands.  Empty data becomes OP_0 and the single
// bytes 0x01-0x10 and 0x81 become small integer opcodes.  A single 0x00 byte
// is not the empty item OP_0 pushes, so it keeps a one byte push.
func (b *ScriptBuilder) addData(data []byte) *ScriptBuilder {
	op := minimalPushOpcode(data)
	b.script = append(b.script, op)

	switch op {
	case OP_PUSHDATA1:
		b.script = append(b.script, byte(len(data)))
	case OP_PUSHDATA2:
		b.script = binary.LittleEndian.AppendUint16(b.script,
			uint16(len(data)))
	case OP_PUSHDATA4:
		b.script = binary.LittleEndian.AppendUint32(b.script,
			uint32(len(data)))
	}
	if op != OP_0 && op < OP_1NEGATE {
		b.script = append(b.script, data...)
	}
	return b
}

// AddData appends the minimal push of data.  Items longer than
// MaxScriptElementSize are refused.
func (b *ScriptBuilder) AddData(data []byte) *ScriptBuilder {
	if b.err != nil || !b.fits(canonicalDataSize(data), "data") {
		return b
	}
	if len(data) > MaxScriptElementSize {
		b.err = ErrScriptNotCanonical(fmt.Sprintf("a data element of %d "+
			"bytes exceeds the maximum element size of %d", len(data),
			MaxScriptElementSize))
		return b
	}
	return b.addData(data)
}

// AddFullData appends the minimal push of data with no size limits, for
// tests that need pushes the engine rejects.  Use AddData otherwise.
func (b *ScriptBuilder) AddFullData(data []byte) *ScriptBuilder {
	if b.err == nil {
		b.addData(data)
	}
	return b
}

// AddInt64 appends val as a script number.  Zero, -1 and 1 through 16
// become their single byte opcodes.
func (b *ScriptBuilder) AddInt64(val int64) *ScriptBuilder {
	return b.AddData(scriptNum(val).Bytes())
}

// AddLockTime pushes the passed absolute lock time as a script number.
func (b *ScriptBuilder) AddLockTime(lockTime LockTime) *ScriptBuilder {
	return b.AddInt64(int64(lockTime))
}

// AddSequence pushes the passed relative lock sequence as a script number.
func (b *ScriptBuilder) AddSequence(sequence Sequence) *ScriptBuilder {
	return b.AddInt64(int64(sequence))
}

// Reset empties the builder and clears any recorded error.
func (b *ScriptBuilder) Reset() *ScriptBuilder {
	b.script = b.script[:0]
	b.err = nil
	return b
}

// Script returns the script built so far and the first error recorded.
func (b *ScriptBuilder) Script() ([]byte, error) {
	return b.script, b.err
}
