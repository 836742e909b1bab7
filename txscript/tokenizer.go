// Copyright (c) 2019 The Decred developers
// Copyright (c) 2019-2021 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"encoding/binary"
	"fmt"
)

// opcodeLookup points at opcodeArray.  The tokenizer goes through it so that
// the opcode handlers, which tokenize scripts themselves, do not make the
// table's initializer depend on itself.
var opcodeLookup *[256]opcode

func init() {
	opcodeLookup = &opcodeArray
}

// ScriptTokenizer walks a raw script one opcode at a time without allocating.
// Call Next until it returns false, then check Err to tell a clean end of
// script from a malformed push.  After a successful Next, Opcode and Data
// describe the opcode just decoded and ByteIndex is the offset of the one
// that follows it.
type ScriptTokenizer struct {
	script []byte
	offset int32
	op     *opcode
	data   []byte
	err    error
}

// MakeScriptTokenizer returns a tokenizer positioned at the start of script.
func MakeScriptTokenizer(script []byte) ScriptTokenizer {
	return ScriptTokenizer{script: script}
}

// Done reports whether the script is exhausted or a malformed push stopped
// decoding.
func (t *ScriptTokenizer) Done() bool {
	return t.err != nil || int(t.offset) >= len(t.script)
}

// malformed records a truncated push and stops the tokenizer.
func (t *ScriptTokenizer) malformed(op *opcode, need, have int) bool {
	str := fmt.Sprintf("opcode %s needs %d more bytes, but the script "+
		"only has %d remaining", op.name, need, have)
	t.err = scriptError(ErrMalformedPush, str)
	return false
}

// pushDataLen decodes the little endian length that follows OP_PUSHDATA1,
// OP_PUSHDATA2 and OP_PUSHDATA4.
func pushDataLen(prefix []byte) uint64 {
	switch len(prefix) {
	case 1:
		return uint64(prefix[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(prefix))
	default:
		return uint64(binary.LittleEndian.Uint32(prefix))
	}
}

// Next decodes the opcode at the current offset.  It returns false at the end
// of the script and when the opcode claims more bytes than remain, in which
// case Err is set and the offset is left on the failing opcode.
func (t *ScriptTokenizer) Next() bool {
	if t.Done() {
		return false
	}

	op := &opcodeLookup[t.script[t.offset]]
	rest := t.script[t.offset+1:]

	var header int
	var size uint64
	switch {
	case op.length == 1:
		// The opcode is its own value.

	case op.length > 1:
		size = uint64(op.length - 1)

	default:
		header = -op.length
		if len(rest) < header {
			return t.malformed(op, header, len(rest))
		}
		size = pushDataLen(rest[:header])
	}

	if uint64(len(rest)-header) < size {
		return t.malformed(op, header+int(size), len(rest))
	}

	t.op = op
	t.data = nil
	if op.length != 1 {
		t.data = rest[header : header+int(size)]
	}
	t.offset += 1 + int32(header) + int32(size)
	return true
}

// Script returns the script being tokenized.
func (t *ScriptTokenizer) Script() []byte {
	return t.script
}

// ByteIndex returns the offset of the next opcode to decode.
func (t *ScriptTokenizer) ByteIndex() int32 {
	return t.offset
}

// Opcode returns the value of the last decoded opcode.
func (t *ScriptTokenizer) Opcode() byte {
	return t.op.value
}

// OpcodeName returns the name of the last decoded opcode.
func (t *ScriptTokenizer) OpcodeName() string {
	return t.op.name
}

// Data returns the payload of the last decoded opcode, which is nil for
// opcodes that push nothing.
func (t *ScriptTokenizer) Data() []byte {
	return t.data
}

// Err returns the parse failure, if any.
func (t *ScriptTokenizer) Err() error {
	return t.err
}
