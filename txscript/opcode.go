// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// opFunc executes an opcode against the engine.  data is the payload of push
// opcodes and nil for everything else.
type opFunc func(op *opcode, data []byte, vm *Engine) error

// opcode describes one of the 256 possible instruction bytes.
//
// length encodes how the instruction is laid out in a script: 1 means the
// opcode byte stands alone, n > 1 means a fixed push of n-1 bytes follows it,
// and -1, -2 or -4 means a little endian length of that many bytes follows,
// and then the pushed bytes.
type opcode struct {
	value  byte
	name   string
	length int
	opfunc opFunc
}

// Opcode values.  Only the direct push opcodes referenced by name elsewhere
// are listed, the rest are OP_DATA_1 plus the push length minus one.
const (
	OP_0            = 0x00
	OP_FALSE        = OP_0
	OP_DATA_1       = 0x01
	OP_DATA_2       = 0x02
	OP_DATA_3       = 0x03
	OP_DATA_4       = 0x04
	OP_DATA_5       = 0x05
	OP_DATA_17      = 0x11
	OP_DATA_20      = 0x14
	OP_DATA_32      = 0x20
	OP_DATA_33      = 0x21
	OP_DATA_40      = 0x28
	OP_DATA_65      = 0x41
	OP_DATA_75      = 0x4b
	OP_PUSHDATA1    = 0x4c
	OP_PUSHDATA2    = 0x4d
	OP_PUSHDATA4    = 0x4e
	OP_1NEGATE      = 0x4f
	OP_RESERVED     = 0x50
	OP_1            = 0x51
	OP_TRUE         = OP_1
	OP_2            = 0x52
	OP_3            = 0x53
	OP_4            = 0x54
	OP_5            = 0x55
	OP_6            = 0x56
	OP_7            = 0x57
	OP_8            = 0x58
	OP_9            = 0x59
	OP_10           = 0x5a
	OP_11           = 0x5b
	OP_12           = 0x5c
	OP_13           = 0x5d
	OP_14           = 0x5e
	OP_15           = 0x5f
	OP_16           = 0x60
	OP_NOP          = 0x61
	OP_VER          = 0x62
	OP_IF           = 0x63
	OP_NOTIF        = 0x64
	OP_VERIF        = 0x65
	OP_VERNOTIF     = 0x66
	OP_ELSE         = 0x67
	OP_ENDIF        = 0x68
	OP_VERIFY       = 0x69
	OP_RETURN       = 0x6a
	OP_TOALTSTACK   = 0x6b
	OP_FROMALTSTACK = 0x6c
	OP_2DROP        = 0x6d
	OP_2DUP         = 0x6e
	OP_3DUP         = 0x6f
	OP_2OVER        = 0x70
	OP_2ROT         = 0x71
	OP_2SWAP        = 0x72
	OP_IFDUP        = 0x73
	OP_DEPTH        = 0x74
	OP_DROP         = 0x75
	OP_DUP          = 0x76
	OP_NIP          = 0x77
	OP_OVER         = 0x78
	OP_PICK         = 0x79
	OP_ROLL         = 0x7a
	OP_ROT          = 0x7b
	OP_SWAP         = 0x7c
	OP_TUCK         = 0x7d
)

const (
	OP_CAT                  = 0x7e
	OP_SUBSTR               = 0x7f
	OP_LEFT                 = 0x80
	OP_RIGHT                = 0x81
	OP_SIZE                 = 0x82
	OP_INVERT               = 0x83
	OP_AND                  = 0x84
	OP_OR                   = 0x85
	OP_XOR                  = 0x86
	OP_EQUAL                = 0x87
	OP_EQUALVERIFY          = 0x88
	OP_RESERVED1            = 0x89
	OP_RESERVED2            = 0x8a
	OP_1ADD                 = 0x8b
	OP_1SUB                 = 0x8c
	OP_2MUL                 = 0x8d
	OP_2DIV                 = 0x8e
	OP_NEGATE               = 0x8f
	OP_ABS                  = 0x90
	OP_NOT                  = 0x91
	OP_0NOTEQUAL            = 0x92
	OP_ADD                  = 0x93
	OP_SUB                  = 0x94
	OP_MUL                  = 0x95
	OP_DIV                  = 0x96
	OP_MOD                  = 0x97
	OP_LSHIFT               = 0x98
	OP_RSHIFT               = 0x99
	OP_BOOLAND              = 0x9a
	OP_BOOLOR               = 0x9b
	OP_NUMEQUAL             = 0x9c
	OP_NUMEQUALVERIFY       = 0x9d
	OP_NUMNOTEQUAL          = 0x9e
	OP_LESSTHAN             = 0x9f
	OP_GREATERTHAN          = 0xa0
	OP_LESSTHANOREQUAL      = 0xa1
	OP_GREATERTHANOREQUAL   = 0xa2
	OP_MIN                  = 0xa3
	OP_MAX                  = 0xa4
	OP_WITHIN               = 0xa5
	OP_RIPEMD160            = 0xa6
	OP_SHA1                 = 0xa7
	OP_SHA256               = 0xa8
	OP_HASH160              = 0xa9
	OP_HASH256              = 0xaa
	OP_CODESEPARATOR        = 0xab
	OP_CHECKSIG             = 0xac
	OP_CHECKSIGVERIFY       = 0xad
	OP_CHECKMULTISIG        = 0xae
	OP_CHECKMULTISIGVERIFY  = 0xaf
	OP_NOP1                 = 0xb0
	OP_NOP2                 = 0xb1
	OP_CHECKLOCKTIMEVERIFY  = OP_NOP2
	OP_NOP3                 = 0xb2
	OP_CHECKSEQUENCEVERIFY  = OP_NOP3
	OP_NOP4                 = 0xb3
	OP_NOP5                 = 0xb4
	OP_NOP6                 = 0xb5
	OP_NOP7                 = 0xb6
	OP_NOP8                 = 0xb7
	OP_NOP9                 = 0xb8
	OP_NOP10                = 0xb9
	OP_CHECKCOLDSTAKEVERIFY = OP_NOP10

	// 0xba through 0xf9 and 0xfc are unassigned and named OP_UNKNOWN<n>.

	OP_SMALLINTEGER  = 0xfa
	OP_PUBKEYS       = 0xfb
	OP_PUBKEYHASH    = 0xfd
	OP_PUBKEY        = 0xfe
	OP_INVALIDOPCODE = 0xff
)

// opcodeArray holds the definition of every instruction byte, indexed by
// value.
var opcodeArray = buildOpcodeArray()

// buildOpcodeArray assembles the instruction table.  Every byte starts out as
// an invalid OP_UNKNOWN<n>, then the push families and the named opcodes are
// filled in over it.
func buildOpcodeArray() [256]opcode {
	var ops [256]opcode
	set := func(value byte, name string, length int, fn opFunc) {
		ops[value] = opcode{value: value, name: name, length: length, opfunc: fn}
	}

	for i := range ops {
		set(byte(i), "OP_UNKNOWN"+strconv.Itoa(i), 1, opcodeInvalid)
	}
	for n := 1; n <= 75; n++ {
		set(byte(n), "OP_DATA_"+strconv.Itoa(n), n+1, opcodePushData)
	}
	for n := 1; n <= 16; n++ {
		set(byte(OP_1+n-1), "OP_"+strconv.Itoa(n), 1, opcodeN)
	}
	for n := 1; n <= 10; n++ {
		set(byte(OP_NOP1+n-1), "OP_NOP"+strconv.Itoa(n), 1, opcodeNop)
	}
	for _, v := range []byte{OP_CAT, OP_SUBSTR, OP_LEFT, OP_RIGHT,
		OP_INVERT, OP_AND, OP_OR, OP_XOR, OP_2MUL, OP_2DIV, OP_MUL,
		OP_DIV, OP_MOD, OP_LSHIFT, OP_RSHIFT} {

		set(v, disabledOpcodeNames[v], 1, opcodeDisabled)
	}

	set(OP_0, "OP_0", 1, opcodeFalse)
	set(OP_PUSHDATA1, "OP_PUSHDATA1", -1, opcodePushData)
	set(OP_PUSHDATA2, "OP_PUSHDATA2", -2, opcodePushData)
	set(OP_PUSHDATA4, "OP_PUSHDATA4", -4, opcodePushData)
	set(OP_1NEGATE, "OP_1NEGATE", 1, opcode1Negate)

	for _, def := range []struct {
		value byte
		name  string
		fn    opFunc
	}{
		{OP_RESERVED, "OP_RESERVED", opcodeReserved},
		{OP_NOP, "OP_NOP", opcodeNop},
		{OP_VER, "OP_VER", opcodeReserved},
		{OP_IF, "OP_IF", opcodeIf},
		{OP_NOTIF, "OP_NOTIF", opcodeNotIf},
		{OP_VERIF, "OP_VERIF", opcodeReserved},
		{OP_VERNOTIF, "OP_VERNOTIF", opcodeReserved},
		{OP_ELSE, "OP_ELSE", opcodeElse},
		{OP_ENDIF, "OP_ENDIF", opcodeEndif},
		{OP_VERIFY, "OP_VERIFY", opcodeVerify},
		{OP_RETURN, "OP_RETURN", opcodeReturn},

		{OP_TOALTSTACK, "OP_TOALTSTACK", opcodeToAltStack},
		{OP_FROMALTSTACK, "OP_FROMALTSTACK", opcodeFromAltStack},
		{OP_2DROP, "OP_2DROP", stackOp((*stack).drop, 2)},
		{OP_2DUP, "OP_2DUP", stackOp((*stack).dup, 2)},
		{OP_3DUP, "OP_3DUP", stackOp((*stack).dup, 3)},
		{OP_2OVER, "OP_2OVER", stackOp((*stack).over, 2)},
		{OP_2ROT, "OP_2ROT", stackOp((*stack).rot, 2)},
		{OP_2SWAP, "OP_2SWAP", stackOp((*stack).swap, 2)},
		{OP_IFDUP, "OP_IFDUP", opcodeIfDup},
		{OP_DEPTH, "OP_DEPTH", opcodeDepth},
		{OP_DROP, "OP_DROP", stackOp((*stack).drop, 1)},
		{OP_DUP, "OP_DUP", stackOp((*stack).dup, 1)},
		{OP_NIP, "OP_NIP", opcodeNip},
		{OP_OVER, "OP_OVER", stackOp((*stack).over, 1)},
		{OP_PICK, "OP_PICK", opcodePick},
		{OP_ROLL, "OP_ROLL", opcodeRoll},
		{OP_ROT, "OP_ROT", stackOp((*stack).rot, 1)},
		{OP_SWAP, "OP_SWAP", stackOp((*stack).swap, 1)},
		{OP_TUCK, "OP_TUCK", opcodeTuck},

		{OP_SIZE, "OP_SIZE", opcodeSize},
		{OP_EQUAL, "OP_EQUAL", opcodeEqual},
		{OP_EQUALVERIFY, "OP_EQUALVERIFY", withVerify(opcodeEqual, ErrEqualVerify)},
		{OP_RESERVED1, "OP_RESERVED1", opcodeReserved},
		{OP_RESERVED2, "OP_RESERVED2", opcodeReserved},

		{OP_1ADD, "OP_1ADD", unaryNum(func(a scriptNum) scriptNum { return a + 1 })},
		{OP_1SUB, "OP_1SUB", unaryNum(func(a scriptNum) scriptNum { return a - 1 })},
		{OP_NEGATE, "OP_NEGATE", unaryNum(func(a scriptNum) scriptNum { return -a })},
		{OP_ABS, "OP_ABS", unaryNum(absNum)},
		{OP_NOT, "OP_NOT", unaryNum(func(a scriptNum) scriptNum { return boolNum(a == 0) })},
		{OP_0NOTEQUAL, "OP_0NOTEQUAL", unaryNum(func(a scriptNum) scriptNum { return boolNum(a != 0) })},
		{OP_ADD, "OP_ADD", binaryNum(func(a, b scriptNum) scriptNum { return a + b })},
		{OP_SUB, "OP_SUB", binaryNum(func(a, b scriptNum) scriptNum { return a - b })},
		{OP_BOOLAND, "OP_BOOLAND", binaryNum(func(a, b scriptNum) scriptNum { return boolNum(a != 0 && b != 0) })},
		{OP_BOOLOR, "OP_BOOLOR", binaryNum(func(a, b scriptNum) scriptNum { return boolNum(a != 0 || b != 0) })},
		{OP_NUMEQUAL, "OP_NUMEQUAL", binaryNum(numEqual)},
		{OP_NUMEQUALVERIFY, "OP_NUMEQUALVERIFY", withVerify(binaryNum(numEqual), ErrNumEqualVerify)},
		{OP_NUMNOTEQUAL, "OP_NUMNOTEQUAL", binaryNum(func(a, b scriptNum) scriptNum { return boolNum(a != b) })},
		{OP_LESSTHAN, "OP_LESSTHAN", binaryNum(func(a, b scriptNum) scriptNum { return boolNum(a < b) })},
		{OP_GREATERTHAN, "OP_GREATERTHAN", binaryNum(func(a, b scriptNum) scriptNum { return boolNum(a > b) })},
		{OP_LESSTHANOREQUAL, "OP_LESSTHANOREQUAL", binaryNum(func(a, b scriptNum) scriptNum { return boolNum(a <= b) })},
		{OP_GREATERTHANOREQUAL, "OP_GREATERTHANOREQUAL", binaryNum(func(a, b scriptNum) scriptNum { return boolNum(a >= b) })},
		{OP_MIN, "OP_MIN", binaryNum(minNum)},
		{OP_MAX, "OP_MAX", binaryNum(maxNum)},
		{OP_WITHIN, "OP_WITHIN", opcodeWithin},

		{OP_RIPEMD160, "OP_RIPEMD160", hashOp(ripemd160Sum)},
		{OP_SHA1, "OP_SHA1", hashOp(sha1Sum)},
		{OP_SHA256, "OP_SHA256", hashOp(sha256Sum)},
		{OP_HASH160, "OP_HASH160", hashOp(hash160)},
		{OP_HASH256, "OP_HASH256", hashOp(hash256)},
		{OP_CODESEPARATOR, "OP_CODESEPARATOR", opcodeCodeSeparator},
		{OP_CHECKSIG, "OP_CHECKSIG", opcodeCheckSig},
		{OP_CHECKSIGVERIFY, "OP_CHECKSIGVERIFY", withVerify(opcodeCheckSig, ErrCheckSigVerify)},
		{OP_CHECKMULTISIG, "OP_CHECKMULTISIG", opcodeCheckMultiSig},
		{OP_CHECKMULTISIGVERIFY, "OP_CHECKMULTISIGVERIFY", withVerify(opcodeCheckMultiSig, ErrCheckMultiSigVerify)},

		{OP_CHECKLOCKTIMEVERIFY, "OP_CHECKLOCKTIMEVERIFY", opcodeCheckLockTimeVerify},
		{OP_CHECKSEQUENCEVERIFY, "OP_CHECKSEQUENCEVERIFY", opcodeCheckSequenceVerify},
		{OP_NOP10, "OP_NOP10", opcodeCheckColdStakeVerify},

		{OP_SMALLINTEGER, "OP_SMALLINTEGER", opcodeInvalid},
		{OP_PUBKEYS, "OP_PUBKEYS", opcodeInvalid},
		{OP_PUBKEYHASH, "OP_PUBKEYHASH", opcodeInvalid},
		{OP_PUBKEY, "OP_PUBKEY", opcodeInvalid},
		{OP_INVALIDOPCODE, "OP_INVALIDOPCODE", opcodeInvalid},
	} {
		set(def.value, def.name, 1, def.fn)
	}

	return ops
}

var disabledOpcodeNames = map[byte]string{
	OP_CAT: "OP_CAT", OP_SUBSTR: "OP_SUBSTR", OP_LEFT: "OP_LEFT",
	OP_RIGHT: "OP_RIGHT", OP_INVERT: "OP_INVERT", OP_AND: "OP_AND",
	OP_OR: "OP_OR", OP_XOR: "OP_XOR", OP_2MUL: "OP_2MUL",
	OP_2DIV: "OP_2DIV", OP_MUL: "OP_MUL", OP_DIV: "OP_DIV",
	OP_MOD: "OP_MOD", OP_LSHIFT: "OP_LSHIFT", OP_RSHIFT: "OP_RSHIFT",
}

// isOpcodeDisabled reports whether the opcode fails the script whenever the
// program counter reaches it, executed branch or not.
func isOpcodeDisabled(value byte) bool {
	_, ok := disabledOpcodeNames[value]
	return ok
}

// disasmOpcode writes the disassembly of a single opcode to buf.
//
// The compact form prints small integers as numbers and pushes as bare hex,
// which is what the one-line disassembly uses.  The full form prints the
// opcode name, the length prefix of OP_PUSHDATA opcodes and the data.
func disasmOpcode(buf *strings.Builder, op *opcode, data []byte, compact bool) {
	if compact {
		switch {
		case op.value == OP_0:
			buf.WriteString("0")
		case op.value == OP_1NEGATE:
			buf.WriteString("-1")
		case op.value >= OP_1 && op.value <= OP_16:
			buf.WriteString(strconv.Itoa(int(op.value - (OP_1 - 1))))
		case op.length == 1:
			buf.WriteString(op.name)
		default:
			buf.WriteString(hex.EncodeToString(data))
		}
		return
	}

	buf.WriteString(op.name)
	if op.length == 1 {
		return
	}
	if op.length < 0 {
		fmt.Fprintf(buf, " 0x%0*x", -2*op.length, len(data))
	}
	fmt.Fprintf(buf, " 0x%02x", data)
}

func opcodeDisabled(op *opcode, data []byte, vm *Engine) error {
	str := fmt.Sprintf("attempt to execute disabled opcode %s", op.name)
	return scriptError(ErrDisabledOpcode, str)
}

func opcodeReserved(op *opcode, data []byte, vm *Engine) error {
	str := fmt.Sprintf("attempt to execute reserved opcode %s", op.name)
	return scriptError(ErrReservedOpcode, str)
}

func opcodeInvalid(op *opcode, data []byte, vm *Engine) error {
	str := fmt.Sprintf("attempt to execute invalid opcode %s", op.name)
	return scriptError(ErrBadOpcode, str)
}

// opcodeFalse pushes the empty item, which is also the encoding of zero.
func opcodeFalse(op *opcode, data []byte, vm *Engine) error {
	vm.dstack.push(nil)
	return nil
}

func opcodePushData(op *opcode, data []byte, vm *Engine) error {
	vm.dstack.push(data)
	return nil
}

func opcode1Negate(op *opcode, data []byte, vm *Engine) error {
	vm.dstack.pushNum(-1)
	return nil
}

// opcodeN pushes the small integer OP_1 through OP_16 stands for.
func opcodeN(op *opcode, data []byte, vm *Engine) error {
	vm.dstack.pushNum(scriptNum(op.value - (OP_1 - 1)))
	return nil
}

// opcodeNop does nothing unless upgradable NOPs are discouraged, in which
// case OP_NOP1 through OP_NOP10 fail.
func opcodeNop(op *opcode, data []byte, vm *Engine) error {
	if op.value >= OP_NOP1 && op.value <= OP_NOP10 &&
		vm.hasFlag(ScriptDiscourageUpgradableNops) {

		str := fmt.Sprintf("%s is reserved for soft-fork upgrades",
			op.name)
		return scriptError(ErrDiscourageUpgradableNOPs, str)
	}
	return nil
}

// withVerify runs fn and then consumes the boolean it left on the stack,
// failing with code when it is false.  It builds the *VERIFY variants.
func withVerify(fn opFunc, code ErrorCode) opFunc {
	return func(op *opcode, data []byte, vm *Engine) error {
		if err := fn(op, data, vm); err != nil {
			return err
		}
		return popVerify(op, vm, code)
	}
}

// popVerify pops the top item and fails with code unless it is true.
func popVerify(op *opcode, vm *Engine, code ErrorCode) error {
	ok, err := vm.dstack.popBool()
	if err != nil {
		return err
	}
	if !ok {
		return scriptError(code, op.name+" failed")
	}
	return nil
}

// OpcodeByName maps opcode names, including the OP_FALSE, OP_TRUE, OP_NOP2,
// OP_NOP3 and OP_CHECKCOLDSTAKEVERIFY aliases, to their values.  It is filled
// during package initialization and must be treated as read-only.
var OpcodeByName = make(map[string]byte)

func init() {
	for _, op := range opcodeArray {
		OpcodeByName[op.name] = op.value
	}
	OpcodeByName["OP_FALSE"] = OP_FALSE
	OpcodeByName["OP_TRUE"] = OP_TRUE
	OpcodeByName["OP_NOP2"] = OP_CHECKLOCKTIMEVERIFY
	OpcodeByName["OP_NOP3"] = OP_CHECKSEQUENCEVERIFY
	OpcodeByName["OP_CHECKCOLDSTAKEVERIFY"] = OP_CHECKCOLDSTAKEVERIFY
}
