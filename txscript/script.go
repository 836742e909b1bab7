// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/wire"
)

// These are the constants specified for maximums in individual scripts.
const (
	MaxOpsPerScript       = 201   // Max number of non-push operations.
	MaxPubKeysPerMultiSig = 20    // Multisig can't have more sigs than this.
	MaxScriptElementSize  = 520   // Max bytes pushable to the stack.
	MaxScriptSize         = 10000 // Max length of a raw script.
	MaxStackSize          = 1000  // Max combined height of stack and alt stack.
)

// ParsedOpcode is a single decoded instruction of a script.  Push opcodes
// carry their payload in Data.
//
// A script that ends in the middle of a push decodes to a final ParsedOpcode
// with Invalid set.  Its Data then holds every byte of the script that follows
// the opcode, including any partial length prefix, so that serializing the
// opcode again reproduces the original bytes.
type ParsedOpcode struct {
	Opcode  byte
	Data    []byte
	Invalid bool
}

// Name returns the human-readable name of the opcode.
func (pop *ParsedOpcode) Name() string {
	return opcodeLookup[pop.Opcode].name
}

// IsPush returns whether the opcode is a push opcode or one of the small
// integer and reserved opcodes that consensus treats as pushes.
func (pop *ParsedOpcode) IsPush() bool {
	return pop.Opcode <= OP_16
}

// String returns the one-line disassembly of the opcode.
func (pop *ParsedOpcode) String() string {
	if pop.Invalid {
		return "[error]"
	}
	var buf strings.Builder
	disasmOpcode(&buf, &opcodeLookup[pop.Opcode], pop.Data, true)
	return buf.String()
}

// serialize returns the raw bytes of the opcode.
func (pop *ParsedOpcode) serialize() []byte {
	if pop.Invalid {
		return append([]byte{pop.Opcode}, pop.Data...)
	}

	op := &opcodeLookup[pop.Opcode]
	switch {
	case op.length == 1:
		return []byte{pop.Opcode}

	case op.length > 1:
		return append([]byte{pop.Opcode}, pop.Data...)
	}

	// OP_PUSHDATA{1,2,4} carry a little endian length prefix.
	out := make([]byte, 1-op.length, 1-op.length+len(pop.Data))
	out[0] = pop.Opcode
	switch op.length {
	case -1:
		out[1] = byte(len(pop.Data))
	case -2:
		binary.LittleEndian.PutUint16(out[1:], uint16(len(pop.Data)))
	case -4:
		binary.LittleEndian.PutUint32(out[1:], uint32(len(pop.Data)))
	}
	return append(out, pop.Data...)
}

// ParseScript decodes the passed script into its opcodes.  It never fails.  A
// truncated push terminates decoding with a trailing opcode marked Invalid.
func ParseScript(script []byte) []ParsedOpcode {
	var pops []ParsedOpcode
	tokenizer := MakeScriptTokenizer(script)
	for tokenizer.Next() {
		pops = append(pops, ParsedOpcode{
			Opcode: tokenizer.Opcode(),
			Data:   tokenizer.Data(),
		})
	}
	if tokenizer.Err() != nil {
		offset := tokenizer.ByteIndex()
		pops = append(pops, ParsedOpcode{
			Opcode:  script[offset],
			Data:    script[offset+1:],
			Invalid: true,
		})
	}
	return pops
}

// UnparseScript serializes the passed opcodes back into a raw script.  It is the
// exact inverse of ParseScript.
func UnparseScript(pops []ParsedOpcode) []byte {
	var script []byte
	for i := range pops {
		script = append(script, pops[i].serialize()...)
	}
	return script
}

// isSmallInt reports whether op pushes a small integer from 0 to 16.
// OP_1NEGATE is not included.
func isSmallInt(op byte) bool {
	return op == OP_0 || (op >= OP_1 && op <= OP_16)
}

// asSmallInt returns the value pushed by a small integer opcode.
func asSmallInt(op byte) int {
	if op == OP_0 {
		return 0
	}
	return int(op-OP_1) + 1
}

// checkScriptParses returns the push decoding error of script, if any.
func checkScriptParses(script []byte) error {
	tokenizer := MakeScriptTokenizer(script)
	for tokenizer.Next() {
	}
	return tokenizer.Err()
}

// IsPushOnlyScript reports whether every opcode of script is OP_16 or lower.
// OP_RESERVED counts as a push here even though executing it fails.
func IsPushOnlyScript(script []byte) bool {
	tokenizer := MakeScriptTokenizer(script)
	for tokenizer.Next() {
		if tokenizer.Opcode() > OP_16 {
			return false
		}
	}
	return tokenizer.Err() == nil
}

// isCanonicalPush reports whether a push uses the smallest encoding of its
// data, the same rule ScriptVerifyMinimalData enforces during execution.
// Small integer opcodes and non-push opcodes are always canonical.
func isCanonicalPush(opcode byte, data []byte) bool {
	if opcode > OP_PUSHDATA4 {
		return true
	}
	return minimalPushOpcode(data) == opcode
}

// HasCanonicalPushes reports whether script parses and every push in it is
// canonical.
func HasCanonicalPushes(script []byte) bool {
	tokenizer := MakeScriptTokenizer(script)
	for tokenizer.Next() {
		if !isCanonicalPush(tokenizer.Opcode(), tokenizer.Data()) {
			return false
		}
	}
	return tokenizer.Err() == nil
}

// PushedData returns the data of every push in script.  OP_0 contributes an
// empty item while OP_1 through OP_16 contribute nothing.
func PushedData(script []byte) ([][]byte, error) {
	var pushes [][]byte
	tokenizer := MakeScriptTokenizer(script)
	for tokenizer.Next() {
		if data := tokenizer.Data(); data != nil ||
			tokenizer.Opcode() == OP_0 {

			pushes = append(pushes, data)
		}
	}
	if err := tokenizer.Err(); err != nil {
		return nil, err
	}
	return pushes, nil
}

// DisasmString disassembles script onto one line.  A script that stops
// parsing ends with "[error]" and the parse error is returned alongside.
func DisasmString(script []byte) (string, error) {
	var buf strings.Builder
	tokenizer := MakeScriptTokenizer(script)
	for tokenizer.Next() {
		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		disasmOpcode(&buf, tokenizer.op, tokenizer.Data(), true)
	}
	if tokenizer.Err() != nil {
		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString("[error]")
	}
	return buf.String(), tokenizer.Err()
}

// filterScript returns script without the opcodes drop selects.  The script
// itself is returned when nothing is dropped, so the common case does not
// allocate.  Decoding stops at the first malformed push.
func filterScript(script []byte, drop func(op byte, data []byte) bool) []byte {
	var kept []byte
	var start int32
	tokenizer := MakeScriptTokenizer(script)
	for tokenizer.Next() {
		end := tokenizer.ByteIndex()
		switch {
		case drop(tokenizer.Opcode(), tokenizer.Data()):
			if kept == nil {
				kept = make([]byte, start, len(script))
				copy(kept, script[:start])
			}
		case kept != nil:
			kept = append(kept, script[start:end]...)
		}
		start = end
	}
	if kept == nil {
		return script
	}
	return kept
}

// removeOpcodeRaw returns script without any instance of opcode.
func removeOpcodeRaw(script []byte, opcode byte) []byte {
	return filterScript(script, func(op byte, _ []byte) bool {
		return op == opcode
	})
}

// removeOpcodeByData returns script without the canonical pushes of exactly
// dataToRemove.  Signature checks use it to strip the signature from the
// script it commits to.
func removeOpcodeByData(script []byte, dataToRemove []byte) []byte {
	if len(dataToRemove) == 0 {
		return script
	}
	return filterScript(script, func(op byte, data []byte) bool {
		return isCanonicalPush(op, data) && bytes.Equal(data, dataToRemove)
	})
}

// finalOpcodeData returns the data of the last opcode of script, or nil when
// script is empty or fails to parse.
func finalOpcodeData(script []byte) []byte {
	var data []byte
	tokenizer := MakeScriptTokenizer(script)
	for tokenizer.Next() {
		data = tokenizer.Data()
	}
	if tokenizer.Err() != nil {
		return nil
	}
	return data
}

func isScriptHashScript(script []byte) bool {
	return extractScriptHash(script) != nil
}

// IsPayToScriptHash reports whether script is OP_HASH160 <20 bytes> OP_EQUAL.
func IsPayToScriptHash(script []byte) bool {
	return isScriptHashScript(script)
}

// isWitnessProgramScript reports whether script is a version opcode from
// OP_0 to OP_16 followed by a single direct push of 2 to 40 bytes.
func isWitnessProgramScript(script []byte) bool {
	return len(script) >= 4 && len(script) <= 42 && isSmallInt(script[0]) &&
		script[1] >= OP_DATA_2 && script[1] <= OP_DATA_40 &&
		int(script[1]) == len(script)-2
}

// IsWitnessProgram reports whether script is a witness program of any
// version.
func IsWitnessProgram(script []byte) bool {
	return isWitnessProgramScript(script)
}

// ExtractWitnessProgramInfo splits a witness program into its version and
// program bytes.
func ExtractWitnessProgramInfo(script []byte) (int, []byte, error) {
	if !isWitnessProgramScript(script) {
		return 0, nil, fmt.Errorf("script %x is not a witness program",
			script)
	}
	return asSmallInt(script[0]), script[2:], nil
}

// IsPayToWitnessPubKeyHash reports whether script is a version 0 witness
// program of 20 bytes.
func IsPayToWitnessPubKeyHash(script []byte) bool {
	return extractWitnessPubKeyHash(script) != nil
}

// IsPayToWitnessScriptHash reports whether script is a version 0 witness
// program of 32 bytes.
func IsPayToWitnessScriptHash(script []byte) bool {
	return extractWitnessScriptHash(script) != nil
}

// countSigOpsV0 counts the signature operations of script up to its first
// parse failure.  OP_CHECKSIG counts one.  OP_CHECKMULTISIG counts
// MaxPubKeysPerMultiSig unless precise is set and it directly follows OP_1
// through OP_16, in which case it counts that many.  A preceding OP_0 still
// counts as MaxPubKeysPerMultiSig to agree with consensus.
func countSigOpsV0(script []byte, precise bool) int {
	count := 0
	prev := byte(OP_INVALIDOPCODE)
	tokenizer := MakeScriptTokenizer(script)
	for tokenizer.Next() {
		op := tokenizer.Opcode()
		switch op {
		case OP_CHECKSIG, OP_CHECKSIGVERIFY:
			count++
		case OP_CHECKMULTISIG, OP_CHECKMULTISIGVERIFY:
			if precise && prev >= OP_1 && prev <= OP_16 {
				count += asSmallInt(prev)
			} else {
				count += MaxPubKeysPerMultiSig
			}
		}
		prev = op
	}
	return count
}

// GetSigOpCount counts the signature operations of script, charging every
// multisig operation the maximum.
func GetSigOpCount(script []byte) int {
	return countSigOpsV0(script, false)
}

// GetPreciseSigOpCount counts the signature operations of scriptPubKey.
// With bip16 set and a pay-to-script-hash scriptPubKey, the redeem script
// pushed last by scriptSig is counted instead, and a scriptSig that is not
// push only counts zero.
func GetPreciseSigOpCount(scriptSig, scriptPubKey []byte, bip16 bool) int {
	if !bip16 || !isScriptHashScript(scriptPubKey) {
		return countSigOpsV0(scriptPubKey, true)
	}
	if !IsPushOnlyScript(scriptSig) {
		return 0
	}
	return countSigOpsV0(finalOpcodeData(scriptSig), true)
}

// GetWitnessSigOpCount counts the signature operations of spending pkScript
// through witness, either as a native witness program or one nested in a
// pay-to-script-hash sigScript.  Other outputs count zero.
func GetWitnessSigOpCount(sigScript, pkScript []byte, witness wire.TxWitness) int {
	switch {
	case isWitnessProgramScript(pkScript):
		return getWitnessSigOps(pkScript, witness)

	case isScriptHashScript(pkScript) && len(sigScript) > 0 &&
		IsPushOnlyScript(sigScript) && isWitnessProgramScript(sigScript[1:]):

		return getWitnessSigOps(sigScript[1:], witness)
	}
	return 0
}

// getWitnessSigOps counts one for a version 0 key hash program and the
// precise count of the witness script for a version 0 script hash program.
// Programs of other versions count zero.
func getWitnessSigOps(program []byte, witness wire.TxWitness) int {
	version, hash, err := ExtractWitnessProgramInfo(program)
	if err != nil || version != BaseSegwitWitnessVersion {
		return 0
	}

	switch {
	case len(hash) == payToWitnessPubKeyHashDataSize:
		return 1
	case len(hash) == payToWitnessScriptHashDataSize && len(witness) > 0:
		return countSigOpsV0(witness[len(witness)-1], true)
	}
	return 0
}

// IsUnspendable reports whether pkScript can never be spent.  Outputs starting
// with OP_RETURN are unspendable, as are scripts too big or malformed to ever
// execute.
func IsUnspendable(pkScript []byte) bool {
	if len(pkScript) > MaxScriptSize ||
		(len(pkScript) > 0 && pkScript[0] == OP_RETURN) {

		return true
	}
	return checkScriptParses(pkScript) != nil
}
