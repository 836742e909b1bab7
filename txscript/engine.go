// Copyright (c) 2013-2018 The btcsuite developers
// Copyright (c) 2015-2018 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/wire"
)

const (
	// BaseSegwitWitnessVersion is the witness version of P2WPKH and P2WSH
	// programs.
	BaseSegwitWitnessVersion = 0

	// NoInputAmount stands in for the value of the output being spent when
	// it is not known.  Verifying a witness program without it is a caller
	// error.
	NoInputAmount int64 = -1
)

// EngineOption configures optional collaborators of an Engine.
type EngineOption func(*Engine)

// WithColdStakePolicy sets the policy consulted by OP_CHECKCOLDSTAKEVERIFY
// when ScriptVerifyCheckColdStakeVerify is set.
func WithColdStakePolicy(policy ColdStakePolicy) EngineOption {
	return func(vm *Engine) {
		vm.coldStakePolicy = policy
	}
}

// WithSigCache sets the cache of already verified signatures.
func WithSigCache(sigCache *SigCache) EngineOption {
	return func(vm *Engine) {
		vm.sigCache = sigCache
	}
}

// WithHashCache sets the precomputed BIP0143 midstate of the spending
// transaction.
func WithHashCache(hashCache *TxSigHashes) EngineOption {
	return func(vm *Engine) {
		vm.hashCache = hashCache
	}
}

// Engine executes the scripts that authorize spending one transaction input.
//
// It runs the signature script, then the public key script, then, when they
// apply, the P2SH redeem script and the witness script, carrying the data
// stack from one to the next.
type Engine struct {
	// Fixed at creation.  The signature cache is shared and mutated, the
	// pointer never changes.
	flags           ScriptFlags
	tx              wire.MsgTx
	txIdx           int
	witness         wire.TxWitness
	prevScript      []byte
	sigCache        *SigCache
	hashCache       *TxSigHashes
	inputAmount     int64
	coldStakePolicy ColdStakePolicy

	// scripts grows when a redeem or witness script is reached.  scriptIdx
	// and tokenizer form the program counter, and lastCodeSep is the offset
	// into the current script just past the last OP_CODESEPARATOR.
	scripts     [][]byte
	scriptIdx   int
	tokenizer   ScriptTokenizer
	lastCodeSep int

	dstack    stack
	astack    stack
	condStack condStack

	// numOps counts non-push opcodes of the current script.
	numOps int

	// bip16 is set when the public key script is P2SH, in which case
	// savedFirstStack holds the stack the signature script left behind.
	bip16           bool
	savedFirstStack [][]byte

	// witnessProgram is nil unless a witness program is being verified.
	witnessVersion int
	witnessProgram []byte
}

func (vm *Engine) hasFlag(flag ScriptFlags) bool {
	return vm.flags&flag == flag
}

// isWitnessVersionActive reports whether a witness program of the given
// version is being verified.
func (vm *Engine) isWitnessVersionActive(version uint) bool {
	return vm.witnessProgram != nil && uint(vm.witnessVersion) == version
}

// minimalPushOpcode returns the opcode the smallest encoding of a push of
// data uses.
func minimalPushOpcode(data []byte) byte {
	n := len(data)
	switch {
	case n == 0:
		return OP_0
	case n == 1 && data[0] >= 1 && data[0] <= 16:
		return OP_1 + data[0] - 1
	case n == 1 && data[0] == 0x81:
		return OP_1NEGATE
	case n <= OP_DATA_75:
		return byte(n)
	case n <= 0xff:
		return OP_PUSHDATA1
	case n <= 0xffff:
		return OP_PUSHDATA2
	}
	return OP_PUSHDATA4
}

// checkMinimalDataPush fails pushes that a smaller encoding could express,
// such as OP_DATA_1 0x05 instead of OP_5.
func checkMinimalDataPush(op *opcode, data []byte) error {
	want := minimalPushOpcode(data)
	if op.value == want {
		return nil
	}
	str := fmt.Sprintf("data push of %d bytes encoded with opcode %s "+
		"instead of %s", len(data), op.name, opcodeLookup[want].name)
	return scriptError(ErrMinimalData, str)
}

// executeOpcode runs one opcode.  Disabled opcodes, OP_VERIF, OP_VERNOTIF,
// the operation limit and the element size limit apply whether or not the
// branch executes.  Conditionals always run so nesting is tracked.
func (vm *Engine) executeOpcode(op *opcode, data []byte) error {
	if isOpcodeDisabled(op.value) {
		str := fmt.Sprintf("attempt to execute disabled opcode %s", op.name)
		return scriptError(ErrDisabledOpcode, str)
	}
	if op.value == OP_VERIF || op.value == OP_VERNOTIF {
		str := fmt.Sprintf("attempt to execute reserved opcode %s", op.name)
		return scriptError(ErrReservedOpcode, str)
	}

	// OP_RESERVED counts as a push here.
	if op.value > OP_16 {
		vm.numOps++
		if vm.numOps > MaxOpsPerScript {
			str := fmt.Sprintf("exceeded max operation limit of %d",
				MaxOpsPerScript)
			return scriptError(ErrTooManyOperations, str)
		}
	} else if len(data) > MaxScriptElementSize {
		str := fmt.Sprintf("element size %d exceeds max allowed size %d",
			len(data), MaxScriptElementSize)
		return scriptError(ErrElementTooBig, str)
	}

	if !vm.condStack.executing() {
		switch op.value {
		case OP_IF, OP_NOTIF, OP_ELSE, OP_ENDIF:
		default:
			return nil
		}
	} else if vm.dstack.minimalNums && op.value <= OP_PUSHDATA4 {
		if err := checkMinimalDataPush(op, data); err != nil {
			return err
		}
	}

	return op.opfunc(op, data, vm)
}

func (vm *Engine) checkValidPC() error {
	if vm.scriptIdx >= len(vm.scripts) {
		str := fmt.Sprintf("program counter beyond input scripts (script idx "+
			"%d, total scripts %d)", vm.scriptIdx, len(vm.scripts))
		return scriptError(ErrInvalidProgramCounter, str)
	}
	return nil
}

func (vm *Engine) isWitnessProgramActive() bool {
	return vm.witnessProgram != nil
}

// witnessV0Script returns the script a version 0 program runs and the stack
// it starts with.  A 20 byte program runs the pay-to-pubkey-hash template of
// the program over a two item witness.  A 32 byte program runs the last
// witness item, which must hash to the program, over the items before it.
func (vm *Engine) witnessV0Script(witness wire.TxWitness) ([]byte,
	[][]byte, error) {

	switch len(vm.witnessProgram) {
	case payToWitnessPubKeyHashDataSize:
		if len(witness) != 2 {
			str := fmt.Sprintf("should have exactly two items in "+
				"witness, instead have %d", len(witness))
			return nil, nil, scriptError(ErrWitnessProgramMismatch, str)
		}
		script, err := payToPubKeyHashScript(vm.witnessProgram)
		if err != nil {
			return nil, nil, err
		}
		return script, witness, nil

	case payToWitnessScriptHashDataSize:
		if len(witness) == 0 {
			return nil, nil, scriptError(ErrWitnessProgramEmpty,
				"witness program empty passed empty witness")
		}
		script := witness[len(witness)-1]
		if len(script) > MaxScriptSize {
			str := fmt.Sprintf("witnessScript size %d is larger than "+
				"max allowed size %d", len(script), MaxScriptSize)
			return nil, nil, scriptError(ErrScriptTooBig, str)
		}
		sum := sha256.Sum256(script)
		if !bytes.Equal(sum[:], vm.witnessProgram) {
			return nil, nil, scriptError(ErrWitnessProgramMismatch,
				"witness program hash mismatch")
		}
		if err := checkScriptParses(script); err != nil {
			return nil, nil, err
		}
		return script, witness[:len(witness)-1], nil
	}

	str := fmt.Sprintf("length of witness program must either be %d or %d "+
		"bytes, instead is %d bytes", payToWitnessPubKeyHashDataSize,
		payToWitnessScriptHashDataSize, len(vm.witnessProgram))
	return nil, nil, scriptError(ErrWitnessProgramWrongLength, str)
}

// verifyWitnessProgram queues the script of the active witness program.
// Programs of unknown versions succeed unless they are discouraged.  Only the
// bottom stack item survives them and segwit rules stop applying.
func (vm *Engine) verifyWitnessProgram(witness wire.TxWitness) error {
	if !vm.isWitnessVersionActive(BaseSegwitWitnessVersion) {
		if vm.hasFlag(ScriptVerifyDiscourageUpgradeableWitnessProgram) {
			str := fmt.Sprintf("new witness program versions invalid: %d",
				vm.witnessVersion)
			return scriptError(ErrDiscourageUpgradableWitnessProgram, str)
		}

		vm.witnessProgram = nil
		if vm.dstack.depth() > 1 {
			vm.SetStack(vm.GetStack()[:1])
		}
		return nil
	}

	if vm.inputAmount < 0 {
		return AssertError("verifying a witness program requires the " +
			"amount of the output being spent")
	}

	script, items, err := vm.witnessV0Script(witness)
	if err != nil {
		return err
	}
	for _, item := range items {
		if len(item) > MaxScriptElementSize {
			str := fmt.Sprintf("element size %d exceeds max allowed "+
				"size %d", len(item), MaxScriptElementSize)
			return scriptError(ErrElementTooBig, str)
		}
	}
	vm.scripts = append(vm.scripts, script)
	vm.SetStack(items)
	return nil
}

// DisasmPC returns the disassembly of the opcode Step executes next, prefixed
// with its script index and offset.
func (vm *Engine) DisasmPC() (string, error) {
	if err := vm.checkValidPC(); err != nil {
		return "", err
	}

	next := vm.tokenizer
	if !next.Next() {
		if err := next.Err(); err != nil {
			return "", err
		}
		str := fmt.Sprintf("program counter beyond script index %d (bytes %x)",
			vm.scriptIdx, vm.scripts[vm.scriptIdx])
		return "", scriptError(ErrInvalidProgramCounter, str)
	}

	var buf strings.Builder
	disasmOpcode(&buf, next.op, next.Data(), false)
	return fmt.Sprintf("%02x:%04x: %s", vm.scriptIdx,
		vm.tokenizer.ByteIndex(), buf.String()), nil
}

// DisasmScript returns one line of disassembly per opcode of the script at
// idx.  Index 0 is the signature script, 1 the public key script, and later
// indexes are the redeem and witness scripts once execution reaches them.
func (vm *Engine) DisasmScript(idx int) (string, error) {
	if idx < 0 || idx >= len(vm.scripts) {
		str := fmt.Sprintf("script index %d >= total scripts %d", idx,
			len(vm.scripts))
		return "", scriptError(ErrInvalidIndex, str)
	}

	var buf strings.Builder
	tokenizer := MakeScriptTokenizer(vm.scripts[idx])
	for n := 0; tokenizer.Next(); n++ {
		fmt.Fprintf(&buf, "%02x:%04x: ", idx, n)
		disasmOpcode(&buf, tokenizer.op, tokenizer.Data(), false)
		buf.WriteByte('\n')
	}
	return buf.String(), tokenizer.Err()
}

// CheckErrorCondition pops the final stack item and returns nil when it is
// true.  finalScript applies the rules that only hold once every script has
// run: version 0 witness scripts and ScriptVerifyCleanStack require exactly
// one item.
func (vm *Engine) CheckErrorCondition(finalScript bool) error {
	if vm.scriptIdx < len(vm.scripts) {
		return scriptError(ErrScriptUnfinished,
			"error check when script unfinished")
	}

	depth := vm.dstack.depth()
	if finalScript && depth != 1 {
		switch {
		case vm.isWitnessVersionActive(BaseSegwitWitnessVersion):
			str := fmt.Sprintf("witness program must leave exactly one "+
				"stack item, found %d", depth)
			return scriptError(ErrCleanStack, str)

		case vm.hasFlag(ScriptVerifyCleanStack):
			str := fmt.Sprintf("stack must contain exactly one item "+
				"(contains %d)", depth)
			return scriptError(ErrCleanStack, str)
		}
	}
	if depth < 1 {
		return scriptError(ErrEmptyStack,
			"stack empty at end of script execution")
	}

	v, err := vm.dstack.popBool()
	if err != nil {
		return err
	}
	if v {
		return nil
	}

	log.Tracef("%v", newLogClosure(func() string {
		var buf strings.Builder
		for i := range vm.scripts {
			dis, _ := vm.DisasmScript(i)
			fmt.Fprintf(&buf, "script%d:\n%s", i, dis)
		}
		return "scripts failed:\n" + buf.String()
	}))
	return scriptError(ErrEvalFalse,
		"false stack entry at end of script execution")
}

// enterRedeemScript checks the P2SH hash comparison succeeded and queues the
// redeem script, the last item the signature script pushed, over the rest of
// that stack.
func (vm *Engine) enterRedeemScript() error {
	if err := vm.CheckErrorCondition(false); err != nil {
		return err
	}

	saved := vm.savedFirstStack
	if len(saved) == 0 {
		return scriptError(ErrEvalFalse,
			"pay to script hash spend without a redeem script")
	}
	redeemScript := saved[len(saved)-1]
	if err := checkScriptParses(redeemScript); err != nil {
		return err
	}
	vm.scripts = append(vm.scripts, redeemScript)
	vm.SetStack(saved[:len(saved)-1])
	return nil
}

// endScript resets the per-script state once the current script is
// exhausted and moves the program counter to the following script, queueing
// the redeem or witness script when one is due.
func (vm *Engine) endScript() error {
	if len(vm.condStack) != 0 {
		return scriptError(ErrUnbalancedConditional,
			"end of script reached in conditional execution")
	}
	vm.astack.clear()
	vm.numOps = 0
	vm.lastCodeSep = 0

	finished := vm.scriptIdx
	vm.scriptIdx++

	witnessAfter := 1
	if vm.bip16 {
		witnessAfter = 2
	}
	switch {
	case finished == 0 && vm.bip16:
		vm.savedFirstStack = vm.GetStack()
	case finished == 1 && vm.bip16:
		return vm.enterRedeemScript()
	case finished == witnessAfter && vm.isWitnessProgramActive():
		return vm.verifyWitnessProgram(vm.witness)
	}
	return nil
}

// Step executes the next opcode and reports whether every script has run.
// The engine must not be used after Step returns an error.
func (vm *Engine) Step() (done bool, err error) {
	if err := vm.checkValidPC(); err != nil {
		return true, err
	}

	// An empty script goes straight to the end of script handling.
	if !vm.tokenizer.Done() {
		if !vm.tokenizer.Next() {
			if err := vm.tokenizer.Err(); err != nil {
				return false, err
			}
			str := fmt.Sprintf("attempt to step beyond script index %d "+
				"(bytes %x)", vm.scriptIdx, vm.scripts[vm.scriptIdx])
			return true, scriptError(ErrInvalidProgramCounter, str)
		}

		err := vm.executeOpcode(vm.tokenizer.op, vm.tokenizer.Data())
		if err != nil {
			return true, err
		}

		if n := vm.dstack.depth() + vm.astack.depth(); n > MaxStackSize {
			str := fmt.Sprintf("combined stack size %d > max allowed %d",
				n, MaxStackSize)
			return false, scriptError(ErrStackOverflow, str)
		}
		if !vm.tokenizer.Done() {
			return false, nil
		}
	}

	if err := vm.endScript(); err != nil {
		return false, err
	}
	if vm.scriptIdx >= len(vm.scripts) {
		return true, nil
	}
	vm.tokenizer = MakeScriptTokenizer(vm.scripts[vm.scriptIdx])
	return false, nil
}

// Execute runs every script and returns nil only when the spend is
// authorized.
func (vm *Engine) Execute() (err error) {
	for done := false; !done; {
		log.Tracef("%v", newLogClosure(func() string {
			dis, err := vm.DisasmPC()
			if err != nil {
				return fmt.Sprintf("stepping - failed to disasm pc: %v", err)
			}
			return "stepping " + dis
		}))

		done, err = vm.Step()
		if err != nil {
			return err
		}

		log.Tracef("%v", newLogClosure(func() string {
			var out string
			if vm.dstack.depth() != 0 {
				out = "Stack:\n" + vm.dstack.String()
			}
			if vm.astack.depth() != 0 {
				out += "AltStack:\n" + vm.astack.String()
			}
			return out
		}))
	}

	return vm.CheckErrorCondition(true)
}

// subScript returns the current script from the last OP_CODESEPARATOR on.
func (vm *Engine) subScript() []byte {
	return vm.scripts[vm.scriptIdx][vm.lastCodeSep:]
}

// GetStack returns the data stack, bottom first.
func (vm *Engine) GetStack() [][]byte {
	return vm.dstack.contents()
}

// SetStack replaces the data stack with data, bottom first.
func (vm *Engine) SetStack(data [][]byte) {
	vm.dstack.replace(data)
}

// GetAltStack returns the alternate stack, bottom first.
func (vm *Engine) GetAltStack() [][]byte {
	return vm.astack.contents()
}

// SetAltStack replaces the alternate stack with data, bottom first.
func (vm *Engine) SetAltStack(data [][]byte) {
	vm.astack.replace(data)
}

// isSingleCanonicalPush reports whether script is exactly one minimally
// encoded push.
func isSingleCanonicalPush(script []byte) bool {
	tokenizer := MakeScriptTokenizer(script)
	if !tokenizer.Next() || tokenizer.Opcode() > OP_16 {
		return false
	}
	return tokenizer.Done() && tokenizer.Err() == nil &&
		isCanonicalPush(tokenizer.Opcode(), tokenizer.Data())
}

// detectWitnessProgram finds the witness program being spent, either as the
// public key script itself or, for nested P2SH, as the single push of the
// signature script.  It returns nil when there is none.
func detectWitnessProgram(scriptSig, scriptPubKey []byte, bip16 bool) ([]byte,
	error) {

	if isWitnessProgramScript(scriptPubKey) {
		if len(scriptSig) != 0 {
			return nil, scriptError(ErrWitnessMalleated, "native witness "+
				"program cannot also have a signature script")
		}
		return scriptPubKey, nil
	}

	if !bip16 {
		return nil, nil
	}
	program := finalOpcodeData(scriptSig)
	if !isWitnessProgramScript(program) {
		return nil, nil
	}
	if !isSingleCanonicalPush(scriptSig) {
		return nil, scriptError(ErrWitnessMalleatedP2SH, "signature "+
			"script for witness nested p2sh is not canonical")
	}
	return program, nil
}

// newEngine prepares an engine that runs scriptSig and witness against
// scriptPubKey for input txIdx of tx.
func newEngine(scriptSig []byte, witness wire.TxWitness, scriptPubKey []byte,
	tx *wire.MsgTx, txIdx int, flags ScriptFlags, inputAmount int64,
	opts ...EngineOption) (*Engine, error) {

	if txIdx < 0 || txIdx >= len(tx.TxIn) {
		str := fmt.Sprintf("transaction input index %d is negative or "+
			">= %d", txIdx, len(tx.TxIn))
		return nil, scriptError(ErrInvalidIndex, str)
	}

	vm := Engine{
		flags:       flags,
		witness:     witness,
		prevScript:  scriptPubKey,
		inputAmount: inputAmount,
	}
	for _, opt := range opts {
		opt(&vm)
	}

	// A clean stack is only well defined once P2SH or segwit decides which
	// scripts run.
	if vm.hasFlag(ScriptVerifyCleanStack) && !vm.hasFlag(ScriptBip16) &&
		!vm.hasFlag(ScriptVerifyWitness) {

		return nil, scriptError(ErrInvalidFlags,
			"invalid flags combination")
	}
	if vm.hasFlag(ScriptVerifyWitness) && !vm.hasFlag(ScriptBip16) {
		return nil, scriptError(ErrInvalidFlags,
			"P2SH must be enabled to do witness verification")
	}

	if vm.hasFlag(ScriptVerifySigPushOnly) && !IsPushOnlyScript(scriptSig) {
		return nil, scriptError(ErrNotPushOnly,
			"signature script is not push only")
	}

	vm.scripts = [][]byte{scriptSig, scriptPubKey}
	for _, script := range vm.scripts {
		if len(script) > MaxScriptSize {
			str := fmt.Sprintf("script size %d is larger than max "+
				"allowed size %d", len(script), MaxScriptSize)
			return nil, scriptError(ErrScriptTooBig, str)
		}
		if err := checkScriptParses(script); err != nil {
			return nil, err
		}
	}

	// Nothing runs for an empty signature script.
	if len(scriptSig) == 0 {
		vm.scriptIdx++
	}

	if vm.hasFlag(ScriptBip16) && isScriptHashScript(scriptPubKey) {
		if !IsPushOnlyScript(scriptSig) {
			return nil, scriptError(ErrNotPushOnly,
				"pay to script hash is not push only")
		}
		vm.bip16 = true
	}

	minimal := vm.hasFlag(ScriptVerifyMinimalData)
	vm.dstack.minimalNums = minimal
	vm.astack.minimalNums = minimal

	if vm.hasFlag(ScriptVerifyWitness) {
		program, err := detectWitnessProgram(scriptSig, scriptPubKey,
			vm.bip16)
		if err != nil {
			return nil, err
		}

		switch {
		case program != nil:
			vm.witnessVersion, vm.witnessProgram, err =
				ExtractWitnessProgramInfo(program)
			if err != nil {
				return nil, err
			}

		case len(witness) != 0:
			return nil, scriptError(ErrWitnessUnexpected,
				"non-witness inputs cannot have a witness")
		}
	}

	vm.tokenizer = MakeScriptTokenizer(vm.scripts[vm.scriptIdx])
	vm.tx = *tx
	vm.txIdx = txIdx
	return &vm, nil
}

// NewEngine returns an engine for input txIdx of tx spending an output locked
// by scriptPubKey.  The signature script and witness come from the input.
//
// sigCache and hashCache are optional.  inputAmount is the value of the
// output being spent, or NoInputAmount when unknown, in which case
// verifying a witness program fails with an AssertError.
func NewEngine(scriptPubKey []byte, tx *wire.MsgTx, txIdx int, flags ScriptFlags,
	sigCache *SigCache, hashCache *TxSigHashes, inputAmount int64,
	opts ...EngineOption) (*Engine, error) {

	if txIdx < 0 || txIdx >= len(tx.TxIn) {
		str := fmt.Sprintf("transaction input index %d is negative or "+
			">= %d", txIdx, len(tx.TxIn))
		return nil, scriptError(ErrInvalidIndex, str)
	}

	txIn := tx.TxIn[txIdx]
	opts = append([]EngineOption{
		WithSigCache(sigCache), WithHashCache(hashCache),
	}, opts...)
	return newEngine(txIn.SignatureScript, txIn.Witness, scriptPubKey, tx,
		txIdx, flags, inputAmount, opts...)
}

// VerifyScript runs scriptSig and witness against scriptPubKey for input
// txIdx of tx and returns nil only when the spend is authorized.  Script
// failures are returned as Error and caller mistakes, such as a missing
// amount for a witness spend, as AssertError.
func VerifyScript(scriptSig []byte, witness wire.TxWitness, scriptPubKey []byte,
	tx *wire.MsgTx, txIdx int, flags ScriptFlags, amount int64,
	opts ...EngineOption) error {

	vm, err := newEngine(scriptSig, witness, scriptPubKey, tx, txIdx, flags,
		amount, opts...)
	if err != nil {
		return err
	}
	return vm.Execute()
}
