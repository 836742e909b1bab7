// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
)

// rawSignature signs hash with key and appends the hash type byte.
func rawSignature(hash []byte, hashType SigHashType,
	key *btcec.PrivateKey) []byte {

	return append(ecdsa.Sign(key, hash).Serialize(), byte(hashType))
}

// serializePubKey encodes the public half of key in the form its address
// was derived from.
func serializePubKey(key *btcec.PrivateKey, compress bool) []byte {
	if compress {
		return key.PubKey().SerializeCompressed()
	}
	return key.PubKey().SerializeUncompressed()
}

// RawTxInWitnessSignature signs input idx of tx with the BIP0143 signature
// hash and returns the DER signature followed by the hash type.
func RawTxInWitnessSignature(tx *wire.MsgTx, sigHashes *TxSigHashes, idx int,
	amt int64, subScript []byte, hashType SigHashType,
	key *btcec.PrivateKey) ([]byte, error) {

	hash, err := CalcWitnessSigHash(subScript, sigHashes, hashType, tx,
		idx, amt)
	if err != nil {
		return nil, err
	}
	return rawSignature(hash, hashType, key), nil
}

// WitnessSignature returns the witness spending a pay-to-witness-pubkey-hash
// output of amt owned by privKey as input idx of tx.
func WitnessSignature(tx *wire.MsgTx, sigHashes *TxSigHashes, idx int, amt int64,
	subscript []byte, hashType SigHashType, privKey *btcec.PrivateKey,
	compress bool) (wire.TxWitness, error) {

	sig, err := RawTxInWitnessSignature(tx, sigHashes, idx, amt, subscript,
		hashType, privKey)
	if err != nil {
		return nil, err
	}
	_, witness, err := GenerateUnlockingScript(WitnessPubKeyHashUnlock{
		Sig:    sig,
		PubKey: serializePubKey(privKey, compress),
	})
	return witness, err
}

// RawTxInSignature signs input idx of tx with the legacy signature hash over
// subScript and returns the DER signature followed by the hash type.
func RawTxInSignature(tx *wire.MsgTx, idx int, subScript []byte,
	hashType SigHashType, key *btcec.PrivateKey) ([]byte, error) {

	hash, err := CalcSignatureHash(subScript, hashType, tx, idx)
	if err != nil {
		return nil, err
	}
	return rawSignature(hash, hashType, key), nil
}

// SignatureScript returns the signature script spending a pay-to-pubkey-hash
// output owned by privKey as input idx of tx.  compress must match the key
// encoding the address was derived from.
func SignatureScript(tx *wire.MsgTx, idx int, subscript []byte,
	hashType SigHashType, privKey *btcec.PrivateKey, compress bool) ([]byte, error) {

	sig, err := RawTxInSignature(tx, idx, subscript, hashType, privKey)
	if err != nil {
		return nil, err
	}
	script, _, err := GenerateUnlockingScript(PubKeyHashUnlock{
		Sig:    sig,
		PubKey: serializePubKey(privKey, compress),
	})
	return script, err
}

// KeyDB looks up the private key of an address and whether its public key is
// serialized compressed.
type KeyDB interface {
	GetKey(btcutil.Address) (*btcec.PrivateKey, bool, error)
}

// KeyClosure implements KeyDB with a closure.
type KeyClosure func(btcutil.Address) (*btcec.PrivateKey, bool, error)

// GetKey calls the closure.
func (kc KeyClosure) GetKey(address btcutil.Address) (*btcec.PrivateKey, bool, error) {
	return kc(address)
}

// ScriptDB looks up the redeem script of a pay-to-script-hash address.
type ScriptDB interface {
	GetScript(btcutil.Address) ([]byte, error)
}

// ScriptClosure implements ScriptDB with a closure.
type ScriptClosure func(btcutil.Address) ([]byte, error)

// GetScript calls the closure.
func (sc ScriptClosure) GetScript(address btcutil.Address) ([]byte, error) {
	return sc(address)
}

// signUnlocking signs what it can of input idx spending subScript and returns
// the unlocking parameters.  A multisig script may come back with fewer
// signatures than it requires when keys are missing.
func signUnlocking(chainParams *chaincfg.Params, tx *wire.MsgTx, idx int,
	subScript []byte, hashType SigHashType, kdb KeyDB,
	sdb ScriptDB) (UnlockingParams, error) {

	class, addrs, required, err := ExtractPkScriptAddrs(subScript,
		chainParams)
	if err != nil {
		return nil, err
	}

	signWith := func(addr btcutil.Address) ([]byte, []byte, error) {
		key, compressed, err := kdb.GetKey(addr)
		if err != nil {
			return nil, nil, err
		}
		sig, err := RawTxInSignature(tx, idx, subScript, hashType, key)
		if err != nil {
			return nil, nil, err
		}
		return sig, serializePubKey(key, compressed), nil
	}

	switch class {
	case PubKeyTy, PubKeyHashTy:
		if len(addrs) == 0 {
			break
		}
		sig, pubKey, err := signWith(addrs[0])
		if err != nil {
			return nil, err
		}
		if class == PubKeyTy {
			return PubKeyUnlock{Sig: sig}, nil
		}
		return PubKeyHashUnlock{Sig: sig, PubKey: pubKey}, nil

	case MultiSigTy:
		var sigs [][]byte
		for _, addr := range addrs {
			if len(sigs) == required {
				break
			}
			if sig, _, err := signWith(addr); err == nil {
				sigs = append(sigs, sig)
			}
		}
		return MultiSigUnlock{Sigs: sigs}, nil

	case ColdStakeTy:
		if len(addrs) != 2 {
			return nil, errors.New("cold-stake script does not carry " +
				"two key hashes")
		}

		// The owner branch spends into any transaction, so it wins when
		// both keys are known.
		if sig, pubKey, err := signWith(addrs[1]); err == nil {
			return ColdStakeUnlock{Sig: sig, PubKey: pubKey}, nil
		}
		sig, pubKey, err := signWith(addrs[0])
		if err != nil {
			return nil, err
		}
		return ColdStakeUnlock{Sig: sig, PubKey: pubKey, Staker: true}, nil

	case ScriptHashTy:
		redeemScript, err := sdb.GetScript(addrs[0])
		if err != nil {
			return nil, err
		}
		inner, err := signUnlocking(chainParams, tx, idx, redeemScript,
			hashType, kdb, sdb)
		if err != nil {
			return nil, err
		}
		return ScriptHashUnlock{RedeemScript: redeemScript, Inner: inner}, nil
	}

	return nil, fmt.Errorf("cannot sign a %v script", class)
}

// SignTxOutput signs input idx of tx, which spends pkScript, with the keys of
// kdb and the redeem scripts of sdb.  The result is merged with
// previousScript, so signers of a multisig output can each call it in turn.
func SignTxOutput(chainParams *chaincfg.Params, tx *wire.MsgTx, idx int,
	pkScript []byte, hashType SigHashType, kdb KeyDB, sdb ScriptDB,
	previousScript []byte) ([]byte, error) {

	params, err := signUnlocking(chainParams, tx, idx, pkScript, hashType,
		kdb, sdb)
	if err != nil {
		return nil, err
	}
	sigScript, _, err := GenerateUnlockingScript(params)
	if err != nil {
		return nil, err
	}
	return CombineSigScripts(pkScript, tx, idx, sigScript, previousScript)
}

// evalUnlockingStack executes only the passed signature script and returns
// the data stack it leaves behind.  Scripts that fail to execute leave an
// empty stack.
func evalUnlockingStack(tx *wire.MsgTx, idx int, sigScript []byte) [][]byte {
	vm, err := newEngine(sigScript, nil, []byte{OP_TRUE}, tx, idx, 0,
		NoInputAmount)
	if err != nil {
		log.Debugf("unable to evaluate signature script %x: %v",
			sigScript, err)
		return nil
	}
	for vm.scriptIdx == 0 {
		done, err := vm.Step()
		if err != nil {
			log.Debugf("unable to evaluate signature script %x: %v",
				sigScript, err)
			return nil
		}
		if done {
			break
		}
	}
	return vm.GetStack()
}

// stackToScript returns a push only script that recreates the passed stack.
func stackToScript(stack [][]byte) ([]byte, error) {
	builder := NewScriptBuilder()
	for _, item := range stack {
		builder.AddData(item)
	}
	return builder.Script()
}

// sigChecker holds what is needed to verify a candidate signature while
// combining partial proofs.
type sigChecker struct {
	tx          *wire.MsgTx
	idx         int
	amount      int64
	hashVersion HashVersion
}

// verify reports whether the passed signature, including its trailing hash
// type, is valid for the public key over the passed script code.
func (c *sigChecker) verify(script, fullSig, pkBytes []byte) bool {
	if len(fullSig) < 1 {
		return false
	}
	hashType := SigHashType(fullSig[len(fullSig)-1])
	sig, err := ecdsa.ParseDERSignature(fullSig[:len(fullSig)-1])
	if err != nil {
		return false
	}
	pubKey, err := btcec.ParsePubKey(pkBytes)
	if err != nil {
		return false
	}
	hash, err := CalcSigHash(script, hashType, c.hashVersion, c.tx, c.idx,
		c.amount)
	if err != nil {
		return false
	}
	return sig.Verify(hash, pubKey)
}

// combineStacks merges two partial proof stacks for the passed script.  The
// script is the locking script for the outermost call and the redeem or
// witness script once a script hash layer has been unwrapped.
func combineStacks(c *sigChecker, script []byte, a, b [][]byte) [][]byte {
	switch m := MatchScriptTemplate(script).(type) {
	case PubKeyMatch, PubKeyHashMatch, ColdStakeMatch,
		WitnessPubKeyHashMatch:

		// There is a single signature which is either present or not.
		if len(a) != 0 {
			return a
		}
		return b

	case ScriptHashMatch:
		return combineScriptHash(c, m.Hash, btcutil.Hash160, a, b)

	case WitnessScriptHashMatch:
		inner := *c
		inner.hashVersion = HashVersionWitnessV0
		return combineScriptHash(&inner, m.Hash, sha256Sum, a, b)

	case MultiSigMatch:
		return combineMultiSig(c, script, m, a, b)
	}

	// Nothing is known about the remaining scripts, so the larger proof
	// is assumed to be the more complete one.
	if len(b) > len(a) {
		return b
	}
	return a
}

// combineScriptHash merges two proofs for a script hash output.  Only a proof
// whose last item hashes to hash carries the committed script, and that
// script is what the remaining items are merged against.  Items of a proof
// that ends in some other script are still offered as signatures, which the
// inner merge verifies before keeping.  Nothing is returned when neither
// proof commits to the script.
func combineScriptHash(c *sigChecker, hash []byte, hashFn func([]byte) []byte,
	a, b [][]byte) [][]byte {

	commits := func(stack [][]byte) bool {
		if len(stack) == 0 || len(stack[len(stack)-1]) == 0 {
			return false
		}
		return bytes.Equal(hashFn(stack[len(stack)-1]), hash)
	}

	switch {
	case commits(a):
	case commits(b):
		a, b = b, a
	default:
		return nil
	}

	script := a[len(a)-1]
	if commits(b) {
		b = b[:len(b)-1]
	}
	merged := combineStacks(c, script, a[:len(a)-1], b)
	return append(merged, script)
}

// combineMultiSig assigns to every public key of the multisig script, in
// script order, the first signature from either proof that is valid for it.
// Each signature fills at most one slot and no more than the required number
// of signatures are kept.  Missing signatures are padded with empty
// placeholders after the leading dummy item.
func combineMultiSig(c *sigChecker, script []byte, m MultiSigMatch,
	a, b [][]byte) [][]byte {

	var candidates [][]byte
	for _, stack := range [][][]byte{a, b} {
		for _, item := range stack {
			if len(item) != 0 {
				candidates = append(candidates, item)
			}
		}
	}

	used := make([]bool, len(candidates))
	sigs := make([][]byte, 0, m.Required)
	for _, pubKey := range m.PubKeys {
		if len(sigs) == m.Required {
			break
		}
		for i, sig := range candidates {
			if used[i] || !c.verify(script, sig, pubKey) {
				continue
			}
			used[i] = true
			sigs = append(sigs, sig)
			break
		}
	}

	combined := make([][]byte, 0, m.Required+1)
	combined = append(combined, nil)
	combined = append(combined, sigs...)
	for i := len(sigs); i < m.Required; i++ {
		combined = append(combined, nil)
	}
	return combined
}

// CombineSigScripts merges two partial signature scripts that spend the
// passed locking script in input idx of tx into one that carries the
// signatures of both.  Either script may be empty.  Signatures are checked
// with the legacy signature hash; use CombineWitness for witness spends.
func CombineSigScripts(pkScript []byte, tx *wire.MsgTx, idx int,
	sigA, sigB []byte) ([]byte, error) {

	if idx < 0 || idx >= len(tx.TxIn) {
		str := fmt.Sprintf("transaction input index %d is negative or "+
			">= %d", idx, len(tx.TxIn))
		return nil, AssertError(str)
	}

	c := &sigChecker{
		tx:          tx,
		idx:         idx,
		amount:      NoInputAmount,
		hashVersion: HashVersionLegacy,
	}
	stackA := evalUnlockingStack(tx, idx, sigA)
	stackB := evalUnlockingStack(tx, idx, sigB)

	// A pay-to-script-hash proof that wraps a witness program has nothing
	// to merge in the signature script itself.
	if isScriptHashScript(pkScript) {
		for _, stack := range [][][]byte{stackA, stackB} {
			if len(stack) == 1 && isWitnessProgramScript(stack[0]) {
				return stackToScript(stack)
			}
		}
	}

	return stackToScript(combineStacks(c, pkScript, stackA, stackB))
}

// CombineWitness merges two partial witnesses that spend the passed witness
// program, or a pay-to-script-hash output wrapping one, in input idx of tx.
// The amount of the output being spent is required since witness signatures
// commit to it.
func CombineWitness(pkScript []byte, tx *wire.MsgTx, idx int, amount int64,
	witA, witB wire.TxWitness) (wire.TxWitness, error) {

	if idx < 0 || idx >= len(tx.TxIn) {
		str := fmt.Sprintf("transaction input index %d is negative or "+
			">= %d", idx, len(tx.TxIn))
		return nil, AssertError(str)
	}
	if amount < 0 {
		return nil, AssertError("combining witnesses requires the " +
			"input amount")
	}

	program := pkScript
	if isScriptHashScript(pkScript) {
		program = finalOpcodeData(tx.TxIn[idx].SignatureScript)
	}
	if !isWitnessProgramScript(program) {
		str := fmt.Sprintf("script %x is not a witness program", program)
		return nil, AssertError(str)
	}

	c := &sigChecker{
		tx:          tx,
		idx:         idx,
		amount:      amount,
		hashVersion: HashVersionWitnessV0,
	}

	// Pay-to-witness-pubkey-hash signatures commit to the implied
	// pay-to-pubkey-hash script, which has the same shape as far as
	// combining is concerned.
	merged := combineStacks(c, program, witA, witB)
	return wire.TxWitness(merged), nil
}
