// Copyright (c) 2013-2022 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

const (
	asn1SequenceID = 0x30
	asn1IntegerID  = 0x02

	// minSigLen is a DER signature whose R and S are one byte each.
	minSigLen = 8

	// maxSigLen is a DER signature whose R and S are 33 bytes each, the
	// most a 256-bit integer needs with its sign padding.
	maxSigLen = 72
)

// derIntCodes are the error codes reported for a malformed R or S.
type derIntCodes struct {
	intID    ErrorCode
	zeroLen  ErrorCode
	negative ErrorCode
	padding  ErrorCode
}

var (
	rIntCodes = derIntCodes{ErrSigInvalidRIntID, ErrSigZeroRLen,
		ErrSigNegativeR, ErrSigTooMuchRPadding}
	sIntCodes = derIntCodes{ErrSigInvalidSIntID, ErrSigZeroSLen,
		ErrSigNegativeS, ErrSigTooMuchSPadding}
)

// checkDERInt validates the ASN.1 integer whose type byte is at typeOff and
// whose value is n bytes long.  It must be a positive, minimally encoded
// integer.
func checkDERInt(sig []byte, typeOff, n int, name string, codes derIntCodes) error {
	if sig[typeOff] != asn1IntegerID {
		str := fmt.Sprintf("malformed signature: %s integer marker: "+
			"%#x != %#x", name, sig[typeOff], asn1IntegerID)
		return scriptError(codes.intID, str)
	}
	if n == 0 {
		str := fmt.Sprintf("malformed signature: %s length is zero", name)
		return scriptError(codes.zeroLen, str)
	}

	v := sig[typeOff+2 : typeOff+2+n]
	if v[0]&0x80 != 0 {
		str := fmt.Sprintf("malformed signature: %s is negative", name)
		return scriptError(codes.negative, str)
	}
	if n > 1 && v[0] == 0x00 && v[1]&0x80 == 0 {
		str := fmt.Sprintf("malformed signature: %s value has too much "+
			"padding", name)
		return scriptError(codes.padding, str)
	}
	return nil
}

// checkSignatureEncoding enforces strict DER and, with ScriptVerifyLowS, a
// low S value on a signature stripped of its hash type.  A DER signature is
//
//	0x30 <len> 0x02 <len R> <R> 0x02 <len S> <S>
func (vm *Engine) checkSignatureEncoding(sig []byte) error {
	if !vm.hasFlag(ScriptVerifyDERSignatures) &&
		!vm.hasFlag(ScriptVerifyLowS) &&
		!vm.hasFlag(ScriptVerifyStrictEncoding) {

		return nil
	}

	sigLen := len(sig)
	switch {
	case sigLen < minSigLen:
		str := fmt.Sprintf("malformed signature: too short: %d < %d",
			sigLen, minSigLen)
		return scriptError(ErrSigTooShort, str)

	case sigLen > maxSigLen:
		str := fmt.Sprintf("malformed signature: too long: %d > %d",
			sigLen, maxSigLen)
		return scriptError(ErrSigTooLong, str)

	case sig[0] != asn1SequenceID:
		str := fmt.Sprintf("malformed signature: format has wrong type: "+
			"%#x", sig[0])
		return scriptError(ErrSigInvalidSeqID, str)

	case int(sig[1]) != sigLen-2:
		str := fmt.Sprintf("malformed signature: bad length: %d != %d",
			sig[1], sigLen-2)
		return scriptError(ErrSigInvalidDataLen, str)
	}

	rLen := int(sig[3])
	sTypeOff := 4 + rLen
	if sTypeOff >= sigLen {
		return scriptError(ErrSigMissingSTypeID,
			"malformed signature: S type indicator missing")
	}
	if sTypeOff+1 >= sigLen {
		return scriptError(ErrSigMissingSLen,
			"malformed signature: S length missing")
	}
	sLen := int(sig[sTypeOff+1])
	if sTypeOff+2+sLen != sigLen {
		return scriptError(ErrSigInvalidSLen,
			"malformed signature: invalid S length")
	}

	if err := checkDERInt(sig, 2, rLen, "R", rIntCodes); err != nil {
		return err
	}
	if err := checkDERInt(sig, sTypeOff, sLen, "S", sIntCodes); err != nil {
		return err
	}

	if !vm.hasFlag(ScriptVerifyLowS) {
		return nil
	}
	sBytes := sig[sTypeOff+2:]
	for len(sBytes) > 0 && sBytes[0] == 0x00 {
		sBytes = sBytes[1:]
	}
	var s secp256k1.ModNScalar
	if len(sBytes) > 32 || s.SetByteSlice(sBytes) || s.IsOverHalfOrder() {
		return scriptError(ErrSigHighS, "signature is not canonical due "+
			"to unnecessarily high S value")
	}
	return nil
}

// checkHashTypeEncoding rejects undefined hash types under
// ScriptVerifyStrictEncoding.
func (vm *Engine) checkHashTypeEncoding(hashType SigHashType) error {
	if !vm.hasFlag(ScriptVerifyStrictEncoding) {
		return nil
	}

	base := hashType & ^SigHashAnyOneCanPay
	if base < SigHashAll || base > SigHashSingle {
		str := fmt.Sprintf("invalid hash type 0x%x", hashType)
		return scriptError(ErrInvalidSigHashType, str)
	}
	return nil
}

func isCompressedPubKey(pubKey []byte) bool {
	return len(pubKey) == 33 && (pubKey[0] == 0x02 || pubKey[0] == 0x03)
}

// checkPubKeyEncoding applies ScriptVerifyWitnessPubKeyType inside version 0
// witness scripts and the compressed or uncompressed format rule of
// ScriptVerifyStrictEncoding.
func (vm *Engine) checkPubKeyEncoding(pubKey []byte) error {
	compressed := isCompressedPubKey(pubKey)
	if vm.hasFlag(ScriptVerifyWitnessPubKeyType) &&
		vm.isWitnessVersionActive(BaseSegwitWitnessVersion) && !compressed {

		return scriptError(ErrWitnessPubKeyType,
			"only compressed keys are accepted post-segwit")
	}

	if !vm.hasFlag(ScriptVerifyStrictEncoding) || compressed ||
		(len(pubKey) == 65 && pubKey[0] == 0x04) {

		return nil
	}
	return scriptError(ErrPubKeyType, "unsupported public key type")
}

// parseSignature splits the hash type off a non-empty signature and applies
// the encoding rules the flags enable, returning violations as script errors.
// A signature that passes them but still does not parse comes back nil, and
// only ever fails verification.
func (vm *Engine) parseSignature(fullSig []byte) (*ecdsa.Signature,
	SigHashType, error) {

	hashType := SigHashType(fullSig[len(fullSig)-1])
	sigBytes := fullSig[:len(fullSig)-1]
	if err := vm.checkHashTypeEncoding(hashType); err != nil {
		return nil, 0, err
	}
	if err := vm.checkSignatureEncoding(sigBytes); err != nil {
		return nil, 0, err
	}

	var (
		sig *ecdsa.Signature
		err error
	)
	if vm.hasFlag(ScriptVerifyStrictEncoding) ||
		vm.hasFlag(ScriptVerifyDERSignatures) {

		sig, err = ecdsa.ParseDERSignature(sigBytes)
	} else {
		sig, err = ecdsa.ParseSignature(sigBytes)
	}
	if err != nil {
		return nil, hashType, nil
	}
	return sig, hashType, nil
}

// calcSigHash returns the signature hash of the executing input over script
// using the digest algorithm of the active script version.
func (vm *Engine) calcSigHash(script []byte, hashType SigHashType) ([]byte, error) {
	if !vm.isWitnessVersionActive(BaseSegwitWitnessVersion) {
		return calcSignatureHash(script, hashType, &vm.tx, vm.txIdx), nil
	}

	if vm.inputAmount < 0 {
		return nil, AssertError("witness signature hash requires the " +
			"amount of the output being spent")
	}
	if vm.hashCache == nil {
		vm.hashCache = NewTxSigHashes(&vm.tx)
	}
	return calcWitnessSignatureHash(script, vm.hashCache, hashType, &vm.tx,
		vm.txIdx, vm.inputAmount)
}

// verifySig checks a parsed signature against pkBytes over script.  Keys that
// do not parse fail verification.  The signature cache is consulted first
// when the engine has one and only successful checks are added to it.
func (vm *Engine) verifySig(sig *ecdsa.Signature, hashType SigHashType,
	sigBytes, pkBytes, script []byte) (bool, error) {

	pubKey, err := btcec.ParsePubKey(pkBytes)
	if err != nil {
		return false, nil
	}
	sigHash, err := vm.calcSigHash(script, hashType)
	if err != nil {
		return false, err
	}

	if vm.sigCache == nil {
		return sig.Verify(sigHash, pubKey), nil
	}
	var key chainhash.Hash
	copy(key[:], sigHash)
	if vm.sigCache.Exists(key, sigBytes, pkBytes) {
		return true, nil
	}
	if !sig.Verify(sigHash, pubKey) {
		return false, nil
	}
	vm.sigCache.Add(key, sigBytes, pkBytes)
	return true, nil
}

// checkSig verifies fullSig, a signature followed by its hash type, against
// pkBytes over the script code since the last OP_CODESEPARATOR.  Outside
// version 0 witness scripts the signature is first removed from the script
// code.
func (vm *Engine) checkSig(fullSig, pkBytes []byte) (bool, error) {
	if len(fullSig) == 0 {
		return false, nil
	}

	sig, hashType, err := vm.parseSignature(fullSig)
	if err != nil {
		return false, err
	}
	if err := vm.checkPubKeyEncoding(pkBytes); err != nil {
		return false, err
	}
	if sig == nil {
		return false, nil
	}

	script := vm.subScript()
	if !vm.isWitnessVersionActive(BaseSegwitWitnessVersion) {
		script = removeOpcodeByData(script, fullSig)
	}
	return vm.verifySig(sig, hashType, fullSig[:len(fullSig)-1], pkBytes,
		script)
}

// opcodeCodeSeparator marks the start of the script code signatures commit
// to.
func opcodeCodeSeparator(op *opcode, data []byte, vm *Engine) error {
	vm.lastCodeSep = int(vm.tokenizer.ByteIndex())
	return nil
}

// opcodeCheckSig replaces a signature and public key with whether the
// signature is valid.  Under ScriptVerifyNullFail a failing signature must be
// empty.
//
// Stack transformation: [... signature pubkey] -> [... bool]
func opcodeCheckSig(op *opcode, data []byte, vm *Engine) error {
	pkBytes, err := vm.dstack.pop()
	if err != nil {
		return err
	}
	fullSig, err := vm.dstack.pop()
	if err != nil {
		return err
	}

	valid, err := vm.checkSig(fullSig, pkBytes)
	if err != nil {
		return err
	}
	if !valid && len(fullSig) > 0 && vm.hasFlag(ScriptVerifyNullFail) {
		return scriptError(ErrNullFail,
			"signature not empty on failed checksig")
	}
	vm.dstack.pushBool(valid)
	return nil
}

// popCount pops a multisig key or signature count and checks it is within
// [0, max].
func popCount(vm *Engine, what string, max int, code ErrorCode) (int, error) {
	num, err := vm.dstack.popNum()
	if err != nil {
		return 0, err
	}
	n := int(num.Int32())
	if n < 0 || n > max {
		str := fmt.Sprintf("number of %s %d is outside [0, %d]", what, n,
			max)
		return 0, scriptError(code, str)
	}
	return n, nil
}

// popItems pops n items, top first.
func popItems(vm *Engine, n int) ([][]byte, error) {
	items := make([][]byte, n)
	for i := range items {
		item, err := vm.dstack.pop()
		if err != nil {
			return nil, err
		}
		items[i] = item
	}
	return items, nil
}

// opcodeCheckMultiSig verifies m of n signatures.
//
// Signatures are matched against keys in a single pass in script order, so
// they must appear in the same relative order as the keys they sign for and
// a key never satisfies more than one signature.  The check fails as soon
// as fewer keys remain than signatures.  An extra item below the signatures
// is consumed too, and ScriptStrictMultiSig requires it to be empty.
//
// Stack transformation:
// [... dummy [sig ...] numsigs [pubkey ...] numpubkeys] -> [... bool]
func opcodeCheckMultiSig(op *opcode, data []byte, vm *Engine) error {
	numKeys, err := popCount(vm, "pubkeys", MaxPubKeysPerMultiSig,
		ErrInvalidPubKeyCount)
	if err != nil {
		return err
	}
	vm.numOps += numKeys
	if vm.numOps > MaxOpsPerScript {
		str := fmt.Sprintf("exceeded max operation limit of %d",
			MaxOpsPerScript)
		return scriptError(ErrTooManyOperations, str)
	}
	pubKeys, err := popItems(vm, numKeys)
	if err != nil {
		return err
	}

	numSigs, err := popCount(vm, "signatures", numKeys,
		ErrInvalidSignatureCount)
	if err != nil {
		return err
	}
	sigs, err := popItems(vm, numSigs)
	if err != nil {
		return err
	}

	dummy, err := vm.dstack.pop()
	if err != nil {
		return err
	}
	if vm.hasFlag(ScriptStrictMultiSig) && len(dummy) != 0 {
		str := fmt.Sprintf("multisig dummy argument has length %d "+
			"instead of 0", len(dummy))
		return scriptError(ErrSigNullDummy, str)
	}

	script := vm.subScript()
	if !vm.isWitnessVersionActive(BaseSegwitWitnessVersion) {
		for _, sig := range sigs {
			script = removeOpcodeByData(script, sig)
		}
	}

	// Each signature is parsed at most once however many keys it is tried
	// against.
	type parsedSig struct {
		sig      *ecdsa.Signature
		hashType SigHashType
		done     bool
	}
	parsed := make([]parsedSig, len(sigs))

	success := true
	keyIdx, sigIdx := 0, 0
	for sigIdx < len(sigs) {
		if len(sigs)-sigIdx > len(pubKeys)-keyIdx {
			success = false
			break
		}
		pkBytes := pubKeys[keyIdx]
		keyIdx++

		raw := sigs[sigIdx]
		if len(raw) == 0 {
			if err := vm.checkPubKeyEncoding(pkBytes); err != nil {
				return err
			}
			continue
		}

		p := &parsed[sigIdx]
		if !p.done {
			p.done = true
			p.sig, p.hashType, err = vm.parseSignature(raw)
			if err != nil {
				return err
			}
		}
		if p.sig == nil {
			continue
		}
		if err := vm.checkPubKeyEncoding(pkBytes); err != nil {
			return err
		}

		valid, err := vm.verifySig(p.sig, p.hashType, raw[:len(raw)-1],
			pkBytes, script)
		if err != nil {
			return err
		}
		if valid {
			sigIdx++
		}
	}

	if !success && vm.hasFlag(ScriptVerifyNullFail) {
		for _, sig := range sigs {
			if len(sig) > 0 {
				return scriptError(ErrNullFail, "not all signatures "+
					"empty on failed checkmultisig")
			}
		}
	}

	vm.dstack.pushBool(success)
	return nil
}
