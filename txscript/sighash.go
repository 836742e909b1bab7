// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2015-2018 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// SigHashType represents hash type bits at the end of a signature.
type SigHashType uint32

// Hash type bits from the end of a signature.
const (
	SigHashOld          SigHashType = 0x0
	SigHashAll          SigHashType = 0x1
	SigHashNone         SigHashType = 0x2
	SigHashSingle       SigHashType = 0x3
	SigHashAnyOneCanPay SigHashType = 0x80

	// sigHashMask defines the number of bits of the hash type which is used
	// to identify which outputs are signed.
	sigHashMask = 0x1f
)

// Base returns the hash type with the SigHashAnyOneCanPay modifier and any
// undefined bits cleared.
func (t SigHashType) Base() SigHashType {
	return t & sigHashMask
}

// AnyOneCanPay returns whether the SigHashAnyOneCanPay modifier is set.
func (t SigHashType) AnyOneCanPay() bool {
	return t&SigHashAnyOneCanPay != 0
}

// String returns the hash type in human-readable form.
func (t SigHashType) String() string {
	var base string
	switch t.Base() {
	case SigHashAll:
		base = "ALL"
	case SigHashNone:
		base = "NONE"
	case SigHashSingle:
		base = "SINGLE"
	default:
		return fmt.Sprintf("0x%02x", uint32(t))
	}
	if t.AnyOneCanPay() {
		return base + "|ANYONECANPAY"
	}
	return base
}

// HashVersion identifies the algorithm used to build a signature hash
// preimage.
type HashVersion uint8

const (
	// HashVersionLegacy is the original algorithm which serializes a
	// modified copy of the transaction.
	HashVersionLegacy HashVersion = iota

	// HashVersionWitnessV0 is the BIP0143 algorithm used while executing
	// version 0 witness programs.
	HashVersionWitnessV0
)

// String returns the hash version in human-readable form.
func (v HashVersion) String() string {
	switch v {
	case HashVersionLegacy:
		return "legacy"
	case HashVersionWitnessV0:
		return "witness_v0"
	}
	return fmt.Sprintf("HashVersion(%d)", uint8(v))
}

// -----------------------------------------------------------------------------
// A variable length integer (varint) is an encoding for integers up to a max
// value of 2^64-1 that uses a variable number of bytes depending on the value
// being encoded.  It produces fewer bytes for smaller numbers as opposed to a
// fixed-size encoding and is used within the signature hash algorithm to
// specify the number of items or bytes that follow it.
//
// The encoding is as follows:
//
//   Value                   Len   Format
//   -----                   ---   ------
//   < 0xfd                  1     val as uint8
//   <= 0xffff               3     0xfd followed by val as little-endian uint16
//   <= 0xffffffff           5     0xfe followed by val as little-endian uint32
//   <= 0xffffffffffffffff   9     0xff followed by val as little-endian uint64
//
// Example encodings:
//            0 -> [0x00]
//          252 -> [0xfc]                  * Max 1-byte encoded value
//          253 -> [0xfdfd00]              * Min 3-byte encoded value
//          254 -> [0xfdfe00]
//          256 -> [0xfd0001]
//        65535 -> [0xfdffff]              * Max 3-byte encoded value
//        65536 -> [0xfe00000100]          * Min 5-byte encoded value
//       131071 -> [0xfeffff0100]
//   4294967295 -> [0xfeffffffff]          * Max 5-byte encoded value
//   4294967296 -> [0xff0000000001000000]  * Min 9-byte encoded value
//       2^64-1 -> [0xffffffffffffffffff]  * Max allowed value
// -----------------------------------------------------------------------------

// preimage accumulates the serialization a signature hash commits to.  The
// wire encoders cannot fail when writing to a bytes.Buffer, so their errors
// are not checked.
type preimage struct {
	bytes.Buffer
	scratch [8]byte
}

func (p *preimage) putUint32(v uint32) {
	binary.LittleEndian.PutUint32(p.scratch[:4], v)
	p.Write(p.scratch[:4])
}

func (p *preimage) putUint64(v uint64) {
	binary.LittleEndian.PutUint64(p.scratch[:], v)
	p.Write(p.scratch[:])
}

func (p *preimage) putVarInt(v uint64) {
	_ = wire.WriteVarInt(p, 0, v)
}

func (p *preimage) putVarBytes(b []byte) {
	_ = wire.WriteVarBytes(p, 0, b)
}

func (p *preimage) putOutPoint(op *wire.OutPoint) {
	p.Write(op.Hash[:])
	p.putUint32(op.Index)
}

func (p *preimage) putTxOut(txOut *wire.TxOut) {
	_ = wire.WriteTxOut(p, 0, 0, txOut)
}

// doubleHash returns the double SHA-256 of the accumulated bytes.
func (p *preimage) doubleHash() []byte {
	return chainhash.DoubleHashB(p.Bytes())
}

// sigHashSingleBug is the digest signed when SigHashSingle names an input
// with no matching output.  Consensus kept this bug, so such signatures commit
// to the constant 1 rather than failing.
var sigHashSingleBug = chainhash.Hash{0x01}

// calcSignatureHash computes the legacy signature hash of input idx.  script
// is the script code in effect with signatures already removed, and every
// OP_CODESEPARATOR is stripped here.  idx must name an existing input.
func calcSignatureHash(script []byte, hashType SigHashType, tx *wire.MsgTx,
	idx int) []byte {

	base := hashType.Base()
	if base == SigHashSingle && idx >= len(tx.TxOut) {
		return append([]byte(nil), sigHashSingleBug[:]...)
	}
	signScript := removeOpcodeRaw(script, OP_CODESEPARATOR)

	// AnyOneCanPay commits to the signed input alone.
	txIns, signIdx := tx.TxIn, idx
	if hashType.AnyOneCanPay() {
		txIns, signIdx = tx.TxIn[idx:idx+1], 0
	}

	// None commits to no outputs and Single to the outputs up to the
	// signed index, the earlier ones blanked.  Undefined base types commit
	// to every output like All.
	txOuts := tx.TxOut
	switch base {
	case SigHashNone:
		txOuts = nil
	case SigHashSingle:
		txOuts = tx.TxOut[:idx+1]
	}
	otherSequencesZero := base == SigHashNone || base == SigHashSingle

	var p preimage
	p.putUint32(uint32(tx.Version))
	p.putVarInt(uint64(len(txIns)))
	for i, txIn := range txIns {
		p.putOutPoint(&txIn.PreviousOutPoint)
		sequence := txIn.Sequence
		if i == signIdx {
			p.putVarBytes(signScript)
		} else {
			p.putVarBytes(nil)
			if otherSequencesZero {
				sequence = 0
			}
		}
		p.putUint32(sequence)
	}

	p.putVarInt(uint64(len(txOuts)))
	blank := wire.TxOut{Value: -1}
	for i, txOut := range txOuts {
		if base == SigHashSingle && i != idx {
			txOut = &blank
		}
		p.putTxOut(txOut)
	}

	p.putUint32(tx.LockTime)
	p.putUint32(uint32(hashType))
	return p.doubleHash()
}

// calcWitnessSignatureHash computes the BIP0143 signature hash of input idx.
// The aggregate hashes of sigHashes are shared across inputs so hashing a
// whole transaction stays linear, and the digest commits to the amount the
// input spends.
func calcWitnessSignatureHash(subScript []byte, sigHashes *TxSigHashes,
	hashType SigHashType, tx *wire.MsgTx, idx int, amt int64) ([]byte, error) {

	if idx >= len(tx.TxIn) {
		str := fmt.Sprintf("idx %d but %d txins", idx, len(tx.TxIn))
		return nil, AssertError(str)
	}

	base := hashType.Base()
	allOutputs := base != SigHashSingle && base != SigHashNone

	var hashPrevOuts, hashSequence, hashOutputs chainhash.Hash
	if !hashType.AnyOneCanPay() {
		hashPrevOuts = sigHashes.HashPrevOutsV0
		if allOutputs {
			hashSequence = sigHashes.HashSequenceV0
		}
	}
	switch {
	case allOutputs:
		hashOutputs = sigHashes.HashOutputsV0
	case base == SigHashSingle && idx < len(tx.TxOut):
		var out preimage
		out.putTxOut(tx.TxOut[idx])
		hashOutputs = chainhash.DoubleHashH(out.Bytes())
	}

	txIn := tx.TxIn[idx]
	var p preimage
	p.putUint32(uint32(tx.Version))
	p.Write(hashPrevOuts[:])
	p.Write(hashSequence[:])
	p.putOutPoint(&txIn.PreviousOutPoint)
	p.putVarBytes(subScript)
	p.putUint64(uint64(amt))
	p.putUint32(txIn.Sequence)
	p.Write(hashOutputs[:])
	p.putUint32(tx.LockTime)
	p.putUint32(uint32(hashType))
	return p.doubleHash(), nil
}

// CalcSignatureHash computes the legacy signature hash for the specified
// input of the target transaction observing the desired hash type.  The script
// is the script code in effect for the input.
func CalcSignatureHash(script []byte, hashType SigHashType, tx *wire.MsgTx,
	idx int) ([]byte, error) {

	if idx < 0 || idx >= len(tx.TxIn) {
		str := fmt.Sprintf("transaction input index %d is negative or "+
			">= %d", idx, len(tx.TxIn))
		return nil, AssertError(str)
	}
	if err := checkScriptParses(script); err != nil {
		return nil, err
	}

	return calcSignatureHash(script, hashType, tx, idx), nil
}

// CalcWitnessSigHash computes the sighash digest for the specified input of
// the target transaction observing the desired sig hash type.  When
// sigHashes is nil the midstate fragments are computed from the transaction.
func CalcWitnessSigHash(script []byte, sigHashes *TxSigHashes,
	hashType SigHashType, tx *wire.MsgTx, idx int, amt int64) ([]byte, error) {

	if idx < 0 {
		str := fmt.Sprintf("transaction input index %d is negative", idx)
		return nil, AssertError(str)
	}
	if err := checkScriptParses(script); err != nil {
		return nil, err
	}
	if sigHashes == nil {
		sigHashes = NewTxSigHashes(tx)
	}

	return calcWitnessSignatureHash(script, sigHashes, hashType, tx, idx,
		amt)
}

// CalcSigHash computes the signature hash of the specified input with the
// algorithm selected by hashVersion.  The amount is only committed to by
// HashVersionWitnessV0, where it is mandatory; pass NoInputAmount for legacy
// hashes.
func CalcSigHash(script []byte, hashType SigHashType, hashVersion HashVersion,
	tx *wire.MsgTx, idx int, amt int64) ([]byte, error) {

	switch hashVersion {
	case HashVersionLegacy:
		return CalcSignatureHash(script, hashType, tx, idx)

	case HashVersionWitnessV0:
		if amt < 0 {
			return nil, AssertError("witness signature hash requires " +
				"the input amount")
		}
		return CalcWitnessSigHash(script, nil, hashType, tx, idx, amt)
	}

	str := fmt.Sprintf("unknown hash version %d", hashVersion)
	return nil, AssertError(str)
}
