// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/coldstake/coldstaked/txscript"
)

const (
	// MaxBlockSigOpsCost is the signature operation budget of a block,
	// in the units GetSigOpCost returns.
	MaxBlockSigOpsCost = 80000

	// MaxTxSigOpsCost is the budget of a single standard transaction.
	MaxTxSigOpsCost = MaxBlockSigOpsCost / 5

	// WitnessScaleFactor is how many times cheaper witness bytes and
	// witness signature operations are than their base counterparts.
	WitnessScaleFactor = 4
)

// GetTransactionWeight returns the BIP0141 weight of tx: its stripped size
// scaled by WitnessScaleFactor-1 plus its full size.
func GetTransactionWeight(tx *btcutil.Tx) int64 {
	msgTx := tx.MsgTx()
	stripped := int64(msgTx.SerializeSizeStripped())
	return stripped*(WitnessScaleFactor-1) + int64(msgTx.SerializeSize())
}

// GetTxVirtualSize returns the weight of tx divided by WitnessScaleFactor,
// rounded up.
func GetTxVirtualSize(tx *btcutil.Tx) int64 {
	return (GetTransactionWeight(tx) + WitnessScaleFactor - 1) /
		WitnessScaleFactor
}

// CountSigOps is the legacy signature operation count of tx: every script it
// carries, counted without looking at what the inputs spend.
func CountSigOps(tx *btcutil.Tx) int {
	n := 0
	for _, txIn := range tx.MsgTx().TxIn {
		n += txscript.GetSigOpCount(txIn.SignatureScript)
	}
	for _, txOut := range tx.MsgTx().TxOut {
		n += txscript.GetSigOpCount(txOut.PkScript)
	}
	return n
}

// CountP2SHSigOps counts the signature operations of the redeem scripts of
// the pay-to-script-hash outputs tx spends, as found in the view.
func CountP2SHSigOps(tx *btcutil.Tx, isCoinBaseTx bool,
	utxoView *UtxoViewpoint) (int, error) {

	if isCoinBaseTx {
		return 0, nil
	}
	entries, err := utxoView.inputEntries(tx)
	if err != nil {
		return 0, err
	}

	total := 0
	for i, entry := range entries {
		pkScript := entry.PkScript()
		if !txscript.IsPayToScriptHash(pkScript) {
			continue
		}

		txIn := tx.MsgTx().TxIn[i]
		n := txscript.GetPreciseSigOpCount(txIn.SignatureScript, pkScript,
			true)
		if total+n < total {
			str := fmt.Sprintf("the public key script from output %v "+
				"contains too many signature operations - overflow",
				txIn.PreviousOutPoint)
			return 0, ruleError(ErrTooManySigOps, str)
		}
		total += n
	}
	return total, nil
}

// GetSigOpCost returns the BIP0141 signature operation cost of tx.  Legacy
// and, with bip16, redeem script operations weigh WitnessScaleFactor each.
// With segWit, the operations of spent witness programs weigh one each.
func GetSigOpCost(tx *btcutil.Tx, isCoinBaseTx bool, utxoView *UtxoViewpoint,
	bip16, segWit bool) (int, error) {

	cost := CountSigOps(tx) * WitnessScaleFactor
	if bip16 {
		n, err := CountP2SHSigOps(tx, isCoinBaseTx, utxoView)
		if err != nil {
			return 0, err
		}
		cost += n * WitnessScaleFactor
	}
	if !segWit || isCoinBaseTx {
		return cost, nil
	}

	entries, err := utxoView.inputEntries(tx)
	if err != nil {
		return 0, err
	}
	for i, entry := range entries {
		txIn := tx.MsgTx().TxIn[i]
		cost += txscript.GetWitnessSigOpCount(txIn.SignatureScript,
			entry.PkScript(), txIn.Witness)
	}
	return cost, nil
}

// CheckTransactionSigOpCost returns the cost of tx under flags and fails with
// ErrTooManySigOps, still returning the cost, when it is above
// MaxTxSigOpsCost.
func CheckTransactionSigOpCost(tx *btcutil.Tx, utxoView *UtxoViewpoint,
	flags txscript.ScriptFlags) (int, error) {

	bip16 := flags&txscript.ScriptBip16 == txscript.ScriptBip16
	cost, err := GetSigOpCost(tx, IsCoinBaseTx(tx.MsgTx()), utxoView, bip16,
		witnessActive(flags))
	if err != nil {
		return 0, err
	}
	if cost > MaxTxSigOpsCost {
		str := fmt.Sprintf("transaction %v has a sig op cost of %d, "+
			"above the limit of %d", tx.Hash(), cost, MaxTxSigOpsCost)
		return cost, ruleError(ErrTooManySigOps, str)
	}
	return cost, nil
}
