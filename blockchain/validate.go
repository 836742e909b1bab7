// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

func isNullOutPoint(op *wire.OutPoint) bool {
	return op.Index == wire.MaxPrevOutIndex && op.Hash == chainhash.Hash{}
}

// CheckTransactionSanity runs the context free checks on tx: it has inputs
// and outputs, output values are within btcutil.MaxSatoshi alone and in
// total, no outpoint is spent twice, and only a coinbase spends the null
// outpoint.
func CheckTransactionSanity(tx *btcutil.Tx) error {
	msgTx := tx.MsgTx()
	if len(msgTx.TxIn) == 0 {
		return ruleError(ErrNoTxInputs, "transaction has no inputs")
	}
	if len(msgTx.TxOut) == 0 {
		return ruleError(ErrNoTxOutputs, "transaction has no outputs")
	}

	var total int64
	for i, txOut := range msgTx.TxOut {
		if txOut.Value < 0 || txOut.Value > btcutil.MaxSatoshi {
			str := fmt.Sprintf("transaction output %d has value %d "+
				"outside of [0, %d]", i, txOut.Value,
				int64(btcutil.MaxSatoshi))
			return ruleError(ErrBadTxOutValue, str)
		}
		total += txOut.Value
		if total > btcutil.MaxSatoshi {
			str := fmt.Sprintf("total value of all transaction "+
				"outputs is above the max of %d", int64(btcutil.MaxSatoshi))
			return ruleError(ErrBadTxOutValue, str)
		}
	}

	seen := make(map[wire.OutPoint]struct{}, len(msgTx.TxIn))
	for _, txIn := range msgTx.TxIn {
		if _, ok := seen[txIn.PreviousOutPoint]; ok {
			str := fmt.Sprintf("transaction spends %v more than once",
				txIn.PreviousOutPoint)
			return ruleError(ErrDuplicateTxInputs, str)
		}
		seen[txIn.PreviousOutPoint] = struct{}{}
	}

	if IsCoinBaseTx(msgTx) {
		return nil
	}
	for i, txIn := range msgTx.TxIn {
		if isNullOutPoint(&txIn.PreviousOutPoint) {
			str := fmt.Sprintf("transaction input %d spends the null "+
				"outpoint", i)
			return ruleError(ErrBadTxInput, str)
		}
	}
	return nil
}
