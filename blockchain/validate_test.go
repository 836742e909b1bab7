// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/coldstake/coldstaked/txscript"
	"github.com/stretchr/testify/require"
)

// TestCheckTransactionSanity ensures each context free rule rejects the
// transactions breaking it with its own error code.
func TestCheckTransactionSanity(t *testing.T) {
	t.Parallel()

	prev := wire.OutPoint{Hash: chainhash.Hash{0x11}}
	other := wire.OutPoint{Hash: chainhash.Hash{0x11}, Index: 1}
	null := wire.OutPoint{Index: wire.MaxPrevOutIndex}
	withValues := func(values ...int64) *wire.MsgTx {
		tx := newSpendTx(0, prev)
		tx.TxOut = nil
		for _, v := range values {
			tx.AddTxOut(wire.NewTxOut(v, []byte{txscript.OP_TRUE}))
		}
		return tx
	}

	tests := []struct {
		name string
		tx   *wire.MsgTx
		code ErrorCode
		ok   bool
	}{{
		name: "ordinary spend",
		tx:   newSpendTx(0, prev, other),
		ok:   true,
	}, {
		name: "coinbase",
		tx:   newSpendTx(0, null),
		ok:   true,
	}, {
		name: "no inputs",
		tx:   newSpendTx(0),
		code: ErrNoTxInputs,
	}, {
		name: "no outputs",
		tx:   withValues(),
		code: ErrNoTxOutputs,
	}, {
		name: "negative output",
		tx:   withValues(1, -1),
		code: ErrBadTxOutValue,
	}, {
		name: "output above max",
		tx:   withValues(btcutil.MaxSatoshi + 1),
		code: ErrBadTxOutValue,
	}, {
		name: "outputs sum above max",
		tx:   withValues(btcutil.MaxSatoshi, 1),
		code: ErrBadTxOutValue,
	}, {
		name: "outputs at max",
		tx:   withValues(btcutil.MaxSatoshi-1, 1),
		ok:   true,
	}, {
		name: "duplicate inputs",
		tx:   newSpendTx(0, prev, other, prev),
		code: ErrDuplicateTxInputs,
	}, {
		name: "null outpoint outside coinbase",
		tx:   newSpendTx(0, prev, null),
		code: ErrBadTxInput,
	}}

	for _, test := range tests {
		err := CheckTransactionSanity(btcutil.NewTx(test.tx))
		if test.ok {
			require.NoErrorf(t, err, test.name)
			continue
		}
		require.Truef(t, IsErrorCode(err, test.code), "%s: %v",
			test.name, err)
	}
}
