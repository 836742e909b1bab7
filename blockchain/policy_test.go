// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/coldstake/coldstaked/txscript"
	"github.com/stretchr/testify/require"
)

// TestCheckTransactionStandard ensures the relay policy accepts ordinary
// spends and rejects each kind of non-standard transaction.
func TestCheckTransactionStandard(t *testing.T) {
	t.Parallel()

	nullData := func(data string) []byte {
		script, err := txscript.NullDataScript([]byte(data))
		require.NoError(t, err)
		return script
	}
	multiSig := func(numKeys int) []byte {
		keys := make([]*btcutil.AddressPubKey, numKeys)
		for i := range keys {
			pub := testKey(byte(i + 1)).PubKey().SerializeCompressed()
			addr, err := btcutil.NewAddressPubKey(pub,
				&chaincfg.MainNetParams)
			require.NoError(t, err)
			keys[i] = addr
		}
		script, err := txscript.MultiSigScript(keys, 1)
		require.NoError(t, err)
		return script
	}
	p2pkh := p2pkhScript(t, testKey(9))

	prevHash := chainhash.Hash{0x01}
	newTx := func(version int32, sigScript []byte,
		pkScripts ...[]byte) *btcutil.Tx {

		tx := wire.NewMsgTx(version)
		tx.AddTxIn(&wire.TxIn{
			PreviousOutPoint: *wire.NewOutPoint(&prevHash, 0),
			SignatureScript:  sigScript,
			Sequence:         wire.MaxTxInSequenceNum,
		})
		for _, pkScript := range pkScripts {
			tx.AddTxOut(wire.NewTxOut(1000, pkScript))
		}
		return btcutil.NewTx(tx)
	}
	pushes := []byte{txscript.OP_0, txscript.OP_1}

	tests := []struct {
		name   string
		tx     *btcutil.Tx
		nonstd bool
	}{
		{
			name: "pay to pubkey hash",
			tx:   newTx(2, pushes, p2pkh),
		},
		{
			name: "one null data output",
			tx:   newTx(2, pushes, p2pkh, nullData("coldstake")),
		},
		{
			name:   "two null data outputs",
			tx:     newTx(2, pushes, nullData("a"), p2pkh, nullData("b")),
			nonstd: true,
		},
		{
			name: "bare multisig at key limit",
			tx:   newTx(1, pushes, multiSig(maxStandardMultiSigKeys)),
		},
		{
			name:   "bare multisig above key limit",
			tx:     newTx(2, pushes, multiSig(maxStandardMultiSigKeys+1)),
			nonstd: true,
		},
		{
			name:   "unrecognized output",
			tx:     newTx(2, pushes, []byte{txscript.OP_TRUE}),
			nonstd: true,
		},
		{
			name: "unknown witness version output",
			tx: newTx(2, pushes, append([]byte{txscript.OP_2,
				txscript.OP_DATA_32}, bytes.Repeat([]byte{7}, 32)...)),
		},
		{
			name:   "version zero",
			tx:     newTx(0, pushes, p2pkh),
			nonstd: true,
		},
		{
			name:   "version above max",
			tx:     newTx(MaxStandardTxVersion+1, pushes, p2pkh),
			nonstd: true,
		},
		{
			name:   "signature script not push only",
			tx:     newTx(2, []byte{txscript.OP_1, txscript.OP_DUP}, p2pkh),
			nonstd: true,
		},
		{
			name: "signature script too big",
			tx: newTx(2, bytes.Repeat([]byte{txscript.OP_0},
				maxStandardSigScriptSize+1), p2pkh),
			nonstd: true,
		},
	}

	for _, test := range tests {
		err := CheckTransactionStandard(test.tx)
		if !test.nonstd {
			require.NoErrorf(t, err, test.name)
			continue
		}
		require.Truef(t, IsErrorCode(err, ErrNonStandard), "%s: %v",
			test.name, err)
	}
}
