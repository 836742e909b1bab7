// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
	"github.com/coldstake/coldstaked/txscript"
	"github.com/stretchr/testify/require"
)

// TestGetSigOpCost ensures legacy, pay-to-script-hash, and witness signature
// operations are each weighted according to the active rules.
func TestGetSigOpCost(t *testing.T) {
	t.Parallel()

	params := &chaincfg.MainNetParams
	var pubKeys []*btcutil.AddressPubKey
	for i := byte(1); i <= 3; i++ {
		pubKey, err := btcutil.NewAddressPubKey(
			testKey(i).PubKey().SerializeCompressed(), params)
		require.NoError(t, err)
		pubKeys = append(pubKeys, pubKey)
	}
	redeemScript, err := txscript.MultiSigScript(pubKeys, 2)
	require.NoError(t, err)
	scriptAddr, err := btcutil.NewAddressScriptHash(redeemScript, params)
	require.NoError(t, err)
	p2sh, err := txscript.PayToAddrScript(scriptAddr)
	require.NoError(t, err)

	funding := newFundingTx(40, p2sh, p2wpkhScript(t, testKey(4)))
	view := NewUtxoViewpoint()
	view.AddTxOuts(funding, 10, testMedianTime)

	msgTx := newSpendTx(wire.MaxTxInSequenceNum, outPoint(funding, 0),
		outPoint(funding, 1))
	msgTx.TxIn[0].SignatureScript, err = txscript.NewScriptBuilder().
		AddOp(txscript.OP_0).AddData(redeemScript).Script()
	require.NoError(t, err)
	signP2WPKH(t, msgTx, 1, testFundingValue, testKey(4))
	tx := btcutil.NewTx(msgTx)

	require.Equal(t, 0, CountSigOps(tx))
	p2shSigOps, err := CountP2SHSigOps(tx, false, view)
	require.NoError(t, err)
	require.Equal(t, 3, p2shSigOps)

	tests := []struct {
		name   string
		bip16  bool
		segWit bool
		want   int
	}{
		{"legacy only", false, false, 0},
		{"bip16", true, false, 3 * WitnessScaleFactor},
		{"segwit", false, true, 1},
		{"all", true, true, 3*WitnessScaleFactor + 1},
	}
	for _, test := range tests {
		cost, err := GetSigOpCost(tx, false, view, test.bip16, test.segWit)
		require.NoErrorf(t, err, test.name)
		require.Equalf(t, test.want, cost, test.name)
	}

	cost, err := CheckTransactionSigOpCost(tx, view,
		txscript.StandardVerifyFlags)
	require.NoError(t, err)
	require.Equal(t, 3*WitnessScaleFactor+1, cost)

	// Outputs are counted with the quick method.
	msgTx.TxOut[0].PkScript = p2pkhScript(t, testKey(5))
	require.Equal(t, 1, CountSigOps(btcutil.NewTx(msgTx)))

	// Spends of unknown outputs can't be counted precisely.
	_, err = GetSigOpCost(tx, false, NewUtxoViewpoint(), true, true)
	require.True(t, IsErrorCode(err, ErrMissingTxOut), "%v", err)
}

// TestCheckTransactionSigOpCostLimit ensures transactions over the allowed
// cost are rejected.
func TestCheckTransactionSigOpCostLimit(t *testing.T) {
	t.Parallel()

	// Every bare CHECKMULTISIG output counts as 20 legacy sig ops, scaled
	// by the witness factor.
	funding := newFundingTx(41, []byte{txscript.OP_TRUE})
	view := NewUtxoViewpoint()
	view.AddTxOuts(funding, 10, testMedianTime)

	msgTx := newSpendTx(wire.MaxTxInSequenceNum, outPoint(funding, 0))
	perOutput := 20 * WitnessScaleFactor
	for i := 0; i <= MaxTxSigOpsCost/perOutput; i++ {
		msgTx.AddTxOut(wire.NewTxOut(0,
			[]byte{txscript.OP_CHECKMULTISIG}))
	}
	cost, err := CheckTransactionSigOpCost(btcutil.NewTx(msgTx), view,
		txscript.StandardVerifyFlags)
	require.True(t, IsErrorCode(err, ErrTooManySigOps), "%v", err)
	require.Greater(t, cost, MaxTxSigOpsCost)
}

// TestTransactionWeight ensures witness data is discounted by the scale
// factor.
func TestTransactionWeight(t *testing.T) {
	t.Parallel()

	msgTx := newSpendTx(wire.MaxTxInSequenceNum, wire.OutPoint{Index: 1})
	tx := btcutil.NewTx(msgTx)
	size := int64(msgTx.SerializeSize())
	require.Equal(t, size*WitnessScaleFactor, GetTransactionWeight(tx))
	require.Equal(t, size, GetTxVirtualSize(tx))

	msgTx.TxIn[0].Witness = wire.TxWitness{make([]byte, 100)}
	tx = btcutil.NewTx(msgTx)
	stripped := int64(msgTx.SerializeSizeStripped())
	total := int64(msgTx.SerializeSize())
	weight := stripped*(WitnessScaleFactor-1) + total
	require.Equal(t, weight, GetTransactionWeight(tx))
	require.Equal(t, (weight+3)/4, GetTxVirtualSize(tx))
	require.Less(t, GetTxVirtualSize(tx), total)
}
