// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/coldstake/coldstaked/txscript"
	"github.com/stretchr/testify/require"
)

// testFundingValue is the value of every output of a funding transaction.
const testFundingValue = 100000

// testMedianTime is the past median time the test outputs are recorded with.
var testMedianTime = time.Unix(1600000000, 0)

// testKey returns a deterministic private key for the passed seed.
func testKey(n byte) *btcec.PrivateKey {
	var keyBytes [32]byte
	keyBytes[31] = n
	keyBytes[0] = 0x01
	priv, _ := btcec.PrivKeyFromBytes(keyBytes[:])
	return priv
}

// pubKeyHash returns the hash160 of the compressed public key of key.
func pubKeyHash(key *btcec.PrivateKey) []byte {
	return btcutil.Hash160(key.PubKey().SerializeCompressed())
}

// keyClosure returns a key database which knows the passed keys, all of them
// serialized compressed.
func keyClosure(keys ...*btcec.PrivateKey) txscript.KeyClosure {
	return func(addr btcutil.Address) (*btcec.PrivateKey, bool, error) {
		for _, key := range keys {
			if bytes.Equal(addr.ScriptAddress(), pubKeyHash(key)) {
				return key, true, nil
			}
		}
		return nil, false, errors.New("nope")
	}
}

// p2pkhScript returns a pay-to-pubkey-hash script paying to key.
func p2pkhScript(t *testing.T, key *btcec.PrivateKey) []byte {
	t.Helper()

	addr, err := btcutil.NewAddressPubKeyHash(pubKeyHash(key),
		&chaincfg.MainNetParams)
	require.NoError(t, err)
	script, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)
	return script
}

// p2wpkhScript returns a pay-to-witness-pubkey-hash script paying to key.
func p2wpkhScript(t *testing.T, key *btcec.PrivateKey) []byte {
	t.Helper()

	addr, err := btcutil.NewAddressWitnessPubKeyHash(pubKeyHash(key),
		&chaincfg.MainNetParams)
	require.NoError(t, err)
	script, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)
	return script
}

// newFundingTx returns a transaction spending a made up outpoint into one
// output per passed script.
func newFundingTx(seed byte, pkScripts ...[]byte) *btcutil.Tx {
	prevHash := chainhash.Hash{seed, 0xfe}
	tx := wire.NewMsgTx(2)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: *wire.NewOutPoint(&prevHash, 0),
		Sequence:         wire.MaxTxInSequenceNum,
	})
	for _, pkScript := range pkScripts {
		tx.AddTxOut(wire.NewTxOut(testFundingValue, pkScript))
	}
	return btcutil.NewTx(tx)
}

// newSpendTx returns an unsigned version 2 transaction spending the passed
// outpoints, each with the passed sequence number, into a single output.
func newSpendTx(sequence uint32, prevOuts ...wire.OutPoint) *wire.MsgTx {
	tx := wire.NewMsgTx(2)
	for i := range prevOuts {
		tx.AddTxIn(&wire.TxIn{
			PreviousOutPoint: prevOuts[i],
			Sequence:         sequence,
		})
	}
	tx.AddTxOut(wire.NewTxOut(testFundingValue/2, []byte{txscript.OP_TRUE}))
	return tx
}

// outPoint returns the outpoint of output index of tx.
func outPoint(tx *btcutil.Tx, index uint32) wire.OutPoint {
	return wire.OutPoint{Hash: *tx.Hash(), Index: index}
}

// signP2PKH signs input idx of tx which spends a pay-to-pubkey-hash output of
// key.
func signP2PKH(t *testing.T, tx *wire.MsgTx, idx int, key *btcec.PrivateKey) {
	t.Helper()

	sigScript, err := txscript.SignatureScript(tx, idx, p2pkhScript(t, key),
		txscript.SigHashAll, key, true)
	require.NoError(t, err)
	tx.TxIn[idx].SignatureScript = sigScript
}

// signP2WPKH signs input idx of tx which spends a pay-to-witness-pubkey-hash
// output of key worth amount.
func signP2WPKH(t *testing.T, tx *wire.MsgTx, idx int, amount int64,
	key *btcec.PrivateKey) {

	t.Helper()

	witness, err := txscript.WitnessSignature(tx, nil, idx, amount,
		p2pkhScript(t, key), txscript.SigHashAll, key, true)
	require.NoError(t, err)
	tx.TxIn[idx].Witness = witness
}
