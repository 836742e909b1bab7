// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/decred/dcrd/lru"
)

// TxSigHashes holds the BIP0143 aggregate hashes of a transaction.  They are
// the same for every input, so computing them once keeps signature hashing of
// the whole transaction linear in its size.
type TxSigHashes struct {
	HashPrevOutsV0 chainhash.Hash
	HashSequenceV0 chainhash.Hash
	HashOutputsV0  chainhash.Hash
}

// NewTxSigHashes computes the aggregate hashes of tx.
func NewTxSigHashes(tx *wire.MsgTx) *TxSigHashes {
	var prevOuts, sequences, outputs preimage
	for _, txIn := range tx.TxIn {
		prevOuts.putOutPoint(&txIn.PreviousOutPoint)
		sequences.putUint32(txIn.Sequence)
	}
	for _, txOut := range tx.TxOut {
		outputs.putTxOut(txOut)
	}

	return &TxSigHashes{
		HashPrevOutsV0: chainhash.DoubleHashH(prevOuts.Bytes()),
		HashSequenceV0: chainhash.DoubleHashH(sequences.Bytes()),
		HashOutputsV0:  chainhash.DoubleHashH(outputs.Bytes()),
	}
}

// HashCache is a concurrent safe LRU cache of TxSigHashes keyed by txid, so
// goroutines validating inputs of the same transaction share the work.
type HashCache struct {
	sigHashes lru.KVCache
}

// NewHashCache returns a cache holding at most maxSize transactions.
func NewHashCache(maxSize uint) *HashCache {
	return &HashCache{sigHashes: lru.NewKVCache(maxSize)}
}

// AddSigHashes computes and caches the aggregate hashes of tx and returns
// them.
func (h *HashCache) AddSigHashes(tx *wire.MsgTx) *TxSigHashes {
	sigHashes := NewTxSigHashes(tx)
	h.sigHashes.Add(tx.TxHash(), sigHashes)
	return sigHashes
}

// ContainsHashes reports whether the hashes of txid are cached.
func (h *HashCache) ContainsHashes(txid *chainhash.Hash) bool {
	return h.sigHashes.Contains(*txid)
}

// GetSigHashes returns the cached hashes of txid, if any.
func (h *HashCache) GetSigHashes(txid *chainhash.Hash) (*TxSigHashes, bool) {
	item, ok := h.sigHashes.Lookup(*txid)
	if !ok {
		return nil, false
	}
	return item.(*TxSigHashes), true
}

// PurgeSigHashes drops the hashes of txid.
func (h *HashCache) PurgeSigHashes(txid *chainhash.Hash) {
	h.sigHashes.Delete(*txid)
}
