// Copyright (c) 2015-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/coldstake/coldstaked/txscript"
)

// UnminedHeight is the block height of outputs whose transaction is not in a
// block yet.  Relative locks treat them as confirmed in the next block.
const UnminedHeight = 0x7fffffff

type txoFlags uint8

const (
	tfCoinBase txoFlags = 1 << iota
	tfSpent

	// tfModified marks entries changed since they were loaded, which are
	// the ones a store has to write back.
	tfModified
)

// UtxoEntry is one output as seen by a view: what it pays, to which script,
// and where in the chain it was confirmed.
type UtxoEntry struct {
	amount      int64
	pkScript    []byte
	blockHeight int32

	// medianTime is the past median time, in unix seconds, of the block
	// before the one confirming the output.  Relative time locks count
	// from it.
	medianTime int64

	packedFlags txoFlags
}

// NewUtxoEntry returns an unspent entry for txOut confirmed at blockHeight in
// a block whose predecessor has the given past median time.
func NewUtxoEntry(txOut *wire.TxOut, blockHeight int32, medianTime time.Time,
	isCoinBase bool) *UtxoEntry {

	entry := &UtxoEntry{
		amount:      txOut.Value,
		pkScript:    txOut.PkScript,
		blockHeight: blockHeight,
		medianTime:  medianTime.Unix(),
	}
	if isCoinBase {
		entry.packedFlags = tfCoinBase
	}
	return entry
}

func (entry *UtxoEntry) hasFlag(f txoFlags) bool {
	return entry.packedFlags&f == f
}

func (entry *UtxoEntry) isModified() bool { return entry.hasFlag(tfModified) }

// IsCoinBase reports whether the output was created by a coinbase.
func (entry *UtxoEntry) IsCoinBase() bool { return entry.hasFlag(tfCoinBase) }

// IsSpent reports whether a transaction connected to the view spent the
// output.
func (entry *UtxoEntry) IsSpent() bool { return entry.hasFlag(tfSpent) }

func (entry *UtxoEntry) BlockHeight() int32 { return entry.blockHeight }

func (entry *UtxoEntry) Amount() int64 { return entry.amount }

func (entry *UtxoEntry) PkScript() []byte { return entry.pkScript }

// MedianTime is the past median time of the block before the one confirming
// the output.
func (entry *UtxoEntry) MedianTime() time.Time {
	return time.Unix(entry.medianTime, 0)
}

// Spend marks the output spent.  It is a no-op on spent outputs.
func (entry *UtxoEntry) Spend() {
	if !entry.IsSpent() {
		entry.packedFlags |= tfSpent | tfModified
	}
}

// Clone returns a shallow copy of the entry, or nil for a nil entry.
func (entry *UtxoEntry) Clone() *UtxoEntry {
	if entry == nil {
		return nil
	}
	clone := *entry
	return &clone
}

// UtxoViewpoint is the set of outputs a batch of transactions may spend, as
// of one point in the chain.
type UtxoViewpoint struct {
	entries map[wire.OutPoint]*UtxoEntry
}

// NewUtxoViewpoint returns an empty view.
func NewUtxoViewpoint() *UtxoViewpoint {
	return &UtxoViewpoint{entries: make(map[wire.OutPoint]*UtxoEntry)}
}

// LookupEntry returns the entry for outpoint, spent or not, or nil when the
// view does not know it.
func (view *UtxoViewpoint) LookupEntry(outpoint wire.OutPoint) *UtxoEntry {
	return view.entries[outpoint]
}

// AddEntry stores entry under outpoint as modified, replacing any entry
// already there.
func (view *UtxoViewpoint) AddEntry(outpoint wire.OutPoint, entry *UtxoEntry) {
	entry.packedFlags |= tfModified
	view.entries[outpoint] = entry
}

// Entries returns the map backing the view.
func (view *UtxoViewpoint) Entries() map[wire.OutPoint]*UtxoEntry {
	return view.entries
}

// missingTxOut is the rule error for input idx of tx spending an output the
// view does not have.
func missingTxOut(tx *btcutil.Tx, idx int) error {
	str := fmt.Sprintf("output %v referenced from transaction %s:%d "+
		"either does not exist or has already been spent",
		tx.MsgTx().TxIn[idx].PreviousOutPoint, tx.Hash(), idx)
	return ruleError(ErrMissingTxOut, str)
}

// inputEntries returns the entry spent by each input of tx, in input order.
// Coinbase transactions spend nothing.
func (view *UtxoViewpoint) inputEntries(tx *btcutil.Tx) ([]*UtxoEntry, error) {
	msgTx := tx.MsgTx()
	if IsCoinBaseTx(msgTx) {
		return nil, nil
	}

	entries := make([]*UtxoEntry, len(msgTx.TxIn))
	for i, txIn := range msgTx.TxIn {
		entries[i] = view.entries[txIn.PreviousOutPoint]
		if entries[i] == nil {
			return nil, missingTxOut(tx, i)
		}
	}
	return entries, nil
}

// AddTxOuts adds every spendable output of tx to the view.  Provably
// unspendable outputs are left out, and existing entries for the same
// outpoints are replaced.
func (view *UtxoViewpoint) AddTxOuts(tx *btcutil.Tx, blockHeight int32,
	medianTime time.Time) {

	isCoinBase := IsCoinBaseTx(tx.MsgTx())
	outpoint := wire.OutPoint{Hash: *tx.Hash()}
	for i, txOut := range tx.MsgTx().TxOut {
		if txscript.IsUnspendable(txOut.PkScript) {
			continue
		}
		outpoint.Index = uint32(i)
		view.AddEntry(outpoint, NewUtxoEntry(txOut, blockHeight,
			medianTime, isCoinBase))
	}
}

// ConnectTransaction spends the outputs tx consumes and adds the ones it
// creates.  Spent entries stay in the view, so scripts can still be checked
// against them, until the view is committed.
func (view *UtxoViewpoint) ConnectTransaction(tx *btcutil.Tx, blockHeight int32,
	medianTime time.Time) error {

	entries, err := view.inputEntries(tx)
	if err != nil {
		return err
	}
	for i, entry := range entries {
		if entry.IsSpent() {
			return missingTxOut(tx, i)
		}
		entry.Spend()
	}

	view.AddTxOuts(tx, blockHeight, medianTime)
	return nil
}

// commit drops spent entries and clears the modified flag on the rest.
func (view *UtxoViewpoint) commit() {
	for outpoint, entry := range view.entries {
		if entry == nil || entry.IsSpent() {
			delete(view.entries, outpoint)
			continue
		}
		entry.packedFlags &^= tfModified
	}
}

// UtxoFetcher supplies entries a view does not hold yet.
type UtxoFetcher interface {
	// FetchEntry returns the entry for outpoint, or nil when the output
	// is unknown.
	FetchEntry(outpoint wire.OutPoint) (*UtxoEntry, error)
}

// FetchInputUtxos loads from store the outputs spent by txs.  Outputs already
// in the view and outputs created by a transaction in txs are not fetched.
// Unknown outputs are left out, so validation reports them missing.
func (view *UtxoViewpoint) FetchInputUtxos(store UtxoFetcher,
	txs []*btcutil.Tx) error {

	created := make(map[chainhash.Hash]struct{}, len(txs))
	for _, tx := range txs {
		created[*tx.Hash()] = struct{}{}
	}

	for _, tx := range txs {
		if IsCoinBaseTx(tx.MsgTx()) {
			continue
		}
		for _, txIn := range tx.MsgTx().TxIn {
			outpoint := txIn.PreviousOutPoint
			if _, ok := created[outpoint.Hash]; ok {
				continue
			}
			if _, ok := view.entries[outpoint]; ok {
				continue
			}

			entry, err := store.FetchEntry(outpoint)
			if err != nil {
				return err
			}
			if entry == nil {
				log.Debugf("Output %v is not in the store", outpoint)
				continue
			}
			view.entries[outpoint] = entry
		}
	}
	return nil
}
