// Copyright (c) 2015-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"
)

var (
	// utxoKeyPrefix is the prefix of every key holding a serialized utxo
	// entry.
	utxoKeyPrefix = []byte("utxo")

	// utxoKeyLen is the length of a utxo key: the prefix followed by the
	// hash and big-endian index of the outpoint.
	utxoKeyLen = len(utxoKeyPrefix) + chainhash.HashSize + 4
)

// maxUtxoScriptLen is the largest public key script a stored entry may carry.
const maxUtxoScriptLen = 1 << 20

// outpointKey returns the key for the passed outpoint.  Keys of outputs of the
// same transaction sort together in index order.
func outpointKey(outpoint wire.OutPoint) []byte {
	key := make([]byte, utxoKeyLen)
	offset := copy(key, utxoKeyPrefix)
	offset += copy(key[offset:], outpoint.Hash[:])
	binary.BigEndian.PutUint32(key[offset:], outpoint.Index)
	return key
}

// serializeUtxoEntry returns the entry serialized to a format that is suitable
// for long-term storage.  The format is:
//
//	<header code><median time><amount><script len><script>
//
// The header code is the block height shifted left one bit with the lowest bit
// set when the output was contained in a coinbase.  Every integer is encoded
// as a bitcoin variable length integer.
func serializeUtxoEntry(entry *UtxoEntry) ([]byte, error) {
	headerCode := uint64(entry.blockHeight) << 1
	if entry.IsCoinBase() {
		headerCode |= 0x01
	}

	var buf bytes.Buffer
	buf.Grow(wire.VarIntSerializeSize(headerCode) + 2*9 + len(entry.pkScript) + 9)
	if err := wire.WriteVarInt(&buf, 0, headerCode); err != nil {
		return nil, err
	}
	if err := wire.WriteVarInt(&buf, 0, uint64(entry.medianTime)); err != nil {
		return nil, err
	}
	if err := wire.WriteVarInt(&buf, 0, uint64(entry.amount)); err != nil {
		return nil, err
	}
	if err := wire.WriteVarBytes(&buf, 0, entry.pkScript); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// deserializeUtxoEntry decodes a utxo entry from the passed serialized byte
// slice into a new UtxoEntry using a format that is suitable for long-term
// storage.  The format is described in detail above.
func deserializeUtxoEntry(serialized []byte) (*UtxoEntry, error) {
	r := bytes.NewReader(serialized)
	headerCode, err := wire.ReadVarInt(r, 0)
	if err != nil {
		return nil, AssertError(fmt.Sprintf("unable to decode utxo "+
			"header code: %v", err))
	}
	medianTime, err := wire.ReadVarInt(r, 0)
	if err != nil {
		return nil, AssertError(fmt.Sprintf("unable to decode utxo "+
			"median time: %v", err))
	}
	amount, err := wire.ReadVarInt(r, 0)
	if err != nil {
		return nil, AssertError(fmt.Sprintf("unable to decode utxo "+
			"amount: %v", err))
	}
	pkScript, err := wire.ReadVarBytes(r, 0, maxUtxoScriptLen, "pkscript")
	if err != nil {
		return nil, AssertError(fmt.Sprintf("unable to decode utxo "+
			"script: %v", err))
	}
	if r.Len() != 0 {
		return nil, AssertError(fmt.Sprintf("%d trailing bytes after "+
			"utxo entry", r.Len()))
	}

	entry := &UtxoEntry{
		amount:      int64(amount),
		pkScript:    pkScript,
		blockHeight: int32(headerCode >> 1),
		medianTime:  int64(medianTime),
	}
	if headerCode&0x01 != 0 {
		entry.packedFlags |= tfCoinBase
	}
	return entry, nil
}

// PrevOutStore persists the unspent outputs of a utxo view between runs in a
// pebble database.
type PrevOutStore struct {
	db *pebble.DB
}

// Ensure PrevOutStore implements the UtxoFetcher interface.
var _ UtxoFetcher = (*PrevOutStore)(nil)

// OpenPrevOutStore opens, creating it when needed, the store rooted at the
// passed directory.
func OpenPrevOutStore(path string) (*PrevOutStore, error) {
	db, err := pebble.Open(path, &pebble.Options{MaxOpenFiles: 64})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}

	log.Debugf("Opened previous output store at %s", path)
	return &PrevOutStore{db: db}, nil
}

// FetchEntry returns the stored entry for the passed outpoint, or nil when
// the store does not know it.
func (s *PrevOutStore) FetchEntry(outpoint wire.OutPoint) (*UtxoEntry, error) {
	serialized, closer, err := s.db.Get(outpointKey(outpoint))
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %v", outpoint)
	}
	defer closer.Close()

	// The returned slice is only valid until the closer is called.
	entry, err := deserializeUtxoEntry(serialized)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %v", outpoint)
	}
	entry.pkScript = append([]byte(nil), entry.pkScript...)
	return entry, nil
}

// SaveView writes every modified entry of the passed view to the store in a
// single batch.  Spent entries are removed from the store.  On success the
// view is committed, pruning spent entries from it and clearing the modified
// flag of the rest.
func (s *PrevOutStore) SaveView(view *UtxoViewpoint) error {
	batch := s.db.NewBatch()
	defer batch.Close()

	var numPut, numDeleted int
	for outpoint, entry := range view.Entries() {
		if entry == nil || !entry.isModified() {
			continue
		}

		key := outpointKey(outpoint)
		if entry.IsSpent() {
			if err := batch.Delete(key, nil); err != nil {
				return errors.Wrap(err, "in delete")
			}
			numDeleted++
			continue
		}

		serialized, err := serializeUtxoEntry(entry)
		if err != nil {
			return err
		}
		if err := batch.Set(key, serialized, nil); err != nil {
			return errors.Wrap(err, "in set")
		}
		numPut++
	}

	if err := batch.Commit(pebble.Sync); err != nil {
		return errors.Wrap(err, "in commit")
	}
	view.commit()

	log.Debugf("Stored %d and removed %d previous outputs", numPut,
		numDeleted)
	return nil
}

// Count returns the number of entries in the store.
func (s *PrevOutStore) Count() (int, error) {
	upper := append([]byte(nil), utxoKeyPrefix...)
	upper[len(upper)-1]++
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: utxoKeyPrefix,
		UpperBound: upper,
	})
	if err != nil {
		return 0, errors.Wrap(err, "in iterator")
	}

	var count int
	for iter.First(); iter.Valid(); iter.Next() {
		count++
	}
	if err := iter.Close(); err != nil {
		return 0, errors.Wrap(err, "in iterator")
	}
	return count, nil
}

// Close flushes and closes the store.
func (s *PrevOutStore) Close() error {
	if err := s.db.Flush(); err != nil {
		return errors.Wrap(err, "on flush")
	}
	return errors.Wrap(s.db.Close(), "on close")
}
