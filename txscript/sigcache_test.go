// Copyright (c) 2015-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"crypto/rand"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"
)

// testSigEntry houses the serialized pieces of a signature cache entry.
type testSigEntry struct {
	sigHash chainhash.Hash
	sig     []byte
	pubKey  []byte
}

// genRandomSig returns a random message, a signature of the message under the
// public key and the public key. This function is used to generate randomized
// test data.
func genRandomSig(t *testing.T) testSigEntry {
	t.Helper()

	privKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	var msgHash chainhash.Hash
	_, err = rand.Read(msgHash[:])
	require.NoError(t, err)

	sig := ecdsa.Sign(privKey, msgHash[:])
	return testSigEntry{
		sigHash: msgHash,
		sig:     sig.Serialize(),
		pubKey:  privKey.PubKey().SerializeCompressed(),
	}
}

// TestSigCacheAddExists tests the ability to add, and later check the
// existence of a signature triplet in the signature cache.
func TestSigCacheAddExists(t *testing.T) {
	t.Parallel()

	sigCache := NewSigCache(200)

	// Generate a random sigCache entry triplet.
	entry := genRandomSig(t)

	// Add the triplet to the signature cache.
	sigCache.Add(entry.sigHash, entry.sig, entry.pubKey)

	// The previously added triplet should now be found within the sigcache.
	require.True(t, sigCache.Exists(entry.sigHash, entry.sig, entry.pubKey),
		"previously added item not found in signature cache")

	// Any change to the triplet is a miss.
	other := genRandomSig(t)
	require.False(t, sigCache.Exists(other.sigHash, entry.sig, entry.pubKey))
	require.False(t, sigCache.Exists(entry.sigHash, other.sig, entry.pubKey))
	require.False(t, sigCache.Exists(entry.sigHash, entry.sig, other.pubKey))
}

// TestSigCacheAddEvictEntry tests the eviction case where a new signature
// triplet is added to a full signature cache which should trigger eviction of
// the least recently used entry.
func TestSigCacheAddEvictEntry(t *testing.T) {
	t.Parallel()

	// Create a sigcache that can hold up to 100 entries.
	const sigCacheSize = 100
	sigCache := NewSigCache(sigCacheSize)

	// Fill the sigcache up with some random sig triplets.
	entries := make([]testSigEntry, 0, sigCacheSize)
	for i := uint(0); i < sigCacheSize; i++ {
		entry := genRandomSig(t)
		sigCache.Add(entry.sigHash, entry.sig, entry.pubKey)
		entries = append(entries, entry)
	}

	// Add a new entry, this should cause eviction of the oldest entry.
	newEntry := genRandomSig(t)
	sigCache.Add(newEntry.sigHash, newEntry.sig, newEntry.pubKey)

	// The new entry should be found within the cache while the oldest one
	// has been evicted.
	require.True(t, sigCache.Exists(newEntry.sigHash, newEntry.sig,
		newEntry.pubKey), "previously added item not found in signature "+
		"cache")
	require.False(t, sigCache.Exists(entries[0].sigHash, entries[0].sig,
		entries[0].pubKey), "oldest entry not evicted")
}

// TestSigCacheAddMaxEntriesZero tests that if a sigCache is created with a max
// size <= 0, then no entries are added to the sigcache at all.
func TestSigCacheAddMaxEntriesZero(t *testing.T) {
	t.Parallel()

	// Create a sigcache that can hold up to 0 entries.
	sigCache := NewSigCache(0)

	// Generate a random sigCache entry triplet.
	entry := genRandomSig(t)

	// Add the triplet to the signature cache.
	sigCache.Add(entry.sigHash, entry.sig, entry.pubKey)

	// The generated triplet should not be found.
	require.False(t, sigCache.Exists(entry.sigHash, entry.sig, entry.pubKey),
		"previously added signature found in sigcache, but shouldn't "+
			"have been")
}
