// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/coldstake/coldstaked/blockchain"
)

// prevOut is the JSON description of a previous output spent by the verified
// transaction.  Amounts are in satoshi.  A missing height marks an output of a
// transaction which is not yet in a block.
type prevOut struct {
	TxID       string `json:"txid"`
	Vout       uint32 `json:"vout"`
	Amount     int64  `json:"amount"`
	PkScript   string `json:"pkscript"`
	Height     *int32 `json:"height,omitempty"`
	MedianTime int64  `json:"mediantime"`
	CoinBase   bool   `json:"coinbase"`
}

// readPrevOuts decodes a JSON array of previous outputs into the passed view.
func readPrevOuts(r io.Reader, view *blockchain.UtxoViewpoint) (int, error) {
	var prevOuts []prevOut
	if err := json.NewDecoder(r).Decode(&prevOuts); err != nil {
		return 0, fmt.Errorf("malformed previous outputs: %w", err)
	}

	for i, p := range prevOuts {
		hash, err := chainhash.NewHashFromStr(p.TxID)
		if err != nil {
			return 0, fmt.Errorf("previous output %d: bad txid: %w", i,
				err)
		}
		pkScript, err := hex.DecodeString(p.PkScript)
		if err != nil {
			return 0, fmt.Errorf("previous output %d: bad pkscript: "+
				"%w", i, err)
		}
		if p.Amount < 0 {
			return 0, fmt.Errorf("previous output %d: negative "+
				"amount %d", i, p.Amount)
		}

		height := int32(blockchain.UnminedHeight)
		if p.Height != nil {
			height = *p.Height
		}
		entry := blockchain.NewUtxoEntry(wire.NewTxOut(p.Amount, pkScript),
			height, time.Unix(p.MedianTime, 0), p.CoinBase)
		view.AddEntry(*wire.NewOutPoint(hash, p.Vout), entry)
	}

	return len(prevOuts), nil
}

// loadPrevOuts reads the previous outputs file into the passed view.
func loadPrevOuts(path string, view *blockchain.UtxoViewpoint) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	return readPrevOuts(f, view)
}
