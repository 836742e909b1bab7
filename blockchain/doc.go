// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package blockchain implements the transaction level consensus rules that sit on
top of the script engine.

It provides a view of unspent transaction outputs which can be persisted to a
pebble backed store, the absolute and relative lock time rules, signature
operation accounting, and concurrent validation of every input script of a
transaction or of a batch of transactions in block order.

A typical flow for a block of transactions is:

  - Load the spent outputs into a UtxoViewpoint with FetchInputUtxos
  - Check CheckTransactionLocks for each transaction
  - ConnectTransaction each transaction into the view in order
  - Run CheckBlockScripts over the batch
  - Persist the view with PrevOutStore.SaveView

# Errors

Errors returned by this package are either the raw errors provided by
underlying calls or of type blockchain.RuleError.  Rule errors caused by a
script failure wrap the txscript.Error that caused them so both codes can be
inspected with IsErrorCode and txscript.IsErrorCode.
*/
package blockchain
