// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package txscript implements the bitcoin transaction script language.

This package provides data structures and functions to parse and execute
transaction scripts, compute the signature hashes they check and classify,
build, sign and combine standard scripts.

# Script Overview

Transaction scripts are written in a stack-base, FORTH-like language.

The script language consists of a number of opcodes which fall into several
categories such pushing and popping data to and from the stack, performing
basic and bitwise arithmetic, conditional branching, comparing hashes, and
checking cryptographic signatures.  Scripts are processed from left to right
and intentionally do not provide loops.

The vast majority of scripts at the time of this writing are of several
standard forms which consist of a spender providing a public key and a
signature which proves the spender owns the associated private key.  This
information is used to prove the spender is authorized to perform the
transaction.

# Verification

VerifyScript and NewEngine run a signature script, the public key script it
spends and, depending on the ScriptFlags, the pay-to-script-hash redeem script
and the segregated witness program.  Signature checks use the legacy signature
hash or the BIP0143 digest depending on the redemption path.

# Cold Staking

OP_NOP10 is redefined as OP_CHECKCOLDSTAKEVERIFY when
ScriptVerifyCheckColdStakeVerify is set.  The opcode defers to the
ColdStakePolicy supplied with WithColdStakePolicy, which lets a staker key
spend a delegated output only into a coin-stake that keeps the delegation.

# Errors

Errors returned by this package are of type txscript.Error.  This allows the
caller to programmatically determine the specific error by examining the
ErrorCode field of the type asserted txscript.Error while still providing rich
error messages with contextual information.  A convenience function named
IsErrorCode is also provided to allow callers to easily check for a specific
error code.  See ErrorCode in the package documentation for a full list.

Misuse of the API, such as verifying a witness program without the input
amount, is reported with AssertError instead.
*/
package txscript
