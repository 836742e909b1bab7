// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2015-2019 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a kind of script error.
type ErrorCode int

// Codes are grouped by the stage that reports them.  Most name the limit or
// rule that was broken, so only the less obvious ones are described.
const (
	// ErrInternal means the engine itself is inconsistent.
	ErrInternal ErrorCode = iota

	// Misuse of the package API.
	ErrInvalidFlags
	ErrInvalidIndex
	ErrUnsupportedAddress
	ErrNotMultisigScript
	ErrTooManyRequiredSigs
	ErrTooMuchNullData

	// Final state of an execution.  ErrInvalidProgramCounter is stepping
	// an engine that already finished.
	ErrEarlyReturn
	ErrEmptyStack
	ErrEvalFalse
	ErrScriptUnfinished
	ErrInvalidProgramCounter

	// Resource limits.  ErrStackOverflow counts the data and alternate
	// stacks together, and ErrNumberTooBig is any numeric operand longer
	// than the opcode accepts.
	ErrScriptTooBig
	ErrElementTooBig
	ErrTooManyOperations
	ErrStackOverflow
	ErrInvalidPubKeyCount
	ErrInvalidSignatureCount
	ErrNumberTooBig

	// A *VERIFY opcode found false on the stack.  ErrCheckColdStakeVerify
	// is the cold-stake policy rejecting the spending transaction.
	ErrVerify
	ErrEqualVerify
	ErrNumEqualVerify
	ErrCheckSigVerify
	ErrCheckMultiSigVerify
	ErrCheckColdStakeVerify

	// Opcodes used where they cannot be.  ErrUnbalancedConditional covers
	// OP_ELSE or OP_ENDIF without an open block and blocks left open at
	// the end of a script.
	ErrDisabledOpcode
	ErrReservedOpcode
	ErrBadOpcode
	ErrMalformedPush
	ErrInvalidStackOperation
	ErrInvalidAltStackOperation
	ErrUnbalancedConditional

	// Malleability rules, each enabled by its own flag.  The ErrSig codes
	// are the strict DER checks in the order they run.
	ErrMinimalData
	ErrInvalidSigHashType
	ErrSigTooShort
	ErrSigTooLong
	ErrSigInvalidSeqID
	ErrSigInvalidDataLen
	ErrSigMissingSTypeID
	ErrSigMissingSLen
	ErrSigInvalidSLen
	ErrSigInvalidRIntID
	ErrSigZeroRLen
	ErrSigNegativeR
	ErrSigTooMuchRPadding
	ErrSigInvalidSIntID
	ErrSigZeroSLen
	ErrSigNegativeS
	ErrSigTooMuchSPadding
	ErrSigHighS
	ErrNotPushOnly
	ErrSigNullDummy
	ErrPubKeyType
	ErrCleanStack
	ErrNullFail

	// ErrWitnessMalleated is a native witness program spent with a
	// signature script, and ErrWitnessMalleatedP2SH a nested one whose
	// signature script is more than the single canonical push of the
	// program.
	ErrWitnessMalleated
	ErrWitnessMalleatedP2SH

	// Soft fork rules.
	ErrDiscourageUpgradableNOPs
	ErrNegativeLockTime
	ErrUnsatisfiedLockTime
	ErrMinimalIf
	ErrDiscourageUpgradableWitnessProgram

	// Segregated witness.  ErrWitnessUnexpected is witness data on an
	// input that spends no witness program.
	ErrWitnessProgramEmpty
	ErrWitnessProgramMismatch
	ErrWitnessProgramWrongLength
	ErrWitnessUnexpected
	ErrWitnessPubKeyType

	// numErrorCodes must stay last.
	numErrorCodes
)

// errorCodeStrings holds the name of every code, indexed by code.
var errorCodeStrings = [numErrorCodes]string{
	"ErrInternal",
	"ErrInvalidFlags", "ErrInvalidIndex", "ErrUnsupportedAddress",
	"ErrNotMultisigScript", "ErrTooManyRequiredSigs", "ErrTooMuchNullData",
	"ErrEarlyReturn", "ErrEmptyStack", "ErrEvalFalse", "ErrScriptUnfinished",
	"ErrInvalidProgramCounter",
	"ErrScriptTooBig", "ErrElementTooBig", "ErrTooManyOperations",
	"ErrStackOverflow", "ErrInvalidPubKeyCount", "ErrInvalidSignatureCount",
	"ErrNumberTooBig",
	"ErrVerify", "ErrEqualVerify", "ErrNumEqualVerify", "ErrCheckSigVerify",
	"ErrCheckMultiSigVerify", "ErrCheckColdStakeVerify",
	"ErrDisabledOpcode", "ErrReservedOpcode", "ErrBadOpcode",
	"ErrMalformedPush", "ErrInvalidStackOperation",
	"ErrInvalidAltStackOperation", "ErrUnbalancedConditional",
	"ErrMinimalData", "ErrInvalidSigHashType", "ErrSigTooShort",
	"ErrSigTooLong", "ErrSigInvalidSeqID", "ErrSigInvalidDataLen",
	"ErrSigMissingSTypeID", "ErrSigMissingSLen", "ErrSigInvalidSLen",
	"ErrSigInvalidRIntID", "ErrSigZeroRLen", "ErrSigNegativeR",
	"ErrSigTooMuchRPadding", "ErrSigInvalidSIntID", "ErrSigZeroSLen",
	"ErrSigNegativeS", "ErrSigTooMuchSPadding", "ErrSigHighS",
	"ErrNotPushOnly", "ErrSigNullDummy", "ErrPubKeyType", "ErrCleanStack",
	"ErrNullFail",
	"ErrWitnessMalleated", "ErrWitnessMalleatedP2SH",
	"ErrDiscourageUpgradableNOPs", "ErrNegativeLockTime",
	"ErrUnsatisfiedLockTime", "ErrMinimalIf",
	"ErrDiscourageUpgradableWitnessProgram",
	"ErrWitnessProgramEmpty", "ErrWitnessProgramMismatch",
	"ErrWitnessProgramWrongLength", "ErrWitnessUnexpected",
	"ErrWitnessPubKeyType",
}

// String returns the name of the code.
func (e ErrorCode) String() string {
	if e >= 0 && e < numErrorCodes && errorCodeStrings[e] != "" {
		return errorCodeStrings[e]
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// Error is a script that failed to parse or execute, or a locking script that
// could not be built from the given parameters.  Inspect it with IsErrorCode.
type Error struct {
	ErrorCode   ErrorCode
	Description string
}

func (e Error) Error() string {
	return e.Description
}

func scriptError(c ErrorCode, desc string) Error {
	return Error{ErrorCode: c, Description: desc}
}

// IsErrorCode reports whether err, or an error it wraps, is a script error
// with code c.
func IsErrorCode(err error, c ErrorCode) bool {
	var serr Error
	return errors.As(err, &serr) && serr.ErrorCode == c
}

// AssertError is a caller breaking an API contract, such as verifying a
// witness program without the amount it commits to.  It is never returned
// for bad script data.
type AssertError string

func (e AssertError) Error() string {
	return "assertion failed: " + string(e)
}
