// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

import (
	"errors"
)

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type CorruptionError GenericError
type DanglingReferenceError GenericError
type InvalidError GenericError
type NotFoundError GenericError
type OpenError GenericError
type ProcessError GenericError
type ResourceError GenericError
type SchemaError GenericError

// common errors - keep in alphabetic order
var (
	ErrArchiveExists           = InvalidError("archive file already exists")
	ErrBlockNotFound           = NotFoundError("block not found")
	ErrCapacityExceeded        = ResourceError("store capacity exceeded")
	ErrCapacityTooSmall        = OpenError("capacity is smaller than existing store")
	ErrConfigurationNotTable   = InvalidError("configuration file must return a table")
	ErrDatabaseExists          = InvalidError("store already exists")
	ErrDatabaseLocked          = OpenError("store is locked by another writer")
	ErrDatabaseMissing         = OpenError("store does not exist")
	ErrDatabaseNotStore        = OpenError("file is not a store")
	ErrDiskFull                = ResourceError("no space left on device")
	ErrEmptyDeployMetadata     = CorruptionError("deploy metadata has no entries")
	ErrHeaderVersion           = CorruptionError("unsupported block header version")
	ErrInsufficientDiskSpace   = ResourceError("insufficient disk space for rebuild")
	ErrInvalidArchivePath      = InvalidError("archive entry escapes output directory")
	ErrInvalidBlockHash        = InvalidError("invalid block hash")
	ErrInvalidCompression      = InvalidError("unrecognised archive compression")
	ErrInvalidCount            = InvalidError("invalid count")
	ErrInvalidCursor           = InvalidError("invalid cursor")
	ErrInvalidDataDirectory    = InvalidError("invalid data directory")
	ErrInvalidDigestLength     = InvalidError("invalid digest length")
	ErrInvalidInput            = InvalidError("exactly one of URL or file is required")
	ErrInvalidStructPointer    = InvalidError("invalid struct pointer")
	ErrKeyNotFound             = NotFoundError("key not found")
	ErrMissingBody             = DanglingReferenceError("block body not found")
	ErrMissingDeployMetadata   = DanglingReferenceError("deploy metadata not found")
	ErrMissingTrieNode         = DanglingReferenceError("trie node not found")
	ErrNodeDigestMismatch      = CorruptionError("trie node digest does not match key")
	ErrNoStateRoots            = NotFoundError("no state roots found")
	ErrOpenFailed              = OpenError("store open failed")
	ErrReadOnlyTransaction     = ProcessError("write in read-only transaction")
	ErrRecordLength            = CorruptionError("record length is invalid")
	ErrRecordOrder             = CorruptionError("record entries are out of order")
	ErrTableMissing            = SchemaError("table does not exist")
	ErrTransactionClosed       = ProcessError("transaction is closed")
	ErrTrieAffixEmpty          = CorruptionError("trie extension has empty affix")
	ErrTrieBranchEmpty         = CorruptionError("trie branch has no children")
	ErrTrieNodeTag             = CorruptionError("unknown trie node tag")
	ErrUnexpectedHTTPStatus    = ProcessError("unexpected HTTP status")
	ErrUnknownTable            = SchemaError("table is not known")
	ErrVarintTruncated         = CorruptionError("truncated varint")
	ErrWriteBuildFailed        = ProcessError("rebuild failed")
	ErrWriteInReadOnlyDatabase = ProcessError("store opened read-only")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e CorruptionError) Error() string        { return string(e) }
func (e DanglingReferenceError) Error() string { return string(e) }
func (e InvalidError) Error() string           { return string(e) }
func (e NotFoundError) Error() string          { return string(e) }
func (e OpenError) Error() string              { return string(e) }
func (e ProcessError) Error() string           { return string(e) }
func (e ResourceError) Error() string          { return string(e) }
func (e SchemaError) Error() string            { return string(e) }

// determine the class of an error
//
// errors wrapped with fmt.Errorf("...%w...") are unwrapped
func IsErrCorruption(e error) bool        { var t CorruptionError; return errors.As(e, &t) }
func IsErrDanglingReference(e error) bool { var t DanglingReferenceError; return errors.As(e, &t) }
func IsErrInvalid(e error) bool           { var t InvalidError; return errors.As(e, &t) }
func IsErrNotFound(e error) bool          { var t NotFoundError; return errors.As(e, &t) }
func IsErrOpen(e error) bool              { var t OpenError; return errors.As(e, &t) }
func IsErrProcess(e error) bool           { var t ProcessError; return errors.As(e, &t) }
func IsErrResource(e error) bool          { var t ResourceError; return errors.As(e, &t) }
func IsErrSchema(e error) bool            { var t SchemaError; return errors.As(e, &t) }
