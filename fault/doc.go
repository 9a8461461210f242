// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fault - error instances
//
// Provides a single instance of errors to allow easy comparison
// without having to resort to partial string matches.
//
// Each error belongs to a class (OpenError, SchemaError,
// CorruptionError, DanglingReferenceError, NotFoundError,
// ResourceError, ...) so callers can decide whether a failure is
// fatal, reportable or an expected outcome.  Context may be added by
// wrapping with fmt.Errorf and %w; the IsErrXxx functions still
// recognise the class.
package fault
