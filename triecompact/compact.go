// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package triecompact

import (
	"fmt"
	"sort"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/dbutils/digest"
	"github.com/bitmark-inc/dbutils/fault"
	"github.com/bitmark-inc/dbutils/record"
	"github.com/bitmark-inc/dbutils/storage"
	"github.com/bitmark-inc/dbutils/trie"
)

// Options - for a compaction
type Options struct {
	Capacity int64
	Timeout  time.Duration

	// refuse a store without block headers instead of dropping every
	// trie node
	RequireRoots bool

	// called after all records are written and before the new store
	// replaces the original, an error abandons the new store
	BeforeReplace func() error
}

// Result - summary of a compaction
type Result struct {
	Roots      uint64 `json:"roots"`
	Retained   uint64 `json:"retained"`
	Dropped    uint64 `json:"dropped"`
	SizeBefore int64  `json:"sizeBefore"`
	SizeAfter  int64  `json:"sizeAfter"`
}

// Compact - keep only the trie nodes reachable from a block's state root
func Compact(path string, options Options) (*Result, error) {
	log := logger.New("compact")

	result := &Result{}
	build := func(src storage.Transaction, dst *storage.Copier) error {
		roots, err := stateRoots(src)
		if nil != err {
			return err
		}
		result.Roots = uint64(len(roots))
		log.Infof("state roots: %d", len(roots))
		if 0 == len(roots) {
			if options.RequireRoots {
				return fault.ErrNoStateRoots
			}
			log.Warn("no state roots: all trie nodes will be dropped")
		}

		reachable, err := traverse(src, roots, log)
		if nil != err {
			return err
		}

		total, err := src.Count(storage.Pool.Trie)
		if nil != err {
			return err
		}

		retained, err := storage.CopyTable(src, dst, storage.Pool.Trie, func(key []byte, value []byte) bool {
			var d digest.Digest
			if nil != digest.FromBytes(&d, key) {
				return false
			}
			_, ok := reachable[d]
			return ok
		})
		if nil != err {
			return err
		}
		result.Retained = retained
		result.Dropped = uint64(total) - retained

		err = copyOtherTables(src, dst)
		if nil != err {
			return err
		}

		err = dst.Flush()
		if nil != err {
			return err
		}
		if nil != options.BeforeReplace {
			return options.BeforeReplace()
		}
		return nil
	}

	rebuild, err := storage.RebuildAndReplace(path, storage.Options{
		Capacity: options.Capacity,
		Timeout:  options.Timeout,
	}, build)
	if nil != err {
		return nil, err
	}

	result.SizeBefore = rebuild.SizeBefore
	result.SizeAfter = rebuild.SizeAfter
	log.Infof("retained: %d  dropped: %d", result.Retained, result.Dropped)
	return result, nil
}

// distinct state roots of all headers in key order
func stateRoots(src storage.Transaction) ([]digest.Digest, error) {
	cursor, err := src.NewFetchCursor(storage.Pool.BlockHeader)
	if nil != err {
		return nil, err
	}

	seen := make(map[digest.Digest]struct{})
	err = cursor.Map(func(key []byte, value []byte) error {
		header, err := record.UnpackHeader(value)
		if nil != err {
			return fmt.Errorf("%w: block: %x", err, key)
		}
		seen[header.StateRootHash] = struct{}{}
		return nil
	})
	if nil != err {
		return nil, err
	}

	roots := make([]digest.Digest, 0, len(seen))
	for d := range seen {
		roots = append(roots, d)
	}
	sort.Slice(roots, func(i, j int) bool {
		return roots[i].Compare(roots[j]) < 0
	})
	return roots, nil
}

// the set of nodes reachable from the roots
//
// a missing or undecodable node stops the traversal
func traverse(src storage.Transaction, roots []digest.Digest, log *logger.L) (map[digest.Digest]struct{}, error) {
	visited := make(map[digest.Digest]struct{})
	worklist := append([]digest.Digest{}, roots...)

	for 0 != len(worklist) {
		n := len(worklist) - 1
		d := worklist[n]
		worklist = worklist[:n]

		if _, ok := visited[d]; ok {
			continue
		}

		data, err := src.Get(storage.Pool.Trie, d[:])
		if fault.IsErrNotFound(err) {
			log.Errorf("missing trie node: %s", d)
			return nil, fmt.Errorf("%w: %s", fault.ErrMissingTrieNode, d)
		}
		if nil != err {
			return nil, err
		}

		node, err := trie.UnpackVerified(d[:], data)
		if nil != err {
			log.Errorf("trie node: %s  error: %s", d, err)
			return nil, fmt.Errorf("%w: node: %s", err, d)
		}
		visited[d] = struct{}{}

		for _, child := range node.Children() {
			if _, ok := visited[child]; !ok {
				worklist = append(worklist, child)
			}
		}
	}
	return visited, nil
}

// every table other than the trie is copied unchanged
func copyOtherTables(src storage.Transaction, dst *storage.Copier) error {
	tables, err := src.Tables()
	if nil != err {
		return err
	}
	for _, name := range tables {
		if storage.Pool.Trie.Name() == name {
			continue
		}
		if _, err := storage.CopyTable(src, dst, storage.NewPoolHandle(name), nil); nil != err {
			return err
		}
	}
	return nil
}
