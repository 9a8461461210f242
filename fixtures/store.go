// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fixtures

import (
	"fmt"
	"path/filepath"

	"github.com/bitmark-inc/dbutils/digest"
	"github.com/bitmark-inc/dbutils/record"
	"github.com/bitmark-inc/dbutils/storage"
	"github.com/bitmark-inc/dbutils/trie"
)

// Writer - builds a store record by record in one write transaction
type Writer struct {
	handle *storage.Handle
	trx    storage.Transaction
	err    error
}

// NewStore - create a store with all node tables in a directory
func NewStore(directory string) (string, *Writer, error) {
	path := filepath.Join(directory, storage.DataFileName)
	h, err := storage.Create(path, storage.Options{}, storage.KnownPools()...)
	if nil != err {
		return "", nil, err
	}
	trx, err := h.Begin(true)
	if nil != err {
		h.Close()
		return "", nil, err
	}
	return path, &Writer{handle: h, trx: trx}, nil
}

// Close - commit everything and close the store
//
// the first error from any earlier call is returned
func (w *Writer) Close() error {
	defer w.handle.Close()
	if nil != w.err {
		w.trx.Abort()
		return w.err
	}
	return w.trx.Commit()
}

func (w *Writer) put(pool *storage.PoolHandle, key []byte, value []byte) {
	if nil != w.err {
		return
	}
	w.err = w.trx.Put(pool, key, value)
}

// Raw - store arbitrary bytes, used to create corrupt records
func (w *Writer) Raw(pool *storage.PoolHandle, key []byte, value []byte) {
	w.put(pool, key, value)
}

// Node - store a trie node under its own digest
func (w *Writer) Node(node trie.Node) digest.Digest {
	d := trie.Digest(node)
	w.put(storage.Pool.Trie, d[:], node.Pack())
	return d
}

// Leaf - store a leaf node
func (w *Writer) Leaf(key string, value string) digest.Digest {
	return w.Node(&trie.Leaf{Key: []byte(key), Value: []byte(value)})
}

// Branch - store a branch node, children are given in index order
// starting from index zero
func (w *Writer) Branch(children ...digest.Digest) digest.Digest {
	pointers := make([]trie.Pointer, len(children))
	for i, c := range children {
		pointers[i] = trie.Pointer{Index: byte(i), Child: c}
	}
	return w.Node(&trie.Branch{Pointers: pointers})
}

// Extension - store an extension node
func (w *Writer) Extension(affix string, child digest.Digest) digest.Digest {
	return w.Node(&trie.Extension{Affix: []byte(affix), Child: child})
}

// Block - store a header and its body; the deploys are linked to
// the block through their metadata
func (w *Writer) Block(height uint64, parent digest.Digest, stateRoot digest.Digest, deploys ...digest.Digest) digest.Digest {
	body := &record.Body{DeployHashes: deploys}
	bodyHash := body.Digest()
	w.put(storage.Pool.BlockBody, bodyHash[:], body.Pack())

	header := &record.Header{
		Version:       record.HeaderVersion,
		ParentHash:    parent,
		StateRootHash: stateRoot,
		BodyHash:      bodyHash,
		Height:        height,
		EraID:         height / 10,
		Timestamp:     1600000000000 + height*65536,
	}
	packed := header.Pack()
	blockHash := packed.Digest()
	w.put(storage.Pool.BlockHeader, blockHash[:], packed[:])

	for _, d := range deploys {
		w.ExecutionResult(d, blockHash, fmt.Sprintf("result:%x:%x", d[:4], blockHash[:4]))
	}
	return blockHash
}

// ExecutionResult - add one entry to the metadata of a deploy
func (w *Writer) ExecutionResult(deployHash digest.Digest, blockHash digest.Digest, result string) {
	if nil != w.err {
		return
	}
	metadata := &record.DeployMetadata{
		ExecutionResults: make(map[digest.Digest][]byte),
	}
	data, err := w.trx.Get(storage.Pool.DeployMetadata, deployHash[:])
	if nil == err {
		metadata, err = record.UnpackDeployMetadata(data)
		if nil != err {
			w.err = err
			return
		}
	}
	metadata.ExecutionResults[blockHash] = []byte(result)
	w.put(storage.Pool.DeployMetadata, deployHash[:], metadata.Pack())
}

// Delete - remove a record, used to create dangling references
func (w *Writer) Delete(pool *storage.PoolHandle, key []byte) {
	if nil != w.err {
		return
	}
	w.err = w.trx.Delete(pool, key)
}

// DeployHash - a deterministic deploy hash
func DeployHash(name string) digest.Digest {
	return digest.NewDigest([]byte("deploy:" + name))
}

// Contents - every record of every table, for comparing stores
func Contents(path string) (map[string]map[string]string, error) {
	h, err := storage.Open(path, storage.Options{ReadOnly: true})
	if nil != err {
		return nil, err
	}
	defer h.Close()

	contents := make(map[string]map[string]string)
	err = h.View(func(trx storage.Transaction) error {
		tables, err := trx.Tables()
		if nil != err {
			return err
		}
		for _, name := range tables {
			records := make(map[string]string)
			cursor, err := trx.NewFetchCursor(storage.NewPoolHandle(name))
			if nil != err {
				return err
			}
			err = cursor.Map(func(key []byte, value []byte) error {
				records[string(key)] = string(value)
				return nil
			})
			if nil != err {
				return err
			}
			contents[name] = records
		}
		return nil
	})
	return contents, err
}
