// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package triecompact_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/dbutils/digest"
	"github.com/bitmark-inc/dbutils/fault"
	"github.com/bitmark-inc/dbutils/fixtures"
	"github.com/bitmark-inc/dbutils/storage"
	"github.com/bitmark-inc/dbutils/triecompact"
)

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	rc := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(rc)
}

type chain struct {
	path      string
	reachable []digest.Digest
	orphans   []digest.Digest
}

// two blocks sharing part of their state plus nodes of an abandoned state
func buildChain(t *testing.T) chain {
	path, w, err := fixtures.NewStore(t.TempDir())
	require.Nil(t, err, "new store")

	shared := w.Leaf("account-a", "balance-1")
	b2 := w.Leaf("account-b", "balance-2")
	b3 := w.Leaf("account-b", "balance-3")
	root0 := w.Branch(shared, b2)
	inner := w.Branch(shared, b3)
	root1 := w.Extension("acc", inner)

	orphanLeaf := w.Leaf("account-c", "balance-9")
	orphanRoot := w.Branch(shared, orphanLeaf)

	b0 := w.Block(0, digest.Digest{}, root0, fixtures.DeployHash("d0"), fixtures.DeployHash("d1"))
	w.Block(1, b0, root1, fixtures.DeployHash("d1"), fixtures.DeployHash("d2"))

	// a second header with an already seen root
	w.Block(2, b0, root1)

	require.Nil(t, w.Close(), "close")

	return chain{
		path:      path,
		reachable: []digest.Digest{shared, b2, b3, root0, inner, root1},
		orphans:   []digest.Digest{orphanLeaf, orphanRoot},
	}
}

func TestCompactKeepsReachableNodes(t *testing.T) {
	c := buildChain(t)

	before, err := fixtures.Contents(c.path)
	require.Nil(t, err, "contents before")

	result, err := triecompact.Compact(c.path, triecompact.Options{})
	require.Nil(t, err, "compact")
	assert.Equal(t, uint64(2), result.Roots, "distinct roots")
	assert.Equal(t, uint64(len(c.reachable)), result.Retained, "retained")
	assert.Equal(t, uint64(len(c.orphans)), result.Dropped, "dropped")
	assert.Greater(t, result.SizeBefore, int64(0), "size before")
	assert.Greater(t, result.SizeAfter, int64(0), "size after")

	after, err := fixtures.Contents(c.path)
	require.Nil(t, err, "contents after")

	expectedTrie := make(map[string]string)
	for _, d := range c.reachable {
		k := string(d[:])
		expectedTrie[k] = before["trie"][k]
	}
	assert.Equal(t, expectedTrie, after["trie"], "trie holds exactly the reachable nodes")

	for _, table := range []string{"block_header", "block_body", "deploy_metadata"} {
		assert.Equal(t, before[table], after[table], "table: %s unchanged", table)
	}
}

func TestCompactIsIdempotent(t *testing.T) {
	c := buildChain(t)

	_, err := triecompact.Compact(c.path, triecompact.Options{})
	require.Nil(t, err, "first compact")
	first, err := fixtures.Contents(c.path)
	require.Nil(t, err, "contents")

	result, err := triecompact.Compact(c.path, triecompact.Options{})
	require.Nil(t, err, "second compact")
	assert.Equal(t, uint64(0), result.Dropped, "nothing more to drop")

	second, err := fixtures.Contents(c.path)
	require.Nil(t, err, "contents")
	assert.Equal(t, first, second, "second run changes nothing")
}

func TestCompactDanglingReference(t *testing.T) {
	path, w, err := fixtures.NewStore(t.TempDir())
	require.Nil(t, err, "new store")
	leaf := w.Leaf("account-a", "balance-1")
	root := w.Branch(leaf, w.Leaf("account-b", "balance-2"))
	w.Block(0, digest.Digest{}, root)
	w.Delete(storage.Pool.Trie, leaf[:])
	require.Nil(t, w.Close(), "close")

	assertFailsUnchanged(t, path, fault.IsErrDanglingReference, triecompact.Options{})
}

func TestCompactCorruptNode(t *testing.T) {
	path, w, err := fixtures.NewStore(t.TempDir())
	require.Nil(t, err, "new store")
	leaf := w.Leaf("account-a", "balance-1")
	root := w.Branch(leaf)
	w.Block(0, digest.Digest{}, root)
	w.Raw(storage.Pool.Trie, leaf[:], []byte("not a node"))
	require.Nil(t, w.Close(), "close")

	assertFailsUnchanged(t, path, fault.IsErrCorruption, triecompact.Options{})
}

// without headers nothing is reachable so the trie is emptied
func TestCompactNoBlocks(t *testing.T) {
	path, w, err := fixtures.NewStore(t.TempDir())
	require.Nil(t, err, "new store")
	w.Leaf("account-a", "balance-1")
	w.ExecutionResult(fixtures.DeployHash("d0"), digest.NewDigest([]byte("orphan block")), "result")
	require.Nil(t, w.Close(), "close")

	before, err := fixtures.Contents(path)
	require.Nil(t, err, "contents before")

	result, err := triecompact.Compact(path, triecompact.Options{})
	require.Nil(t, err, "compact")
	assert.Equal(t, uint64(0), result.Roots, "roots")
	assert.Equal(t, uint64(0), result.Retained, "retained")
	assert.Equal(t, uint64(1), result.Dropped, "dropped")

	after, err := fixtures.Contents(path)
	require.Nil(t, err, "contents after")
	assert.Empty(t, after[storage.Pool.Trie.Name()], "trie must be empty")
	for name, records := range before {
		if storage.Pool.Trie.Name() == name {
			continue
		}
		assert.Equal(t, records, after[name], "table: %s", name)
	}
}

func TestCompactNoBlocksRequireRoots(t *testing.T) {
	path, w, err := fixtures.NewStore(t.TempDir())
	require.Nil(t, err, "new store")
	w.Leaf("account-a", "balance-1")
	require.Nil(t, w.Close(), "close")

	assertFailsUnchanged(t, path, fault.IsErrNotFound, triecompact.Options{RequireRoots: true})
}

// a failure just before the replace leaves the original store
func TestCompactInterrupted(t *testing.T) {
	c := buildChain(t)

	called := false
	assertFailsUnchanged(t, c.path, func(err error) bool {
		return called && "simulated crash" == err.Error()
	}, triecompact.Options{
		BeforeReplace: func() error {
			called = true
			return errors.New("simulated crash")
		},
	})

	// the store still compacts normally afterwards
	result, err := triecompact.Compact(c.path, triecompact.Options{})
	require.Nil(t, err, "compact")
	assert.Equal(t, uint64(len(c.orphans)), result.Dropped, "dropped")
}

func assertFailsUnchanged(t *testing.T, path string, class func(error) bool, options triecompact.Options) {
	original, err := os.ReadFile(path)
	require.Nil(t, err, "read store")

	_, err = triecompact.Compact(path, options)
	assert.True(t, class(err), "unexpected error: %v", err)

	after, err := os.ReadFile(path)
	require.Nil(t, err, "read store")
	assert.Equal(t, original, after, "store must be unchanged")

	matches, _ := filepath.Glob(path + ".rebuild-*")
	assert.Equal(t, 0, len(matches), "temporary files: %v", matches)
}
