// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package removeblock

import (
	"fmt"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/dbutils/digest"
	"github.com/bitmark-inc/dbutils/fault"
	"github.com/bitmark-inc/dbutils/record"
	"github.com/bitmark-inc/dbutils/storage"
)

// Options - for a removal
type Options struct {
	Capacity int64
	Timeout  time.Duration
}

// Result - what was removed
type Result struct {
	BlockHash      digest.Digest   `json:"blockHash"`
	Height         uint64          `json:"height,string"`
	MissingBody    bool            `json:"missingBody"`
	BodyRetained   bool            `json:"bodyRetained"`
	DeploysUpdated uint64          `json:"deploysUpdated"`
	DeploysDeleted uint64          `json:"deploysDeleted"`
	MissingDeploys []digest.Digest `json:"missingDeploys"`
}

// RemoveBlock - delete a block with its body and execution results
func RemoveBlock(path string, blockHash digest.Digest, options Options) (*Result, error) {
	log := logger.New("remove")

	h, err := storage.Open(path, storage.Options{
		Capacity: options.Capacity,
		Timeout:  options.Timeout,
	})
	if nil != err {
		return nil, err
	}
	defer h.Close()

	result := &Result{
		BlockHash:      blockHash,
		MissingDeploys: []digest.Digest{},
	}

	err = h.Update(func(trx storage.Transaction) error {
		return remove(trx, blockHash, result, log)
	})
	if nil != err {
		log.Errorf("block: %s  error: %s", blockHash, err)
		return nil, err
	}

	log.Infof("removed block: %s  height: %d  deploys updated: %d  deleted: %d", blockHash, result.Height, result.DeploysUpdated, result.DeploysDeleted)
	return result, nil
}

func remove(trx storage.Transaction, blockHash digest.Digest, result *Result, log *logger.L) error {
	data, err := trx.Get(storage.Pool.BlockHeader, blockHash[:])
	if fault.IsErrNotFound(err) {
		return fmt.Errorf("%w: %s", fault.ErrBlockNotFound, blockHash)
	}
	if nil != err {
		return err
	}

	header, err := record.UnpackHeader(data)
	if nil != err {
		return fmt.Errorf("%w: block: %s", err, blockHash)
	}
	result.Height = header.Height

	data, err = trx.Get(storage.Pool.BlockBody, header.BodyHash[:])
	if fault.IsErrNotFound(err) {
		log.Warnf("block: %s  body: %s  error: %s, removing header only", blockHash, header.BodyHash, fault.ErrMissingBody)
		result.MissingBody = true
	} else if nil != err {
		return err
	} else {
		body, err := record.UnpackBody(data)
		if nil != err {
			return fmt.Errorf("%w: body: %s", err, header.BodyHash)
		}

		err = removeExecutionResults(trx, blockHash, body, result, log)
		if nil != err {
			return err
		}

		shared, err := bodyShared(trx, blockHash, header.BodyHash, log)
		if nil != err {
			return err
		}
		if shared {
			log.Infof("body: %s  is used by another block, retained", header.BodyHash)
			result.BodyRetained = true
		} else {
			err = trx.Delete(storage.Pool.BlockBody, header.BodyHash[:])
			if nil != err {
				return err
			}
		}
	}

	return trx.Delete(storage.Pool.BlockHeader, blockHash[:])
}

// remove this block's entry from the metadata of each deploy
func removeExecutionResults(trx storage.Transaction, blockHash digest.Digest, body *record.Body, result *Result, log *logger.L) error {
	seen := make(map[digest.Digest]struct{})

	for _, deployHash := range body.DeployHashes {
		if _, ok := seen[deployHash]; ok {
			continue
		}
		seen[deployHash] = struct{}{}

		data, err := trx.Get(storage.Pool.DeployMetadata, deployHash[:])
		if fault.IsErrNotFound(err) {
			log.Warnf("deploy: %s  error: %s", deployHash, fault.ErrMissingDeployMetadata)
			result.MissingDeploys = append(result.MissingDeploys, deployHash)
			continue
		}
		if nil != err {
			return err
		}

		metadata, err := record.UnpackDeployMetadata(data)
		if nil != err {
			return fmt.Errorf("%w: deploy: %s", err, deployHash)
		}

		if !metadata.Remove(blockHash) {
			log.Warnf("deploy: %s  has no result for block: %s", deployHash, blockHash)
			result.MissingDeploys = append(result.MissingDeploys, deployHash)
			continue
		}

		if metadata.IsEmpty() {
			err = trx.Delete(storage.Pool.DeployMetadata, deployHash[:])
			result.DeploysDeleted += 1
		} else {
			err = trx.Put(storage.Pool.DeployMetadata, deployHash[:], metadata.Pack())
			result.DeploysUpdated += 1
		}
		if nil != err {
			return err
		}
	}
	return nil
}

// check if any other header refers to the body
//
// only the body hash field is read so a damaged header elsewhere in the
// store cannot block the removal
func bodyShared(trx storage.Transaction, blockHash digest.Digest, bodyHash digest.Digest, log *logger.L) (bool, error) {
	cursor, err := trx.NewFetchCursor(storage.Pool.BlockHeader)
	if nil != err {
		return false, err
	}

	shared := false
	err = cursor.Map(func(key []byte, value []byte) error {
		if string(key) == string(blockHash[:]) {
			return nil
		}
		other, err := record.BodyHashOf(value)
		if nil != err {
			log.Warnf("block: %x  error: %s, skipped", key, err)
			return nil
		}
		if other == bodyHash {
			shared = true
			return errStop
		}
		return nil
	})
	if errStop == err {
		err = nil
	}
	return shared, err
}

// ends a cursor scan early
var errStop = fault.ProcessError("stop")
