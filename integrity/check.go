// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package integrity

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/dbutils/storage"
)

const (
	queueSize        = 1024
	progressInterval = 10 * time.Second
)

// Options - tuning for a check
type Options struct {
	Workers int           // decoder goroutines, zero => number of CPUs
	Timeout time.Duration // store lock timeout
}

// a copied record waiting to be decoded
type item struct {
	table string
	d     decoder
	key   []byte
	value []byte
}

// Check - decode every record of the named tables, all known tables
// if none are named
//
// an unknown or missing table is an error, corrupt records are only
// reported
func Check(path string, tables []string, options Options) (*Report, error) {
	log := logger.New("check")

	pools, err := selectPools(tables)
	if nil != err {
		return nil, err
	}

	h, err := storage.Open(path, storage.Options{
		ReadOnly: true,
		Timeout:  options.Timeout,
	})
	if nil != err {
		return nil, err
	}
	defer h.Close()

	workers := options.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	report := newReport(path)
	var lock sync.Mutex

	queue := make(chan item, queueSize)
	g, ctx := errgroup.WithContext(context.Background())

	// the transaction is only used by this goroutine
	g.Go(func() error {
		defer close(queue)
		return scan(ctx, h, pools, queue, report, log)
	})

	for i := 0; i < workers; i += 1 {
		g.Go(func() error {
			for it := range queue {
				err := decode(it.d, it.key, it.value)
				if nil == err {
					continue
				}
				log.Warnf("%s: key: %x  error: %s", it.table, it.key, err)
				lock.Lock()
				report.add(it.table, it.key, err)
				lock.Unlock()
			}
			return nil
		})
	}

	err = g.Wait()
	if nil != err {
		return nil, err
	}

	report.sort()
	log.Infof("checked: %q  records: %d  corruptions: %d", path, report.Total(), len(report.Corruptions))
	return report, nil
}

func scan(ctx context.Context, h *storage.Handle, pools []*storage.PoolHandle, queue chan<- item, report *Report, log *logger.L) error {
	trx, err := h.Begin(false)
	if nil != err {
		return err
	}
	defer trx.Abort()

	limiter := rate.NewLimiter(rate.Every(progressInterval), 1)

	for _, p := range pools {
		cursor, err := trx.NewFetchCursor(p)
		if nil != err {
			return err
		}
		d := decoders[p]
		n := uint64(0)
		err = cursor.Map(func(key []byte, value []byte) error {
			select {
			case queue <- item{table: p.Name(), d: d, key: key, value: value}:
			case <-ctx.Done():
				return ctx.Err()
			}
			n += 1
			if limiter.Allow() {
				log.Infof("%s: scanned: %d", p, n)
			}
			return nil
		})
		if nil != err {
			return err
		}

		// only the scanner writes the counts
		report.Records[p.Name()] = n
		log.Debugf("%s: records: %d", p, n)
	}
	return nil
}

// resolve table names, preserving order and removing duplicates
func selectPools(tables []string) ([]*storage.PoolHandle, error) {
	if 0 == len(tables) {
		return storage.KnownPools(), nil
	}
	pools := make([]*storage.PoolHandle, 0, len(tables))
	seen := make(map[string]struct{})
	for _, name := range tables {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		p, err := storage.PoolNamed(name)
		if nil != err {
			return nil, err
		}
		pools = append(pools, p)
	}
	return pools, nil
}
