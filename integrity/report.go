// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package integrity

import (
	"encoding/hex"
	"sort"
)

// Corruption - one record that failed to decode
type Corruption struct {
	Table  string `json:"table"`
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// Report - result of a check
type Report struct {
	Path        string            `json:"path"`
	Records     map[string]uint64 `json:"records"`
	Corruptions []Corruption      `json:"corruptions"`
}

func newReport(path string) *Report {
	return &Report{
		Path:        path,
		Records:     make(map[string]uint64),
		Corruptions: []Corruption{},
	}
}

// Clean - true if no corruption was found
func (r *Report) Clean() bool {
	return 0 == len(r.Corruptions)
}

// Total - number of records checked
func (r *Report) Total() uint64 {
	n := uint64(0)
	for _, c := range r.Records {
		n += c
	}
	return n
}

func (r *Report) add(table string, key []byte, err error) {
	r.Corruptions = append(r.Corruptions, Corruption{
		Table:  table,
		Key:    hex.EncodeToString(key),
		Reason: err.Error(),
	})
}

// order by table then key
func (r *Report) sort() {
	sort.Slice(r.Corruptions, func(i, j int) bool {
		a := r.Corruptions[i]
		b := r.Corruptions[j]
		if a.Table != b.Table {
			return a.Table < b.Table
		}
		return a.Key < b.Key
	})
}
