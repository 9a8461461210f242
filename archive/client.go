// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package archive

//go:generate mockgen -source client.go -destination mocks/mock_client.go -package mocks

import (
	"net/http"
)

// HTTPClient - the part of http.Client used for downloads
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}
