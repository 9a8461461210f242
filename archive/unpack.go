// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package archive

import (
	"archive/tar"
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/bitmark-inc/logger"
	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/bitmark-inc/dbutils/fault"
)

// Input - where the archive comes from, exactly one must be set
type Input struct {
	URL  string
	File string
}

// Summary - what an archive operation processed
type Summary struct {
	Files       uint64 `json:"files"`
	Directories uint64 `json:"directories"`
	Bytes       uint64 `json:"bytes"`
	Skipped     uint64 `json:"skipped"`
}

// Unpacker - unpacks archives, downloading with the given client
type Unpacker struct {
	client HTTPClient
	log    *logger.L
}

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	xzMagic   = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
)

// NewUnpacker - create an unpacker
func NewUnpacker(client HTTPClient) *Unpacker {
	if nil == client {
		client = http.DefaultClient
	}
	return &Unpacker{
		client: client,
		log:    logger.New("archive"),
	}
}

// Unpack - unpack with the default HTTP client
func Unpack(ctx context.Context, input Input, output string) (*Summary, error) {
	return NewUnpacker(nil).Unpack(ctx, input, output)
}

// Unpack - stream an archive into the output directory
func (u *Unpacker) Unpack(ctx context.Context, input Input, output string) (*Summary, error) {
	if ("" == input.URL) == ("" == input.File) {
		return nil, fault.ErrInvalidInput
	}

	source, err := u.open(ctx, input)
	if nil != err {
		return nil, err
	}
	defer source.Close()

	decompressed, err := decompress(bufio.NewReader(source))
	if nil != err {
		return nil, err
	}
	defer decompressed.Close()

	err = os.MkdirAll(output, 0700)
	if nil != err {
		return nil, err
	}

	summary, err := u.extract(tar.NewReader(decompressed), output)
	if nil != err {
		u.log.Errorf("unpack into: %q  error: %s", output, err)
		return nil, err
	}

	u.log.Infof("unpacked: %d files  %s into: %q", summary.Files, humanize.Bytes(summary.Bytes), output)
	return summary, nil
}

func (u *Unpacker) open(ctx context.Context, input Input) (io.ReadCloser, error) {
	if "" != input.File {
		return os.Open(input.File)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, input.URL, nil)
	if nil != err {
		return nil, fmt.Errorf("%w: %v", fault.ErrInvalidInput, err)
	}
	response, err := u.client.Do(request)
	if nil != err {
		return nil, err
	}
	if http.StatusOK != response.StatusCode {
		response.Body.Close()
		return nil, fmt.Errorf("%w: %s", fault.ErrUnexpectedHTTPStatus, response.Status)
	}
	u.log.Infof("download: %q  size: %d", input.URL, response.ContentLength)
	return response.Body, nil
}

type closer struct {
	io.Reader
	close func()
}

func (c closer) Close() error {
	c.close()
	return nil
}

// choose the decompressor from the leading bytes
func decompress(r *bufio.Reader) (io.ReadCloser, error) {
	magic, err := r.Peek(len(xzMagic))
	if nil != err && io.EOF != err {
		return nil, err
	}

	switch {
	case bytes.HasPrefix(magic, zstdMagic):
		d, err := zstd.NewReader(r)
		if nil != err {
			return nil, err
		}
		return closer{Reader: d, close: d.Close}, nil

	case bytes.HasPrefix(magic, xzMagic):
		d, err := xz.NewReader(r)
		if nil != err {
			return nil, err
		}
		return closer{Reader: d, close: func() {}}, nil

	default:
		return nil, fault.ErrInvalidCompression
	}
}

func (u *Unpacker) extract(r *tar.Reader, output string) (*Summary, error) {
	summary := &Summary{}
	for {
		header, err := r.Next()
		if io.EOF == err {
			return summary, nil
		}
		if nil != err {
			return nil, err
		}

		target, err := targetPath(output, header.Name)
		if nil != err {
			return nil, err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			err = os.MkdirAll(target, 0700)
			summary.Directories += 1

		case tar.TypeReg:
			var n int64
			n, err = writeFile(target, r, os.FileMode(header.Mode)&0777)
			summary.Files += 1
			summary.Bytes += uint64(n)

		default:
			u.log.Warnf("skip: %q  type: %c", header.Name, header.Typeflag)
			summary.Skipped += 1
		}
		if nil != err {
			return nil, err
		}
	}
}

// the path an entry is written to, it must stay inside the output directory
func targetPath(output string, name string) (string, error) {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("%w: %q", fault.ErrInvalidArchivePath, name)
	}
	target := filepath.Join(output, filepath.FromSlash(name))
	rel, err := filepath.Rel(output, target)
	if nil != err || ".." == rel || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", fault.ErrInvalidArchivePath, name)
	}
	return target, nil
}

func writeFile(target string, r io.Reader, mode os.FileMode) (int64, error) {
	err := os.MkdirAll(filepath.Dir(target), 0700)
	if nil != err {
		return 0, err
	}
	if 0 == mode {
		mode = 0600
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if nil != err {
		return 0, err
	}
	n, err := io.Copy(f, r)
	if nil != err {
		f.Close()
		return n, err
	}
	return n, f.Close()
}
