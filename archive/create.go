// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zstd"

	"github.com/bitmark-inc/dbutils/fault"
	"github.com/bitmark-inc/dbutils/storage"
)

// Create - write a store directory to a new tar + zstd archive
//
// the data file is copied from a read transaction, lock files are
// left out; an existing archive file is never overwritten
func Create(directory string, archivePath string) (*Summary, error) {
	log := logger.New("archive")

	f, err := os.OpenFile(archivePath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if os.IsExist(err) {
		return nil, fmt.Errorf("%w: %q", fault.ErrArchiveExists, archivePath)
	}
	if nil != err {
		return nil, err
	}

	summary, err := create(directory, archivePath, f, log)
	if nil == err {
		err = f.Sync()
	}
	if cerr := f.Close(); nil == err {
		err = cerr
	}
	if nil != err {
		log.Errorf("archive: %q  error: %s", archivePath, err)
		_ = os.Remove(archivePath)
		return nil, err
	}

	log.Infof("archived: %d files  %s into: %q", summary.Files, humanize.Bytes(summary.Bytes), archivePath)
	return summary, nil
}

func create(directory string, archivePath string, w io.Writer, log *logger.L) (*Summary, error) {
	exclude, err := filepath.Abs(archivePath)
	if nil != err {
		return nil, err
	}

	encoder, err := zstd.NewWriter(w)
	if nil != err {
		return nil, err
	}
	tw := tar.NewWriter(encoder)

	summary := &Summary{}
	err = filepath.Walk(directory, func(path string, info os.FileInfo, err error) error {
		if nil != err {
			return err
		}
		name, err := filepath.Rel(directory, path)
		if nil != err || "." == name {
			return err
		}
		name = filepath.ToSlash(name)

		if abs, _ := filepath.Abs(path); exclude == abs {
			return nil
		}

		switch {
		case info.IsDir():
			summary.Directories += 1
			return tw.WriteHeader(&tar.Header{
				Typeflag: tar.TypeDir,
				Name:     name + "/",
				Mode:     int64(info.Mode() & 0777),
				ModTime:  info.ModTime(),
			})

		case !info.Mode().IsRegular(), strings.HasSuffix(name, storage.LockSuffix):
			log.Debugf("skip: %q", name)
			summary.Skipped += 1
			return nil

		case storage.DataFileName == info.Name():
			n, err := addStore(tw, path, name)
			summary.Files += 1
			summary.Bytes += uint64(n)
			return err

		default:
			n, err := addFile(tw, path, name, info)
			summary.Files += 1
			summary.Bytes += uint64(n)
			return err
		}
	})
	if nil == err {
		err = tw.Close()
	}
	if cerr := encoder.Close(); nil == err {
		err = cerr
	}
	if nil != err {
		return nil, err
	}
	return summary, nil
}

// a consistent copy of a store taken in one read transaction
func addStore(tw *tar.Writer, path string, name string) (int64, error) {
	h, err := storage.Open(path, storage.Options{ReadOnly: true})
	if nil != err {
		return 0, err
	}
	defer h.Close()

	trx, err := h.Begin(false)
	if nil != err {
		return 0, err
	}
	defer trx.Abort()

	err = tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeReg,
		Name:     name,
		Mode:     0600,
		Size:     trx.Size(),
		ModTime:  time.Now(),
	})
	if nil != err {
		return 0, err
	}
	return trx.WriteTo(tw)
}

func addFile(tw *tar.Writer, path string, name string, info os.FileInfo) (int64, error) {
	f, err := os.Open(path)
	if nil != err {
		return 0, err
	}
	defer f.Close()

	err = tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeReg,
		Name:     name,
		Mode:     int64(info.Mode() & 0777),
		Size:     info.Size(),
		ModTime:  info.ModTime(),
	})
	if nil != err {
		return 0, err
	}
	return io.Copy(tw, f)
}
