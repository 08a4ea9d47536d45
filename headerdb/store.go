// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package headerdb persists block headers as a flat append-only file of
// 80-byte records, with a leveldb sidecar index tracking record heights
// and the tip hash.
package headerdb

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/bitlab-dev/bitlab/wire"
)

const (
	// headersFileName is the flat file of 80-byte header records.
	headersFileName = "headers.dat"

	// indexDirName is the leveldb directory holding the sidecar index.
	indexDirName = "headers_index"

	// MaxHeadersPerRange caps the number of headers a single range scan
	// returns, matching the per-message maximum of the headers message.
	MaxHeadersPerRange = 2000
)

var (
	// tipKey stores the block hash of the most recently appended header.
	tipKey = []byte("tip")

	// hashKeyPrefix prefixes block-hash-to-height index entries.
	hashKeyPrefix = []byte("h")
)

// zeroHash is the locator sentinel used when the store is empty.
var zeroHash chainhash.Hash

// Store is an append-only block header store. All methods are safe for
// concurrent use.
type Store struct {
	mtx  sync.Mutex
	path string // flat headers file
	db   *leveldb.DB
}

// Open opens (creating as needed) the header store rooted at dir. A
// trailing partial record in the flat file is discarded, keeping the file
// an integer multiple of the record size. A missing or empty sidecar
// index is rebuilt from the flat file.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("headerdb: create %s: %w", dir, err)
	}

	db, err := leveldb.OpenFile(filepath.Join(dir, indexDirName), nil)
	if err != nil {
		return nil, fmt.Errorf("headerdb: open index: %w", err)
	}

	s := &Store{
		path: filepath.Join(dir, headersFileName),
		db:   db,
	}

	if err := s.repairFile(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.rebuildIndexIfNeeded(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the sidecar index.
func (s *Store) Close() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.db.Close()
}

// repairFile truncates a trailing partial record so the file length is a
// multiple of the record size.
func (s *Store) repairFile() error {
	fi, err := os.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("headerdb: stat %s: %w", s.path, err)
	}

	if extra := fi.Size() % wire.BlockHeaderLen; extra != 0 {
		log.Warnf("Headers file carries a %d-byte partial record, truncating",
			extra)
		if err := os.Truncate(s.path, fi.Size()-extra); err != nil {
			return fmt.Errorf("headerdb: truncate %s: %w", s.path, err)
		}
	}
	return nil
}

// rebuildIndexIfNeeded repopulates the sidecar index from the flat file
// when the index has no tip but the file holds records.
func (s *Store) rebuildIndexIfNeeded() error {
	if _, err := s.db.Get(tipKey, nil); err == nil {
		return nil
	} else if !errors.Is(err, leveldb.ErrNotFound) {
		return fmt.Errorf("headerdb: read tip: %w", err)
	}

	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("headerdb: open %s: %w", s.path, err)
	}
	defer f.Close()

	log.Infof("Rebuilding header index from %s", s.path)

	batch := new(leveldb.Batch)
	var height uint32
	var record [wire.BlockHeaderLen]byte
	for {
		_, err := io.ReadFull(f, record[:])
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("headerdb: read record %d: %w", height, err)
		}

		var bh wire.BlockHeader
		if err := bh.Deserialize(bytes.NewReader(record[:])); err != nil {
			return fmt.Errorf("headerdb: decode record %d: %w", height, err)
		}
		hash := bh.BlockHash()
		batch.Put(hashKey(&hash), heightValue(height))
		batch.Put(tipKey, hash[:])
		height++
	}

	if batch.Len() == 0 {
		return nil
	}
	if err := s.db.Write(batch, nil); err != nil {
		return fmt.Errorf("headerdb: write index: %w", err)
	}
	log.Infof("Indexed %d headers", height)
	return nil
}

// Append writes one header record to the flat file and updates the
// sidecar index. The write is a single append of exactly one record.
func (s *Store) Append(bh *wire.BlockHeader) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	var buf bytes.Buffer
	if err := bh.Serialize(&buf); err != nil {
		return err
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("headerdb: open %s: %w", s.path, err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("headerdb: stat %s: %w", s.path, err)
	}
	height := uint32(fi.Size() / wire.BlockHeaderLen)

	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return fmt.Errorf("headerdb: append record: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("headerdb: close %s: %w", s.path, err)
	}

	hash := bh.BlockHash()
	batch := new(leveldb.Batch)
	batch.Put(hashKey(&hash), heightValue(height))
	batch.Put(tipKey, hash[:])
	if err := s.db.Write(batch, nil); err != nil {
		return fmt.Errorf("headerdb: index record: %w", err)
	}

	log.Debugf("Appended header %v at height %d", hash, height)
	return nil
}

// LatestHash returns the block hash of the most recently appended header,
// or the all-zero hash when the store is empty. The zero hash doubles as
// the genesis locator sentinel.
func (s *Store) LatestHash() (chainhash.Hash, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	value, err := s.db.Get(tipKey, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return zeroHash, nil
	}
	if err != nil {
		return zeroHash, fmt.Errorf("headerdb: read tip: %w", err)
	}

	var hash chainhash.Hash
	if err := hash.SetBytes(value); err != nil {
		return zeroHash, fmt.Errorf("headerdb: malformed tip: %w", err)
	}
	return hash, nil
}

// Height returns the record height of the given block hash.
func (s *Store) Height(hash *chainhash.Hash) (uint32, bool, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	value, err := s.db.Get(hashKey(hash), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("headerdb: read height: %w", err)
	}
	return binary.LittleEndian.Uint32(value), true, nil
}

// Count returns the number of stored headers.
func (s *Store) Count() (int, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	fi, err := os.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("headerdb: stat %s: %w", s.path, err)
	}
	return int(fi.Size() / wire.BlockHeaderLen), nil
}

// Range scans the flat file and returns headers starting at the record
// whose block hash matches start, stopping after the record matching stop
// or once MaxHeadersPerRange records are collected. A zero start emits
// from the first record.
func (s *Store) Range(start, stop *chainhash.Hash) ([]*wire.BlockHeader, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("headerdb: open %s: %w", s.path, err)
	}
	defer f.Close()

	emitting := start == nil || *start == zeroHash
	var out []*wire.BlockHeader
	var record [wire.BlockHeaderLen]byte
	for len(out) < MaxHeadersPerRange {
		_, err := io.ReadFull(f, record[:])
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("headerdb: read record: %w", err)
		}

		bh := new(wire.BlockHeader)
		if err := bh.Deserialize(bytes.NewReader(record[:])); err != nil {
			return nil, fmt.Errorf("headerdb: decode record: %w", err)
		}
		hash := bh.BlockHash()

		if !emitting {
			if hash == *start {
				emitting = true
			} else {
				continue
			}
		}
		out = append(out, bh)

		if stop != nil && *stop != zeroHash && hash == *stop {
			break
		}
	}
	return out, nil
}

func hashKey(hash *chainhash.Hash) []byte {
	key := make([]byte, 0, len(hashKeyPrefix)+chainhash.HashSize)
	key = append(key, hashKeyPrefix...)
	key = append(key, hash[:]...)
	return key
}

func heightValue(height uint32) []byte {
	var value [4]byte
	binary.LittleEndian.PutUint32(value[:], height)
	return value[:]
}
