// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package headerdb

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"

	"github.com/bitlab-dev/bitlab/wire"
)

// testHeader builds a distinct header per nonce.
func testHeader(nonce uint32) *wire.BlockHeader {
	return &wire.BlockHeader{
		Version:   1,
		Timestamp: time.Unix(0x495fab29, 0),
		Bits:      0x1d00ffff,
		Nonce:     nonce,
	}
}

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, dir
}

func TestEmptyStoreLatestHash(t *testing.T) {
	s, _ := openTestStore(t)

	hash, err := s.LatestHash()
	require.NoError(t, err)
	require.Equal(t, chainhash.Hash{}, hash)

	count, err := s.Count()
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestAppendAndLatestHash(t *testing.T) {
	s, dir := openTestStore(t)

	var want chainhash.Hash
	for nonce := uint32(0); nonce < 3; nonce++ {
		bh := testHeader(nonce)
		require.NoError(t, s.Append(bh))
		want = bh.BlockHash()
	}

	// The latest hash is the tip's block hash, not its prev-block field.
	got, err := s.LatestHash()
	require.NoError(t, err)
	require.Equal(t, want, got)

	count, err := s.Count()
	require.NoError(t, err)
	require.Equal(t, 3, count)

	// The flat file must stay an integer multiple of the record size.
	fi, err := os.Stat(filepath.Join(dir, headersFileName))
	require.NoError(t, err)
	require.Zero(t, fi.Size()%wire.BlockHeaderLen)

	// The sidecar resolves every appended hash to its height.
	for nonce := uint32(0); nonce < 3; nonce++ {
		hash := testHeader(nonce).BlockHash()
		height, ok, err := s.Height(&hash)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, nonce, height)
	}
}

func TestRange(t *testing.T) {
	s, _ := openTestStore(t)

	headers := make([]*wire.BlockHeader, 5)
	for i := range headers {
		headers[i] = testHeader(uint32(i))
		require.NoError(t, s.Append(headers[i]))
	}

	t.Run("FromGenesis", func(t *testing.T) {
		out, err := s.Range(nil, nil)
		require.NoError(t, err)
		require.Len(t, out, 5)
		require.Equal(t, headers[0].BlockHash(), out[0].BlockHash())
	})

	t.Run("FromStartHash", func(t *testing.T) {
		start := headers[2].BlockHash()
		out, err := s.Range(&start, nil)
		require.NoError(t, err)
		require.Len(t, out, 3)
		require.Equal(t, headers[2].BlockHash(), out[0].BlockHash())
	})

	t.Run("StopHash", func(t *testing.T) {
		stop := headers[3].BlockHash()
		out, err := s.Range(nil, &stop)
		require.NoError(t, err)
		require.Len(t, out, 4)
		require.Equal(t, headers[3].BlockHash(), out[3].BlockHash())
	})

	t.Run("UnknownStart", func(t *testing.T) {
		start := chainhash.Hash{0xff}
		out, err := s.Range(&start, nil)
		require.NoError(t, err)
		require.Empty(t, out)
	})
}

// TestReopenRebuildsIndex drops the sidecar index and checks that a
// reopen reconstructs the tip from the flat file.
func TestReopenRebuildsIndex(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	bh := testHeader(7)
	require.NoError(t, s.Append(bh))
	require.NoError(t, s.Close())

	require.NoError(t, os.RemoveAll(filepath.Join(dir, indexDirName)))

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()

	hash, err := s.LatestHash()
	require.NoError(t, err)
	require.Equal(t, bh.BlockHash(), hash)
}

// TestPartialRecordRepair writes a torn record and checks that opening
// the store discards it.
func TestPartialRecordRepair(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Append(testHeader(1)))
	require.NoError(t, s.Close())

	path := filepath.Join(dir, headersFileName)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0600)
	require.NoError(t, err)
	_, err = f.Write(make([]byte, 13))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()

	count, err := s.Count()
	require.NoError(t, err)
	require.Equal(t, 1, count)

	fi, err := os.Stat(path)
	require.NoError(t, err)
	require.Zero(t, fi.Size()%wire.BlockHeaderLen)
}
