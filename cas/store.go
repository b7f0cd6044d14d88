/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package cas implements a content-addressable object store: byte-streams
// keyed by the hex SHA-256 of their content, written atomically and
// deduplicated by construction.
package cas

import (
	"bytes"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	encsha "github.com/nabbar/logsieve/encoding/sha256"
	liberr "github.com/nabbar/logsieve/errors"
)

// Store is a content-addressable store rooted at a single directory, laid
// out as objects/<hh>/<rest> plus an objects/tmp staging area, per
// spec.md §6.
type Store struct {
	root string
}

// New returns a Store rooted at root. The caller must ensure root/objects
// and root/objects/tmp exist (Open creates them).
func New(root string) *Store {
	return &Store{root: root}
}

// Open ensures the store's on-disk layout exists.
func (s *Store) Open() liberr.Error {
	if e := os.MkdirAll(s.objectsDir(), 0o755); e != nil {
		return errIO(e)
	}
	if e := os.MkdirAll(s.tmpDir(), 0o755); e != nil {
		return errIO(e)
	}
	return nil
}

func (s *Store) objectsDir() string {
	return filepath.Join(s.root, "objects")
}

func (s *Store) tmpDir() string {
	return filepath.Join(s.root, "objects", "tmp")
}

// ObjectPath returns the on-disk path for a given hex-encoded hash, valid
// whether or not the object exists, for integrity tooling.
func (s *Store) ObjectPath(hash string) (string, liberr.Error) {
	if len(hash) != 64 {
		return "", errInvalidHash(hash)
	}
	return filepath.Join(s.objectsDir(), hash[:2], hash[2:]), nil
}

// Exists reports whether an object with the given hash is present.
func (s *Store) Exists(hash string) bool {
	p, err := s.ObjectPath(hash)
	if err != nil {
		return false
	}
	_, e := os.Stat(p)
	return e == nil
}

// StoreContent hashes b and, if no object with that hash exists yet, writes
// it atomically. Re-storing identical bytes is a no-op beyond the hash
// computation (testable property 3).
func (s *Store) StoreContent(b []byte) (string, liberr.Error) {
	return s.StoreStream(bytes.NewReader(b))
}

// StoreStream hashes r while streaming it to a fresh temp file, then renames
// the temp file into place. Concurrent writers of identical content race
// harmlessly: the loser's rename target already exists, so its temp file is
// simply removed.
func (s *Store) StoreStream(r io.Reader) (string, liberr.Error) {
	tmpName := filepath.Join(s.tmpDir(), uuid.NewString())

	f, e := os.OpenFile(tmpName, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if e != nil {
		return "", errIO(e)
	}

	coder := encsha.New()
	hw := coder.EncodeWriter(f)

	_, e = io.Copy(hw, r)
	closeErr := hw.Close()
	if e == nil {
		e = closeErr
	}
	if e != nil {
		_ = os.Remove(tmpName)
		return "", errIO(e)
	}

	sum := coder.Encode(nil)
	hash := hex.EncodeToString(sum)

	dest, err := s.ObjectPath(hash)
	if err != nil {
		_ = os.Remove(tmpName)
		return "", err
	}

	if e = os.MkdirAll(filepath.Dir(dest), 0o755); e != nil {
		_ = os.Remove(tmpName)
		return "", errIO(e)
	}

	if _, statErr := os.Stat(dest); statErr == nil {
		// Object already present: another writer won the race, or this is
		// a re-store of existing content. Drop our temp file.
		_ = os.Remove(tmpName)
		return hash, nil
	}

	if e = os.Rename(tmpName, dest); e != nil {
		_ = os.Remove(tmpName)
		return "", errIO(e)
	}

	return hash, nil
}

// ReadContent returns the full bytes of the object addressed by hash.
func (s *Store) ReadContent(hash string) ([]byte, liberr.Error) {
	rc, err := s.ReadStream(hash)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	b, e := io.ReadAll(rc)
	if e != nil {
		return nil, errIO(e)
	}
	return b, nil
}

// ReadStream opens the object addressed by hash for streaming reads.
func (s *Store) ReadStream(hash string) (io.ReadCloser, liberr.Error) {
	p, err := s.ObjectPath(hash)
	if err != nil {
		return nil, err
	}

	f, e := os.Open(p)
	if e != nil {
		if os.IsNotExist(e) {
			return nil, errNotFound(hash)
		}
		return nil, errIO(e)
	}
	return f, nil
}

// Verify re-hashes the stored object and compares it against its address,
// reporting HashMismatch on divergence (e.g. bitrot or on-disk tampering).
func (s *Store) Verify(hash string) liberr.Error {
	rc, err := s.ReadStream(hash)
	if err != nil {
		return err
	}
	defer rc.Close()

	coder := encsha.New()
	hr := coder.EncodeReader(rc)

	if _, e := io.Copy(io.Discard, hr); e != nil {
		return errIO(e)
	}

	got := hex.EncodeToString(coder.Encode(nil))
	if got != hash {
		return errHashMismatch(hash, got)
	}
	return nil
}

// Delete removes the object addressed by hash. CAS never deletes implicitly;
// this is exposed only for the explicit orphan-collection operation.
func (s *Store) Delete(hash string) liberr.Error {
	p, err := s.ObjectPath(hash)
	if err != nil {
		return err
	}
	if e := os.Remove(p); e != nil && !os.IsNotExist(e) {
		return errIO(e)
	}
	return nil
}

// CollectOrphans scans the CAS for objects whose hash is not present in
// live, returning the removed hashes.
func (s *Store) CollectOrphans(live map[string]struct{}) ([]string, liberr.Error) {
	var removed []string

	entries, e := os.ReadDir(s.objectsDir())
	if e != nil {
		if os.IsNotExist(e) {
			return removed, nil
		}
		return nil, errIO(e)
	}

	for _, prefix := range entries {
		if !prefix.IsDir() || prefix.Name() == "tmp" {
			continue
		}

		inner, e := os.ReadDir(filepath.Join(s.objectsDir(), prefix.Name()))
		if e != nil {
			return nil, errIO(e)
		}

		for _, obj := range inner {
			hash := prefix.Name() + obj.Name()
			if _, ok := live[hash]; ok {
				continue
			}
			if err := s.Delete(hash); err != nil {
				return removed, err
			}
			removed = append(removed, hash)
		}
	}

	return removed, nil
}
