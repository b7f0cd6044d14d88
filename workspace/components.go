/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
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

package workspace

import (
	"path/filepath"
	"sync/atomic"

	"github.com/nabbar/logsieve/cas"
	liberr "github.com/nabbar/logsieve/errors"
	"github.com/nabbar/logsieve/metadatastore"
)

// casComponent defers cas.Store's Open call to config.Manager.Start, so a
// workspace's on-disk layout is only touched once every component is
// registered, matching the teacher's component-manager pattern of
// constructing cheap handles up front and doing real I/O in Start.
type casComponent struct {
	store   *cas.Store
	running atomic.Bool
}

func newCASComponent(root string) *casComponent {
	return &casComponent{store: cas.New(filepath.Join(root, "objects"))}
}

func (c *casComponent) Type() string { return "cas" }

func (c *casComponent) Start() liberr.Error {
	if err := c.store.Open(); err != nil {
		return err
	}
	c.running.Store(true)
	return nil
}

func (c *casComponent) Stop() liberr.Error {
	c.running.Store(false)
	return nil
}

func (c *casComponent) IsRunning() bool { return c.running.Load() }

// metaComponent defers metadatastore.Open to config.Manager.Start for the
// same reason casComponent does.
type metaComponent struct {
	dbPath  string
	store   *metadatastore.Store
	running atomic.Bool
}

func newMetaComponent(root string) *metaComponent {
	return &metaComponent{dbPath: filepath.Join(root, "metadata.db")}
}

func (m *metaComponent) Type() string { return "metadatastore" }

func (m *metaComponent) Start() liberr.Error {
	store, err := metadatastore.Open(m.dbPath)
	if err != nil {
		return err
	}
	m.store = store
	m.running.Store(true)
	return nil
}

func (m *metaComponent) Stop() liberr.Error {
	if m.store == nil {
		return nil
	}
	err := m.store.Close()
	m.running.Store(false)
	return err
}

func (m *metaComponent) IsRunning() bool { return m.running.Load() }
