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

package config

import (
	"sync"

	liberr "github.com/nabbar/logsieve/errors"
)

// Component is a named, startable/stoppable subsystem owned by a Manager.
// The workspace wraps CAS and the metadata store in this interface so the
// manager can bring them up and down as one unit; the tail watcher runs
// under its own supervisor and is not registered here.
type Component interface {
	Type() string
	Start() liberr.Error
	Stop() liberr.Error
	IsRunning() bool
}

// Manager owns a workspace's components and starts/stops them in
// registration order, mirroring the teacher's component-manager pattern
// (config/manage.go) without the generic Viper/flag/monitor plumbing that
// pattern also carried: a workspace never reads a human-facing config file
// (spec.md §1 Non-goals), so there is nothing here for Viper to bind to.
type Manager struct {
	mu   sync.Mutex
	list []Component
}

// NewManager returns an empty component manager.
func NewManager() *Manager {
	return &Manager{}
}

// Register adds a component. Components start in registration order and
// stop in reverse order.
func (m *Manager) Register(c Component) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.list = append(m.list, c)
}

// Start starts every registered component in order, stopping whatever
// already started if one fails.
func (m *Manager) Start() liberr.Error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, c := range m.list {
		if err := c.Start(); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = m.list[j].Stop()
			}
			return err
		}
	}
	return nil
}

// Stop stops every registered component in reverse order, collecting (but
// not aborting on) individual failures.
func (m *Manager) Stop() liberr.Error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var e liberr.Error
	for i := len(m.list) - 1; i >= 0; i-- {
		if err := m.list[i].Stop(); err != nil {
			if e == nil {
				e = err
			} else {
				e.Add(err)
			}
		}
	}
	return e
}

// Running reports whether every registered component is currently running.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.list {
		if !c.IsRunning() {
			return false
		}
	}
	return true
}
