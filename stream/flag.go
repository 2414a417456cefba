// SPDX-License-Identifier: EPL-2.0

package stream

import "sync/atomic"

// flag is a one-shot boolean signal between the control side and the
// producer goroutine. It carries no ordering for any other data; each
// flag means exactly its own bit.
type flag struct {
	b atomic.Bool
}

func (f *flag) set()   { f.b.Store(true) }
func (f *flag) clear() { f.b.Store(false) }

func (f *flag) isSet() bool { return f.b.Load() }
