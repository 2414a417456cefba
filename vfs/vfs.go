// SPDX-License-Identifier: EPL-2.0

// Package vfs resolves logical audio names to readable files, trying
// known audio extensions when the name alone does not match.
package vfs

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// audioExts are the candidate extensions tried, in order, when a name
// does not resolve as given.
var audioExts = []string{"ogg", "wav", "mp3", "mid", "midi", "aiff", "aif"}

// OpenHandler consumes a byte stream the filesystem resolved. TryRead
// reports whether the handler accepted the stream; on false the
// filesystem moves on to the next candidate. The handler owns rs either
// way — a false return means the handler (or the constructor it called)
// already closed it.
type OpenHandler interface {
	TryRead(rs io.ReadSeekCloser, ext string) bool
}

// FS resolves logical names to files, trying the name as given first and
// then the known audio extensions. Game archives reference music without
// extensions; this is the layer that papers over that.
type FS struct {
	fs   afero.Fs
	exts []string
}

// New wraps base; a nil base means the host OS filesystem.
func New(base afero.Fs) *FS {
	if base == nil {
		base = afero.NewOsFs()
	}
	return &FS{fs: base, exts: audioExts}
}

type candidate struct {
	path string
	ext  string
}

func (f *FS) candidates(name string) []candidate {
	var out []candidate

	if ok, _ := afero.Exists(f.fs, name); ok {
		out = append(out, candidate{path: name, ext: strings.TrimPrefix(path.Ext(name), ".")})
	}

	for _, ext := range f.exts {
		p := name + "." + ext
		if ok, _ := afero.Exists(f.fs, p); ok {
			out = append(out, candidate{path: p, ext: ext})
		}
	}

	return out
}

// OpenRead resolves name and feeds each matching file to h until one is
// accepted. ErrNoFile means nothing matched at all; any other error is
// an I/O failure on a file that does exist. A run where every candidate
// was rejected by the handler returns nil.
func (f *FS) OpenRead(h OpenHandler, name string) error {
	cands := f.candidates(name)
	if len(cands) == 0 {
		return fmt.Errorf("%w: %s", ErrNoFile, name)
	}

	for _, c := range cands {
		rs, err := f.fs.Open(c.path)
		if err != nil {
			return fmt.Errorf("opening %s: %w", c.path, err)
		}
		if h.TryRead(rs, c.ext) {
			return nil
		}
	}

	return nil
}
