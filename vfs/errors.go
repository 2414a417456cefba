// SPDX-License-Identifier: EPL-2.0

package vfs

import "errors"

var (
	ErrNoFile = errors.New("no such audio file")
)
