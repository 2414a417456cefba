// SPDX-License-Identifier: EPL-2.0

package midi

import "errors"

var (
	ErrNoSoundFont = errors.New("no soundfont configured")
)
