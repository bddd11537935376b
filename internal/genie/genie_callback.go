/*
 * This file is part of Loqa (https://github.com/loqalabs/loqa).
 * Copyright (C) 2025 Loqa Labs
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

//go:build genie

package genie

// Exported callbacks live apart from genie_cgo.go: a file using //export may
// only declare, not define, C functions in its preamble.

/*
#include <stdint.h>
*/
import "C"

import "runtime/cgo"

//export goGenieQueryCallback
func goGenieQueryCallback(response *C.char, sentenceCode C.int, userData C.uintptr_t) {
	cb, ok := cgo.Handle(userData).Value().(QueryCallback)
	if !ok || cb == nil {
		return
	}

	fragment := Fragment{Code: SentenceCode(sentenceCode)}
	if response == nil {
		fragment.Null = true
	} else {
		fragment.Text = C.GoString(response)
	}
	cb(fragment)
}
