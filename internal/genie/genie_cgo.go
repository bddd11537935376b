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

/*
#cgo LDFLAGS: -lGenie
#include <stdint.h>
#include <stdlib.h>
#include "GenieDialog.h"

extern void goGenieQueryCallback(char* response, int sentenceCode, uintptr_t userData);

static void genie_query_trampoline(const char* response,
                                   const GenieDialog_SentenceCode_t sentenceCode,
                                   const void* userData) {
	goGenieQueryCallback((char*)response, (int)sentenceCode, (uintptr_t)userData);
}

static Genie_Status_t genie_dialog_query(GenieDialog_Handle_t handle,
                                         const char* prompt,
                                         int sentenceCode,
                                         uintptr_t userData) {
	return GenieDialog_query(handle, prompt, (GenieDialog_SentenceCode_t)sentenceCode,
	                         genie_query_trampoline, (const void*)userData);
}
*/
import "C"

import (
	"runtime/cgo"
	"unsafe"
)

// nativeEngine calls the Genie dialog runtime through cgo
type nativeEngine struct{}

// New returns the engine backed by the linked Genie runtime
func New() Engine {
	return nativeEngine{}
}

// Available reports whether the native runtime is linked into this binary
func Available() bool {
	return true
}

func (nativeEngine) CreateConfigFromJSON(json string) (Status, ConfigHandle) {
	cJSON := C.CString(json)
	defer C.free(unsafe.Pointer(cJSON))

	var h C.GenieDialogConfig_Handle_t
	status := Status(C.GenieDialogConfig_createFromJson(cJSON, &h))
	return status, ConfigHandle(uintptr(unsafe.Pointer(h)))
}

func (nativeEngine) FreeConfig(h ConfigHandle) Status {
	return Status(C.GenieDialogConfig_free(toConfig(h)))
}

func (nativeEngine) CreateDialog(cfg ConfigHandle) (Status, DialogHandle) {
	var h C.GenieDialog_Handle_t
	status := Status(C.GenieDialog_create(toConfig(cfg), &h))
	return status, DialogHandle(uintptr(unsafe.Pointer(h)))
}

func (nativeEngine) FreeDialog(h DialogHandle) Status {
	return Status(C.GenieDialog_free(toDialog(h)))
}

func (nativeEngine) ResetDialog(h DialogHandle) Status {
	return Status(C.GenieDialog_reset(toDialog(h)))
}

func (nativeEngine) QueryDialog(h DialogHandle, prompt string, mode SentenceCode, cb QueryCallback) Status {
	cPrompt := C.CString(prompt)
	defer C.free(unsafe.Pointer(cPrompt))

	// the handle keeps cb reachable while C holds its id
	handle := cgo.NewHandle(cb)
	defer handle.Delete()

	return Status(C.genie_dialog_query(toDialog(h), cPrompt, C.int(mode), C.uintptr_t(handle)))
}

func toConfig(h ConfigHandle) C.GenieDialogConfig_Handle_t {
	return C.GenieDialogConfig_Handle_t(unsafe.Pointer(uintptr(h)))
}

func toDialog(h DialogHandle) C.GenieDialog_Handle_t {
	return C.GenieDialog_Handle_t(unsafe.Pointer(uintptr(h)))
}
