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

// Command libjarvis builds the shared library loaded by the kiosk app:
//
//	go build -buildmode=c-shared -tags genie -o libjarvis.so ./cmd/libjarvis
//
// Strings returned to the host are allocated with malloc and must be handed
// back through JarvisFreeString.
package main

/*
#include <stdlib.h>
*/
import "C"

import (
	"log"
	"sync"
	"unsafe"

	"github.com/loqalabs/loqa-kiosk/internal/bridge"
	"github.com/loqalabs/loqa-kiosk/internal/config"
	"github.com/loqalabs/loqa-kiosk/internal/genie"
	"github.com/loqalabs/loqa-kiosk/internal/logging"
)

var (
	once   sync.Once
	shared *bridge.Bridge
)

// instance builds the process-wide bridge on first use
func instance() *bridge.Bridge {
	once.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			log.Printf("⚠️  Invalid configuration, using defaults: %v", err)
			cfg = config.Default()
		}

		if err := logging.InitializeWithConfig(logging.LogConfig{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
		}); err != nil {
			log.Printf("⚠️  Failed to initialize logging: %v", err)
		}

		shared = bridge.New(genie.New(), bridge.Options{
			ConfigPath: cfg.Engine.ConfigPath,
			Strict:     cfg.Engine.Strict,
		})
	})
	return shared
}

//export JarvisInit
func JarvisInit(modelPath *C.char) C.int {
	path := ""
	if modelPath != nil {
		path = C.GoString(modelPath)
	}
	return C.int(instance().Init(path))
}

//export JarvisInfer
func JarvisInfer(prompt *C.char) *C.char {
	if prompt == nil {
		return C.CString("")
	}
	return C.CString(instance().Infer(C.GoString(prompt)))
}

//export JarvisGenerate
func JarvisGenerate(prompt *C.char) *C.char {
	text := ""
	if prompt != nil {
		text = C.GoString(prompt)
	}
	return C.CString(instance().Generate(text))
}

//export JarvisRelease
func JarvisRelease() {
	instance().Release()
	logging.Sync()
}

//export JarvisFreeString
func JarvisFreeString(s *C.char) {
	if s != nil {
		C.free(unsafe.Pointer(s))
	}
}

func main() {}
