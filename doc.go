// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ecd is a container for the electrochromic display evaluation kit
// packages.
//
// Package ecd/ecd drives segments over a hal.Bus, package displays maps the
// kit's display models onto it and package anim animates them. The bus is
// either the kit itself (package evalkit) or a simulated panel (package
// ecdsim).
package ecd
