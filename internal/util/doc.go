// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small file helpers shared by the config and CLI
// packages.
//
// WriteFileAtomic replaces a file through a synced temp file and a rename,
// so readers see either the old content or the new content:
//
//	err := util.WriteFileAtomic(path, 0600, 0700, func(w io.Writer) error {
//		return toml.NewEncoder(w).Encode(cfg)
//	})
package util
