// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the docmind command line.
//
// With no subcommand the full-screen TUI starts. The other commands cover
// scripting and line-mode use:
//
//	docmind login | signup | logout | whoami
//	docmind upload <file>
//	docmind ask <question>
//	docmind chat
//	docmind mock-server
//	docmind config show | get | set | path | keys
//
// Every command shares the same configuration, log file and stored session.
package cli
