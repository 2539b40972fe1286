// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the docmind TUI.

All colors use Lip Gloss AdaptiveColor for light/dark terminals. The theme
mode comes from configuration ("dark", "light" or "auto").

# Color System (colors.go)

  - Indigo - Brand color, buttons, active navigation, avatar
  - Sky - Headings and links
  - Emerald - Success
  - Amber - Streaming indicator
  - Rose - Errors

# Theme (theme.go)

Theme bundles the Lip Gloss styles for the layout shell (sidebar, brand,
avatar), chat messages, formatted answer blocks, forms and the error banner.

	theme := styles.NewTheme(cfg.UI.Theme)
	theme.SetSize(msg.Width, msg.Height)
	if theme.ShowSidebar() {
	    // render sidebar + content
	}
*/
package styles
