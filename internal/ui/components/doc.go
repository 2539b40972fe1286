// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the reusable pieces the docmind screens are
drawn from.

  - RenderBlocks / RenderText (blocks.go) - formatted answer blocks
  - CodeBlock (codeblock.go) - Chroma-highlighted fenced code
  - MessageBubble / RenderConversation (message.go) - chat transcript
  - Sidebar (sidebar.go) - brand, navigation, avatar and sign out
  - ErrorBanner / KeyHelp (banner.go)

Components are plain render functions over a *styles.Theme; the screens
own all state.
*/
package components
