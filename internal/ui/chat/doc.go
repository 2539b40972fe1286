// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat is the DocMind chat screen.

The screen is a thin view over a chatsession.Controller. It never mutates
the conversation itself: key presses call Submit, Regenerate or copy the last
answer, and the root model calls Refresh after every scheduler callback so
the screen redraws from the controller's Snapshot.

# Layout

  - Header "DocMind Chat" with the uploaded document's name
  - Viewport of message bubbles rendered from formatted blocks
  - "Processing..." while a request is in flight
  - Error banner for the last failure
  - Input line, disabled unless the controller is idle
  - Key help

# Key Bindings

	Enter    send the message
	Ctrl+R   regenerate the last answer
	Ctrl+Y   copy the last answer
	PgUp/Dn  scroll the conversation
*/
package chat
