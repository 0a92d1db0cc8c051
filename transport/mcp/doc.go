// Package mcp exposes the Sokoban game to AI agents over the Model Context Protocol.
//
// The Client is a thin proxy: every tool call is translated into a request
// against the REST API and the JSON response is rendered as text for the agent.
// Boards are rendered with the same symbols as level layouts (# wall, @ person,
// $ box, . target, * box on target, + person on target).
//
// Tools:
//   - create_session, list_sessions, get_session
//   - game_state, move, bulk_move, reset_game, move_history
//   - list_levels, game_instructions, describe_cell
//   - create_draft, edit_draft, play_draft
//
// Transport Modes:
//
// The server returned by GetMCPServer can be served over stdio for local MCP
// clients, or mounted on the HTTP server at /mcp.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
