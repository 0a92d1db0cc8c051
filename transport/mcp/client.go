package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/sokoban/game/engine"
	"github.com/wricardo/sokoban/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// apiError is a non-2xx REST response. Body keeps the raw payload so callers
// can decode structured error bodies such as a failed draft validation.
type apiError struct {
	Status  int
	Message string
	Body    []byte
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("API error: %d", e.Status)
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Sokoban",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Sokoban - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Push every box ($) onto a target (.) to solve the level. You are the person (@).
Boxes can be pushed but never pulled, and only one box at a time.

AVAILABLE TOOLS:
- create_session / list_sessions / get_session: manage play sessions
- game_state: current board and counters
- move / bulk_move: move the person (up/down/left/right)
- reset_game: restore the level's starting board
- move_history: paginated history of attempted moves
- list_levels: levels in the catalogue
- game_instructions: full rules and legend
- describe_cell: what sits at a cell (by index or row/col)
- create_draft / edit_draft / play_draft: build and play your own level`),
	)

	c.registerTools()
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func (c *Client) registerTools() {
	// Sessions
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new play session on a catalogue level",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"level_id": map[string]interface{}{
					"type":        "string",
					"description": "Level to play (optional, defaults to the catalogue default)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active play sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Play
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board, move and push counters",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Move the person one cell. Walking into a box pushes it if the cell behind it is free.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"up", "down", "left", "right"},
					"description": "Direction to move",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset the level before moving",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "What you are trying to achieve with this move",
				},
			},
			Required: []string{"session_id", "direction"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_move",
		Description: fmt.Sprintf("Execute up to %d moves in order. Stops at the first blocked move or when the level is solved.", engine.MaxBulkMoves),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"moves": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string", "enum": []string{"up", "down", "left", "right"}},
					"description": "Directions to execute",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset the level before moving",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "What this sequence is meant to achieve",
				},
			},
			Required: []string{"session_id", "moves"},
		},
	}, c.handleBulkMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Restore the level's starting board",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get the paginated history of attempted moves",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"page": map[string]interface{}{
					"type":        "number",
					"description": "Page number (default 1)",
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Moves per page (default 20)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMoveHistory)

	// Levels
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_levels",
		Description: "List the levels available for new sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListLevels)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the rules, legend and tips",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Describe one cell of a session board, by flat index or by row and col",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"index": map[string]interface{}{
					"type":        "number",
					"description": "Row-major cell index (row*width + col)",
				},
				"row": map[string]interface{}{
					"type":        "number",
					"description": "Row, counted from 0 at the top",
				},
				"col": map[string]interface{}{
					"type":        "number",
					"description": "Column, counted from 0 at the left",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleDescribeCell)

	// Level maker
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_draft",
		Description: "Start a new level draft: a walled board of the given size",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"rows": map[string]interface{}{"type": "number", "description": "Board height"},
				"cols": map[string]interface{}{"type": "number", "description": "Board width"},
			},
			Required: []string{"rows", "cols"},
		},
	}, c.handleCreateDraft)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "edit_draft",
		Description: "Paint a draft cell with a kind (painting the same kind again clears it) or toggle its target",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"draft_id": map[string]interface{}{"type": "string", "description": "Draft ID"},
				"index":    map[string]interface{}{"type": "number", "description": "Row-major cell index"},
				"kind": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"space", "wall", "person", "box"},
					"description": "Kind to paint (optional, defaults to the draft's current kind)",
				},
				"target": map[string]interface{}{
					"type":        "boolean",
					"description": "Toggle the target overlay instead of painting",
				},
			},
			Required: []string{"draft_id", "index"},
		},
	}, c.handleEditDraft)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "play_draft",
		Description: "Validate a draft and start a play session on it",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"draft_id": map[string]interface{}{"type": "string", "description": "Draft ID"},
			},
			Required: []string{"draft_id"},
		},
	}, c.handlePlayDraft)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		apiErr := &apiError{Status: resp.StatusCode, Body: data}
		var errResp map[string]interface{}
		if json.Unmarshal(data, &errResp) == nil {
			if msg, ok := errResp["error"].(string); ok {
				apiErr.Message = msg
			}
		}
		return apiErr
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// intArg reads a JSON number argument
func intArg(args map[string]interface{}, name string) (int, bool) {
	v, ok := args[name].(float64)
	if !ok {
		return 0, false
	}
	return int(v), true
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	levelID, _ := args["level_id"].(string)

	body := map[string]string{}
	if levelID != "" {
		body["level_id"] = levelID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, http.MethodPost, "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nLevel: %s\n\n%s", session.ID, session.LevelID, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, http.MethodGet, "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		status := "in progress"
		if s.GameState != nil && s.GameState.Solved {
			status = "solved"
		}
		fmt.Fprintf(&b, "- %s (Level: %s, %s, Created: %s)\n",
			s.ID, s.LevelID, status, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall(ctx, http.MethodGet, "/api/sessions/"+url.PathEscape(sessionID), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var state engine.GameState
	if err := c.apiCall(ctx, http.MethodGet, fmt.Sprintf("/api/sessions/%s/state", url.PathEscape(sessionID)), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	direction, _ := args["direction"].(string)
	reset, _ := args["reset"].(bool)

	body := map[string]interface{}{
		"direction": direction,
		"reset":     reset,
	}

	var result service.MoveResult
	if err := c.apiCall(ctx, http.MethodPost, fmt.Sprintf("/api/sessions/%s/move", url.PathEscape(sessionID)), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleBulkMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	movesRaw, _ := args["moves"].([]interface{})
	reset, _ := args["reset"].(bool)

	moves := make([]string, 0, len(movesRaw))
	for _, m := range movesRaw {
		if move, ok := m.(string); ok {
			moves = append(moves, move)
		}
	}

	body := map[string]interface{}{
		"moves": moves,
		"reset": reset,
	}

	var result service.BulkMoveResult
	if err := c.apiCall(ctx, http.MethodPost, fmt.Sprintf("/api/sessions/%s/bulk-move", url.PathEscape(sessionID)), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBulkMoveResult(sessionID, &result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, http.MethodPost, fmt.Sprintf("/api/sessions/%s/reset", url.PathEscape(sessionID)), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	params := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		params.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		params.Set("limit", fmt.Sprint(limit))
	}
	path := fmt.Sprintf("/api/sessions/%s/history", url.PathEscape(sessionID))
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, http.MethodGet, path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListLevels(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var levels []service.LevelInfo
	if err := c.apiCall(ctx, http.MethodGet, "/api/levels", nil, &levels); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Levels:\n\n")
	for _, l := range levels {
		fmt.Fprintf(&b, "• %s (%s)\n", l.LevelID, l.Name)
		if l.Description != "" {
			fmt.Fprintf(&b, "  %s\n", l.Description)
		}
		fmt.Fprintf(&b, "  Board: %dx%d, Boxes: %d, Targets: %d\n\n", l.Width, l.Height, l.Boxes, l.Targets)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Sokoban - Complete Instructions

GAME OBJECTIVE:
Push every box onto a target. The level is solved the moment every target
holds a box. A level without targets never ends; walk around freely.

GRID LEGEND:
  #  wall (never moves, blocks everything)
  @  you, the person
  +  you, standing on a target
  $  box
  *  box on a target
  .  empty target
     (space) empty floor

MOVEMENT RULES:
• Each move shifts the person one cell up, down, left or right.
• Moving onto empty floor or an empty target is a step.
• Moving into a box pushes it one cell further, but only when the cell
  behind the box is free floor or a free target.
• Two boxes in a row cannot be pushed. Boxes cannot be pulled.
• A blocked move changes nothing and still counts as an attempt in the history.

CELL INDICES:
Cells are numbered row by row from the top-left corner starting at 0:
index = row * width + col. describe_cell accepts either form.

STRATEGY TIPS:
• A box pushed into a corner that is not a target can never be recovered.
• A box against a wall can only slide along that wall.
• Plan the final position of each box before pushing it.
• Use bulk_move for corridors; it stops at the first blocked move.
• reset_game restores the starting board without losing history.

LEVEL MAKER:
• create_draft makes a walled board (sizes limited by the server).
• edit_draft paints cells; painting a cell with its own kind clears it.
• edit_draft with target=true toggles a target.
• play_draft checks that exactly one person is on the board and starts a session.

Good luck!`

	return mcp.NewToolResultText(instructions), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	var state engine.GameState
	if err := c.apiCall(ctx, http.MethodGet, fmt.Sprintf("/api/sessions/%s/state", url.PathEscape(sessionID)), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	g := state.Grid
	if g == nil {
		return mcp.NewToolResultError("session has no board"), nil
	}

	index, ok := intArg(args, "index")
	if !ok {
		row, hasRow := intArg(args, "row")
		col, hasCol := intArg(args, "col")
		if !hasRow || !hasCol {
			return mcp.NewToolResultError("provide either index or both row and col"), nil
		}
		if row < 0 || row >= g.Height || col < 0 || col >= g.Width {
			return mcp.NewToolResultError(fmt.Sprintf("(row %d, col %d) is out of bounds. Board is %d rows x %d cols",
				row, col, g.Height, g.Width)), nil
		}
		index = g.Index(row, col)
	}
	if !g.InBounds(index) {
		return mcp.NewToolResultError(fmt.Sprintf("index %d is out of bounds. Valid indices are 0-%d", index, g.Len()-1)), nil
	}

	return mcp.NewToolResultText(formatCell(g, index)), nil
}

func (c *Client) handleCreateDraft(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	rows, _ := intArg(args, "rows")
	cols, _ := intArg(args, "cols")

	var draft service.DraftInfo
	body := map[string]int{"rows": rows, "cols": cols}
	if err := c.apiCall(ctx, http.MethodPost, "/api/maker", body, &draft); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatDraft(&draft)), nil
}

func (c *Client) handleEditDraft(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	draftID, _ := args["draft_id"].(string)
	index, ok := intArg(args, "index")
	if !ok {
		return mcp.NewToolResultError("index is required"), nil
	}
	kind, _ := args["kind"].(string)
	target, _ := args["target"].(bool)

	var draft service.DraftInfo
	var err error
	if target {
		err = c.apiCall(ctx, http.MethodPost, fmt.Sprintf("/api/maker/%s/targets/%d", url.PathEscape(draftID), index), nil, &draft)
	} else {
		body := map[string]string{}
		if kind != "" {
			body["kind"] = kind
		}
		err = c.apiCall(ctx, http.MethodPost, fmt.Sprintf("/api/maker/%s/cells/%d", url.PathEscape(draftID), index), body, &draft)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatDraft(&draft)), nil
}

func (c *Client) handlePlayDraft(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	draftID, _ := arguments(request)["draft_id"].(string)

	var result service.PlayDraftResult
	err := c.apiCall(ctx, http.MethodPost, fmt.Sprintf("/api/maker/%s/play", url.PathEscape(draftID)), nil, &result)

	// A failed validation comes back as 422 with the result as body
	var apiErr *apiError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnprocessableEntity {
		if jsonErr := json.Unmarshal(apiErr.Body, &result); jsonErr == nil && result.Validation != "" {
			err = nil
		}
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if result.Session == nil {
		return mcp.NewToolResultError(fmt.Sprintf("Draft %s is not playable: %s", result.DraftID, result.Message)), nil
	}

	text := fmt.Sprintf("Draft %s is playable. Started session: %s\n\n%s",
		result.DraftID, result.Session.ID, formatGameState(result.Session.GameState))
	return mcp.NewToolResultText(text), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	header := fmt.Sprintf("Session: %s\nLevel: %s\n", session.ID, session.LevelID)
	if session.DraftID != "" {
		header += fmt.Sprintf("Draft: %s\n", session.DraftID)
	}
	header += fmt.Sprintf("Created: %s\n\n", session.CreatedAt.Format("2006-01-02 15:04:05"))
	return header + formatGameState(session.GameState)
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder
	if state.LevelName != "" {
		fmt.Fprintf(&b, "Level: %s\n", state.LevelName)
	}
	fmt.Fprintf(&b, "Moves: %d | Pushes: %d | Boxes on target: %d/%d\n\n",
		state.Moves, state.Pushes, state.BoxesOnTarget, state.TotalTargets)

	board := state.Board
	if len(board) == 0 && state.Grid != nil {
		board = engine.FormatLayout(state.Grid)
	}
	for _, row := range board {
		b.WriteString(row)
		b.WriteString("\n")
	}

	if state.Solved {
		b.WriteString("\n🎉 SOLVED!")
	} else if state.Grid != nil {
		if pm := possibleMoves(state.Grid); len(pm) > 0 {
			fmt.Fprintf(&b, "\nPossible moves: %s", strings.Join(pm, ","))
		}
	}

	if state.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s", state.Message)
	}
	return b.String()
}

func formatMoveResult(result *service.MoveResult) string {
	var b strings.Builder
	if result.Success {
		b.WriteString("✓ Move successful\n")
	} else {
		b.WriteString("✗ Move blocked\n")
	}
	b.WriteString(formatTransition(result.Transition))

	if len(result.Events) > 0 {
		b.WriteString("Events:\n")
		for _, event := range result.Events {
			fmt.Fprintf(&b, "- %s: %s\n", event.Type, event.Message)
		}
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatTransition(t engine.Transition) string {
	switch t.Kind {
	case engine.Push:
		return fmt.Sprintf("Push %s: person %d→%d, box %d→%d\n", t.Direction, t.PersonFrom, t.PersonTo, t.BoxFrom, t.BoxTo)
	case engine.Step:
		return fmt.Sprintf("Step %s: person %d→%d\n", t.Direction, t.PersonFrom, t.PersonTo)
	case engine.Blocked:
		return fmt.Sprintf("Blocked %s at %d\n", t.Direction, t.PersonFrom)
	}
	return ""
}

func formatBulkMoveResult(sessionID string, result *service.BulkMoveResult) string {
	var b strings.Builder

	levelName := ""
	if result.GameState != nil {
		levelName = result.GameState.LevelName
	}
	fmt.Fprintf(&b, "Session: %s • Level: %s\n", sessionID, levelName)
	fmt.Fprintf(&b, "Executed %d/%d moves\n", result.MovesExecuted, result.RequestedMoves)
	if result.Truncated {
		fmt.Fprintf(&b, "Truncated to the first %d moves\n", result.Limit)
	}
	if result.StoppedReason != "" {
		fmt.Fprintf(&b, "Stopped: %s\n", result.StoppedReason)
	}

	if len(result.Transitions) > 0 {
		b.WriteString("\nSteps (this call):\n")
		for i, t := range result.Transitions {
			fmt.Fprintf(&b, "%d. %s", i+1, formatTransition(t))
		}
	}

	if len(result.Events) > 0 {
		b.WriteString("\nEvents:\n")
		for _, event := range result.Events {
			if event.Type == service.EventStep || event.Type == service.EventPush {
				continue
			}
			fmt.Fprintf(&b, "- %s: %s\n", event.Type, event.Message)
		}
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History (page %d/%d, %d moves total):\n\n", history.Page, history.TotalPages, history.TotalMoves)
	for _, m := range history.Moves {
		status := "✓"
		if !m.Success {
			status = "✗"
		}
		fmt.Fprintf(&b, "#%d %s %s %d→%d %s\n", m.MoveNumber, m.Action, m.Kind, m.FromIndex, m.ToIndex, status)
	}
	if history.HasNext {
		b.WriteString("\nMore moves on the next page.")
	}
	return b.String()
}

func formatDraft(draft *service.DraftInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Draft: %s (%d rows x %d cols)\nPaint kind: %s\n", draft.ID, draft.Rows, draft.Cols, draft.PaintKind)
	if draft.Message != "" {
		fmt.Fprintf(&b, "Validation: %s (%s)\n", draft.Validation, draft.Message)
	} else {
		fmt.Fprintf(&b, "Validation: %s\n", draft.Validation)
	}
	if draft.SessionID != "" {
		fmt.Fprintf(&b, "Playing in session: %s\n", draft.SessionID)
	}
	b.WriteString("\n")
	for _, row := range draft.Board {
		b.WriteString(row)
		b.WriteString("\n")
	}
	return b.String()
}

func formatCell(g *engine.Grid, index int) string {
	row, col := g.RowCol(index)
	kind := g.Get(index)

	var b strings.Builder
	fmt.Fprintf(&b, "Cell %d (row %d, col %d): %s\n", index, row, col, engine.DescribeCell(g, index))
	fmt.Fprintf(&b, "Symbol: %q\n", string(engine.Symbol(g, index)))
	switch kind {
	case engine.Wall:
		b.WriteString("Walls never move and block both the person and boxes.\n")
	case engine.Box:
		b.WriteString("Can be pushed if the cell beyond it in the push direction is free.\n")
	case engine.Person:
		b.WriteString("This is you.\n")
	default:
		b.WriteString("Free: the person can step here and boxes can be pushed here.\n")
	}
	return b.String()
}

// possibleMoves lists the directions that are not blocked from the person's cell
func possibleMoves(g *engine.Grid) []string {
	var moves []string
	for _, dir := range engine.Directions {
		t, err := engine.Resolve(g.Clone(), dir)
		if err != nil {
			return nil
		}
		if t.Moved() {
			moves = append(moves, string(dir))
		}
	}
	return moves
}
