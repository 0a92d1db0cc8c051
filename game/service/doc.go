// Package service provides the business logic layer for the Sokoban game.
//
// The service package implements:
//   - Multi-session game management
//   - Level catalogue access
//   - Move processing with structured transitions
//   - The level maker (drafts, edits and play hand-off)
//   - Move history tracking
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// LevelManager loads and lists catalogue levels.
//
// Architecture:
//
// The service layer sits between the transports (HTTP, WebSocket, MCP,
// terminal) and the game engine. Every operation runs under one mutex, so
// intents are resolved strictly in arrival order and each one sees the grid
// left by the previous one.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	levelMgr, _ := levels.NewManager("levels")
//	gameService := service.NewGameService(sessionMgr, levelMgr, builder.DefaultBounds)
//
//	info, err := gameService.CreateSession(ctx, "warmup")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Move(ctx, info.ID, "right", false)
//
// Errors:
//
// Blocked moves are ordinary results. Grid integrity violations are returned
// as errors wrapping engine.ErrGridIntegrity so the caller that owns the
// session can decide what to do with it.
package service
