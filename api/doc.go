// Package api provides the HTTP REST API of the Sokoban server.
//
// Endpoints:
//
// Sessions:
//   - POST /api/sessions                    create a session, body {"level_id": "warmup"}
//   - GET /api/sessions                     list sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/unified             several sessions at once (?sessionIds=a,b or ?levelId=x)
//   - GET /api/sessions/{id}                session info with game state
//   - DELETE /api/sessions/{id}             end a session
//
// Play:
//   - GET /api/sessions/{id}/state          current game state
//   - POST /api/sessions/{id}/move          body {"direction": "up", "reset": false}
//   - POST /api/sessions/{id}/bulk-move     body {"moves": ["up", "left"], "reset": false}
//   - POST /api/sessions/{id}/keys/{code}   move by browser keyCode (37-40)
//   - POST /api/sessions/{id}/reset         restore the initial board
//   - GET /api/sessions/{id}/history        paginated moves (?page=1&limit=20&order=desc)
//
// Levels:
//   - GET /api/levels                       catalogue
//   - POST /api/levels                      save a level, body {"id": "x", "name": "...", "layout": [...]}
//   - GET /api/levels/{name}                one level definition
//
// Level maker:
//   - POST /api/maker                       new blank board, body {"rows": 8, "cols": 8}
//   - GET /api/maker/{id}                   draft board and validation
//   - DELETE /api/maker/{id}                discard the draft and its play session
//   - POST /api/maker/{id}/cells/{index}    paint a cell, optional body {"kind": "box"}
//   - POST /api/maker/{id}/targets/{index}  toggle a target
//   - POST /api/maker/{id}/play             validate and start a play session
//
// Misc:
//   - GET /api/keys/{code}                  keyCode to direction mapping
//   - GET /ws?session={id}                  rendering feed, see package websocket
//   - GET /health
//
// A blocked move is a normal 200 response whose transition kind is
// "blocked". Errors are JSON objects {"error": "..."}: 404 for unknown
// sessions, levels and drafts, 400 for malformed input, 409 when a grid
// breaks its integrity invariants and 422 when a draft cannot be played.
package api
