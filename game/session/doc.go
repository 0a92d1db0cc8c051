// Package session keeps play sessions in memory and, optionally, on disk.
//
// A session pairs a game engine with the level it was started from. Sessions
// use 4-character hex IDs drawn from crypto/rand; lookups are
// case-insensitive. The manager retries on collision, so generated IDs are
// unique among live and persisted sessions.
//
// Persistence:
//
// FilePersistence writes one JSON document per session. The level is stored
// inline, which keeps sessions started from level maker drafts playable after
// a restart. Records without an inline level are rebuilt from the level
// catalogue by level ID.
//
// Usage:
//
//	store, err := session.NewFilePersistence("./sessions", levelManager)
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(store)
//	if err := manager.LoadPersistedSessions(); err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err := manager.Create("", "warmup", level)
package session
