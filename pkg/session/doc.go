// Package session manages browser sessions for the SSO login flow.
//
// A Manager hands out an opaque cookie-backed session ID to every visitor,
// which the sso package uses as the OAuth state value. After the identity
// provider authenticates the user, Manager.Login stores a Session and rotates
// the cookie to a fresh ID.
//
// Sessions are persisted through a Store:
//
//   - RedisStore: JSON values under "session:<id>" with a Redis TTL, shared by
//     all replicas
//   - PostgresStore: rows in sso_sessions filtered on expires_at
//   - MemoryStore: a bounded expiring LRU for single-instance deployments
//
// Postgres rows are not expired by the database. A Janitor runs
// PurgeExpired on a cron schedule:
//
//	janitor, err := session.NewJanitor(store, store.Backend(), session.DefaultPurgeSchedule, logger, metrics)
//	janitor.Start()
//	defer janitor.Stop(ctx)
//
// # Usage
//
//	store := session.NewMemoryStore(10000, 8*time.Hour)
//	manager := session.NewManager(store, session.Config{TTL: 8 * time.Hour}, logger, metrics)
//
//	handler, err := sso.NewLoginFlowHandler(client, manager.Login, manager.SessionID)
//
//	router.Handle("/me", manager.RequireLogin("/login")(meHandler))
package session
