// Package state is the three-tier key-value store shared by pages and
// components.
//
// Ephemeral values are dropped on every page load, session values live as
// long as the process, and persistent values go to a Backend (bbolt on disk,
// S3, or memory in tests). Values of every tier are msgpack-encoded, so a
// value read back is a copy:
//
//	st := state.New(state.NewMemoryBackend(), nil)
//	st.Set(ctx, state.Session, "user", User{Name: "ada"})
//
//	var u User
//	ok, err := st.Get(ctx, state.Session, "user", &u)
package state
