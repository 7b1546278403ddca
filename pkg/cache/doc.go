// ABOUTME: Decoded buffer cache package
// ABOUTME: LRU memory cache in front of a persistent key-value store
// Package cache keeps decoded audio buffers close at hand.
//
// The memory tier is a byte-budgeted LRU; the persistent tier is any Store
// (bbolt on disk, or in memory for tests). Manager ties the two together:
//
//   - Get checks memory, then the store, promoting store hits into memory
//   - Set writes memory synchronously and persists in the background
//   - persistence failures are logged, never returned
//
// Example:
//
//	store, err := cache.OpenBoltStore("buffers.db")
//	if err != nil {
//		log.Fatal(err)
//	}
//	mgr := cache.NewManager(100<<20, store)
//	defer mgr.Close()
//
//	buf, err := mgr.GetOrLoad(ctx, "kick.wav", decode.File)
package cache
