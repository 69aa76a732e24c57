// Package cache persists the trip list snapshot used when the device is
// offline or the remote service cannot be reached.
//
// The snapshot lives in a single row of the trip_cache table under the key
// TripsKey. Put swaps the row inside one transaction, so a failed write
// leaves the previous snapshot readable. An empty list is a valid snapshot
// and is distinct from "nothing cached":
//
//	repo := cache.NewSQLiteRepository(db)
//	_ = repo.Put(ctx, trips)
//	trips, found, err := repo.Get(ctx)
package cache
