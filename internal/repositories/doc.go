// Package repositories implements SQLite persistence for token and song records.
//
// Key Implementations:
//   - [TokenRepository] : append-only OAuth token history; [TokenRepository.LatestToken] picks the newest by added_at
//   - [SongRepository] : the set of (song, artist) pairs already submitted, unique on the pair
//   - [SQLStore] : both of the above behind the [Store] interface consumed by the token manager and dedup guard
//
// Tables are created by the embedded migrations in the shared package; run [shared.RunMigrations] before use.
package repositories
