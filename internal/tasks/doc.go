// Package tasks runs the playlist curation pipeline with progress reporting.
//
// # Stages
//
// [Pipeline.Run] makes one linear pass:
//
//  1. Authenticate through a [services.Authenticator]
//  2. Look up the user id and the target playlist by exact name
//  3. Scrape the chart through a [services.ChartSource]
//  4. [SelectDesirable] splits artist credits on "feat." and "&" and keeps allowed artists
//  5. [DedupGuard.Unseen] drops pairs submitted on earlier runs
//  6. [Resolver.Resolve] searches each new pair in parallel, bounded by a worker limit and a rate limiter
//  7. [Submitter.Submit] adds the URIs to the playlist; nothing is sent when there are none
//  8. [DedupGuard.FilterNew] records the submitted pairs
//
// Only step 8 writes to the song history. A dry run stops after step 6, so it changes no state.
//
// # Progress Reporting
//
// Each stage emits a [ProgressUpdate] on the optional channel. Updates use select with default, so a slow
// or absent reader never blocks the run.
package tasks
