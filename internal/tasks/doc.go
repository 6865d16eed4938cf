// Package tasks orchestrates a curation run with real-time progress reporting.
//
// # Run
//
// [CurationEngine.Run] drives one window through the pipeline:
//
//  1. Fetch every human message in the window from the chat source
//  2. Extract track links, dropping links vetoed by dislikes
//  3. Resolve each link to a catalog track (native lookup or title search)
//  4. Aggregate: dedupe by catalog ID, tally contributors, artists and genres, rank
//  5. Replace the playlist contents and rename it for the week
//  6. Compose the report and post it to the report channel
//
// A stage that yields nothing ends the run before the playlist is touched. The
// returned [RunResult] carries whatever was produced up to that point.
//
// # Progress Reporting
//
// [ProgressUpdate] values are sent with select/default so a slow or absent
// reader never blocks the run.
//
// # Configuration
//
// [NewRunConfig] maps the TOML/env [shared.Config] onto a [RunConfig].
package tasks
