// Package curation turns a week of chat messages into an ordered playlist and its statistics.
//
// The pipeline runs in five steps, each a plain function or small type so it can be
// tested on its own:
//
//	FetchWindow  page backwards through a channel until the window is covered
//	Extract      find track links with the service adapter registry
//	Resolver     map each link onto a catalog track
//	Aggregator   dedup by catalog ID and tally contributors, artists and genres
//	Mutator      replace the playlist contents in batches
//
// Nothing here keeps state between runs. Every accumulator is created per run.
package curation
