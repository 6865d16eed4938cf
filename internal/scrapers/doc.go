// Package scrapers recovers a human-readable "title - artist" string for track links
// on services that have no catalog API we can search directly.
//
// Every scraper goes through a shared [Fetcher], which rate limits requests
// globally and per host and caps response bodies at 5 MB.
// A scraper that cannot find a title returns [shared.ErrNoTitle].
package scrapers
