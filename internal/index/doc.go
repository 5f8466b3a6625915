// Package index maintains the append-only release indexes of a channel.
//
// Every promoted tarball or installer is listed in a JSON Lines object next
// to it in the channel directory. Each promotion adds exactly one line; earlier
// lines are never rewritten or deduplicated.
package index
