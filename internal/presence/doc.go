// Package presence tracks which trusted devices are reachable right now.
//
// It is a thin, concurrency-safe map from device id to an online flag.
// Policy lives elsewhere: the transport layer writes the flags, the
// command dispatcher reads them for routing decisions.
package presence
