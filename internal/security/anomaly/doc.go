// Package anomaly implements C4: per-actor hourly send-rate limiting and
// new-recipient detection (spec.md §4.C4).
//
// The rate counter lives in Redis, keyed "ghostpost:rate:<actor>:<bucket>"
// where bucket is the UTC hour formatted YYYYMMDDHH (spec.md §6). The
// counter store is shared across processes, so IncrementSendRate must be
// atomic — this package uses Redis INCR, which is.
package anomaly
