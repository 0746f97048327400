package clock

import "time"

// NowFunc returns current time. Tests override it so that page timestamps
// and recency-based eviction scoring stay deterministic.
var NowFunc = time.Now

// Now is a thin wrapper around NowFunc.
func Now() time.Time { return NowFunc() }
