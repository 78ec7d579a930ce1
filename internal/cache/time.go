package cache

import "time"

// timeNow is a package-level variable for testability.
// Tests can replace this to control freshness checks.
var timeNow = time.Now
