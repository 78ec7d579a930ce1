package source

import "time"

// timeNow is a package-level variable for testability.
// Tests can replace this to control the lookback window.
var timeNow = time.Now
