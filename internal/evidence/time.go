package evidence

import "time"

// timeNow is a package-level variable for testability.
// Tests can replace this to pin Metadata.GeneratedAt.
var timeNow = time.Now
