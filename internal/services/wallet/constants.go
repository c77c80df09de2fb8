package wallet

import "time"

// Cache settings
const (
	CacheDuration = 5 * time.Minute
)
