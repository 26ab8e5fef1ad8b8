package domain

import "time"

// Website is a monitored site. Alias is the stable human-chosen key;
// log rows reference it rather than the numeric id.
type Website struct {
	ID    int64  `json:"id"`
	URL   string `json:"url"`
	Alias string `json:"alias"`
}

// Log is one recorded probe outcome. Status is nil when the probe
// failed before receiving any response (DNS failure, connection
// refused, timeout). CreatedAt is truncated to the minute; at most one
// row exists per (WebsiteAlias, minute).
type Log struct {
	ID           int64     `json:"id"`
	WebsiteAlias string    `json:"website_alias"`
	Status       *int      `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}
