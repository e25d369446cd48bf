package domain

import "time"

// Session is the aggregate root for one recording run. Events is owned
// exclusively by the timeline store; producers only push through its append
// operation. EndTime stays nil until the session is finalized.
type Session struct {
	ID         string  `json:"-"`
	Tag        string  `json:"-"`
	StartTime  int64   `json:"startTime"`
	EndTime    *int64  `json:"endTime"`
	StartURL   string  `json:"startUrl"`
	RootDomain string  `json:"domain"`
	Events     []Event `json:"-"`
}

// Export is the outbound artifact shape: session header plus the
// chronologically sorted events.
type Export struct {
	Session Session `json:"session"`
	Events  []Event `json:"events"`
}

// NowMillis is the single clock source for event and session timestamps.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
