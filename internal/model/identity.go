package model

import "strconv"

// Identity is the resolved caller of a single request: either an
// authenticated account or an anonymous client known only by IP.
// It lives for one request and is carried in the request context.
type Identity struct {
	AccountID int64
	IP        string
}

// Authenticated reports whether the identity belongs to an account.
func (i Identity) Authenticated() bool {
	return i.AccountID != 0
}

// RateLimitKey returns the string that partitions rate-limit counters:
// "user:<id>" for authenticated callers, "ip:<addr>" otherwise.
func (i Identity) RateLimitKey() string {
	if i.Authenticated() {
		return "user:" + strconv.FormatInt(i.AccountID, 10)
	}
	return "ip:" + i.IP
}

// Anonymous builds an identity for an unauthenticated caller.
func Anonymous(ip string) Identity {
	return Identity{IP: ip}
}
