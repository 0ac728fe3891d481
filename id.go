package burl

import "github.com/google/uuid"

// genRequestID returns a fresh random UUID string for use as a request
// identifier. The session does not call it: a request carries an ID only
// when the caller attaches one with WithRequestID.
func genRequestID() string {
	return uuid.NewString()
}
