package streamengine

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"
)

// EncodeCursor builds the opaque continuation token carrying the last
// article's ordering keys (spec.md §4.8 "c"): base64 of
// "<date_unix_seconds>:<id>".
func EncodeCursor(date time.Time, id int64) string {
	raw := strconv.FormatInt(date.Unix(), 10) + ":" + strconv.FormatInt(id, 10)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor reverses EncodeCursor. A malformed or empty token decodes to
// ok=false; callers treat that the same as "no cursor given" rather than
// surfacing an error, since a stale/garbled continuation token from a
// client should restart the stream, not fail the request.
func DecodeCursor(token string) (date time.Time, id int64, ok bool) {
	if token == "" {
		return time.Time{}, 0, false
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, 0, false
	}
	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 {
		return time.Time{}, 0, false
	}
	epoch, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}, 0, false
	}
	articleID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return time.Time{}, 0, false
	}
	return time.Unix(epoch, 0).UTC(), articleID, true
}
