package repository

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// EncodeCursor and DecodeCursor implement the GReader continuation-token
// format from spec.md §9: an opaque string containing (last_date_epoch,
// last_id). Both the Postgres Store and the Stream Engine use these so the
// wire format stays in one place.
func EncodeCursor(date time.Time, id int64) string {
	raw, _ := json.Marshal([2]int64{date.Unix(), id})
	return base64.RawURLEncoding.EncodeToString(raw)
}

func DecodeCursor(token string) (time.Time, int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("decode continuation token: %w", err)
	}
	var parts [2]int64
	if err := json.Unmarshal(raw, &parts); err != nil {
		return time.Time{}, 0, fmt.Errorf("decode continuation token: %w", err)
	}
	return time.Unix(parts[0], 0).UTC(), parts[1], nil
}
