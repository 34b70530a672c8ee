package usecase

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrBadCursor marks an opaque pagination cursor the server cannot decode.
var ErrBadCursor = errors.New("invalid pagination cursor")

type pageCursor struct {
	Time time.Time `json:"t"`
	ID   string    `json:"i"`
}

func decodeCursor(s string) (*time.Time, string, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, "", fmt.Errorf("decode cursor: %w", err)
	}
	var c pageCursor
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, "", fmt.Errorf("unmarshal cursor: %w", err)
	}
	return &c.Time, c.ID, nil
}

func encodeCursor(t time.Time, id string) string {
	b, _ := json.Marshal(pageCursor{Time: t, ID: id})
	return base64.RawURLEncoding.EncodeToString(b)
}
