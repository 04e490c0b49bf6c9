package object

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/stixfeed/internal/domain"
)

const cursorVersion = "v2"

// position marks the last served edge by its sort key. ties counts the served
// edges sharing that key; served counts every edge served so far.
type position struct {
	updatedAt int64 // unix ms
	ties      int
	served    int
}

// encodeCursor returns the token resuming right after p.
func encodeCursor(p position) string {
	raw := fmt.Sprintf("%s:%d:%d:%d", cursorVersion, p.updatedAt, p.ties, p.served)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(token string) (position, error) {
	invalid := fmt.Errorf("%w: %q", domain.ErrInvalidCursor, token)

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return position{}, invalid
	}
	parts := strings.Split(string(raw), ":")
	if len(parts) != 4 || parts[0] != cursorVersion {
		return position{}, invalid
	}
	ms, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return position{}, invalid
	}
	ties, err := strconv.Atoi(parts[2])
	if err != nil || ties < 1 {
		return position{}, invalid
	}
	served, err := strconv.Atoi(parts[3])
	if err != nil || served < ties {
		return position{}, invalid
	}
	return position{updatedAt: ms, ties: ties, served: served}, nil
}
