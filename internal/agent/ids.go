package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// AllocateCurriculumID returns the next sequential id for a user: one more
// than the largest numeric id stored, or "0" when there is none. Entries
// whose id does not parse are skipped. This is a best-effort scan, not a
// counter: two concurrent allocations for the same user can return the
// same id.
func (e *Engine) AllocateCurriculumID(ctx context.Context, userID string) (string, error) {
	if err := validateUserID(userID); err != nil {
		return "", err
	}
	entries, err := e.curricula.entries(ctx, userID)
	if err != nil {
		return "", err
	}
	return nextID(entries), nil
}

func nextID(entries []json.RawMessage) string {
	max := int64(-1)
	for _, entry := range entries {
		var doc struct {
			ID any `json:"id"`
		}
		dec := json.NewDecoder(bytes.NewReader(entry))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			continue
		}
		if id, ok := parseStoredID(doc.ID); ok && id > max {
			max = id
		}
	}
	return strconv.FormatInt(max+1, 10)
}

// parseStoredID reads an allocatable id. Negative ids and ids with no
// successor are skipped.
func parseStoredID(v any) (int64, bool) {
	var n int64
	switch t := v.(type) {
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, false
		}
		n = parsed
	case json.Number:
		if parsed, err := t.Int64(); err == nil {
			n = parsed
			break
		}
		f, err := t.Float64()
		if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64/2 {
			return 0, false
		}
		n = int64(f)
	default:
		return 0, false
	}
	if n < 0 || n == math.MaxInt64 {
		return 0, false
	}
	return n, true
}
