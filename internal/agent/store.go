package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/p-n-ai/pai-roadmap/internal/docstore"
)

const curriculaRoot = "curricula"

// CurriculumStore reads and writes whole curriculum documents at
// curricula/{userId}/{id}. There is no partial update: every mutation is a
// read followed by a full overwrite, and concurrent writers to the same
// document resolve last-writer-wins.
type CurriculumStore struct {
	docs docstore.Store
}

// NewCurriculumStore wraps a document store.
func NewCurriculumStore(docs docstore.Store) *CurriculumStore {
	return &CurriculumStore{docs: docs}
}

func userPath(userID string) string {
	return docstore.Join(curriculaRoot, userID)
}

func curriculumPath(userID, id string) string {
	return docstore.Join(curriculaRoot, userID, id)
}

// Load returns the curriculum, or ErrNotFound when no document exists.
func (s *CurriculumStore) Load(ctx context.Context, userID, id string) (*Curriculum, error) {
	raw, err := s.docs.Get(ctx, curriculumPath(userID, id))
	if err != nil {
		return nil, storeError("read curriculum", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("curriculum %s/%s: %w", userID, id, ErrNotFound)
	}
	c, err := decodeCurriculum(raw)
	if err != nil {
		// A document that cannot be read back is treated as corrupt, not absent.
		return nil, fmt.Errorf("curriculum %s/%s: %w", userID, id, err)
	}
	return c, nil
}

// Save overwrites the whole document in one write.
func (s *CurriculumStore) Save(ctx context.Context, c *Curriculum) error {
	body, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode curriculum: %w", err)
	}
	if err := s.docs.Put(ctx, curriculumPath(c.UserID, c.ID), body); err != nil {
		return storeError("write curriculum", err)
	}
	return nil
}

// List returns every readable curriculum of a user, ordered by numeric id.
// Documents that do not decode are skipped.
func (s *CurriculumStore) List(ctx context.Context, userID string) ([]Curriculum, error) {
	raw, err := s.docs.Get(ctx, userPath(userID))
	if err != nil {
		return nil, storeError("read curricula", err)
	}

	var out []Curriculum
	for _, entry := range curriculumEntries(raw) {
		c, err := decodeCurriculum(entry)
		if err != nil {
			slog.Warn("skipping unreadable curriculum", "user_id", userID, "error", err)
			continue
		}
		out = append(out, *c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, aok := parseIndex(out[i].ID)
		b, bok := parseIndex(out[j].ID)
		switch {
		case aok && bok:
			return a < b
		case aok != bok:
			return aok
		default:
			return out[i].ID < out[j].ID
		}
	})
	return out, nil
}

// entries returns the raw per-curriculum documents of a user.
func (s *CurriculumStore) entries(ctx context.Context, userID string) ([]json.RawMessage, error) {
	raw, err := s.docs.Get(ctx, userPath(userID))
	if err != nil {
		return nil, storeError("read curricula", err)
	}
	return curriculumEntries(raw), nil
}

// curriculumEntries splits a user subtree into documents. The subtree is an
// object keyed by id, or an array with null holes when the store coerces
// dense integer keys (Firebase does).
func curriculumEntries(raw json.RawMessage) []json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}

	var out []json.RawMessage
	switch raw[0] {
	case '{':
		var byID map[string]json.RawMessage
		if err := json.Unmarshal(raw, &byID); err != nil {
			return nil
		}
		for _, v := range byID {
			out = append(out, v)
		}
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil
		}
		out = list
	}

	kept := out[:0]
	for _, v := range out {
		if v := bytes.TrimSpace(v); len(v) > 0 && !bytes.Equal(v, []byte("null")) {
			kept = append(kept, v)
		}
	}
	return kept
}

// decodeCurriculum accepts documents written by this service and by older
// clients that stored numeric ids.
func decodeCurriculum(raw json.RawMessage) (*Curriculum, error) {
	var doc struct {
		Curriculum
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode curriculum: %w", err)
	}
	c := doc.Curriculum
	id, ok := rawID(doc.ID)
	if !ok {
		return nil, fmt.Errorf("decode curriculum: missing id")
	}
	c.ID = id
	c.fillDefaults()
	return &c, nil
}

// rawID reads an id stored as a JSON string or number.
func rawID(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, s != ""
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	return "", false
}
