package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// entry is one stored document as returned by a flat (path-keyed) backend.
type entry struct {
	path string
	body []byte
}

// assemble rebuilds the subtree at path from the ancestor, exact and
// descendant documents of a flat backend. Shallower documents are applied
// first so that deeper, more recent writes win.
func assemble(path string, entries []entry) (json.RawMessage, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	segs := strings.Split(path, "/")

	sort.SliceStable(entries, func(i, j int) bool {
		return depth(entries[i].path) < depth(entries[j].path)
	})

	var root any
	found := false
	for _, e := range entries {
		val, err := decode(e.body)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", e.path, err)
		}
		esegs := strings.Split(e.path, "/")

		if len(esegs) <= len(segs) {
			// Ancestor or the node itself: take the part at our path.
			sub, ok := lookup(val, segs[len(esegs):])
			if !ok {
				continue
			}
			root, found = sub, true
			continue
		}
		root = setAt(root, esegs[len(segs):], val)
		found = true
	}
	if !found || root == nil {
		return nil, nil
	}
	return json.Marshal(root)
}

func depth(path string) int {
	return strings.Count(path, "/") + 1
}

func decode(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// lookup walks segs into v. Absent keys and non-object intermediates are
// reported as not found.
func lookup(v any, segs []string) (any, bool) {
	cur := v
	for _, s := range segs {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[s]
		if !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}

// setAt stores val at segs under root, replacing non-object intermediates,
// and returns the (possibly new) root.
func setAt(root any, segs []string, val any) any {
	if len(segs) == 0 {
		return val
	}
	m, ok := root.(map[string]any)
	if !ok {
		m = make(map[string]any)
	}
	child := setAt(m[segs[0]], segs[1:], val)
	if child == nil {
		delete(m, segs[0])
	} else {
		m[segs[0]] = child
	}
	return m
}

// escapeLike escapes LIKE wildcards in a path prefix; callers use ESCAPE '\'.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
