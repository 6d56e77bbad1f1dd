package logging

import (
	"io"
	"log/slog"
	"strings"
	"sync"
)

// handlerState carries what the text handlers share: the destination, the
// level, and the attributes and groups accumulated through With calls.
type handlerState struct {
	mu     *sync.Mutex
	writer io.Writer
	level  *slog.LevelVar
	attrs  []slog.Attr
	groups []string
}

func newHandlerState(w io.Writer, lvl *slog.LevelVar) handlerState {
	return handlerState{mu: &sync.Mutex{}, writer: w, level: lvl}
}

func (s handlerState) withAttrs(attrs []slog.Attr) handlerState {
	clone := s.clone()
	clone.attrs = append(clone.attrs, attrs...)
	return clone
}

func (s handlerState) withGroup(name string) handlerState {
	clone := s.clone()
	clone.groups = append(clone.groups, name)
	return clone
}

func (s handlerState) clone() handlerState {
	clone := handlerState{mu: s.mu, writer: s.writer, level: s.level}
	if len(s.attrs) > 0 {
		clone.attrs = make([]slog.Attr, len(s.attrs))
		copy(clone.attrs, s.attrs)
	}
	if len(s.groups) > 0 {
		clone.groups = make([]string, len(s.groups))
		copy(clone.groups, s.groups)
	}
	return clone
}

// collect flattens handler and record attributes and pulls out the component.
// The innermost component wins.
func (s handlerState) collect(record slog.Record) (string, []kv) {
	kvs := make([]kv, 0, record.NumAttrs()+len(s.attrs))
	flattenAttrs(&kvs, s.groups, s.attrs)
	record.Attrs(func(attr slog.Attr) bool {
		flattenAttr(&kvs, s.groups, attr)
		return true
	})

	var component string
	filtered := make([]kv, 0, len(kvs))
	for _, kv := range kvs {
		if kv.key == FieldComponent {
			component = attrString(kv.value)
			continue
		}
		filtered = append(filtered, kv)
	}
	return component, dedupeKVsByKey(filtered)
}

func (s handlerState) write(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.writer.Write(p)
	return err
}

type kv struct {
	key   string
	value slog.Value
}

func dedupeKVsByKey(attrs []kv) []kv {
	if len(attrs) < 2 {
		return attrs
	}
	positions := make(map[string]int, len(attrs))
	deduped := make([]kv, 0, len(attrs))
	for _, attr := range attrs {
		if attr.key == "" {
			continue
		}
		if pos, ok := positions[attr.key]; ok {
			deduped[pos].value = attr.value
			continue
		}
		positions[attr.key] = len(deduped)
		deduped = append(deduped, attr)
	}
	return deduped
}

func flattenAttrs(dst *[]kv, prefix []string, attrs []slog.Attr) {
	for _, attr := range attrs {
		flattenAttr(dst, prefix, attr)
	}
}

func flattenAttr(dst *[]kv, prefix []string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() == slog.KindGroup {
		nextPrefix := prefix
		if attr.Key != "" {
			nextPrefix = append(append([]string{}, prefix...), attr.Key)
		}
		flattenAttrs(dst, nextPrefix, attr.Value.Group())
		return
	}
	key := attr.Key
	if len(prefix) > 0 {
		key = strings.Join(append(append([]string{}, prefix...), key), ".")
	}
	*dst = append(*dst, kv{key: key, value: attr.Value})
}
