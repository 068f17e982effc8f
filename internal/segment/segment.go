// Package segment classifies route directory names into their segment kinds.
package segment

import (
	"strings"

	"github.com/routesmith/routesmith/internal/model"
)

// Classify maps a directory name to its segment kind and, for dynamic and
// catch-all segments, the parameter name. Unrecognized bracket forms (empty
// parameter names, unbalanced decoration) default to static.
func Classify(name string) (model.SegmentKind, string) {
	if strings.HasPrefix(name, "[...") && strings.HasSuffix(name, "]") {
		param := name[len("[...") : len(name)-1]
		if isIdent(param) {
			return model.SegmentCatchAll, param
		}
		return model.SegmentStatic, ""
	}
	if strings.HasPrefix(name, "[") && strings.HasSuffix(name, "]") {
		param := name[1 : len(name)-1]
		if isIdent(param) {
			return model.SegmentDynamic, param
		}
		return model.SegmentStatic, ""
	}
	if strings.HasPrefix(name, "(") && strings.HasSuffix(name, ")") && len(name) > 2 {
		return model.SegmentGroup, ""
	}
	if strings.EqualFold(name, "api") {
		return model.SegmentCollector, ""
	}
	return model.SegmentStatic, ""
}

// Key returns the decoration-stripped key a segment uses in its parent's
// children map: the parameter name for dynamic and catch-all segments, the
// directory name itself for static ones. Group and collector segments are
// never keyed; callers must not ask for their key.
func Key(name string) string {
	kind, param := Classify(name)
	switch kind {
	case model.SegmentDynamic, model.SegmentCatchAll:
		return param
	default:
		return name
	}
}

// isIdent reports whether s is usable as a parameter identifier.
func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r == '$':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
