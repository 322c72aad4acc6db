package lead

import (
	"fmt"
	"strings"
)

// The intake payload arrives from three generations of frontends and
// at least one LLM that all disagree on key names. Instead of inline
// "try key A, else key B" chains, each logical field declares the
// ordered list of paths it may live under; the first non-empty hit
// wins and absence resolves to the sentinel.

// path addresses one candidate location in the untyped request tree.
type path []string

type fieldLookup struct {
	name  string
	paths []path
}

// metadataContainers lists where the lead metadata object itself may
// live. The root-level container wins over anything nested.
var metadataContainers = []path{
	{"lead_metadata"},
	{"leadMetadata"},
	{"diagnostic_payload", "lead_metadata"},
}

// metadataFields resolves each canonical field against the metadata
// container. Paths are relative to the container.
var metadataFields = []fieldLookup{
	{name: "company", paths: []path{{"company_name"}, {"company"}}},
	{name: "contact", paths: []path{{"contact_name"}, {"representative"}, {"name"}}},
	{name: "role", paths: []path{{"contact_role"}, {"role"}}},
	{name: "email", paths: []path{{"contact_email"}, {"email"}}},
	{name: "phone", paths: []path{{"contact_phone"}, {"phone"}}},
	{name: "niche", paths: []path{{"niche_id"}, {"industry"}}},
	{name: "billing", paths: []path{{"billing_range"}}},
	{name: "activity", paths: []path{{"main_activity"}, {"activity"}}},
}

// rfcPaths is special-cased: legacy clients sent the tax id bare at
// the payload root, newer ones inside the metadata container.
var rfcContainerPaths = []path{{"rfc"}, {"RFC"}}
var rfcRootPaths = []path{{"rfc"}, {"RFC"}}

// lookupString walks the tree along each candidate path and returns
// the first non-empty string rendering found.
func lookupString(root map[string]any, paths []path) string {
	for _, p := range paths {
		if v, ok := walk(root, p); ok {
			if s := stringify(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func lookupMap(root map[string]any, paths []path) map[string]any {
	for _, p := range paths {
		if v, ok := walk(root, p); ok {
			if m, ok := v.(map[string]any); ok && len(m) > 0 {
				return m
			}
		}
	}
	return nil
}

func walk(root map[string]any, p path) (any, bool) {
	var cur any = root
	for _, key := range p {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// stringify renders scalar JSON values the way the legacy frontends
// serialized them; maps and slices are not valid field values.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case bool:
		return fmt.Sprintf("%t", t)
	case int:
		return fmt.Sprintf("%d", t)
	default:
		return ""
	}
}

func orSentinel(s string) string {
	if strings.TrimSpace(s) == "" {
		return Sentinel
	}
	return s
}
