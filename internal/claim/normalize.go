package claim

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// RawClaim is an extracted claim before normalization. Either the
// Caller/Callee pair or Subject/Relation/Object is set; Path describes a
// multi-hop call chain.
type RawClaim struct {
	Subject    string   `json:"subject,omitempty" yaml:"subject,omitempty"`
	Relation   string   `json:"relation,omitempty" yaml:"relation,omitempty"`
	Object     string   `json:"object,omitempty" yaml:"object,omitempty"`
	Caller     string   `json:"caller,omitempty" yaml:"caller,omitempty"`
	Callee     string   `json:"callee,omitempty" yaml:"callee,omitempty"`
	Path       []string `json:"path,omitempty" yaml:"path,omitempty"`
	Confidence *float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	Text       string   `json:"text,omitempty" yaml:"text,omitempty"`
	Step       int      `json:"step,omitempty" yaml:"step,omitempty"`
}

var relationKinds = map[string]Kind{
	"call":      KindCall,
	"calls":     KindCall,
	"invoke":    KindCall,
	"invokes":   KindCall,
	"execute":   KindCall,
	"executes":  KindCall,
	"run":       KindCall,
	"runs":      KindCall,
	"trigger":   KindCall,
	"triggers":  KindCall,
	"uses":      KindCall,
	"call_path": KindCall,

	"data_flow":  KindDataFlow,
	"dataflow":   KindDataFlow,
	"flow":       KindDataFlow,
	"flows_to":   KindDataFlow,
	"passes":     KindDataFlow,
	"passes_to":  KindDataFlow,
	"returns_to": KindDataFlow,
	"transfers":  KindDataFlow,

	"exists":     KindExistence,
	"exist":      KindExistence,
	"existence":  KindExistence,
	"defined":    KindExistence,
	"defines":    KindExistence,
	"is_defined": KindExistence,

	"attribute":     KindAttribute,
	"has":           KindAttribute,
	"has_attribute": KindAttribute,
	"has_field":     KindAttribute,
	"has_method":    KindAttribute,
	"has_property":  KindAttribute,
}

// ParseKind maps a relation keyword onto a Kind, case-insensitively.
// Spaces and hyphens are treated as underscores.
func ParseKind(relation string) (Kind, bool) {
	key := strings.ToLower(strings.TrimSpace(relation))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	k, ok := relationKinds[key]
	return k, ok
}

// Normalize converts a single raw claim into canonical form.
func Normalize(raw RawClaim) (Claim, error) {
	return normalizeAt(-1, raw)
}

func normalizeAt(index int, raw RawClaim) (Claim, error) {
	reject := func(field, reason string) (Claim, error) {
		return Claim{}, &MalformedClaimError{Index: index, Field: field, Reason: reason}
	}

	kind := KindCall
	if strings.TrimSpace(raw.Relation) != "" {
		k, ok := ParseKind(raw.Relation)
		if !ok {
			return reject("relation", fmt.Sprintf("unknown relation %q", strings.TrimSpace(raw.Relation)))
		}
		kind = k
	}

	if raw.Confidence != nil && (*raw.Confidence < 0 || *raw.Confidence > 1) {
		return reject("confidence", fmt.Sprintf("%v outside [0, 1]", *raw.Confidence))
	}

	c := Claim{
		Kind:       kind,
		Confidence: raw.Confidence,
		Text:       strings.TrimSpace(raw.Text),
		Step:       raw.Step,
		normalized: true,
	}

	if len(raw.Path) > 0 {
		if kind != KindCall {
			return reject("path", fmt.Sprintf("paths are only valid for %s claims", KindCall))
		}
		path := make([]string, 0, len(raw.Path))
		for i, hop := range raw.Path {
			name := cleanName(hop)
			if name == "" {
				return reject(fmt.Sprintf("path[%d]", i), "empty")
			}
			path = append(path, name)
		}
		if len(path) < 2 {
			return reject("path", "needs at least two names")
		}
		c.Subject = path[0]
		c.Object = path[len(path)-1]
		if len(path) > 2 {
			c.Path = path
		}
		return c, nil
	}

	c.Subject = cleanName(firstNonEmpty(raw.Caller, raw.Subject))
	c.Object = cleanName(firstNonEmpty(raw.Callee, raw.Object))
	if c.Subject == "" {
		return reject("subject", "empty after trimming")
	}
	if c.Object == "" && kind != KindExistence {
		return reject("object", "empty after trimming")
	}
	return c, nil
}

// Batch is the outcome of normalizing one extraction batch.
type Batch struct {
	Claims     []Claim
	Rejected   []*MalformedClaimError
	Duplicates int
}

// Err returns every rejection as one error, or nil when nothing was dropped.
func (b Batch) Err() error {
	var result *multierror.Error
	for _, r := range b.Rejected {
		result = multierror.Append(result, r)
	}
	return result.ErrorOrNil()
}

// NormalizeBatch normalizes raws in order. Malformed claims are dropped and
// recorded, exact duplicates are suppressed after their first occurrence.
func NormalizeBatch(raws []RawClaim) Batch {
	var b Batch
	seen := make(map[string]struct{}, len(raws))
	for i, raw := range raws {
		c, err := normalizeAt(i, raw)
		if err != nil {
			b.Rejected = append(b.Rejected, err.(*MalformedClaimError))
			continue
		}
		key := c.Key()
		if _, dup := seen[key]; dup {
			b.Duplicates++
			continue
		}
		seen[key] = struct{}{}
		b.Claims = append(b.Claims, c)
	}
	return b
}

// cleanName strips whitespace, surrounding quotes and a trailing call suffix.
func cleanName(s string) string {
	s = strings.TrimSpace(s)
	for len(s) >= 2 && isQuote(s[0]) && s[len(s)-1] == s[0] {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	s = strings.Trim(s, "`\"'")
	s = strings.TrimSpace(s)
	for strings.HasSuffix(s, "()") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "()"))
	}
	return s
}

func isQuote(b byte) bool {
	return b == '"' || b == '\'' || b == '`'
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
