package claim

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the closed set of relationships a claim may assert.
type Kind string

const (
	KindCall      Kind = "CALL"
	KindDataFlow  Kind = "DATA_FLOW"
	KindExistence Kind = "EXISTENCE"
	KindAttribute Kind = "ATTRIBUTE"
)

// ErrNotNormalized is returned when a claim reaches verification without
// passing through Normalize or New.
var ErrNotNormalized = errors.New("claim was not normalized")

// MalformedClaimError reports a claim that is missing a required field.
// Index is the claim's position in its batch, or -1 for a single claim.
type MalformedClaimError struct {
	Index  int
	Field  string
	Reason string
	Err    error
}

func (e *MalformedClaimError) Error() string {
	var b strings.Builder
	b.WriteString("malformed claim")
	if e.Index >= 0 {
		fmt.Fprintf(&b, " #%d", e.Index)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, ": field %q", e.Field)
	}
	switch {
	case e.Reason != "":
		b.WriteString(": " + e.Reason)
	case e.Err != nil:
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *MalformedClaimError) Unwrap() error { return e.Err }

// Claim is a canonical assertion ready for resolution and verification.
type Claim struct {
	Subject    string   `json:"subject"`
	Kind       Kind     `json:"kind"`
	Object     string   `json:"object,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	Text       string   `json:"text,omitempty"`
	Step       int      `json:"step,omitempty"`
	// Path holds every hop of a multi-hop call claim, ends included.
	Path []string `json:"path,omitempty"`

	normalized bool
}

// New builds a normalized claim from values the caller already holds in
// canonical form. Names are cleaned but not validated; the verifier still
// rejects empty required fields.
func New(subject string, kind Kind, object string) Claim {
	return Claim{
		Subject:    cleanName(subject),
		Kind:       kind,
		Object:     cleanName(object),
		normalized: true,
	}
}

// NewPath builds a multi-hop call claim over the given names.
func NewPath(names ...string) Claim {
	path := make([]string, 0, len(names))
	for _, n := range names {
		path = append(path, cleanName(n))
	}
	c := Claim{Kind: KindCall, Path: path, normalized: true}
	if len(path) > 0 {
		c.Subject = path[0]
		c.Object = path[len(path)-1]
	}
	return c
}

// Normalized reports whether the claim came out of Normalize or New.
func (c Claim) Normalized() bool { return c.normalized }

// IsPath reports whether the claim asserts a chain of more than one call.
func (c Claim) IsPath() bool { return c.Kind == KindCall && len(c.Path) > 2 }

// Hops returns the consecutive (caller, callee) pairs of the claim.
func (c Claim) Hops() [][2]string {
	if len(c.Path) < 2 {
		return [][2]string{{c.Subject, c.Object}}
	}
	hops := make([][2]string, 0, len(c.Path)-1)
	for i := 0; i+1 < len(c.Path); i++ {
		hops = append(hops, [2]string{c.Path[i], c.Path[i+1]})
	}
	return hops
}

// Key identifies the claim for duplicate suppression.
func (c Claim) Key() string {
	key := string(c.Kind) + "\x00" + c.Subject + "\x00" + c.Object
	if len(c.Path) > 2 {
		key += "\x00" + strings.Join(c.Path, "\x00")
	}
	return key
}

func (c Claim) String() string {
	if c.IsPath() {
		return fmt.Sprintf("%s %s", c.Kind, strings.Join(c.Path, " -> "))
	}
	if c.Object == "" {
		return fmt.Sprintf("%s %s", c.Kind, c.Subject)
	}
	return fmt.Sprintf("%s %s -> %s", c.Kind, c.Subject, c.Object)
}

// Validate checks the fields verification depends on.
func (c Claim) Validate() error {
	if !c.normalized {
		return &MalformedClaimError{Index: -1, Err: ErrNotNormalized}
	}
	if c.Subject == "" {
		return &MalformedClaimError{Index: -1, Field: "subject", Reason: "empty"}
	}
	switch c.Kind {
	case KindCall, KindDataFlow, KindAttribute:
		if c.Object == "" {
			return &MalformedClaimError{Index: -1, Field: "object", Reason: "empty"}
		}
	case KindExistence:
	default:
		return &MalformedClaimError{Index: -1, Field: "kind", Reason: fmt.Sprintf("unknown kind %q", c.Kind)}
	}
	for i, hop := range c.Path {
		if hop == "" {
			return &MalformedClaimError{Index: -1, Field: fmt.Sprintf("path[%d]", i), Reason: "empty"}
		}
	}
	return nil
}
