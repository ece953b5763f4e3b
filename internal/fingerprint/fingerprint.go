// Package fingerprint derives the stable content hash used by admission to
// deduplicate job submissions.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Input is the canonical set of fields a fingerprint is derived from. Two
// Inputs that agree on every field must produce the same fingerprint
// regardless of map iteration or header ordering.
type Input struct {
	Method  string
	URL     string
	Headers map[string]any
	Body    any
	RunAt   *time.Time
}

// Compute returns the 64-char lowercase hex SHA-256 fingerprint of in, over
// the canonical form "METHOD|URL|BODY_JSON|HDRS|RUN_TS" described in the
// component design for Fingerprint.
func Compute(in Input) (string, error) {
	bodyJSON, err := canonicalBody(in.Body)
	if err != nil {
		return "", fmt.Errorf("canonicalize body: %w", err)
	}

	hdrs, err := canonicalHeaders(in.Headers)
	if err != nil {
		return "", fmt.Errorf("canonicalize headers: %w", err)
	}

	var runTS int64
	if in.RunAt != nil {
		runTS = in.RunAt.UTC().Unix()
	}

	canonical := strings.Join([]string{
		in.Method,
		in.URL,
		bodyJSON,
		hdrs,
		fmt.Sprintf("%d", runTS),
	}, "|")

	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:]), nil
}

func canonicalBody(body any) (string, error) {
	if body == nil {
		return "", nil
	}
	b, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// canonicalHeaders renders "k1:v1, k2:v2, ..." over ALL supplied headers:
// keys lowercased, entries sorted by key, values rendered as their JSON
// text (so a string value is quoted).
func canonicalHeaders(headers map[string]any) (string, error) {
	if len(headers) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(headers))
	lowered := make(map[string]any, len(headers))
	for k, v := range headers {
		lk := strings.ToLower(k)
		keys = append(keys, lk)
		lowered[lk] = v
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		valJSON, err := json.Marshal(lowered[k])
		if err != nil {
			return "", err
		}
		parts = append(parts, fmt.Sprintf("%s:%s", k, string(valJSON)))
	}
	return strings.Join(parts, ", "), nil
}
