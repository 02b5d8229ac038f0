package repository

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/mj1618/locator-cli/internal/classify"
	"github.com/mj1618/locator-cli/internal/extract"
	"github.com/mj1618/locator-cli/internal/model"
)

// fingerprintTextLength bounds how much visible text identifies an object.
const fingerprintTextLength = 64

// Fingerprint returns a stable identity for captured attributes. Two
// captures of the same element produce the same fingerprint even when their
// generated ids or hashed classes differ. The same element captured on
// another platform is a different object. A nil classifier uses the default.
func Fingerprint(platform model.Platform, attrs model.CapturedAttributes, c *classify.Classifier) string {
	if c == nil {
		c = classify.Default()
	}
	tag := attrs.NormalizedTag()

	var fields []string
	add := func(key, value string) {
		value = model.NormalizeSpace(value)
		if value != "" {
			fields = append(fields, key+"="+value)
		}
	}

	if attrs.TestID != "" {
		add("test-id", attrs.TestIDAttribute()+":"+attrs.TestID)
	}
	if !c.IsDynamic(attrs.ID) {
		add("id", attrs.ID)
	}
	if !c.IsDynamic(attrs.Name) {
		add("name", attrs.Name)
	}
	add("aria-label", attrs.AriaLabel)
	add("placeholder", attrs.Placeholder)
	add("type", strings.ToLower(attrs.Type))
	add("text", truncate(attrs.NormalizedText(), fingerprintTextLength))
	add("role", strings.ToLower(attrs.Role))

	stable := c.StableClasses(attrs.Classes, 0)
	sort.Strings(stable)
	add("classes", strings.Join(stable, " "))

	if len(fields) == 0 {
		add("path", extract.StructuralPath(tag, attrs.Ancestry, 0))
	}

	canonical := "platform=" + string(platform) + "\ntag=" + tag
	if len(fields) > 0 {
		canonical += "\n" + strings.Join(fields, "\n")
	}
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
