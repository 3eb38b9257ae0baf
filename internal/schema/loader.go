// Package schema loads the canonical target-schema definition. The
// definition is a single versioned SQL document embedded in the binary; the
// executor applies its statements verbatim so the applied schema always
// matches the published definition.
package schema

import (
	"embed"
	"regexp"
	"strconv"
	"strings"

	"github.com/voicevault/voicevault/internal/errors"
)

//go:embed v2.sql
var schemaFiles embed.FS

// CurrentDocument is the name of the canonical schema definition applied by
// the migration executor.
const CurrentDocument = "v2.sql"

// headerPattern matches the version header on the document's first line,
// e.g. "-- voicevault schema v2".
var headerPattern = regexp.MustCompile(`^--\s*voicevault schema v(\d+)\s*$`)

// Definition is a parsed canonical schema document.
type Definition struct {
	Version    int      // target schema version carried in the header
	Raw        string   // full document text
	Statements []string // individual DDL statements, in document order
}

// Load reads and parses the canonical schema definition.
func Load() (*Definition, error) {
	return load(CurrentDocument)
}

func load(name string) (*Definition, error) {
	raw, err := schemaFiles.ReadFile(name)
	if err != nil {
		return nil, errors.Newf("canonical schema definition %s is missing: %v", name, err).
			Component("schema").
			Category(errors.CategorySchemaLoad).
			Build()
	}
	return Parse(string(raw))
}

// Parse parses a schema document: the first line must carry the version
// header, the rest is split into statements on terminating semicolons.
func Parse(raw string) (*Definition, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, errors.Newf("canonical schema definition is empty").
			Component("schema").
			Category(errors.CategorySchemaLoad).
			Build()
	}

	firstLine, _, _ := strings.Cut(text, "\n")
	m := headerPattern.FindStringSubmatch(strings.TrimSpace(firstLine))
	if m == nil {
		return nil, errors.Newf("canonical schema definition has no version header").
			Component("schema").
			Category(errors.CategorySchemaLoad).
			Build()
	}
	version, err := strconv.Atoi(m[1])
	if err != nil || version < 1 {
		return nil, errors.Newf("canonical schema definition has invalid version %q", m[1]).
			Component("schema").
			Category(errors.CategorySchemaLoad).
			Build()
	}

	statements := splitStatements(text)
	if len(statements) == 0 {
		return nil, errors.Newf("canonical schema definition contains no statements").
			Component("schema").
			Category(errors.CategorySchemaLoad).
			Build()
	}

	return &Definition{
		Version:    version,
		Raw:        raw,
		Statements: statements,
	}, nil
}

// splitStatements splits the document on terminating semicolons, dropping
// comment-only and empty chunks. The canonical document contains no string
// literals with embedded semicolons, so a plain split is exact.
func splitStatements(text string) []string {
	var statements []string
	for _, chunk := range strings.Split(text, ";") {
		stmt := stripComments(chunk)
		if stmt == "" {
			continue
		}
		statements = append(statements, stmt)
	}
	return statements
}

// stripComments removes line comments and surrounding whitespace; returns
// the empty string if nothing but comments remained.
func stripComments(chunk string) string {
	var lines []string
	for _, line := range strings.Split(chunk, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		lines = append(lines, line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
