// Package embedded provides assets compiled into the binary.
package embedded

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
)

// Schemas holds the SQL schema of every database, one file per database
// named <database>_schema.sql.
//
//go:embed schemas/*.sql
var Schemas embed.FS

// Schema returns the schema for the named database. ok is false when the
// database has no schema file.
func Schema(name string) (string, bool, error) {
	content, err := fs.ReadFile(Schemas, fmt.Sprintf("schemas/%s_schema.sql", name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read schema for %s: %w", name, err)
	}
	return string(content), true, nil
}
