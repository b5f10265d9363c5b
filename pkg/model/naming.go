package model

import (
	"fmt"
	"strings"

	apperrors "github.com/darksworm/mongonaut/pkg/errors"
)

const (
	// MaxDatabaseNameBytes is the server limit on database names
	MaxDatabaseNameBytes = 63
	// MaxNamespaceBytes bounds "<database>.<collection>"
	MaxNamespaceBytes = 255
)

const databaseForbidden = `/\. "$*<>:|?`

// ValidateName checks name against the server's naming rules for kind.
// database is the parent and is only consulted for collections and buckets.
func ValidateName(kind EntityKind, database, name string) error {
	if strings.TrimSpace(name) == "" {
		return apperrors.ValidationError("NAME_REQUIRED",
			fmt.Sprintf("%s name must not be empty", kind.Label()))
	}
	if strings.ContainsRune(name, 0) {
		return invalidName(kind, "must not contain the null character")
	}

	switch kind {
	case KindDatabase:
		if i := strings.IndexAny(name, databaseForbidden); i >= 0 {
			return invalidName(kind, fmt.Sprintf("must not contain %q", name[i]))
		}
		if len(name) > MaxDatabaseNameBytes {
			return invalidName(kind, fmt.Sprintf("must be at most %d bytes", MaxDatabaseNameBytes))
		}
	case KindCollection, KindBucket:
		if strings.Contains(name, "$") {
			return invalidName(kind, `must not contain "$"`)
		}
		if strings.HasPrefix(name, "system.") {
			return invalidName(kind, `must not start with "system."`)
		}
		if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
			return invalidName(kind, "must not start or end with a dot")
		}
		full := name
		if kind == KindBucket {
			// the longest namespace a bucket creates
			full = name + ".chunks"
		}
		if len(database)+1+len(full) > MaxNamespaceBytes {
			return invalidName(kind, fmt.Sprintf("namespace must be at most %d bytes", MaxNamespaceBytes))
		}
	default:
		return apperrors.ValidationError("UNKNOWN_KIND", fmt.Sprintf("Unknown entity kind %q", kind))
	}
	return nil
}

func invalidName(kind EntityKind, reason string) error {
	return apperrors.ValidationError("INVALID_NAME",
		fmt.Sprintf("Invalid %s name: %s", kind, reason))
}
