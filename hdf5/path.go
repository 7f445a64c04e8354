package hdf5

import (
	"path"
	"strings"

	"github.com/cockroachdb/errors"
)

// ParseAttrPath splits "object@name" at the last '@'. An empty or relative
// object part is taken from the root, so "@file_type" names an attribute of
// "/".
func ParseAttrPath(p string) (objectPath, attrName string, err error) {
	if p == "" {
		return "", "", errors.Wrap(ErrInvalidPath, "empty attribute path")
	}
	i := strings.LastIndexByte(p, '@')
	switch {
	case i < 0:
		return "", "", errors.Wrapf(ErrInvalidPath, "%s has no '@' separator", p)
	case i == len(p)-1:
		return "", "", errors.Wrapf(ErrInvalidPath, "%s has an empty attribute name", p)
	}
	return CleanPath(p[:i]), p[i+1:], nil
}

// JoinAttrPath is the inverse of ParseAttrPath.
func JoinAttrPath(objectPath, attrName string) string {
	if objectPath == "/" {
		return "/@" + attrName
	}
	return objectPath + "@" + attrName
}

// SplitPath returns the non-empty components of p.
func SplitPath(p string) []string {
	parts := make([]string, 0, strings.Count(p, "/")+1)
	for s := range strings.SplitSeq(p, "/") {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}

// CleanPath returns p as an absolute path without a trailing slash.
func CleanPath(p string) string {
	return path.Clean("/" + p)
}
