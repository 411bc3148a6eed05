package storage

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"
	"unicode"
)

// ObjectKey is the current key convention: {owner}/{unix}_{filename}.
func ObjectKey(ownerID, filename string, at time.Time) string {
	return fmt.Sprintf("%s/%d_%s", ownerID, at.Unix(), SanitizeFilename(filename))
}

// SanitizeFilename keeps letters, digits, dot, dash and underscore.
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))

	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('_')
		}
	}

	if b.Len() == 0 {
		return "document"
	}
	return b.String()
}

// StripTimestampPrefix removes a leading "{digits}_" added by ObjectKey.
func StripTimestampPrefix(name string) string {
	i := strings.IndexByte(name, '_')
	if i <= 0 {
		return name
	}
	for _, r := range name[:i] {
		if r < '0' || r > '9' {
			return name
		}
	}
	return name[i+1:]
}

// CandidateKeys lists every object key a document may have been stored
// under. The key convention changed over time: older uploads used a public
// URL, a bare {owner}/{filename} key or just the filename.
func CandidateKeys(bucket, fileRef, fileID, ownerID, filename string) []string {
	seen := make(map[string]bool)
	var keys []string
	add := func(k string) {
		k = strings.TrimLeft(k, "/")
		if k == "" || seen[k] {
			return
		}
		seen[k] = true
		keys = append(keys, k)
	}

	if fileRef != "" {
		add(KeyFromRef(bucket, fileRef))
	}
	if fileID != "" && strings.Contains(fileID, "/") {
		add(fileID)
	}
	if ownerID != "" && filename != "" {
		add(ownerID + "/" + filename)
		add(ownerID + "/" + SanitizeFilename(filename))
	}
	if filename != "" {
		add(filename)
	}

	return keys
}

// KeyFromRef turns a stored reference (a public URL, a bucket-prefixed path
// or a bare key) into an object key.
func KeyFromRef(bucket, ref string) string {
	p := ref
	if strings.Contains(ref, "://") {
		u, err := url.Parse(ref)
		if err != nil {
			return ""
		}
		p = u.Path
	}

	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}
	p = strings.TrimLeft(p, "/")

	for _, marker := range []string{"object/public/" + bucket + "/", "object/" + bucket + "/"} {
		if i := strings.Index(p, marker); i >= 0 {
			return p[i+len(marker):]
		}
	}

	if bucket != "" && strings.HasPrefix(p, bucket+"/") {
		return strings.TrimPrefix(p, bucket+"/")
	}
	return p
}
