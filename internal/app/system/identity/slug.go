// Package identity generates the human-facing identifiers of a team: its URL
// slug and its join code.
//
// Both generators are pure. Uniqueness is decided by the caller's store, and
// the final guarantee is the unique index on insert; a duplicate-key error
// there means "generate again", never "insert again".
package identity

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultSlug is used when a name has no slug-able characters.
const DefaultSlug = "team"

// ExistsFunc reports whether a slug (or code) is already taken.
type ExistsFunc func(ctx context.Context, candidate string) (bool, error)

// translit spells out lowercase letters that have no ASCII base after
// diacritics are stripped.
var translit = map[rune]string{
	'æ': "ae", 'ø': "o", 'œ': "oe", 'ß': "ss", 'đ': "d", 'ł': "l",
	'ð': "d", 'þ': "th", 'ħ': "h", 'ı': "i",

	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e",
	'ж': "zh", 'з': "z", 'и': "i", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t",
	'у': "u", 'ф': "f", 'х': "h", 'ц': "c", 'ч': "ch", 'ш': "sh",
	'щ': "sh", 'ъ': "u", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu",
	'я': "ya", 'і': "i", 'ї': "i", 'є': "ye", 'ґ': "g",
}

// Slugify turns a display name into a lowercase URL-safe token.
// Diacritics are stripped and common non-ASCII letters transliterated; every
// run of other characters becomes one "-".
func Slugify(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		if t, ok := translit[r]; ok {
			if t != "" {
				b.WriteString(t)
				dash = false
			}
			continue
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimRight(b.String(), "-")
	if out == "" {
		return DefaultSlug
	}
	return out
}

// GenerateSlug returns the first free slug among base, base-2, base-3, ...
// Slugs are stored lowercased, so exists sees the same form the index compares.
func GenerateSlug(ctx context.Context, name string, exists ExistsFunc) (string, error) {
	base := Slugify(name)
	slug := base
	for n := 2; ; n++ {
		taken, err := exists(ctx, slug)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		slug = base + "-" + strconv.Itoa(n)
	}
}
