// Package links classifies the text of a chat message against the Spotify
// link formats accepted for submission.
package links

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Kind is the classification of a message.
type Kind int

const (
	// None means the message contains no URL at all.
	None Kind = iota
	// Track is a single-track catalog link; the only accepted submission.
	Track
	// Album is a catalog album link.
	Album
	// Playlist is a catalog playlist link.
	Playlist
	// Malformed is a catalog link that is not of an accepted shape.
	Malformed
	// NotThisCatalog is a URL that does not point at the catalog.
	NotThisCatalog
)

func (k Kind) String() string {
	switch k {
	case Track:
		return "track"
	case Album:
		return "album"
	case Playlist:
		return "playlist"
	case Malformed:
		return "malformed"
	case NotThisCatalog:
		return "foreign"
	default:
		return "none"
	}
}

// Form is the surface form a catalog link was written in.
type Form string

const (
	FormURI  Form = "URI"
	FormLink Form = "link"
)

// Link is the result of classifying a message.
type Link struct {
	Kind Kind
	ID   string // set for Track, Album and Playlist
	Form Form   // set for Track, Album and Playlist
	Raw  string // the matched text
}

var (
	catalogPattern = regexp.MustCompile(
		`spotify:(album|track|playlist):([^\s?#]+)` +
			`|https?://(?:open|play)\.spotify\.com/(?:intl-[a-zA-Z-]+/)?(album|track|playlist)/([^\s?#]+)`)

	// catalogHint catches catalog references the accepted pattern rejects,
	// such as artist pages or bare URIs without an ID. The URI scheme is
	// lowercase only so prose like "Spotify:amazing" is not a reference.
	catalogHint = regexp.MustCompile(
		`\bspotify:(?:track|album|playlist|artist|episode|show|user)\b` +
			`|(?:open|play)\.spotify\.com/|spotify\.link/`)

	idPattern = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

	// trailing is sentence punctuation and slashes that commonly follow a
	// pasted link.
	trailing = "/.,;:!?)]}'\""

	validate = validator.New()
)

// Classify inspects raw message text. The first catalog link wins.
func Classify(text string) Link {
	if m := catalogPattern.FindStringSubmatch(text); m != nil {
		raw := strings.TrimRight(m[0], trailing)
		link := Link{Raw: raw}
		var kind string
		if m[1] != "" {
			kind, link.ID, link.Form = m[1], m[2], FormURI
		} else {
			kind, link.ID, link.Form = m[3], m[4], FormLink
		}
		link.ID = strings.TrimRight(link.ID, trailing)
		if !idPattern.MatchString(link.ID) {
			return Link{Kind: Malformed, Raw: raw}
		}
		switch kind {
		case "track":
			link.Kind = Track
		case "album":
			link.Kind = Album
		case "playlist":
			link.Kind = Playlist
		}
		return link
	}

	if loc := catalogHint.FindStringIndex(text); loc != nil {
		return Link{Kind: Malformed, Raw: text[loc[0]:loc[1]]}
	}

	for _, field := range strings.Fields(text) {
		if IsURL(field) {
			return Link{Kind: NotThisCatalog, Raw: field}
		}
	}
	return Link{Kind: None}
}

// IsURL reports whether s is an absolute URL with a scheme and a host.
// Opaque forms such as "genre:rock" are not URLs.
func IsURL(s string) bool {
	if validate.Var(s, "required,url") != nil {
		return false
	}
	u, err := url.Parse(s)
	return err == nil && u.Host != ""
}
