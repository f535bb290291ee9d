package story

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Text resolves the script text of elements and connection labels for the
// active locale. An empty string means no text.
type Text interface {
	ContentText(nodeID string) string
	LinkLabel(linkID string) string
}

// Localizer implements Text over a project's per-locale maps. Lookups try
// the matched locale, then the project default, then an untagged entry.
type Localizer struct {
	project *Project
	locale  string
	chain   []string
}

// NewLocalizer picks the project locale that best matches preferred.
func NewLocalizer(p *Project, preferred string) *Localizer {
	supported := p.Locales
	if len(supported) == 0 && p.DefaultLocale != "" {
		supported = []string{p.DefaultLocale}
	}

	locale := p.DefaultLocale
	if preferred != "" && len(supported) > 0 {
		var tags []language.Tag
		var names []string
		for _, s := range supported {
			tag, err := language.Parse(s)
			if err != nil {
				continue
			}
			tags = append(tags, tag)
			names = append(names, s)
		}
		if len(tags) > 0 {
			if want, err := language.Parse(preferred); err == nil {
				_, idx, conf := language.NewMatcher(tags).Match(want)
				if conf != language.No {
					locale = names[idx]
				}
			}
		}
	}

	l := &Localizer{project: p, locale: locale}
	for _, candidate := range []string{locale, p.DefaultLocale, ""} {
		if !contains(l.chain, candidate) {
			l.chain = append(l.chain, candidate)
		}
	}
	return l
}

// Locale returns the selected locale.
func (l *Localizer) Locale() string {
	return l.locale
}

func (l *Localizer) ContentText(nodeID string) string {
	e, ok := l.project.Elements[nodeID]
	if !ok {
		return ""
	}
	return l.lookup(e.Content)
}

func (l *Localizer) LinkLabel(linkID string) string {
	c, ok := l.project.Connections[linkID]
	if !ok {
		return ""
	}
	return l.lookup(c.Label)
}

func (l *Localizer) lookup(m map[string]string) string {
	for _, locale := range l.chain {
		if s, ok := m[locale]; ok && s != "" {
			return s
		}
	}
	return ""
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// CleanTitle strips markup from an element title, collapses whitespace and
// normalises to NFC so titles can be used as visit keys.
func CleanTitle(title string) string {
	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(title))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() != io.EOF {
				return ""
			}
			break
		}
		if tt == html.TextToken {
			sb.Write(z.Text())
		}
		if tt == html.StartTagToken || tt == html.EndTagToken || tt == html.SelfClosingTagToken {
			sb.WriteByte(' ')
		}
	}
	return norm.NFC.String(strings.Join(strings.Fields(sb.String()), " "))
}
