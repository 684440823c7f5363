package lexicon

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/go-shiori/dom"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// headingMarker identifies the heading introducing the word list. It matches
// both "Synonymes de" and "Antonymes de".
const headingMarker = "onymes de"

var (
	headingSel = cascadia.MustCompile("h1")
	wordSel    = cascadia.MustCompile(".word")
)

// Page is what ParsePage extracts from a word page.
type Page struct {
	Found bool
	Words []string
	Title string
}

// ParsePage looks for the first h1 whose text contains "onymes de" and
// collects the text of every ".word" element inside the element that follows
// it. A page without such a heading is not found.
func ParsePage(body []byte, pageURL *url.URL) (Page, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return Page{}, err
	}

	var page Page
	for _, h1 := range headingSel.MatchAll(doc) {
		heading := strings.TrimSpace(dom.TextContent(h1))
		if !strings.Contains(heading, headingMarker) {
			continue
		}
		page.Found = true
		page.Title = heading
		if list := dom.NextElementSibling(h1); list != nil {
			for _, el := range wordSel.MatchAll(list) {
				if w := strings.TrimSpace(dom.TextContent(el)); w != "" {
					page.Words = append(page.Words, w)
				}
			}
		}
		break
	}

	// The document title is nicer provenance than the heading, when readability
	// manages to find one.
	if article, err := readability.FromReader(bytes.NewReader(body), pageURL); err == nil {
		if t := strings.TrimSpace(article.Title); t != "" {
			page.Title = t
		}
	}
	return page, nil
}
