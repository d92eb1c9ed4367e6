package research

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"seoassist-backend/lib/htmlutil"
	"seoassist-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

// buildPageProfile reduces fetched HTML to the handful of numbers the
// ranking prompt is built from.
func buildPageProfile(ctx context.Context, pageUrl *url.URL, rawHtml, keyword string) (PageProfile, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHtml))
	if err != nil {
		return PageProfile{}, fmt.Errorf("parse page html: %w", err)
	}

	var text string
	body := doc.Find("body")
	if len(body.Nodes) > 0 {
		text = htmlutil.GetText(body.Nodes[0])
	}
	text = htmlutil.CleanText(text)

	hits := 0
	normalizedKeyword := textutil.NormalizePhrase(keyword)
	if normalizedKeyword != "" {
		hits = strings.Count(strings.ToLower(text), normalizedKeyword)
	}

	return PageProfile{
		Title:        htmlutil.CleanText(doc.Find("title").First().Text()),
		Description:  htmlutil.CleanText(doc.Find(`meta[name="description"]`).AttrOr("content", "")),
		WordCount:    htmlutil.CountWords(text),
		HeadingCount: doc.Find("h1, h2, h3, h4, h5, h6").Length(),
		LinkCount:    len(htmlutil.GetAnchors(ctx, pageUrl, doc.Find("a"))),
		KeywordHits:  hits,
	}, nil
}
