package scraper

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/buchloe-events/internal/event"
)

var roleSelectors = map[event.Role]string{
	event.RoleStill:       "div.still",
	event.RoleDayName:     "div.dayname",
	event.RoleDay:         "div.day",
	event.RoleMonth:       "div.month",
	event.RoleYear:        "div.year",
	event.RoleTitle:       "h2",
	event.RoleTime:        "div.time",
	event.RoleLocation:    "div.location",
	event.RoleDescription: "div.description",
}

// htmlFragment is an event.Fragment over one listing <article>.
type htmlFragment struct {
	article *goquery.Selection
	url     string
}

// Field implements event.Fragment.
func (f htmlFragment) Field(role event.Role) (string, bool) {
	selector, ok := roleSelectors[role]
	if !ok {
		return "", false
	}
	sel := f.article.Find(selector).First()
	if sel.Length() == 0 {
		return "", false
	}
	return strings.TrimSpace(sel.Text()), true
}

// DetailURL implements event.Fragment.
func (f htmlFragment) DetailURL() (string, bool) {
	return f.url, f.url != ""
}

// extractFragments returns one fragment per event on a listing page. Event
// articles are wrapped in <a class="article"> links to their detail page;
// pages without wrappers fall back to bare <article> elements.
func extractFragments(doc *goquery.Document, site *url.URL) []event.Fragment {
	fragments := make([]event.Fragment, 0)

	wrappers := doc.Find("a.article")
	if wrappers.Length() == 0 {
		doc.Find("article").Each(func(_ int, article *goquery.Selection) {
			fragments = append(fragments, htmlFragment{article: article})
		})
		return fragments
	}

	wrappers.Each(func(_ int, wrapper *goquery.Selection) {
		article := wrapper.Find("article").First()
		if article.Length() == 0 {
			return
		}
		href, _ := wrapper.Attr("href")
		fragments = append(fragments, htmlFragment{
			article: article,
			url:     absoluteURL(site, href),
		})
	})
	return fragments
}

// absoluteURL resolves href against the site root. Unparseable or empty
// references yield "".
func absoluteURL(site *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if site == nil {
		if ref.IsAbs() {
			return ref.String()
		}
		return ""
	}
	return site.ResolveReference(ref).String()
}
