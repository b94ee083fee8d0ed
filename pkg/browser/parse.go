package browser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"liscraper/pkg/config"
	"liscraper/pkg/models"
)

// parseCard extracts a full raw item from one card's HTML fragment.
func parseCard(html string, sel config.SelectorsConfig) (models.RawItem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return models.RawItem{}, fmt.Errorf("failed to parse card markup: %w", err)
	}

	item := models.RawItem{
		Name:        text(doc, sel.Name),
		Occupation:  text(doc, sel.Occupation),
		Location:    text(doc, sel.Location),
		LinkedInURL: href(doc, sel.ProfileLink),
		WebsiteURL:  href(doc, sel.Website),
	}
	doc.Find(sel.University).Each(func(_ int, s *goquery.Selection) {
		if u := strings.TrimSpace(s.Text()); u != "" {
			item.UniversityNames = append(item.UniversityNames, u)
		}
	})
	return item, nil
}

// parseProbe extracts only the identity fields used for fingerprinting.
func parseProbe(html string, sel config.SelectorsConfig) (models.RawItem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return models.RawItem{}, fmt.Errorf("failed to parse card markup: %w", err)
	}
	return models.RawItem{
		Name:        text(doc, sel.Name),
		Occupation:  text(doc, sel.Occupation),
		LinkedInURL: href(doc, sel.ProfileLink),
	}, nil
}

func text(doc *goquery.Document, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(doc.Find(selector).First().Text())
}

func href(doc *goquery.Document, selector string) string {
	if selector == "" {
		return ""
	}
	v, _ := doc.Find(selector).First().Attr("href")
	return strings.TrimSpace(v)
}
