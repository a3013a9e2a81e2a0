package spimex

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Report links embed their trading date in the file name:
// .../oil_xls_20240212162000.xls?r=2186
var linkDatePattern = regexp.MustCompile(`oil_xls_(\d{8})\d{6}`)

const reportLinkSelector = "div.accordeon-inner__wrap-item a.accordeon-inner__item-title"

// ReportLink points at one day's trading results file. It only lives within
// a single ingestion run.
type ReportLink struct {
	URL  string
	Date string
}

// DateFromLink extracts the YYYYMMDD trading date embedded in a report link.
// Absence of a date is an expected outcome during discovery, not an error.
func DateFromLink(link string) (string, bool) {
	match := linkDatePattern.FindStringSubmatch(link)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// DiscoverLinks walks the paginated results listing and collects every report
// link strictly newer than earliest (YYYYMMDD). The listing is ordered by
// date descending, so scanning stops at the first link that is not newer, or
// at the first page without report items. Pages are fetched sequentially
// because the stop decision for page N gates the request for page N+1.
func (c *Client) DiscoverLinks(ctx context.Context, earliest string) ([]ReportLink, error) {
	var links []ReportLink
	for page := 1; ; page++ {
		pageURL := fmt.Sprintf("%s%s?page=page-%d", c.baseURL, resultsPath, page)
		body, err := c.GetHTML(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("fetch listing page %d: %w", page, err)
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("parse listing page %d: %w", page, err)
		}

		items := doc.Find(reportLinkSelector)
		if items.Length() == 0 {
			return links, nil
		}

		reachedWatermark := false
		items.EachWithBreak(func(_ int, item *goquery.Selection) bool {
			href, ok := item.Attr("href")
			if !ok {
				return true
			}
			date, ok := DateFromLink(href)
			if !ok {
				c.logger.WithField("href", href).Warn("report link without a parsable date, skipped")
				return true
			}
			if date <= earliest {
				reachedWatermark = true
				return false
			}
			links = append(links, ReportLink{URL: c.absoluteURL(href), Date: date})
			return true
		})
		if reachedWatermark {
			return links, nil
		}
	}
}
