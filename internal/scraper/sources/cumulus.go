package sources

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/models"
	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/pkg/httpclient"
)

// applyByPattern matches "Apply by May 3, 2026" style meta lines.
var applyByPattern = regexp.MustCompile(`Apply by\s+([A-Za-z]{3,}\s\d{1,2},\s\d{4})`)

// CumulusSource scrapes design competitions from the Cumulus association
// member portal. Only competitions whose apply-by date is still ahead are
// yielded.
type CumulusSource struct {
	client  *httpclient.HttpClient
	baseURL string
}

// NewCumulusSource creates a new Cumulus source.
func NewCumulusSource(client *httpclient.HttpClient) *CumulusSource {
	return &CumulusSource{
		client:  client,
		baseURL: "https://cumulusassociation.org/member-portal/competitions/?searched=design&",
	}
}

func (s *CumulusSource) Name() string { return "Cumulus" }

func (s *CumulusSource) RateLimit() int { return 60 }

func (s *CumulusSource) BaseURL() string { return s.baseURL }

// FetchHackathons fetches and parses the competitions page.
func (s *CumulusSource) FetchHackathons(ctx context.Context) ([]models.Hackathon, error) {
	resp, err := s.client.GetWithContext(ctx, s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from Cumulus: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Cumulus returned status %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Cumulus response: %w", err)
	}

	return s.extract(doc, time.Now()), nil
}

func (s *CumulusSource) extract(doc *html.Node, now time.Time) []models.Hackathon {
	var hackathons []models.Hackathon

	for _, article := range findAll(doc, func(n *html.Node) bool {
		return n.Data == "article" && hasClasses(n, "type-competition")
	}) {
		var title, link, meta string

		if h3 := find(article, func(n *html.Node) bool {
			return n.Data == "h3" && hasClasses(n, "entry-title")
		}); h3 != nil {
			title = strings.TrimSpace(textContent(h3))
		}
		if a := find(article, func(n *html.Node) bool { return n.Data == "a" }); a != nil {
			link = attr(a, "href")
		}
		if p := find(article, func(n *html.Node) bool {
			return n.Data == "p" && hasClasses(n, "meta")
		}); p != nil {
			meta = textContent(p)
		}

		match := applyByPattern.FindStringSubmatch(meta)
		if match == nil {
			continue
		}
		applyBy, err := time.Parse("January 2, 2006", match[1])
		if err != nil {
			applyBy, err = time.Parse("Jan 2, 2006", match[1])
		}
		if err != nil || !applyBy.After(now) {
			continue
		}

		hackathons = append(hackathons, models.Hackathon{
			Title:                title,
			Link:                 link,
			RegistrationDeadline: applyBy.Format("2006-01-02"),
			Source:               s.Name(),
		})
	}

	return hackathons
}
