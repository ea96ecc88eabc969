package sources

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/net/html"

	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/models"
	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/pkg/httpclient"
)

// AllHackathonsSource scrapes the server-rendered listing at
// allhackathons.com, so a plain HTTP fetch plus HTML parsing is enough.
type AllHackathonsSource struct {
	client  *httpclient.HttpClient
	baseURL string
	siteURL string
}

// NewAllHackathonsSource creates a new AllHackathons source.
func NewAllHackathonsSource(client *httpclient.HttpClient) *AllHackathonsSource {
	return &AllHackathonsSource{
		client:  client,
		baseURL: "https://allhackathons.com/hackathons/?search=&status=open&location=online&themes=11",
		siteURL: "https://allhackathons.com",
	}
}

func (s *AllHackathonsSource) Name() string { return "AllHackathons" }

func (s *AllHackathonsSource) RateLimit() int { return 60 }

func (s *AllHackathonsSource) BaseURL() string { return s.baseURL }

// FetchHackathons fetches and parses the open-hackathons listing page.
func (s *AllHackathonsSource) FetchHackathons(ctx context.Context) ([]models.Hackathon, error) {
	resp, err := s.client.GetWithContext(ctx, s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from AllHackathons: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("AllHackathons returned status %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse AllHackathons response: %w", err)
	}

	return s.extract(doc), nil
}

// extract walks the document and converts each listing row into a Hackathon.
func (s *AllHackathonsSource) extract(doc *html.Node) []models.Hackathon {
	var hackathons []models.Hackathon

	for _, row := range findAll(doc, func(n *html.Node) bool {
		return n.Data == "div" && hasClasses(n, "row", "align-items-center", "bg-white")
	}) {
		h := s.extractRow(row)
		if h.Title == "" && h.Link == "" {
			continue
		}
		hackathons = append(hackathons, h)
	}

	return hackathons
}

func (s *AllHackathonsSource) extractRow(row *html.Node) models.Hackathon {
	h := models.Hackathon{Source: s.Name()}

	if a := find(row, func(n *html.Node) bool {
		return n.Data == "a" && hasClasses(n, "h5")
	}); a != nil {
		h.Title = strings.TrimSpace(textContent(a))
		if href := attr(a, "href"); href != "" {
			h.Link = s.siteURL + href
		}
	}

	// First <p> under the content column carries the date range; the end of
	// the range is the best available deadline.
	if p := find(row, func(n *html.Node) bool { return n.Data == "p" && !hasClasses(n, "text-muted") }); p != nil {
		dateText := strings.TrimSpace(textContent(p))
		parts := strings.Split(dateText, "-")
		end := strings.TrimSpace(parts[len(parts)-1])
		h.EndDate = end
	}

	if p := find(row, func(n *html.Node) bool { return n.Data == "p" && hasClasses(n, "text-muted") }); p != nil {
		h.Description = strings.TrimSpace(textContent(p))
	}

	if img := find(row, func(n *html.Node) bool { return n.Data == "img" }); img != nil {
		if src := attr(img, "src"); src != "" {
			h.Image = s.siteURL + src
		}
	}

	for _, tagLink := range findAll(row, func(n *html.Node) bool {
		return n.Data == "a" && n.Parent != nil && hasClasses(n.Parent, "font-size-sm")
	}) {
		h.Tags = append(h.Tags, strings.ToLower(strings.TrimSpace(textContent(tagLink))))
	}

	return h
}
