package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/models"
)

// DevpostSource scrapes design-themed hackathons from Devpost. Devpost
// renders its tiles client-side, so the fetch drives a headless browser.
type DevpostSource struct {
	baseURL string
	pages   int
}

// NewDevpostSource creates a new Devpost source.
func NewDevpostSource(pages int) *DevpostSource {
	if pages <= 0 {
		pages = 1
	}
	return &DevpostSource{
		baseURL: "https://devpost.com/hackathons?search=design&status[]=open&themes[]=Design",
		pages:   pages,
	}
}

func (s *DevpostSource) Name() string { return "Devpost" }

func (s *DevpostSource) RateLimit() int { return 30 }

func (s *DevpostSource) BaseURL() string { return s.baseURL }

// devpostTile mirrors the fields extracted from one hackathon tile.
type devpostTile struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	Image       string `json:"image"`
	HostedBy    string `json:"hostedBy"`
	Deadline    string `json:"deadline"`
}

const devpostExtractJS = `
(function() {
	var results = [];
	var tiles = document.querySelectorAll('.hackathon-tile');
	tiles.forEach(function(tile) {
		var title = tile.querySelector('h3.mb-4');
		var link = tile.querySelector('a');
		var desc = tile.querySelector('.challenge-info > p');
		var img = tile.querySelector('img');
		var host = tile.querySelector('.host-label');
		var deadline = tile.querySelector('.submission-period');
		results.push({
			title: title ? title.innerText.trim() : '',
			link: link ? link.href : '',
			description: desc ? desc.innerText.trim() : '',
			image: img ? img.src : '',
			hostedBy: host ? host.textContent.trim() : '',
			deadline: deadline ? deadline.innerText.trim() : ''
		});
	});
	return results;
})()
`

// FetchHackathons loads the Devpost search results and extracts every tile.
func (s *DevpostSource) FetchHackathons(ctx context.Context) ([]models.Hackathon, error) {
	browserCtx, cancel := newBrowserContext(ctx)
	defer cancel()

	var all []models.Hackathon
	for page := 1; page <= s.pages; page++ {
		tiles, err := s.fetchPage(browserCtx, page)
		if err != nil {
			if len(all) > 0 {
				// keep what earlier pages yielded
				break
			}
			return nil, fmt.Errorf("devpost page %d: %w", page, err)
		}

		for _, tile := range tiles {
			all = append(all, models.Hackathon{
				Title:       tile.Title,
				Link:        tile.Link,
				Description: tile.Description,
				Image:       tile.Image,
				Host:        tile.HostedBy,
				RawDeadline: tile.Deadline,
				Source:      s.Name(),
			})
		}
	}

	return all, nil
}

func (s *DevpostSource) fetchPage(browserCtx context.Context, page int) ([]devpostTile, error) {
	tabCtx, cancel := chromedp.NewContext(browserCtx)
	defer cancel()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, 60*time.Second)
	defer cancelTimeout()

	url := fmt.Sprintf("%s&page=%d", s.baseURL, page)

	var tiles []devpostTile
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible(".hackathon-tile", chromedp.ByQuery),
		chromedp.Evaluate(devpostExtractJS, &tiles),
	)
	if err != nil {
		return nil, err
	}
	return tiles, nil
}
