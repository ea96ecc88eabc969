package sources

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/models"
)

// UnstopSource scrapes design competitions from Unstop. Like Devpost, the
// listing cards are rendered client-side.
type UnstopSource struct {
	baseURL string
}

// NewUnstopSource creates a new Unstop source.
func NewUnstopSource() *UnstopSource {
	return &UnstopSource{
		baseURL: "https://unstop.com/all-opportunities?oppstatus=open&domain=2&category=designing:drawing:painting",
	}
}

func (s *UnstopSource) Name() string { return "Unstop" }

func (s *UnstopSource) RateLimit() int { return 30 }

func (s *UnstopSource) BaseURL() string { return s.baseURL }

// unstopCard mirrors the fields extracted from one opportunity card.
type unstopCard struct {
	Title   string   `json:"title"`
	Host    string   `json:"host"`
	Prize   string   `json:"prize"`
	ApplyBy string   `json:"applyBy"`
	Image   string   `json:"image"`
	Tags    []string `json:"tags"`
	Link    string   `json:"link"`
}

const unstopExtractJS = `
(function() {
	var results = [];
	var cards = document.querySelectorAll('.single_profile');
	cards.forEach(function(card) {
		var title = card.querySelector('h2');
		var host = card.querySelector('p');
		var prizeIcon = card.querySelector('.fa-rupee');
		var prize = prizeIcon && prizeIcon.parentElement ? prizeIcon.parentElement.innerText.trim() : '';
		var applyBy = '';
		card.querySelectorAll('.seperate_box').forEach(function(el) {
			if (el.textContent.toLowerCase().includes('left')) {
				applyBy = el.innerText.trim();
			}
		});
		var img = card.querySelector('img');
		var tags = Array.prototype.map.call(card.querySelectorAll('.chip_text'), function(tag) {
			return tag.textContent.trim();
		});
		var link = '';
		var id = card.getAttribute('id') || '';
		var m = id.match(/_(\d+)/);
		if (m) {
			link = 'https://unstop.com/competitions/' + m[1];
		}
		results.push({
			title: title ? title.innerText.trim() : '',
			host: host ? host.innerText.trim() : '',
			prize: prize,
			applyBy: applyBy,
			image: img ? img.src : '',
			tags: tags,
			link: link
		});
	});
	return results;
})()
`

// FetchHackathons loads the Unstop opportunity list and extracts every card.
func (s *UnstopSource) FetchHackathons(ctx context.Context) ([]models.Hackathon, error) {
	browserCtx, cancel := newBrowserContext(ctx)
	defer cancel()

	tabCtx, cancelTimeout := context.WithTimeout(browserCtx, 90*time.Second)
	defer cancelTimeout()

	var cards []unstopCard
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(s.baseURL),
		chromedp.WaitVisible(".single_profile", chromedp.ByQuery),
		chromedp.Evaluate(unstopExtractJS, &cards),
	)
	if err != nil {
		return nil, err
	}

	hackathons := make([]models.Hackathon, 0, len(cards))
	for _, card := range cards {
		hackathons = append(hackathons, models.Hackathon{
			Title:   card.Title,
			Link:    card.Link,
			Host:    card.Host,
			Prize:   card.Prize,
			ApplyBy: card.ApplyBy,
			Image:   card.Image,
			Tags:    card.Tags,
			Source:  s.Name(),
		})
	}
	return hackathons, nil
}
