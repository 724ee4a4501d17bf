package repository

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang-stock-recommender/internal/tracker/config"
	"golang-stock-recommender/pkg/logger"

	"github.com/PuerkitoBio/goquery"
	"github.com/mauidude/go-readability"
	"github.com/mmcdole/gofeed"
)

// feedRepository pulls recommendation posts from configured RSS feeds and
// extracts their plain-text bodies.
type feedRepository struct {
	cfg        *config.Config
	logger     *logger.Logger
	httpClient *http.Client
}

// NewFeedRepository creates a new instance of feedRepository.
func NewFeedRepository(cfg *config.Config, log *logger.Logger) FeedRepository {
	return &feedRepository{
		cfg:    cfg,
		logger: log,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// FetchPosts returns the readable text of recent items across all
// configured feeds. A failing feed or item is skipped, never fatal.
func (r *feedRepository) FetchPosts(ctx context.Context) ([]string, error) {
	var posts []string
	fp := gofeed.NewParser()

	for _, feedURL := range r.cfg.Feeds.URLs {
		feed, err := fp.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			r.logger.Error("Failed to parse RSS feed", logger.ErrorField(err), logger.StringField("url", feedURL))
			continue
		}

		count := 0
		for _, item := range feed.Items {
			if r.cfg.Feeds.MaxItems > 0 && count >= r.cfg.Feeds.MaxItems {
				break
			}
			text, err := r.extractItemText(ctx, item)
			if err != nil {
				r.logger.Warn("Failed to extract feed item",
					logger.ErrorField(err), logger.StringField("link", item.Link))
				continue
			}
			if text == "" {
				continue
			}
			posts = append(posts, text)
			count++
		}
	}
	return posts, nil
}

// extractItemText fetches the linked article and reduces it to plain text.
// Falls back to the feed item description when the page fetch fails.
func (r *feedRepository) extractItemText(ctx context.Context, item *gofeed.Item) (string, error) {
	if item.Link == "" {
		return strings.TrimSpace(item.Description), nil
	}

	req, err := http.NewRequestWithContext(ctx, "GET", item.Link, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return strings.TrimSpace(item.Description), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return strings.TrimSpace(item.Description), nil
	}

	buf := new(strings.Builder)
	if _, err := copyBody(buf, resp); err != nil {
		return "", err
	}

	doc, err := readability.NewDocument(buf.String())
	if err != nil {
		return "", fmt.Errorf("readability parse failed: %w", err)
	}

	content := doc.Content()
	gq, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("goquery parse failed: %w", err)
	}

	text := strings.TrimSpace(gq.Text())
	if item.Title != "" {
		text = item.Title + "\n" + text
	}
	return text, nil
}

func copyBody(buf *strings.Builder, resp *http.Response) (int64, error) {
	const maxBody = 2 << 20
	return io.Copy(buf, http.MaxBytesReader(nil, resp.Body, maxBody))
}
