package sources

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/PuerkitoBio/goquery"

	"PumpScan/internal/domain/models"
	xhttp "PumpScan/pkg/http"
	applogger "PumpScan/pkg/logger"
	"PumpScan/pkg/util"
)

// topicsPerPage is the board page size; pages are addressed by topic offset.
const topicsPerPage = 40

var topicIDPattern = regexp.MustCompile(`topic=(\d+)`)

// DefaultBoards: altcoin announcements, altcoin discussion, speculation, bounties, tokens.
var DefaultBoards = []int{159, 67, 57, 238, 240}

type BitcoinTalkConfig struct {
	BaseURL string
	Boards  []int
	Pages   int
}

// BitcoinTalk scrapes board index pages into threads with reply counts.
type BitcoinTalk struct {
	cfg    BitcoinTalkConfig
	client *xhttp.Client
	log    *applogger.Logger
}

func NewBitcoinTalk(cfg BitcoinTalkConfig, client *xhttp.Client, log *applogger.Logger) *BitcoinTalk {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://bitcointalk.org"
	}
	if len(cfg.Boards) == 0 {
		cfg.Boards = DefaultBoards
	}
	if cfg.Pages <= 0 {
		cfg.Pages = 1
	}
	if log == nil {
		log = applogger.Nop()
	}
	return &BitcoinTalk{cfg: cfg, client: client, log: log.With(applogger.Component("bitcointalk"))}
}

func (b *BitcoinTalk) Name() string     { return PlatformBitcoinTalk }
func (b *BitcoinTalk) Platform() string { return PlatformBitcoinTalk }

func (b *BitcoinTalk) Fetch(ctx context.Context) (*models.SourceBatch, error) {
	batch := &models.SourceBatch{Source: b.Name(), Platform: b.Platform(), Shape: models.SourceForumThread}
	failures := &partialError{}
	seen := make(map[string]bool)
	total := 0

	for _, board := range b.cfg.Boards {
		for page := 0; page < b.cfg.Pages; page++ {
			if ctx.Err() != nil {
				break
			}
			total++
			url := BoardPageURL(b.cfg.BaseURL, board, page)
			var body []byte
			if err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{Method: xhttp.MethodGet, URL: url}, &body); err != nil {
				failures.add(fmt.Sprintf("board %d.%d", board, page*topicsPerPage), err)
				continue
			}
			topics, err := ParseBoardPage(b.cfg.BaseURL, body)
			if err != nil {
				failures.add(fmt.Sprintf("board %d parse", board), err)
				continue
			}
			for _, t := range topics {
				if seen[t.ID] {
					continue
				}
				seen[t.ID] = true
				batch.Threads = append(batch.Threads, t)
			}
		}
	}

	if total > 0 && len(failures.failed) == total {
		return nil, allFailed(b.Name(), failures)
	}
	if !failures.empty() {
		b.log.Warn("some board pages failed", applogger.Int("failed", len(failures.failed)), applogger.Int("total", total))
	}
	return batch, nil
}

// ParseBoardPage extracts topics from one board index page.
// A topic row links to topic=<id>; its first two windowbg cells hold replies and views.
func ParseBoardPage(baseURL string, page []byte) ([]models.Thread, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse board page: %w", err)
	}

	var out []models.Thread
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		if row.Find("th").Length() > 0 || row.Find("td").Length() == 0 {
			return
		}
		link := row.Find(`a[href*="topic="]`).First()
		if link.Length() == 0 {
			return
		}
		href, _ := link.Attr("href")
		m := topicIDPattern.FindStringSubmatch(href)
		if m == nil {
			return
		}

		replies := 0
		if stats := row.Find("td.windowbg"); stats.Length() >= 2 {
			replies = util.ParseCount(stats.Eq(0).Text())
		}

		out = append(out, models.Thread{
			ID:      m[1],
			Subject: util.CollapseSpace(link.Text()),
			Replies: replies,
			URL:     baseURL + "/index.php?topic=" + m[1] + ".0",
		})
	})
	return out, nil
}

// BoardPageURL addresses page (0-based) of a board.
func BoardPageURL(baseURL string, board, page int) string {
	return baseURL + "/index.php?board=" + strconv.Itoa(board) + "." + strconv.Itoa(page*topicsPerPage)
}
