package sources

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"PumpScan/internal/domain/models"
	xhttp "PumpScan/pkg/http"
	applogger "PumpScan/pkg/logger"
	"PumpScan/pkg/util"
)

// DefaultSubreddits is the full watch list.
var DefaultSubreddits = []string{
	"wallstreetbets", "pennystocks", "stocks", "investing", "StockMarket",
	"options", "Daytrading", "swingtrading", "algotrading", "thetagang",
	"RobinHoodPennyStocks", "smallstreetbets", "UndervaluedStonks",
	"SecurityAnalysis", "ValueInvesting", "dividends",
	"weedstocks", "shroomstocks", "greeninvestor", "SPACs",
	"CryptoMoonShots", "CryptoCurrency", "SatoshiStreetBets", "AltStreetBets",
	"CanadianPennyStocks", "CanadianInvestor", "ASX_Bets", "EuropeanStocks",
	"Shortsqueeze", "SqueezeDD", "BBIG", "Superstonk", "amcstock",
	"StockMarketDD", "pennystocksDD", "DDintoGME",
}

// DefaultMajorSubreddits get a deeper hot listing plus rising.
var DefaultMajorSubreddits = []string{"wallstreetbets", "pennystocks", "CryptoMoonShots", "Shortsqueeze"}

type RedditConfig struct {
	BaseURL         string
	Subreddits      []string
	MajorSubreddits []string
	HotLimit        int
	MajorHotLimit   int
	RisingLimit     int
}

type listing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	SelfText    string  `json:"selftext"`
	Author      string  `json:"author"`
	Subreddit   string  `json:"subreddit"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	Permalink   string  `json:"permalink"`
	Stickied    bool    `json:"stickied"`
}

// Reddit reads public subreddit listings.
type Reddit struct {
	cfg    RedditConfig
	client *xhttp.Client
	log    *applogger.Logger
}

func NewReddit(cfg RedditConfig, client *xhttp.Client, log *applogger.Logger) *Reddit {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.reddit.com"
	}
	if len(cfg.Subreddits) == 0 {
		cfg.Subreddits = DefaultSubreddits
	}
	if cfg.MajorSubreddits == nil {
		cfg.MajorSubreddits = DefaultMajorSubreddits
	}
	if cfg.HotLimit <= 0 {
		cfg.HotLimit = 25
	}
	if cfg.MajorHotLimit <= 0 {
		cfg.MajorHotLimit = 50
	}
	if cfg.RisingLimit <= 0 {
		cfg.RisingLimit = 25
	}
	if log == nil {
		log = applogger.Nop()
	}
	return &Reddit{cfg: cfg, client: client, log: log.With(applogger.Component("reddit"))}
}

func (r *Reddit) Name() string     { return PlatformReddit }
func (r *Reddit) Platform() string { return PlatformReddit }

type redditRequest struct {
	sub      string
	category string
	limit    int
}

// requests lists the listing requests of one fetch in order.
func (r *Reddit) requests() []redditRequest {
	major := make(map[string]bool, len(r.cfg.MajorSubreddits))
	for _, s := range r.cfg.MajorSubreddits {
		major[strings.ToLower(s)] = true
	}
	var out []redditRequest
	for _, sub := range r.cfg.Subreddits {
		if major[strings.ToLower(sub)] {
			out = append(out,
				redditRequest{sub, "hot", r.cfg.MajorHotLimit},
				redditRequest{sub, "rising", r.cfg.RisingLimit})
			continue
		}
		out = append(out, redditRequest{sub, "hot", r.cfg.HotLimit})
	}
	return out
}

// Fetch walks every listing. Failed listings are skipped; the fetch fails only when all do.
func (r *Reddit) Fetch(ctx context.Context) (*models.SourceBatch, error) {
	batch := &models.SourceBatch{Source: r.Name(), Platform: r.Platform(), Shape: models.SourcePostSurge}
	failures := &partialError{}
	reqs := r.requests()

	for _, req := range reqs {
		if err := ctx.Err(); err != nil {
			return r.partial(batch, err)
		}
		var l listing
		url := fmt.Sprintf("%s/r/%s/%s.json", r.cfg.BaseURL, req.sub, req.category)
		err := r.client.GetJSON(ctx, url, map[string][]string{"limit": {strconv.Itoa(req.limit)}}, &l)
		if err != nil {
			failures.add(req.sub+"/"+req.category, err)
			if IsRateLimited(err) {
				r.log.Warn("reddit rate limited", applogger.String("subreddit", req.sub))
			}
			continue
		}
		for _, c := range l.Data.Children {
			if c.Data.Stickied {
				continue
			}
			batch.Posts = append(batch.Posts, c.Data.toPost(r.cfg.BaseURL))
		}
	}

	if len(failures.failed) == len(reqs) && len(reqs) > 0 {
		return nil, allFailed(r.Name(), failures)
	}
	if !failures.empty() {
		r.log.Warn("some listings failed", applogger.Int("failed", len(failures.failed)), applogger.Int("total", len(reqs)))
	}
	return batch, nil
}

// partial keeps what was read before ctx ended.
func (r *Reddit) partial(batch *models.SourceBatch, err error) (*models.SourceBatch, error) {
	if len(batch.Posts) == 0 {
		return nil, err
	}
	r.log.Warn("reddit fetch cut short", applogger.Int("posts", len(batch.Posts)), applogger.Error(err))
	return batch, nil
}

func (p redditPost) toPost(base string) models.Post {
	post := models.Post{
		ID:          p.ID,
		Title:       p.Title,
		SelfText:    p.SelfText,
		Author:      p.Author,
		Community:   p.Subreddit,
		Score:       p.Score,
		NumComments: p.NumComments,
		CreatedAt:   util.UnixFloat(p.CreatedUTC),
	}
	if p.Permalink != "" {
		post.URL = base + p.Permalink
	}
	return post
}
