package sources

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"PumpScan/internal/domain/models"
	xhttp "PumpScan/pkg/http"
	applogger "PumpScan/pkg/logger"
	"PumpScan/pkg/util"
)

type FourChanConfig struct {
	BaseURL string
	Board   string
}

type catalogPage struct {
	Page    int `json:"page"`
	Threads []struct {
		No      int64  `json:"no"`
		Sub     string `json:"sub"`
		Com     string `json:"com"`
		Replies int    `json:"replies"`
		Time    int64  `json:"time"`
		Sticky  int    `json:"sticky"`
	} `json:"threads"`
}

// FourChan reads a board catalog.
type FourChan struct {
	cfg    FourChanConfig
	client *xhttp.Client
	log    *applogger.Logger
}

func NewFourChan(cfg FourChanConfig, client *xhttp.Client, log *applogger.Logger) *FourChan {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://a.4cdn.org"
	}
	if cfg.Board == "" {
		cfg.Board = "biz"
	}
	if log == nil {
		log = applogger.Nop()
	}
	return &FourChan{cfg: cfg, client: client, log: log.With(applogger.Component("4chan"))}
}

func (f *FourChan) Name() string     { return PlatformFourChan }
func (f *FourChan) Platform() string { return PlatformFourChan }

func (f *FourChan) Fetch(ctx context.Context) (*models.SourceBatch, error) {
	var pages []catalogPage
	url := fmt.Sprintf("%s/%s/catalog.json", f.cfg.BaseURL, f.cfg.Board)
	if err := f.client.GetJSON(ctx, url, nil, &pages); err != nil {
		return nil, fmt.Errorf("4chan catalog: %w", err)
	}

	batch := &models.SourceBatch{Source: f.Name(), Platform: f.Platform(), Shape: models.SourceForumThread}
	for _, p := range pages {
		for _, t := range p.Threads {
			if t.Sticky != 0 {
				continue
			}
			id := strconv.FormatInt(t.No, 10)
			batch.Threads = append(batch.Threads, models.Thread{
				ID:        id,
				Subject:   StripHTML(t.Sub),
				Comment:   StripHTML(t.Com),
				Replies:   t.Replies,
				CreatedAt: util.UnixFloat(float64(t.Time)),
				URL:       fmt.Sprintf("https://boards.4chan.org/%s/thread/%s", f.cfg.Board, id),
			})
		}
	}
	return batch, nil
}

// StripHTML turns a post fragment into plain text. Line breaks become spaces and entities are decoded.
func StripHTML(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return util.CollapseSpace(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<div>" + fragment + "</div>"))
	if err != nil {
		return util.CollapseSpace(fragment)
	}
	doc.Find("br").ReplaceWithHtml(" ")
	return util.CollapseSpace(doc.Text())
}
