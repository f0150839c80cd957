package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"PumpScan/internal/domain/models"
	xhttp "PumpScan/pkg/http"
	applogger "PumpScan/pkg/logger"
	"PumpScan/pkg/util"
)

type StockTwitsConfig struct {
	BaseURL      string
	TopSymbols   int
	MessageLimit int
}

type trendingResponse struct {
	Symbols []struct {
		Symbol string `json:"symbol"`
		Title  string `json:"title"`
	} `json:"symbols"`
}

type streamResponse struct {
	Messages []struct {
		ID        json.Number `json:"id"`
		Body      string      `json:"body"`
		CreatedAt string      `json:"created_at"`
		User      struct {
			Username string `json:"username"`
		} `json:"user"`
		Likes *struct {
			Total int `json:"total"`
		} `json:"likes"`
		Entities struct {
			Sentiment *struct {
				Basic string `json:"basic"`
			} `json:"sentiment"`
		} `json:"entities"`
	} `json:"messages"`
}

// StockTwits reads the message streams of the currently trending symbols.
type StockTwits struct {
	cfg    StockTwitsConfig
	client *xhttp.Client
	log    *applogger.Logger
}

func NewStockTwits(cfg StockTwitsConfig, client *xhttp.Client, log *applogger.Logger) *StockTwits {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.stocktwits.com/api/2"
	}
	if cfg.TopSymbols <= 0 {
		cfg.TopSymbols = 10
	}
	if cfg.MessageLimit <= 0 || cfg.MessageLimit > 30 {
		cfg.MessageLimit = 30
	}
	if log == nil {
		log = applogger.Nop()
	}
	return &StockTwits{cfg: cfg, client: client, log: log.With(applogger.Component("stocktwits"))}
}

func (s *StockTwits) Name() string     { return PlatformStockTwits }
func (s *StockTwits) Platform() string { return PlatformStockTwits }

// Fetch returns one chat batch; every message carries the symbol it was streamed under as channel.
func (s *StockTwits) Fetch(ctx context.Context) (*models.SourceBatch, error) {
	var trending trendingResponse
	if err := s.client.GetJSON(ctx, s.cfg.BaseURL+"/streams/trending.json", nil, &trending); err != nil {
		return nil, fmt.Errorf("stocktwits trending: %w", err)
	}

	symbols := make([]string, 0, s.cfg.TopSymbols)
	for _, sym := range trending.Symbols {
		if sym.Symbol == "" {
			continue
		}
		symbols = append(symbols, sym.Symbol)
		if len(symbols) == s.cfg.TopSymbols {
			break
		}
	}

	batch := &models.SourceBatch{Source: s.Name(), Platform: s.Platform(), Shape: models.SourceChatBurst}
	if len(symbols) == 0 {
		return batch, nil
	}

	failures := &partialError{}
	for _, sym := range symbols {
		if ctx.Err() != nil {
			break
		}
		msgs, err := s.stream(ctx, sym)
		if err != nil {
			failures.add(sym, err)
			continue
		}
		batch.Messages = append(batch.Messages, msgs...)
	}

	if len(failures.failed) == len(symbols) {
		return nil, allFailed(s.Name(), failures)
	}
	if !failures.empty() {
		s.log.Warn("some symbol streams failed", applogger.Int("failed", len(failures.failed)), applogger.Strings("symbols", symbols))
	}
	return batch, nil
}

func (s *StockTwits) stream(ctx context.Context, symbol string) ([]models.ChatMessage, error) {
	var resp streamResponse
	url := fmt.Sprintf("%s/streams/symbol/%s.json", s.cfg.BaseURL, symbol)
	if err := s.client.GetJSON(ctx, url, map[string][]string{"limit": {strconv.Itoa(s.cfg.MessageLimit)}}, &resp); err != nil {
		return nil, err
	}

	out := make([]models.ChatMessage, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		msg := models.ChatMessage{
			ID:      m.ID.String(),
			Body:    m.Body,
			User:    m.User.Username,
			Channel: symbol,
		}
		// missing timestamps stay zero; the normalizer drops those messages as malformed
		if t, ok := util.ParseTime(m.CreatedAt); ok {
			msg.CreatedAt = t
		}
		if m.Likes != nil {
			msg.Likes = m.Likes.Total
		}
		if m.Entities.Sentiment != nil {
			msg.Sentiment = m.Entities.Sentiment.Basic
		}
		out = append(out, msg)
	}
	return out, nil
}
