package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"capital-research-be/internal/pkg/logger"
)

// SearchType selects the domain allow-list for web search.
const (
	TypeGeneral    = "general"
	TypeRealEstate = "real_estate"
	TypeFinance    = "finance"
)

var realEstateDomains = []string{"zillow.com", "realtor.com", "redfin.com", "loopnet.com"}
var financeDomains = []string{"bloomberg.com", "wsj.com", "marketwatch.com", "investopedia.com"}

// financeKeywords gate the market-data call: bar data is only fetched when
// the query plausibly concerns markets or rates.
var financeKeywords = []string{
	"market", "stock", "interest rate", "rates", "economy",
	"inflation", "reit", "investment", "yield", "treasury", "fed",
}

// Signals is whatever subset of the three sources responded in time.
type Signals struct {
	Web      *WebSignals
	Analysis string
	Market   []Quote
}

// Fanout issues the three signal calls concurrently, each behind its own
// failure boundary and timeout. A nil client means the credential is not
// configured and the source is silently skipped. One slow or failing source
// never blocks the other two.
type Fanout struct {
	Web      *TavilyClient
	Analysis *PerplexityClient
	Market   *AlpacaClient

	log     logger.ILogger
	timeout time.Duration
}

func NewFanout(web *TavilyClient, analysis *PerplexityClient, market *AlpacaClient, log logger.ILogger, timeout time.Duration) *Fanout {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Fanout{
		Web:      web,
		Analysis: analysis,
		Market:   market,
		log:      log,
		timeout:  timeout,
	}
}

// GatherSignals fans out to whichever sources are configured and merges the
// successes. Errors are logged per source and drop only that source's
// contribution.
func (f *Fanout) GatherSignals(ctx context.Context, query, searchType string) Signals {
	var signals Signals
	var wg sync.WaitGroup

	if f.Web != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(ctx, f.timeout)
			defer cancel()

			web, err := f.Web.Search(callCtx, query, domainsFor(searchType))
			if err != nil {
				f.log.Warn("fanout", "web search unavailable", map[string]interface{}{"error": err.Error()})
				return
			}
			signals.Web = web
		}()
	}

	if f.Analysis != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(ctx, f.timeout)
			defer cancel()

			analysis, err := f.Analysis.Analyze(callCtx, query)
			if err != nil {
				f.log.Warn("fanout", "deep analysis unavailable", map[string]interface{}{"error": err.Error()})
				return
			}
			signals.Analysis = analysis
		}()
	}

	if f.Market != nil && wantsMarketData(query, searchType) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(ctx, f.timeout)
			defer cancel()

			quotes, err := f.Market.LatestBars(callCtx)
			if err != nil {
				f.log.Warn("fanout", "market data unavailable", map[string]interface{}{"error": err.Error()})
				return
			}
			signals.Market = quotes
		}()
	}

	wg.Wait()
	return signals
}

func domainsFor(searchType string) []string {
	switch searchType {
	case TypeRealEstate:
		return realEstateDomains
	case TypeFinance:
		return financeDomains
	default:
		return nil
	}
}

func wantsMarketData(query, searchType string) bool {
	if searchType == TypeFinance {
		return true
	}
	lowered := strings.ToLower(query)
	for _, keyword := range financeKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}
