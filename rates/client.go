/*
Package rates fetches the annualized benchmark-rate series.

PURPOSE:
  HTTP client for the Banco Central do Brasil SGS time-series API. It
  implements projection.RateSource: given a period range, it returns the
  published annualized observations keyed down to year-month.

ENDPOINT:
  GET {base}/dados/serie/bcdata.sgs.{series}/dados
      ?formato=json&dataInicial=DD/MM/YYYY&dataFinal=DD/MM/YYYY

  Items: {"data": "01/12/2022", "valor": "13.75"}
  The default series 4189 is the annualized Selic.

FAILURE MODEL:
  One attempt, no retry, no caching. Any transport, status or parse
  failure is returned as an error; the projector recovers it as an empty
  series, so a degraded rate service never fails a submission.

SEE ALSO:
  - projection/projector.go: the only consumer
*/
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/construtiva/obra-engine/projection"
)

const (
	DefaultBaseURL = "https://api.bcb.gov.br"
	DefaultSeries  = 4189

	dateLayout = "02/01/2006"
)

// =============================================================================
// CLIENT
// =============================================================================

type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	Series     int
}

// NewClient returns a client for the default annualized-Selic series.
func NewClient() *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		BaseURL:    DefaultBaseURL,
		Series:     DefaultSeries,
	}
}

// observation is the wire format; valor arrives as a number in a string.
type observation struct {
	Data  string `json:"data"`
	Valor string `json:"valor"`
}

// AnnualizedSeries fetches the observations covering [from, to]. When a
// month carries several observations the last one published wins.
func (c *Client) AnnualizedSeries(ctx context.Context, from, to projection.Period) ([]projection.RateObservation, error) {
	endpoint := fmt.Sprintf("%s/dados/serie/bcdata.sgs.%d/dados", c.BaseURL, c.Series)
	query := url.Values{}
	query.Set("formato", "json")
	query.Set("dataInicial", from.FirstDay().Format(dateLayout))
	query.Set("dataFinal", to.LastDay().Format(dateLayout))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building rate request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching rate series %d: %w", c.Series, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate series %d: unexpected status %d", c.Series, resp.StatusCode)
	}

	var items []observation
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decoding rate series %d: %w", c.Series, err)
	}

	byPeriod := make(map[projection.Period]decimal.Decimal, len(items))
	for _, item := range items {
		day, err := time.Parse(dateLayout, item.Data)
		if err != nil {
			return nil, fmt.Errorf("rate series %d: bad observation date %q: %w", c.Series, item.Data, err)
		}
		rate, err := decimal.NewFromString(item.Valor)
		if err != nil {
			return nil, fmt.Errorf("rate series %d: bad observation value %q: %w", c.Series, item.Valor, err)
		}
		byPeriod[projection.NewPeriod(day.Year(), day.Month())] = rate
	}

	series := make([]projection.RateObservation, 0, len(byPeriod))
	for period, rate := range byPeriod {
		series = append(series, projection.RateObservation{Period: period, AnnualizedRate: rate})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Period.Before(series[j].Period) })
	return series, nil
}
