package rail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jack-barr3tt/journey-tracker/src/common/config"
	"github.com/jack-barr3tt/journey-tracker/src/common/types"
	"github.com/jack-barr3tt/journey-tracker/src/common/utils"
	"go.uber.org/zap"
)

const (
	OpStationList    = "GetStationList"
	OpDepartureBoard = "GetDepartureBoard"

	// MinQueryLength is the shortest station query sent to the remote service.
	MinQueryLength = 2
)

var (
	ErrNoAPIKey     = errors.New("rail api key not configured")
	ErrNoDepartures = errors.New("no departures between stations")
)

type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
	logger  *zap.SugaredLogger
}

func NewClient(cfg config.RailConfig, logger *zap.SugaredLogger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		client: &http.Client{
			Timeout:   timeout,
			Transport: newTransport(cfg.APIKey),
		},
		baseURL: cfg.URL,
		apiKey:  cfg.APIKey,
		logger:  logger,
	}
}

// SearchStations returns stations matching a partial name. Short queries and
// failures both yield an empty result.
func (c *Client) SearchStations(ctx context.Context, query string) []types.Station {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinQueryLength {
		return []types.Station{}
	}

	body, err := c.get(ctx, OpStationList, url.Values{"query": {query}})
	if err != nil {
		c.logFailure("error searching stations", err, "query", query)
		return []types.Station{}
	}

	stations, err := utils.UnmarshalStationList(body)
	if err != nil {
		recordError(OpStationList)
		c.logger.Warnw("error decoding station list", "query", query, "error", err)
		return []types.Station{}
	}
	if stations == nil {
		stations = []types.Station{}
	}

	return stations
}

// NextDeparture returns the first journey on the departure board between two
// stations.
func (c *Client) NextDeparture(ctx context.Context, fromCode, toCode string) (types.Departure, error) {
	body, err := c.get(ctx, OpDepartureBoard, url.Values{
		"fromStation": {fromCode},
		"toStation":   {toCode},
	})
	if err != nil {
		return types.Departure{}, err
	}

	journeys, err := utils.UnmarshalDepartureBoard(body)
	if err != nil {
		recordError(OpDepartureBoard)
		return types.Departure{}, fmt.Errorf("decode departure board: %w", err)
	}

	if len(journeys) == 0 {
		return types.Departure{}, fmt.Errorf("%s to %s: %w", fromCode, toCode, ErrNoDepartures)
	}

	return journeys[0], nil
}

func (c *Client) get(ctx context.Context, op string, params url.Values) ([]byte, error) {
	if c.apiKey == "" {
		recordError(op)
		return nil, ErrNoAPIKey
	}

	reqURL, err := url.Parse(c.baseURL)
	if err != nil {
		recordError(op)
		return nil, fmt.Errorf("parse rail api url: %w", err)
	}

	query := reqURL.Query()
	query.Set("op", op)
	for key, values := range params {
		for _, v := range values {
			query.Add(key, v)
		}
	}
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		recordError(op)
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	requestCount.WithLabelValues(op).Inc()
	started := time.Now()

	resp, err := c.client.Do(req)
	if err != nil {
		recordError(op)
		return nil, fmt.Errorf("%s request: %w", op, err)
	}
	defer resp.Body.Close()

	requestDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())

	if resp.StatusCode != http.StatusOK {
		recordError(op)
		return nil, fmt.Errorf("%s request: HTTP %d", op, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		recordError(op)
		return nil, fmt.Errorf("%s read body: %w", op, err)
	}

	return body, nil
}

func (c *Client) logFailure(msg string, err error, keysAndValues ...interface{}) {
	keysAndValues = append(keysAndValues, "error", err)
	// a superseded search is not a failure worth a warning
	if errors.Is(err, context.Canceled) {
		c.logger.Debugw(msg, keysAndValues...)
		return
	}
	c.logger.Warnw(msg, keysAndValues...)
}

type apiTransport struct {
	APIKey    string
	UserAgent string
}

func (t *apiTransport) RoundTrip(request *http.Request) (*http.Response, error) {
	// RoundTrip must not modify the caller's request
	req := request.Clone(request.Context())

	query := req.URL.Query()
	query.Set("apiKey", t.APIKey)
	req.URL.RawQuery = query.Encode()
	req.Header.Set("User-Agent", t.UserAgent)

	return http.DefaultTransport.RoundTrip(req)
}

func newTransport(apiKey string) http.RoundTripper {
	return &apiTransport{
		APIKey:    apiKey,
		UserAgent: "journey-tracker (https://github.com/jack-barr3tt/journey-tracker)",
	}
}
