package pricing

import (
	"context"
	"fmt"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	gocache "github.com/patrickmn/go-cache"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"solswap/pkg/swaperr"
	"solswap/pkg/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Oracle fetches USD unit prices keyed by mint address. Prices are advisory
// display data only and never feed amount computation, so a short TTL cache
// in front of the API is safe.
type Oracle struct {
	client  *fasthttp.Client
	baseURL string
	timeout time.Duration
	cache   *gocache.Cache
	logger  *zap.Logger
}

// priceResponse mirrors the price API payload. Entries for unknown mints
// come back as null, hence the pointer values.
type priceResponse struct {
	Data map[string]*struct {
		ID    string `json:"id"`
		Price string `json:"price"`
	} `json:"data"`
}

// NewOracle creates a price oracle client with the given cache TTL.
func NewOracle(baseURL string, timeout time.Duration, cacheTTL time.Duration, logger *zap.Logger) *Oracle {
	return &Oracle{
		client:  &fasthttp.Client{},
		baseURL: baseURL,
		timeout: timeout,
		cache:   gocache.New(cacheTTL, 2*cacheTTL),
		logger:  logger.Named("pricing"),
	}
}

// Price returns the current USD unit price for token. Failures come back as
// classified errors so the caller can treat the price as absent.
func (o *Oracle) Price(ctx context.Context, token types.Token) (float64, error) {
	if cached, ok := o.cache.Get(token.Address); ok {
		return cached.(float64), nil
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(fmt.Sprintf("%s?ids=%s", o.baseURL, token.Address))
	req.Header.SetMethod(fasthttp.MethodGet)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = o.client.DoDeadline(req, resp, deadline)
	} else {
		err = o.client.DoTimeout(req, resp, o.timeout)
	}
	if err != nil {
		return 0, swaperr.New("pricing.price", swaperr.KindNetwork, err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return 0, swaperr.New("pricing.price", swaperr.KindNetwork,
			fmt.Errorf("price request for %s returned status %d", token.Address, resp.StatusCode()))
	}

	var parsed priceResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return 0, swaperr.New("pricing.price", swaperr.KindDecode, err)
	}

	entry := parsed.Data[token.Address]
	if entry == nil {
		return 0, swaperr.New("pricing.price", swaperr.KindNotFound,
			fmt.Errorf("no price entry for %s", token.Address))
	}

	price, err := strconv.ParseFloat(entry.Price, 64)
	if err != nil {
		return 0, swaperr.New("pricing.price", swaperr.KindDecode,
			fmt.Errorf("unparseable price %q for %s: %w", entry.Price, token.Address, err))
	}

	o.cache.SetDefault(token.Address, price)
	o.logger.Debug("fetched USD price", zap.String("mint", token.Address), zap.Float64("price", price))
	return price, nil
}
