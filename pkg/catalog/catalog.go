package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"solswap/pkg/swaperr"
	"solswap/pkg/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Loader fetches the verified token list. The list is loaded once per
// session; callers keep the returned slice and treat it as read-only.
type Loader struct {
	client  *fasthttp.Client
	url     string
	timeout time.Duration
	logger  *zap.Logger
}

// NewLoader creates a token catalog loader.
func NewLoader(url string, timeout time.Duration, logger *zap.Logger) *Loader {
	return &Loader{
		client:  &fasthttp.Client{},
		url:     url,
		timeout: timeout,
		logger:  logger.Named("catalog"),
	}
}

// Load fetches the token list. Failures are classified so the caller can
// degrade to an empty catalog instead of interrupting the user.
func (l *Loader) Load(ctx context.Context) ([]types.Token, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(l.url)
	req.Header.SetMethod(fasthttp.MethodGet)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if err := doRequest(ctx, l.client, req, resp, l.timeout); err != nil {
		return nil, swaperr.New("catalog.load", swaperr.KindNetwork, err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, swaperr.New("catalog.load", swaperr.KindNetwork,
			fmt.Errorf("token list request returned status %d", resp.StatusCode()))
	}

	var tokens []types.Token
	if err := json.Unmarshal(resp.Body(), &tokens); err != nil {
		return nil, swaperr.New("catalog.load", swaperr.KindDecode, err)
	}

	l.logger.Debug("loaded token catalog", zap.Int("count", len(tokens)))
	return tokens, nil
}

// FindBySymbol looks a token up by its symbol, exact match first and then
// substring, both case-insensitive.
func FindBySymbol(tokens []types.Token, symbol string) (types.Token, bool) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	for _, t := range tokens {
		if strings.ToUpper(t.Symbol) == symbol {
			return t, true
		}
	}

	for _, t := range tokens {
		if strings.Contains(strings.ToUpper(t.Symbol), symbol) {
			return t, true
		}
	}

	return types.Token{}, false
}

// FindByAddress looks a token up by its mint address.
func FindByAddress(tokens []types.Token, address string) (types.Token, bool) {
	for _, t := range tokens {
		if t.Address == address {
			return t, true
		}
	}
	return types.Token{}, false
}

// doRequest executes req honoring the context deadline when one is set.
func doRequest(ctx context.Context, client *fasthttp.Client, req *fasthttp.Request, resp *fasthttp.Response, timeout time.Duration) error {
	if deadline, ok := ctx.Deadline(); ok {
		return client.DoDeadline(req, resp, deadline)
	}
	return client.DoTimeout(req, resp, timeout)
}
