// Package jupiter wraps the Jupiter v6 quote and swap-build endpoints.
package jupiter

import (
	"context"
	"encoding/base64"
	stdjson "encoding/json"
	"fmt"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"solswap/pkg/swaperr"
	"solswap/pkg/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client talks to the quote aggregator API.
type Client struct {
	client  *fasthttp.Client
	baseURL string
	timeout time.Duration
	logger  *zap.Logger
}

// NewClient creates a quote API client. baseURL carries no trailing slash,
// e.g. "https://quote-api.jup.ag/v6".
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		client:  &fasthttp.Client{},
		baseURL: baseURL,
		timeout: timeout,
		logger:  logger.Named("jupiter"),
	}
}

// quoteEnvelope parses the two amount fields out of the quote payload. The
// rest of the payload is opaque and round-tripped into the swap build.
type quoteEnvelope struct {
	InputMint  string `json:"inputMint"`
	OutputMint string `json:"outputMint"`
	InAmount   string `json:"inAmount"`
	OutAmount  string `json:"outAmount"`
}

// swapRequest is the swap-build request body. QuoteResponse is the raw quote
// payload exactly as received from the quote endpoint.
type swapRequest struct {
	QuoteResponse    stdjson.RawMessage `json:"quoteResponse"`
	UserPublicKey    string             `json:"userPublicKey"`
	WrapAndUnwrapSol bool               `json:"wrapAndUnwrapSol"`
}

type swapResponse struct {
	SwapTransaction string `json:"swapTransaction"`
}

// Quote fetches a priced route from src to dst for a human-entered decimal
// amount and a slippage tolerance in percent.
func (c *Client) Quote(ctx context.Context, src, dst types.Token, amount string, slippagePct float64) (*types.Quote, error) {
	if src.Same(dst) {
		return nil, swaperr.New("jupiter.quote", swaperr.KindUnavailable,
			fmt.Errorf("source and destination are the same mint %s", src.Address))
	}

	unitAmount, err := ToSmallestUnit(amount, src.Decimals)
	if err != nil {
		return nil, swaperr.New("jupiter.quote", swaperr.KindDecode, err)
	}

	url := fmt.Sprintf("%s/quote?inputMint=%s&outputMint=%s&amount=%d&slippageBps=%d",
		c.baseURL, src.Address, dst.Address, unitAmount, SlippageBps(slippagePct))
	c.logger.Debug("requesting quote", zap.String("url", url))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if err := c.do(ctx, req, resp); err != nil {
		return nil, swaperr.New("jupiter.quote", swaperr.KindNetwork, err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		kind := swaperr.KindNetwork
		if resp.StatusCode() >= 400 && resp.StatusCode() < 500 {
			// The aggregator answers 4xx when no route exists.
			kind = swaperr.KindUnavailable
		}
		return nil, swaperr.New("jupiter.quote", kind,
			fmt.Errorf("quote request returned status %d: %s", resp.StatusCode(), resp.Body()))
	}

	body := append([]byte(nil), resp.Body()...)

	var envelope quoteEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, swaperr.New("jupiter.quote", swaperr.KindDecode, err)
	}

	inAmount, err := strconv.ParseUint(envelope.InAmount, 10, 64)
	if err != nil {
		return nil, swaperr.New("jupiter.quote", swaperr.KindDecode,
			fmt.Errorf("unparseable inAmount %q: %w", envelope.InAmount, err))
	}
	outAmount, err := strconv.ParseUint(envelope.OutAmount, 10, 64)
	if err != nil {
		return nil, swaperr.New("jupiter.quote", swaperr.KindDecode,
			fmt.Errorf("unparseable outAmount %q: %w", envelope.OutAmount, err))
	}

	return &types.Quote{
		InputMint:  envelope.InputMint,
		OutputMint: envelope.OutputMint,
		InAmount:   inAmount,
		OutAmount:  outAmount,
		Raw:        body,
	}, nil
}

// BuildSwapTransaction submits the quote plus the user's public key to the
// execution endpoint and returns the decoded unsigned transaction bytes.
func (c *Client) BuildSwapTransaction(ctx context.Context, q *types.Quote, userPublicKey string) ([]byte, error) {
	payload, err := json.Marshal(swapRequest{
		QuoteResponse:    stdjson.RawMessage(q.Raw),
		UserPublicKey:    userPublicKey,
		WrapAndUnwrapSol: true,
	})
	if err != nil {
		return nil, swaperr.New("jupiter.swap", swaperr.KindDecode, err)
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(c.baseURL + "/swap")
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(payload)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if err := c.do(ctx, req, resp); err != nil {
		return nil, swaperr.New("jupiter.swap", swaperr.KindNetwork, err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, swaperr.New("jupiter.swap", swaperr.KindNetwork,
			fmt.Errorf("swap build returned status %d: %s", resp.StatusCode(), resp.Body()))
	}

	var parsed swapResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, swaperr.New("jupiter.swap", swaperr.KindDecode, err)
	}

	raw, err := base64.StdEncoding.DecodeString(parsed.SwapTransaction)
	if err != nil {
		return nil, swaperr.New("jupiter.swap", swaperr.KindDecode,
			fmt.Errorf("swap transaction is not valid base64: %w", err))
	}

	return raw, nil
}

func (c *Client) do(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error {
	if deadline, ok := ctx.Deadline(); ok {
		return c.client.DoDeadline(req, resp, deadline)
	}
	return c.client.DoTimeout(req, resp, c.timeout)
}
