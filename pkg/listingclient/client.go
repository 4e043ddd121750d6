// Package listingclient talks to the listing and billing services over HTTP
// on behalf of a submission workflow.
package listingclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"tg-market/pkg/logger"
	"tg-market/pkg/submission"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

const defaultTimeout = 15 * time.Second

type Options struct {
	ListingURL string
	BillingURL string
	Token      string
	Timeout    time.Duration
	Logger     *logger.Logger
}

// Client implements the submission collaborators against the HTTP services.
type Client struct {
	listing *resty.Client
	billing *resty.Client
	log     *logger.Logger
}

var (
	_ submission.EligibilityChecker = (*Client)(nil)
	_ submission.PurchaseInitiator  = (*Client)(nil)
	_ submission.ListingCreator     = (*Client)(nil)
)

func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	return &Client{
		listing: newResty(opts.ListingURL, opts.Token, opts.Timeout),
		billing: newResty(opts.BillingURL, opts.Token, opts.Timeout),
		log:     opts.Logger,
	}
}

func newResty(baseURL, token string, timeout time.Duration) *resty.Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "tg-market-client/1.0")
	if token != "" {
		c.SetAuthToken(token)
	}
	return c
}

type apiError struct {
	Error      string     `json:"error"`
	NextFreeAt *time.Time `json:"next_free_at,omitempty"`
}

type freePostStatusResponse struct {
	Eligible       bool       `json:"eligible"`
	NextEligibleAt *time.Time `json:"next_eligible_at"`
}

type paymentRequest struct {
	PackageID string `json:"package_id"`
}

type paymentResponse struct {
	ID         string          `json:"id"`
	Status     string          `json:"status"`
	Amount     decimal.Decimal `json:"amount"`
	CurrencyID string          `json:"currency_id"`
}

type createListingRequest struct {
	submission.Payload
	AuthorID string `json:"author_id"`
}

type createListingResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (c *Client) CheckFreePost(ctx context.Context, userID string) (submission.Eligibility, error) {
	var out freePostStatusResponse
	req := c.listing.R().
		SetContext(ctx).
		SetPathParam("user_id", userID).
		SetResult(&out)

	if _, err := c.send(req, http.MethodGet, "/api/v1/users/{user_id}/free-post-status"); err != nil {
		return submission.Eligibility{}, err
	}

	el := submission.Eligibility{Eligible: out.Eligible}
	if out.NextEligibleAt != nil {
		el.NextEligibleAt = *out.NextEligibleAt
	}
	c.log.Info("[FREE POST] user=%s eligible=%t", userID, el.Eligible)
	return el, nil
}

// InitiatePurchase opens a pending payment for the tier. The billing service
// takes the payer from the bearer token; userID is only logged.
func (c *Client) InitiatePurchase(ctx context.Context, userID, tierID string) (submission.Purchase, error) {
	var out paymentResponse
	req := c.billing.R().
		SetContext(ctx).
		SetBody(paymentRequest{PackageID: tierID}).
		SetResult(&out)

	if _, err := c.send(req, http.MethodPost, "/api/v1/payments"); err != nil {
		return submission.Purchase{}, err
	}

	c.log.Info("[PAYMENT] user=%s package=%s payment=%s amount=%s %s", userID, tierID, out.ID, out.Amount.StringFixed(2), out.CurrencyID)
	return submission.Purchase{ID: out.ID, Status: out.Status}, nil
}

func (c *Client) CreateJobListing(ctx context.Context, p submission.Payload, authorID string) (string, error) {
	return c.createListing(ctx, "/api/v1/listings/jobs", p, authorID)
}

func (c *Client) CreateServiceListing(ctx context.Context, p submission.Payload, authorID string) (string, error) {
	return c.createListing(ctx, "/api/v1/listings/services", p, authorID)
}

func (c *Client) createListing(ctx context.Context, path string, p submission.Payload, authorID string) (string, error) {
	var out createListingResponse
	req := c.listing.R().
		SetContext(ctx).
		SetBody(createListingRequest{Payload: p, AuthorID: authorID}).
		SetResult(&out)

	if _, err := c.send(req, http.MethodPost, path); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("%w: create listing response has no id", submission.ErrTransport)
	}
	return out.ID, nil
}

type catalogResponse struct {
	Categories []struct {
		ID     string `json:"id"`
		Slug   string `json:"slug"`
		NameRU string `json:"name_ru"`
	} `json:"categories"`
	Cities []struct {
		ID     string `json:"id"`
		NameRU string `json:"name_ru"`
	} `json:"cities"`
	Currencies []struct {
		ID     string `json:"id"`
		Symbol string `json:"symbol"`
	} `json:"currencies"`
	CategoryByType map[string]string `json:"category_by_type"`
}

type packagesResponse struct {
	Packages []struct {
		ID           string          `json:"id"`
		NameRU       string          `json:"name_ru"`
		Price        decimal.Decimal `json:"price"`
		CurrencyID   string          `json:"currency_id"`
		DurationDays int             `json:"duration_days"`
		HasPhoto     bool            `json:"has_photo"`
	} `json:"packages"`
}

// LoadCatalog merges the listing service reference data with the billing tiers.
func (c *Client) LoadCatalog(ctx context.Context) (*submission.Catalog, error) {
	var ref catalogResponse
	if _, err := c.send(c.listing.R().SetContext(ctx).SetResult(&ref), http.MethodGet, "/api/v1/catalog"); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	var pkgs packagesResponse
	if _, err := c.send(c.billing.R().SetContext(ctx).SetResult(&pkgs), http.MethodGet, "/api/v1/packages"); err != nil {
		return nil, fmt.Errorf("load packages: %w", err)
	}

	catalog := &submission.Catalog{CategoryByType: make(map[submission.PostType]string, len(ref.CategoryByType))}
	for _, cat := range ref.Categories {
		catalog.Categories = append(catalog.Categories, submission.Category{ID: cat.ID, Name: cat.NameRU})
	}
	for _, city := range ref.Cities {
		catalog.Cities = append(catalog.Cities, submission.City{ID: city.ID, Name: city.NameRU})
	}
	for _, cur := range ref.Currencies {
		catalog.Currencies = append(catalog.Currencies, submission.Currency{ID: cur.ID, Symbol: cur.Symbol})
	}
	for _, p := range pkgs.Packages {
		catalog.Tiers = append(catalog.Tiers, submission.Tier{
			ID:           p.ID,
			Name:         p.NameRU,
			Price:        p.Price,
			CurrencyID:   p.CurrencyID,
			DurationDays: p.DurationDays,
			AllowsImage:  p.HasPhoto,
		})
	}
	for postType, categoryID := range ref.CategoryByType {
		pt, err := submission.ParsePostType(postType)
		if err != nil {
			c.log.Warn("[CATALOG] skipping category mapping for %q: %v", postType, err)
			continue
		}
		catalog.CategoryByType[pt] = categoryID
	}
	return catalog, nil
}

// send executes req and sorts failures: no response or a 5xx is a transport
// error, any other non-2xx is the server refusing the request.
func (c *Client) send(req *resty.Request, method, path string) (*resty.Response, error) {
	req.SetError(&apiError{})

	resp, err := req.Execute(method, path)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %s %s: %w", submission.ErrTransport, method, path, ctxErr)
		}
		return nil, fmt.Errorf("%w: %s %s: %v", submission.ErrTransport, method, path, err)
	}

	status := resp.StatusCode()
	switch {
	case status >= http.StatusInternalServerError:
		c.log.Error("%s %s: server error %d", method, path, status)
		return resp, fmt.Errorf("%w: %s %s: status %d", submission.ErrTransport, method, path, status)
	case resp.IsError():
		return resp, rejection(resp)
	}
	return resp, nil
}

func rejection(resp *resty.Response) error {
	body, _ := resp.Error().(*apiError)
	rejected := &submission.RejectedError{StatusCode: resp.StatusCode()}
	if body != nil {
		rejected.Message = body.Error
	}

	if resp.StatusCode() == http.StatusConflict && body != nil && body.NextFreeAt != nil {
		return errors.Join(rejected, &submission.FreePostUnavailableError{NextEligibleAt: *body.NextFreeAt})
	}
	return rejected
}
