// Package submission turns form input and a chosen tier into one created listing.
//
// A Workflow owns a single draft. It validates the draft, runs the free-post
// eligibility check or the tier purchase, compresses an attached image, and
// commits the listing through exactly one create call.
package submission

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"tg-market/pkg/logger"

	"github.com/gabriel-vasile/mimetype"
	"github.com/shopspring/decimal"
)

type Eligibility struct {
	Eligible       bool      `json:"eligible"`
	NextEligibleAt time.Time `json:"next_eligible_at"`
}

type Purchase struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type EligibilityChecker interface {
	CheckFreePost(ctx context.Context, userID string) (Eligibility, error)
}

type PurchaseInitiator interface {
	InitiatePurchase(ctx context.Context, userID, tierID string) (Purchase, error)
}

// ListingCreator commits a payload and returns the new listing id.
type ListingCreator interface {
	CreateJobListing(ctx context.Context, p Payload, authorID string) (string, error)
	CreateServiceListing(ctx context.Context, p Payload, authorID string) (string, error)
}

// Payload is the normalized body sent to the create-listing operation.
type Payload struct {
	PostType    PostType            `json:"post_type"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Price       decimal.NullDecimal `json:"price"`
	CurrencyID  string              `json:"currency_id"`
	CityID      string              `json:"city_id"`
	CategoryID  string              `json:"category_id"`
	Phone       string              `json:"phone,omitempty"`
	Experience  Experience          `json:"experience,omitempty"`
	Schedule    Schedule            `json:"schedule,omitempty"`
	WorkFormat  WorkFormat          `json:"work_format,omitempty"`
	TierID      string              `json:"package_id"`
	PaymentID   string              `json:"payment_id,omitempty"`
	Image       string              `json:"image,omitempty"`
}

type Result struct {
	ListingID string
	PaymentID string
}

type User struct {
	ID   string
	Name string
}

// Config is everything a workflow needs, fixed at construction.
type Config struct {
	User        User
	Catalog     *Catalog
	Eligibility EligibilityChecker
	Purchases   PurchaseInitiator
	Listings    ListingCreator
	Logger      *logger.Logger

	MaxImageBytes int64
	MaxImageWidth int
	ImageQuality  float64
}

func (c *Config) applyDefaults() {
	if c.Logger == nil {
		c.Logger = logger.Discard()
	}
	if c.MaxImageBytes <= 0 {
		c.MaxImageBytes = DefaultMaxImageBytes
	}
	if c.MaxImageWidth <= 0 {
		c.MaxImageWidth = DefaultMaxImageWidth
	}
	if c.ImageQuality <= 0 || c.ImageQuality > 1 {
		c.ImageQuality = DefaultImageQuality
	}
}

func (c *Config) check() error {
	switch {
	case c.User.ID == "":
		return errors.New("submission: user id is required")
	case c.Catalog == nil:
		return errors.New("submission: catalog is required")
	case c.Eligibility == nil:
		return errors.New("submission: eligibility checker is required")
	case c.Purchases == nil:
		return errors.New("submission: purchase initiator is required")
	case c.Listings == nil:
		return errors.New("submission: listing creator is required")
	}
	return nil
}

type Workflow struct {
	cfg Config

	mu         sync.Mutex
	draft      Draft
	errs       ValidationErrors
	image      *Image
	submitting bool
	closed     bool
}

func New(cfg Config, postType PostType) (*Workflow, error) {
	if err := cfg.check(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	draft, err := NewDraft(postType)
	if err != nil {
		return nil, err
	}

	return &Workflow{
		cfg:   cfg,
		draft: draft,
		errs:  ValidationErrors{},
	}, nil
}

func (w *Workflow) Draft() Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

// Errors returns the field errors from the last validation, minus fields edited since.
func (w *Workflow) Errors() ValidationErrors {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.copyErrs()
}

func (w *Workflow) Image() *Image {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.image
}

func (w *Workflow) Submitting() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitting
}

func (w *Workflow) UpdateField(field Field, value any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWorkflowClosed
	}

	next, err := w.draft.set(field, value)
	if err != nil {
		return err
	}
	w.draft = next
	delete(w.errs, field)
	return nil
}

func (w *Workflow) SelectImage(name string, r io.Reader) error {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return ErrWorkflowClosed
	}

	img, err := LoadImage(name, r, w.cfg.MaxImageBytes)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWorkflowClosed
	}
	w.image = img
	delete(w.errs, FieldImage)
	return nil
}

func (w *Workflow) ClearImage() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.image = nil
}

// Validate runs the field checks and records the result for Errors.
func (w *Workflow) Validate() ValidationErrors {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.errs = Validate(w.draft, w.cfg.Catalog)
	return w.copyErrs()
}

// copyErrs expects mu to be held.
func (w *Workflow) copyErrs() ValidationErrors {
	out := make(ValidationErrors, len(w.errs))
	for k, v := range w.errs {
		out[k] = v
	}
	return out
}

// Close discards the draft and image. A submit still in flight finishes
// remotely but its outcome is dropped.
func (w *Workflow) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	w.draft = Draft{}
	w.image = nil
	w.errs = ValidationErrors{}
}

// Submit runs the pipeline once. Only one call may be in flight; a concurrent
// call returns ErrSubmitInProgress without contacting any collaborator.
// On success the workflow is consumed; on failure the draft is kept for a retry.
func (w *Workflow) Submit(ctx context.Context) (Result, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return Result{}, ErrWorkflowClosed
	}
	if w.submitting {
		w.mu.Unlock()
		return Result{}, ErrSubmitInProgress
	}

	errs := Validate(w.draft, w.cfg.Catalog)
	category, ok := w.cfg.Catalog.CategoryFor(w.draft.PostType())
	if !ok {
		errs[FieldCategory] = "no category for post type"
	}
	if len(errs) > 0 {
		w.errs = errs
		w.mu.Unlock()
		return Result{}, errs
	}

	w.submitting = true
	draft := w.draft
	img := w.image
	w.mu.Unlock()

	res, err := w.run(ctx, draft, img, category)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.submitting = false

	if w.closed {
		if err == nil {
			w.cfg.Logger.Warn("[SUBMIT] listing=%s created after the form was closed", res.ListingID)
		}
		return Result{}, ErrWorkflowClosed
	}
	if err != nil {
		w.cfg.Logger.Warn("[SUBMIT] user=%s submit failed: %v", w.cfg.User.ID, err)
		return Result{}, err
	}

	w.cfg.Logger.Info("[SUBMIT] user=%s created listing=%s", w.cfg.User.ID, res.ListingID)
	w.closed = true
	w.draft = Draft{}
	w.image = nil
	return res, nil
}

func (w *Workflow) run(ctx context.Context, draft Draft, img *Image, category Category) (Result, error) {
	tier, _ := w.cfg.Catalog.Tier(draft.TierID)
	userID := w.cfg.User.ID

	var res Result
	if tier.IsFree() {
		el, err := w.cfg.Eligibility.CheckFreePost(ctx, userID)
		if err != nil {
			return Result{}, fmt.Errorf("check free post eligibility: %w", err)
		}
		if !el.Eligible {
			return Result{}, &FreePostUnavailableError{NextEligibleAt: el.NextEligibleAt}
		}
	} else {
		purchase, err := w.cfg.Purchases.InitiatePurchase(ctx, userID, tier.ID)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrPaymentInitiationFailed, err)
		}
		res.PaymentID = purchase.ID
	}

	var imageRef string
	if img != nil {
		if !tier.AllowsImage {
			w.cfg.Logger.Info("[SUBMIT] tier %s does not allow images, dropping %s", tier.ID, img.Name)
		} else {
			ref, err := w.imageRef(ctx, img)
			if err != nil {
				return Result{}, err
			}
			imageRef = ref
		}
	}

	payload := buildPayload(draft, category.ID, tier.ID, res.PaymentID, imageRef)

	var (
		id  string
		err error
	)
	if draft.PostType() == PostTypeJob {
		id, err = w.cfg.Listings.CreateJobListing(ctx, payload, userID)
	} else {
		id, err = w.cfg.Listings.CreateServiceListing(ctx, payload, userID)
	}
	if err != nil {
		if errors.Is(err, ErrTransport) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Result{}, fmt.Errorf("create listing: %w", err)
		}
		return Result{}, fmt.Errorf("%w: %w", ErrSubmissionRejected, err)
	}

	res.ListingID = id
	return res, nil
}

func (w *Workflow) imageRef(ctx context.Context, img *Image) (string, error) {
	data, err := CompressImage(ctx, img.Data, w.cfg.MaxImageWidth, w.cfg.ImageQuality)
	if errors.Is(err, ErrImageDecode) {
		// Formats we cannot decode go out as selected.
		w.cfg.Logger.Warn("[SUBMIT] sending %s uncompressed: %v", img.Name, err)
		return DataURI(img.MIME, img.Data), nil
	}
	if err != nil {
		return "", err
	}
	return DataURI(mimetype.Detect(data).String(), data), nil
}

func buildPayload(d Draft, categoryID, tierID, paymentID, imageRef string) Payload {
	p := Payload{
		PostType:    d.PostType(),
		Title:       d.Title,
		Description: d.Description,
		Price:       d.Price,
		CurrencyID:  d.CurrencyID,
		CityID:      d.CityID,
		CategoryID:  categoryID,
		Phone:       d.Phone,
		TierID:      tierID,
		PaymentID:   paymentID,
		Image:       imageRef,
	}
	if job, ok := d.Details.(JobDetails); ok {
		p.Experience = job.Experience
		p.Schedule = job.Schedule
		p.WorkFormat = job.WorkFormat
	}
	return p
}
