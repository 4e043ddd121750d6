// Command postctl submits a classified listing from the command line through
// the same workflow the mini-app uses.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tg-market/pkg/config"
	"tg-market/pkg/listingclient"
	"tg-market/pkg/logger"
	"tg-market/pkg/submission"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	listingURL  string
	billingURL  string
	token       string
	userID      string
	postType    string
	title       string
	description string
	price       string
	currency    string
	city        string
	phone       string
	tier        string
	imagePath   string
	experience  string
	schedule    string
	workFormat  string
	listCatalog bool
	timeout     time.Duration
	verbose     bool
}

// parseFlags takes its defaults from cfg, so .env and the environment fill in
// whatever the command line leaves out.
func parseFlags(args []string, cfg *config.Config, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("postctl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	o := &options{}
	fs.StringVar(&o.listingURL, "listing-url", cfg.ListingServiceURL, "listing service base URL")
	fs.StringVar(&o.billingURL, "billing-url", cfg.BillingServiceURL, "billing service base URL")
	fs.StringVar(&o.token, "token", cfg.ClientToken, "bearer token from the auth service")
	fs.StringVar(&o.userID, "user", cfg.ClientUserID, "id of the signed-in user")
	fs.StringVar(&o.postType, "type", "job", "listing type (job, service)")
	fs.StringVar(&o.title, "title", "", "listing title")
	fs.StringVar(&o.description, "description", "", "listing description")
	fs.StringVar(&o.price, "price", "", "price, empty for negotiable")
	fs.StringVar(&o.currency, "currency", "RUB", "currency code")
	fs.StringVar(&o.city, "city", "", "city id")
	fs.StringVar(&o.phone, "phone", "", "contact phone")
	fs.StringVar(&o.tier, "tier", "", "publication package id")
	fs.StringVar(&o.imagePath, "image", "", "path to a photo (tiers with photos only)")
	fs.StringVar(&o.experience, "experience", "", "job: required experience")
	fs.StringVar(&o.schedule, "schedule", "", "job: schedule")
	fs.StringVar(&o.workFormat, "work-format", "", "job: work format")
	fs.BoolVar(&o.listCatalog, "catalog", false, "print cities, currencies and tiers, then exit")
	fs.DurationVar(&o.timeout, "timeout", 30*time.Second, "overall timeout")
	fs.BoolVar(&o.verbose, "v", false, "log requests")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if o.token == "" {
		return nil, errors.New("-token is required")
	}
	if o.userID == "" && !o.listCatalog {
		return nil, errors.New("-user is required")
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, "postctl:", err)
		return 2
	}

	opts, err := parseFlags(args, cfg, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(stderr, "postctl:", err)
		}
		return 2
	}

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	log := logger.Discard()
	if opts.verbose {
		log = logger.NewWithWriter(stderr)
	}

	client := listingclient.New(listingclient.Options{
		ListingURL: opts.listingURL,
		BillingURL: opts.billingURL,
		Token:      opts.token,
		Logger:     log,
	})

	catalog, err := client.LoadCatalog(ctx)
	if err != nil {
		fmt.Fprintln(stderr, submission.UserMessage(err))
		return 1
	}

	if opts.listCatalog {
		printCatalog(stdout, catalog)
		return 0
	}

	res, err := submit(ctx, opts, catalog, client, log)
	var badFlag *flagError
	if errors.As(err, &badFlag) {
		fmt.Fprintln(stderr, "postctl:", badFlag.err)
		return 2
	}
	if err != nil {
		fmt.Fprintln(stderr, submission.UserMessage(err))
		if opts.verbose {
			fmt.Fprintln(stderr, "  cause:", err)
		}
		var verrs submission.ValidationErrors
		if errors.As(err, &verrs) {
			for _, f := range verrs.Fields() {
				fmt.Fprintf(stderr, "  %s: %s\n", f, verrs[f])
			}
		}
		return 1
	}

	fmt.Fprintf(stdout, "listing %s created\n", res.ListingID)
	if res.PaymentID != "" {
		fmt.Fprintf(stdout, "payment %s is pending; the listing goes to moderation once it is paid\n", res.PaymentID)
	}
	return 0
}

// flagError marks input that never reached a service.
type flagError struct {
	err error
}

func (e *flagError) Error() string { return e.err.Error() }

func (e *flagError) Unwrap() error { return e.err }

func submit(ctx context.Context, opts *options, catalog *submission.Catalog, client *listingclient.Client, log *logger.Logger) (submission.Result, error) {
	postType, err := submission.ParsePostType(opts.postType)
	if err != nil {
		return submission.Result{}, &flagError{err}
	}

	wf, err := submission.New(submission.Config{
		User:        submission.User{ID: opts.userID},
		Catalog:     catalog,
		Eligibility: client,
		Purchases:   client,
		Listings:    client,
		Logger:      log,
	}, postType)
	if err != nil {
		return submission.Result{}, err
	}
	defer wf.Close()

	fields := []struct {
		field submission.Field
		value string
	}{
		{submission.FieldTitle, opts.title},
		{submission.FieldDescription, opts.description},
		{submission.FieldPrice, opts.price},
		{submission.FieldCurrency, opts.currency},
		{submission.FieldCity, opts.city},
		{submission.FieldPhone, opts.phone},
		{submission.FieldTier, opts.tier},
		{submission.FieldExperience, opts.experience},
		{submission.FieldSchedule, opts.schedule},
		{submission.FieldWorkFormat, opts.workFormat},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if err := wf.UpdateField(f.field, f.value); err != nil {
			return submission.Result{}, &flagError{fmt.Errorf("%s: %w", f.field, err)}
		}
	}

	if opts.imagePath != "" {
		file, err := os.Open(opts.imagePath)
		if err != nil {
			return submission.Result{}, &flagError{err}
		}
		defer file.Close()
		if err := wf.SelectImage(file.Name(), file); err != nil {
			return submission.Result{}, err
		}
	}

	return wf.Submit(ctx)
}

func printCatalog(w io.Writer, catalog *submission.Catalog) {
	fmt.Fprintln(w, "Cities:")
	for _, c := range catalog.Cities {
		fmt.Fprintf(w, "  %s  %s\n", c.ID, c.Name)
	}
	fmt.Fprintln(w, "Currencies:")
	for _, c := range catalog.Currencies {
		fmt.Fprintf(w, "  %s  %s\n", c.ID, c.Symbol)
	}
	fmt.Fprintln(w, "Tiers:")
	for _, t := range catalog.Tiers {
		photo := ""
		if t.AllowsImage {
			photo = "  +photo"
		}
		fmt.Fprintf(w, "  %s  %s  %s %s%s\n", t.ID, t.Name, t.Price.StringFixed(2), t.CurrencyID, photo)
	}
}
