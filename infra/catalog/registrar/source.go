package registrar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/classplan/auth"
	"github.com/kilianp07/classplan/core/catalog"
	"github.com/kilianp07/classplan/core/factory"
	"github.com/kilianp07/classplan/core/model"
	"github.com/kilianp07/classplan/infra/logger"
)

// Source scrapes the public course registrar.
type Source struct {
	cfg       Config
	client    *http.Client
	log       logger.Logger
	retryBase time.Duration
}

func init() {
	_ = catalog.RegisterSource("html", func(conf map[string]any) (catalog.Source, error) {
		var cfg Config
		if err := factory.Decode(conf, &cfg); err != nil {
			return nil, err
		}
		return New(cfg)
	})
}

func New(cfg Config) (*Source, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Source{
		cfg:       cfg,
		client:    auth.Client(cfg.Auth, &http.Client{Timeout: cfg.timeout()}),
		log:       logger.New("registrar"),
		retryBase: 500 * time.Millisecond,
	}, nil
}

func (s *Source) Name() string { return "html" }

// Fetch downloads the section tables of every configured class. Individual
// class pages that keep failing are skipped; the fetch fails only when none
// could be read.
func (s *Source) Fetch(ctx context.Context) (*catalog.Catalog, error) {
	year, term := s.cfg.Year, s.cfg.Term
	if year == "" {
		var err error
		if year, term, err = s.detectTerm(ctx); err != nil {
			return nil, err
		}
	}
	classes, err := s.listClasses(ctx, year, term)
	if err != nil {
		return nil, err
	}
	if len(classes) == 0 {
		return nil, fmt.Errorf("registrar %s/%s: no classes found", year, term)
	}

	sections := make([][]model.Section, len(classes))
	failures := make([]error, len(classes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, c := range classes {
		g.Go(func() error {
			doc, err := s.get(gctx, s.url("schedule", year, term, c.key.Subject, c.key.Number))
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				failures[i] = err
				return nil
			}
			secs, skipped := parseSections(doc)
			for _, e := range skipped {
				s.log.Warnf("%s: skipping row: %v", c.key, e)
			}
			sections[i] = secs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b := catalog.NewBuilder(catalog.Meta{Source: s.Name(), Term: year + "/" + term, FetchedAt: time.Now().UTC()})
	var failed []error
	for i, c := range classes {
		if failures[i] != nil {
			s.log.Warnf("%s: %v", c.key, failures[i])
			failed = append(failed, failures[i])
			continue
		}
		b.SetTitle(c.key, c.title)
		for _, sec := range sections[i] {
			if err := b.Add(c.key, sec); err != nil {
				s.log.Warnf("%v", err)
			}
		}
	}
	if len(failed) == len(classes) {
		return nil, fmt.Errorf("registrar: every class page failed: %w", errors.Join(failed...))
	}
	cat := b.Build()
	s.log.Infow("registrar fetched", map[string]any{
		"term":     year + "/" + term,
		"classes":  cat.Len(),
		"sections": cat.SectionCount(),
		"failed":   len(failed),
	})
	return cat, nil
}

func (s *Source) detectTerm(ctx context.Context) (string, string, error) {
	doc, err := s.get(ctx, s.url())
	if err != nil {
		return "", "", fmt.Errorf("detect term: %w", err)
	}
	year, term, ok := parseTerm(doc)
	if !ok {
		return "", "", errors.New("detect term: no schedule link on landing page")
	}
	return year, term, nil
}

func (s *Source) listClasses(ctx context.Context, year, term string) ([]listedClass, error) {
	if len(s.cfg.Classes) > 0 {
		out := make([]listedClass, 0, len(s.cfg.Classes))
		for _, raw := range s.cfg.Classes {
			k, err := model.ParseClassKey(raw)
			if err != nil {
				return nil, err
			}
			out = append(out, listedClass{key: k})
		}
		return out, nil
	}
	subjects := s.cfg.Subjects
	if len(subjects) == 0 {
		doc, err := s.get(ctx, s.url("catalog", year, term))
		if err != nil {
			return nil, fmt.Errorf("list subjects: %w", err)
		}
		subjects = parseSubjects(doc)
	}
	perSubject := make([][]listedClass, len(subjects))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, subj := range subjects {
		g.Go(func() error {
			doc, err := s.get(gctx, s.url("schedule", year, term, subj))
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.log.Warnf("subject %s: %v", subj, err)
				return nil
			}
			perSubject[i] = parseClasses(subj, doc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var out []listedClass
	for _, cs := range perSubject {
		out = append(out, cs...)
	}
	return out, nil
}

func (s *Source) url(parts ...string) string {
	if len(parts) == 0 {
		return s.cfg.BaseURL
	}
	return s.cfg.BaseURL + "/" + strings.Join(parts, "/")
}

// get fetches and parses a page. Network errors, 429 and 5xx responses are
// retried with exponential backoff; other statuses fail immediately.
func (s *Source) get(ctx context.Context, url string) (*goquery.Document, error) {
	var doc *goquery.Document
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", s.cfg.UserAgent)
		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("GET %s: %s", url, resp.Status)
		case resp.StatusCode != http.StatusOK:
			return backoff.Permanent(fmt.Errorf("GET %s: %s", url, resp.Status))
		}
		doc, err = parseDocument(resp.Body)
		return err
	}
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = s.retryBase
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(s.cfg.MaxRetries)), ctx)
	err := backoff.RetryNotify(op, policy, func(err error, wait time.Duration) {
		s.log.Debugf("retry in %s: %v", wait, err)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}
