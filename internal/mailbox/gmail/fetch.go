// Package gmail is the Gmail implementation of mailbox.Source.
package gmail

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	gmailv1 "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"

	"jobtrail/internal/mailbox"
)

const (
	user = "me"

	defaultSubject = "No Subject"
	defaultSender  = "Unknown Sender"
)

// FetchOptions bounds a fetch. MaxResults caps the number of messages per
// fetch across pages; Workers bounds concurrent metadata requests.
type FetchOptions struct {
	MaxResults int64
	Workers    int
}

// Fetcher lists messages received after a date and reads their metadata
// with a small worker pool. Per-message Get calls go through a circuit
// breaker so a failing API stops being hammered mid-batch.
type Fetcher struct {
	svc    *gmailv1.Service
	opts   FetchOptions
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

var _ mailbox.Source = (*Fetcher)(nil)

func NewFetcher(svc *gmailv1.Service, opts FetchOptions, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = 50
	}
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "gmail-get",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures > 5 ||
				(c.Requests >= 10 && float64(c.TotalFailures)/float64(c.Requests) >= 0.6)
		},
		IsSuccessful: func(err error) bool { return err == nil || isClientError(err) },
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return &Fetcher{svc: svc, opts: opts, cb: cb, logger: logger}
}

// isClientError reports 4xx responses other than rate limiting. They say
// nothing about the API's health, so they do not trip the breaker.
func isClientError(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != http.StatusTooManyRequests
}

// Query is the Gmail search expression for messages after the given day.
func Query(after time.Time) string {
	return "after:" + after.Format("2006/01/02")
}

// Fetch returns up to MaxResults messages in the order Gmail lists them.
// A listing error fails the whole fetch; a message that cannot be read is
// logged and counted in Batch.Skipped.
func (f *Fetcher) Fetch(ctx context.Context, after time.Time) (mailbox.Batch, error) {
	ids, err := f.listIDs(ctx, Query(after))
	if err != nil {
		return mailbox.Batch{}, err
	}
	if len(ids) == 0 {
		return mailbox.Batch{}, nil
	}

	type job struct {
		idx int
		id  string
	}
	jobs := make(chan job)
	out := make([]*mailbox.RawMessage, len(ids))

	workers := f.opts.Workers
	if workers > len(ids) {
		workers = len(ids)
	}
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				msg, err := f.get(ctx, j.id)
				if err != nil {
					f.logger.Warn("Skipping unreadable message", zap.String("message_id", j.id), zap.Error(err))
					continue
				}
				raw := toRawMessage(msg)
				out[j.idx] = &raw
			}
		}()
	}

queue:
	for i, id := range ids {
		select {
		case <-ctx.Done():
			break queue
		case jobs <- job{idx: i, id: id}:
		}
	}
	close(jobs)
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return mailbox.Batch{}, err
	}

	batch := mailbox.Batch{Messages: make([]mailbox.RawMessage, 0, len(ids))}
	for _, m := range out {
		if m == nil {
			batch.Skipped++
			continue
		}
		batch.Messages = append(batch.Messages, *m)
	}
	f.logger.Info("Fetched messages",
		zap.Int("listed", len(ids)),
		zap.Int("read", len(batch.Messages)),
		zap.Int("skipped", batch.Skipped))
	return batch, nil
}

func (f *Fetcher) listIDs(ctx context.Context, q string) ([]string, error) {
	var ids []string
	pageToken := ""
	for int64(len(ids)) < f.opts.MaxResults {
		call := f.svc.Users.Messages.List(user).
			Q(q).
			MaxResults(f.opts.MaxResults - int64(len(ids))).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list messages: %w", err)
		}
		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
		}
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}
	if int64(len(ids)) > f.opts.MaxResults {
		ids = ids[:f.opts.MaxResults]
	}
	return ids, nil
}

func (f *Fetcher) get(ctx context.Context, id string) (*gmailv1.Message, error) {
	v, err := f.cb.Execute(func() (interface{}, error) {
		return f.svc.Users.Messages.Get(user, id).
			Format("metadata").
			MetadataHeaders("From", "Subject").
			Context(ctx).
			Do()
	})
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", id, err)
	}
	return v.(*gmailv1.Message), nil
}

// toRawMessage maps Gmail metadata to a RawMessage. Missing or blank headers
// get the "No Subject" and "Unknown Sender" placeholders. The received time
// is Gmail's internalDate (milliseconds since the epoch), not the Date
// header; a message without one keeps the zero time.
func toRawMessage(msg *gmailv1.Message) mailbox.RawMessage {
	raw := mailbox.RawMessage{ID: msg.Id, Snippet: msg.Snippet}
	if msg.InternalDate > 0 {
		raw.ReceivedAt = time.UnixMilli(msg.InternalDate).UTC()
	}
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			switch strings.ToLower(h.Name) {
			case "subject":
				if raw.Subject == "" {
					raw.Subject = strings.TrimSpace(h.Value)
				}
			case "from":
				if raw.Sender == "" {
					raw.Sender = strings.TrimSpace(h.Value)
				}
			}
		}
	}
	if raw.Subject == "" {
		raw.Subject = defaultSubject
	}
	if raw.Sender == "" {
		raw.Sender = defaultSender
	}
	return raw
}
