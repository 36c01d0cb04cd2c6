package crypto

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/lims-qc/identity-service/internal/api/metrics"
)

const (
	defaultWorkers = 4
	queueBuffer    = 64
)

const (
	opHash    = "hash"
	opCompare = "compare"
)

type hashJob struct {
	op        string
	plaintext []byte
	hash      []byte
	reply     chan hashResult
}

type hashResult struct {
	hash  string
	match bool
	err   error
}

// BcryptHasher hashes and verifies passwords on a fixed pool of workers.
// bcrypt is deliberately slow, so the pool caps how many hashes run at once:
// a burst of registrations queues up instead of saturating every CPU, and
// unrelated requests keep making progress. Callers block on a reply channel
// and can abandon the wait through their context.
type BcryptHasher struct {
	cost int
	jobs chan hashJob
	log  zerolog.Logger
}

// NewBcryptHasher starts numWorkers hashing goroutines. Cost outside the
// bcrypt bounds falls back to bcrypt.DefaultCost; numWorkers <= 0 falls back
// to defaultWorkers. Call Close once no more requests will arrive.
func NewBcryptHasher(cost, numWorkers int, log zerolog.Logger) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}

	h := &BcryptHasher{
		cost: cost,
		jobs: make(chan hashJob, queueBuffer),
		log:  log,
	}
	for i := 0; i < numWorkers; i++ {
		go h.runWorker(i)
	}
	return h
}

// Hash returns a salted bcrypt hash of plaintext. The salt is random per
// call, so hashing the same plaintext twice yields different strings.
func (h *BcryptHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	start := time.Now()
	res, err := h.submit(ctx, hashJob{op: opHash, plaintext: []byte(plaintext)})
	if err != nil {
		return "", err
	}
	metrics.PasswordHashDuration.WithLabelValues(opHash).Observe(time.Since(start).Seconds())
	if res.err != nil {
		return "", fmt.Errorf("bcrypt hash: %w", res.err)
	}
	return res.hash, nil
}

// Compare reports whether plaintext matches hash. A plain mismatch is
// (false, nil); any other bcrypt failure (malformed hash, truncated input)
// is an infrastructure error so callers never mistake it for a wrong
// password.
func (h *BcryptHasher) Compare(ctx context.Context, plaintext, hash string) (bool, error) {
	start := time.Now()
	res, err := h.submit(ctx, hashJob{op: opCompare, plaintext: []byte(plaintext), hash: []byte(hash)})
	if err != nil {
		return false, err
	}
	metrics.PasswordHashDuration.WithLabelValues(opCompare).Observe(time.Since(start).Seconds())
	if res.err != nil {
		return false, fmt.Errorf("bcrypt compare: %w", res.err)
	}
	return res.match, nil
}

// Close stops the workers after the queued jobs drain. Submitting after
// Close panics, so shut the transport down first.
func (h *BcryptHasher) Close() {
	close(h.jobs)
}

func (h *BcryptHasher) submit(ctx context.Context, job hashJob) (hashResult, error) {
	job.reply = make(chan hashResult, 1)

	select {
	case h.jobs <- job:
	case <-ctx.Done():
		return hashResult{}, ctx.Err()
	}

	select {
	case res := <-job.reply:
		return res, nil
	case <-ctx.Done():
		return hashResult{}, ctx.Err()
	}
}

func (h *BcryptHasher) runWorker(id int) {
	for job := range h.jobs {
		var res hashResult
		switch job.op {
		case opHash:
			out, err := bcrypt.GenerateFromPassword(job.plaintext, h.cost)
			if err != nil {
				h.log.Error().Err(err).Int("worker_id", id).Msg("password hashing failed")
				res.err = err
			} else {
				res.hash = string(out)
			}
		case opCompare:
			err := bcrypt.CompareHashAndPassword(job.hash, job.plaintext)
			switch {
			case err == nil:
				res.match = true
			case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
				res.match = false
			default:
				h.log.Error().Err(err).Int("worker_id", id).Msg("password verification failed")
				res.err = err
			}
		}
		job.reply <- res
	}
}
