// Package tradeoffer turns the matching engine's give/take class-id
// maps into an actual submitted trade offer: rate-limited, retried on
// transient failure, with mobile-confirmation dispatch folded in so the
// matching round loop only has to interpret one outcome (§4.5 step 7,
// §6, §7).
package tradeoffer

import (
	"context"

	"steammatch/internal/collaborators"
	"steammatch/pkg/ratelimit"
	"steammatch/pkg/retry"

	"go.uber.org/zap"
)

// Outcome classifies the result of Execute for the round loop.
type Outcome int

const (
	// Submitted means the offer went through; if confirmation was
	// required it also succeeded.
	Submitted Outcome = iota
	// SubmitFailed means the offer could not be placed after retries;
	// the round loop should keep the mutated local state and try the
	// next attempt (§9 "speculative state on submission failure").
	SubmitFailed
	// ConfirmationFailed means the offer was placed but the mobile
	// confirmation was rejected or errored; fatal to the round (§7).
	ConfirmationFailed
)

// Executor wraps a TradeOfferSubmitter and ConfirmationDispatcher with a
// rate limiter and retry policy, the same shape as
// internal/directory.Client wraps the directory HTTP endpoints.
type Executor struct {
	submitter     collaborators.TradeOfferSubmitter
	confirmations collaborators.ConfirmationDispatcher
	limiter       *ratelimit.RateLimiter
	retry         retry.Config
	logger        *zap.SugaredLogger
}

// NewExecutor builds an Executor. The rate limiter defaults to 1
// req/sec burst 2 — trade-offer submission is the most consequential
// remote call this module makes and should never be bursty.
func NewExecutor(submitter collaborators.TradeOfferSubmitter, confirmations collaborators.ConfirmationDispatcher, logger *zap.SugaredLogger) *Executor {
	retryCfg := retry.ConservativeConfig()
	retryCfg.RetryIf = retry.IsRetryable
	return &Executor{
		submitter:     submitter,
		confirmations: confirmations,
		limiter:       ratelimit.NewRateLimiter(1, 2),
		retry:         retryCfg,
		logger:        logger,
	}
}

// Execute submits one trade offer and, if accepted with pending mobile
// confirmations and the bot carries a mobile authenticator, confirms it.
// ourSteamID is the acting bot's own steam_id, passed through to the
// confirmation collaborator as the confirming actor.
func (e *Executor) Execute(ctx context.Context, ourSteamID, recipient uint64, give, take map[uint64]uint32, tradeToken string, hasMobileAuthenticator bool) Outcome {
	result, err := retry.DoWithResult(ctx, func() (collaborators.TradeOfferResult, error) {
		if err := e.limiter.Wait(ctx); err != nil {
			return collaborators.TradeOfferResult{}, retry.Permanent(err)
		}
		return e.submitter.Submit(ctx, recipient, give, take, tradeToken, true)
	}, e.retry)
	if err != nil {
		if e.logger != nil {
			e.logger.Debugw("trade offer submission failed", "recipient", recipient, "error", err)
		}
		return SubmitFailed
	}
	if !result.OK {
		if e.logger != nil {
			e.logger.Debugw("trade offer submission not accepted", "recipient", recipient)
		}
		return SubmitFailed
	}

	if len(result.ConfirmationIDs) == 0 || !hasMobileAuthenticator {
		return Submitted
	}

	if err := e.confirmations.Confirm(ctx, true, "trade_offer", ourSteamID, result.ConfirmationIDs, true); err != nil {
		if e.logger != nil {
			e.logger.Errorw("mobile confirmation failed after trade offer submission", "recipient", recipient, "error", err)
		}
		return ConfirmationFailed
	}
	return Submitted
}
