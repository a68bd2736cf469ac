package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/address-resolver/app/bootstrap"
	"github.com/address-resolver/app/models"
	"github.com/address-resolver/app/services"
	"github.com/address-resolver/helpers/utils"
	"github.com/address-resolver/internal/etl"
	"github.com/address-resolver/internal/masterdata"
	"github.com/address-resolver/internal/parser"
)

// migrateEnv holds what a conversion run needs
type migrateEnv struct {
	Master    *masterdata.Master
	Parser    *parser.AddressParser
	Suggester *parser.Suggester
	Reviews   *services.ReviewService // nil unless fallback rows are queued
	RunID     string
}

// Close releases the review store
func (e *migrateEnv) Close(ctx context.Context) {
	if e.Reviews != nil {
		if err := e.Reviews.Close(ctx); err != nil {
			zap.L().Warn("close review store", zap.Error(err))
		}
	}
}

// initEnv loads the master and builds the parser. withReviews connects
// the review queue so fallback rows can be pushed to it.
func initEnv(ctx context.Context, withReviews bool) (*migrateEnv, error) {
	master, err := bootstrap.LoadMaster(ctx, cfg.Master, zap.L())
	if err != nil {
		return nil, eris.Wrap(err, "init: master")
	}

	p, suggester, err := bootstrap.NewParser(cfg.Resolver, zap.L())
	if err != nil {
		return nil, eris.Wrap(err, "init: parser")
	}

	env := &migrateEnv{Master: master, Parser: p, Suggester: suggester, RunID: utils.NewRunID()}
	if withReviews {
		if cfg.Mongo.URL == "" {
			return nil, eris.New("init: review queue needs mongo.url (ADDR_MONGO_URL)")
		}
		if env.Reviews, err = bootstrap.NewReviews(ctx, cfg.Mongo, zap.L()); err != nil {
			return nil, eris.Wrap(err, "init: reviews")
		}
	}

	zap.L().Info("environment ready",
		zap.String("run_id", env.RunID),
		zap.String("master_version", master.Version()),
		zap.Int("master_records", master.Len()),
		zap.Bool("reviews", env.Reviews != nil))
	return env, nil
}

// onFallback queues unresolved rows for review; nil without a review queue
func (e *migrateEnv) onFallback(source string) etl.FallbackFunc {
	if e.Reviews == nil {
		return nil
	}
	k := cfg.Resolver.Suggestions
	return func(ctx context.Context, line int, in models.RawGeoInput, res models.ResolvedAddress) {
		suggestions := e.Suggester.Suggest(in, e.Master, k)
		if _, err := e.Reviews.Enqueue(ctx, e.RunID, source, line, in, res, suggestions); err != nil {
			zap.L().Warn("queue review", zap.Int("line", line), zap.Error(err))
		}
	}
}
