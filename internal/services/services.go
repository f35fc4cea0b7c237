package services

import (
	"log/slog"

	"cinescope/proj/internal/clients/api"
	"cinescope/proj/internal/config"
	"cinescope/proj/internal/lib/tasks"
	validatorlib "cinescope/proj/internal/lib/validator"
	"cinescope/proj/internal/services/comments"
	"cinescope/proj/internal/services/movies"
	"cinescope/proj/internal/services/sentiment"
	"cinescope/proj/internal/services/session"
	"cinescope/proj/internal/services/watchlist"
	"cinescope/proj/internal/storage/tokens"

	govalidator "github.com/go-playground/validator/v10"
)

// Services is the wired application graph. Constructed once at
// startup and passed down instead of being reached for globally.
type Services struct {
	Session   *session.Manager
	Catalog   *movies.Catalog
	Watchlist *watchlist.Coordinator
	Comments  *comments.Coordinator
	Sentiment *sentiment.Service
	Tasks     *tasks.Pool
}

func New(log *slog.Logger, cfg *config.Config, client *api.Client, store *tokens.Store) *Services {
	validate := govalidator.New(govalidator.WithRequiredStructEnabled())
	if err := validate.RegisterValidation("password", validatorlib.ValidatePassword); err != nil {
		panic("failed to register password validator: " + err.Error())
	}

	pool := tasks.New(log, cfg.Tasks.Workers, cfg.Tasks.QueueSize)
	pool.Run()

	sess := session.New(log, client, store, validate, session.Config{
		DefaultTokenTTL: cfg.Session.DefaultTokenTTL,
		RevalidateEvery: cfg.Session.RevalidateEvery,
	})
	catalog := movies.New(log, client, movies.Config{
		PageSize:     cfg.Catalog.PageSize,
		RelatedLimit: cfg.Catalog.RelatedLimit,
	})
	wl := watchlist.New(log, client, sess, pool)
	cm := comments.New(log, client)
	sent := sentiment.New(log, client)

	// Logout, forced or voluntary, drops every per-user state holder.
	sess.RegisterOnLogout(catalog)
	sess.RegisterOnLogout(wl)
	sess.RegisterOnLogout(cm)

	// Any 401 anywhere tears the whole session down exactly once.
	client.OnUnauthorized(sess.ForceLogout)

	return &Services{
		Session:   sess,
		Catalog:   catalog,
		Watchlist: wl,
		Comments:  cm,
		Sentiment: sent,
		Tasks:     pool,
	}
}
