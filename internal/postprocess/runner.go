package postprocess

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"notifyplex/internal/config"
	"notifyplex/internal/logging"
	"notifyplex/internal/notifications"
	"notifyplex/internal/refresh"
	"notifyplex/internal/services"
	"notifyplex/internal/services/plex"
)

// NZBGet commands (NZBCP_COMMAND) served besides the post-process run.
const (
	CommandConnectionTest    = "ConnectionTest"
	CommandSectionList       = "SectionList"
	CommandDeleteCache       = "DeleteCacheFile"
	CommandRefreshTestTV     = "RefreshModeTestTV"
	CommandRefreshTestMovies = "RefreshModeTestMovies"
)

var (
	postProcessOptions = []string{
		config.KeyPlexHost, config.KeySilentFailure, config.KeyRefreshMode,
		config.KeyRefreshEnabled, config.KeyNotifyHeaders, config.KeyNotifyEnabled,
	}
	connectionTestOptions = []string{config.KeyPlexUsername, config.KeyPlexPassword, config.KeyPlexHost}
	sectionListOptions    = []string{config.KeyPlexHost}
)

// SectionReporter presents the result of a section listing.
type SectionReporter func(sections []plex.Section)

// GUINotifier sends the download notification.
type GUINotifier interface {
	Notify(ctx context.Context, clients []string, text string)
}

// Deps are the collaborators of a run. Nil fields get production defaults.
type Deps struct {
	Logger   *slog.Logger
	Plex     *plex.Manager
	Notifier GUINotifier
	Sections SectionReporter
}

// Runner executes NZBGet commands against one configuration.
type Runner struct {
	cfg      *config.Config
	logger   *slog.Logger
	plex     *plex.Manager
	notifier GUINotifier
	sections SectionReporter
}

// NewRunner wires a Runner.
func NewRunner(cfg *config.Config, deps Deps) *Runner {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Runner{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "notifyplex"),
		plex:     deps.Plex,
		notifier: deps.Notifier,
		sections: deps.Sections,
	}
	if r.plex == nil {
		r.plex = plex.NewManager(cfg, logger)
	}
	if r.notifier == nil {
		r.notifier = notifications.NewNotifier(cfg, logger)
	}
	if r.sections == nil {
		r.sections = r.logSections
	}
	return r
}

// Run executes the command named by cfg.Command.
func Run(ctx context.Context, cfg *config.Config, deps Deps) Outcome {
	return NewRunner(cfg, deps).Run(ctx)
}

// Run dispatches on the configured command. An empty command is the
// post-processing run NZBGet triggers after a download.
func (r *Runner) Run(ctx context.Context) Outcome {
	switch r.cfg.Command {
	case "":
		return r.PostProcess(ctx, r.cfg.Download, false)
	case CommandConnectionTest:
		return r.TestConnection(ctx)
	case CommandSectionList:
		return r.ListSections(ctx)
	case CommandDeleteCache:
		return r.DeleteCache()
	case CommandRefreshTestTV:
		return r.TestRefresh(ctx, "TV")
	case CommandRefreshTestMovies:
		return r.TestRefresh(ctx, "Movies")
	default:
		r.logger.Error("invalid command", logging.String(logging.FieldCommand, r.cfg.Command))
		return Error
	}
}

// PostProcess notifies clients and refreshes the sections for download.
// Diagnostic runs are never softened by silent-failure mode.
func (r *Runner) PostProcess(ctx context.Context, download config.Download, diagnostic bool) Outcome {
	if !r.requireOptions(postProcessOptions) {
		return Error
	}
	if !download.StatusSet {
		r.logger.Info("*** NZBGet post-processing script ***")
		r.logger.Error("notifyplex must be called from NZBGet v13.0 or later (NZBPP_STATUS is not set)")
		return Error
	}
	if !download.Succeeded() {
		r.logger.Error("skipping plex update because download failed",
			logging.String("status", download.Status),
			logging.String("nzb", download.Name),
		)
		return None
	}

	if r.cfg.Notify.Enabled {
		text := notifications.MessageText(download, r.cfg.Notify.DirectHeaders)
		r.notifier.Notify(ctx, notifications.ParseClients(r.cfg.Notify.Clients), text)
	}

	if !r.cfg.Refresh.Enabled {
		r.logger.Debug("library refresh disabled")
		return Success
	}

	session, err := r.plex.NewSession(ctx, false)
	if err != nil {
		return r.finish(err, diagnostic)
	}
	refresher := refresh.New(session, r.logger, r.cfg.SilentFailure)
	return r.finish(refresher.Run(ctx, r.cfg.Refresh, download.Category), diagnostic)
}

// TestRefresh runs the post-process flow for a synthetic successful download
// in category.
func (r *Runner) TestRefresh(ctx context.Context, category string) Outcome {
	download := r.cfg.Download
	download.Category = category
	download.Status = "SUCCESS/ALL"
	download.StatusSet = true
	if download.Name == "" {
		download.Name = "NotifyPlex refresh test (" + category + ")"
	}
	r.logger.Info("testing refresh mode", logging.String(logging.FieldCategory, category),
		logging.String("mode", r.cfg.Refresh.Mode))
	return r.PostProcess(ctx, download, true)
}

// TestConnection signs in to plex.tv without using the cache and checks that
// the server accepts the fresh token.
func (r *Runner) TestConnection(ctx context.Context) Outcome {
	if !r.requireOptions(connectionTestOptions) {
		return Error
	}
	r.logger.Info("testing pms connection and authorization")
	session, err := r.plex.NewSession(ctx, true)
	if err == nil {
		err = session.CheckConnection(ctx)
	}
	if err != nil {
		return r.finish(err, true)
	}
	r.logger.Info("connection test successful", logging.String("server", session.BaseURL()))
	return Success
}

// ListSections reports every library section with its number and type.
func (r *Runner) ListSections(ctx context.Context) Outcome {
	if !r.requireOptions(sectionListOptions) {
		return Error
	}
	r.logger.Info("grabbing list of plex libraries and section numbers")
	session, err := r.plex.NewSession(ctx, false)
	if err != nil {
		return r.finish(err, true)
	}
	sections, err := session.ListSections(ctx)
	if err != nil {
		return r.finish(err, true)
	}
	r.sections(sections)
	return Success
}

// DeleteCache removes the cached credential.
func (r *Runner) DeleteCache() Outcome {
	return r.finish(r.plex.Invalidate(), true)
}

func (r *Runner) logSections(sections []plex.Section) {
	r.logger.Info("sections on the server", logging.Int("total", len(sections)))
	for _, section := range sections {
		r.logger.Info("section",
			logging.Int(logging.FieldSectionID, section.ID),
			logging.String(logging.FieldSectionTitle, section.Title),
			logging.String("type", string(section.Kind)),
		)
	}
}

func (r *Runner) requireOptions(keys []string) bool {
	missing := r.cfg.MissingOptions(keys...)
	if len(missing) == 0 {
		return true
	}
	sort.Strings(missing)
	r.logger.Error("options missing in configuration, check script settings",
		logging.String("options", strings.Join(missing, ", ")))
	return false
}

// finish logs err according to how it resolves and returns the outcome.
func (r *Runner) finish(err error, diagnostic bool) Outcome {
	outcome := ResolveOutcome(err, r.cfg.SilentFailure, diagnostic)
	switch {
	case err == nil:
	case outcome == Success && errors.Is(err, services.ErrPermission):
		logging.WarnWithContext(r.logger, "credential cache not updated", "credential_cache",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "set write permissions on plex.auth_dir (PLEXAUTHDIR)"),
		)
	case outcome == Success:
		logging.WarnWithContext(r.logger, "silent failure mode activated", "silent_failure",
			logging.Error(err),
			logging.String(logging.FieldImpact, "NZBGet reports success although plex was not refreshed"),
		)
	default:
		r.logger.Error("post-processing failed", logging.Error(err))
	}
	return outcome
}
