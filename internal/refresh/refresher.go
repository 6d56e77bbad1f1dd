package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"notifyplex/internal/config"
	"notifyplex/internal/logging"
	"notifyplex/internal/services"
	"notifyplex/internal/services/plex"
	"notifyplex/internal/textutil"
)

// Directory lists and refreshes library sections. *plex.Session satisfies it.
type Directory interface {
	ListSections(ctx context.Context) ([]plex.Section, error)
	RefreshSection(ctx context.Context, section plex.Section) error
}

// Refresher applies a resolution policy against a Directory.
type Refresher struct {
	dir    Directory
	logger *slog.Logger
	// silent only lowers the log level of per-section failures; the outcome
	// is decided by the caller.
	silent bool
}

// New constructs a Refresher.
func New(dir Directory, logger *slog.Logger, silent bool) *Refresher {
	return &Refresher{
		dir:    dir,
		logger: logging.NewComponentLogger(logger, "refresh"),
		silent: silent,
	}
}

// Run resolves and refreshes the sections for category using the configured
// policy.
func (r *Refresher) Run(ctx context.Context, settings config.Refresh, category string) error {
	mode, known := ParseMode(settings.Mode)
	if !known {
		logging.WarnWithContext(r.logger, "unknown refresh mode, using Both", "refresh_mode_fallback",
			logging.String("mode", settings.Mode),
			logging.String(logging.FieldErrorHint, "set REFRESHMODE to Auto, Custom, Both or Advanced"),
		)
	}
	r.logger.Debug("resolving sections",
		logging.String("mode", string(mode)),
		logging.String(logging.FieldCategory, category),
	)

	switch mode {
	case ModeAuto:
		return r.Auto(ctx, category, settings.MovieCategories, settings.TVCategories)
	case ModeCustom:
		return r.Custom(ctx, settings.CustomSections)
	case ModeAdvanced:
		return r.Advanced(ctx, settings.SectionMapping, category)
	default:
		customErr := r.Custom(ctx, settings.CustomSections)
		if customErr != nil && !r.continueAfter(customErr) {
			return customErr
		}
		if customErr != nil {
			r.logger.Warn("custom refresh incomplete, continuing with auto", logging.Error(customErr))
		}
		autoErr := r.Auto(ctx, category, settings.MovieCategories, settings.TVCategories)
		return errors.Join(customErr, autoErr)
	}
}

// continueAfter reports whether Both may go on to Auto after Custom failed.
// Only failed section refreshes in silent mode qualify; configuration and
// listing errors always stop the run.
func (r *Refresher) continueAfter(err error) bool {
	var failures *refreshFailures
	return r.silent && errors.As(err, &failures)
}

// refreshFailures marks the aggregate of failed section refreshes.
type refreshFailures struct {
	err error
}

func (f *refreshFailures) Error() string { return f.err.Error() }

func (f *refreshFailures) Unwrap() error { return f.err }

// Auto refreshes every show section when category is a TV category and then
// every movie section when it is a movie category. An unmatched category is
// a no-op.
func (r *Refresher) Auto(ctx context.Context, category, movieCategories, tvCategories string) error {
	folded := textutil.Fold(category)
	_, isTV := textutil.FoldSet(tvCategories)[folded]
	_, isMovie := textutil.FoldSet(movieCategories)[folded]
	if folded == "" || (!isTV && !isMovie) {
		r.logger.Info("category matches no movie or tv category, nothing to refresh",
			logging.String(logging.FieldCategory, category),
		)
		return nil
	}

	sections, err := r.dir.ListSections(ctx)
	if err != nil {
		return err
	}

	var targets []plex.Section
	if isTV {
		shows := filterKind(sections, plex.SectionShow)
		r.logger.Info("auto-detected tv category",
			logging.String(logging.FieldCategory, category),
			logging.Int("show_sections", len(shows)),
		)
		targets = append(targets, shows...)
	}
	if isMovie {
		movies := filterKind(sections, plex.SectionMovie)
		r.logger.Info("auto-detected movie category",
			logging.String(logging.FieldCategory, category),
			logging.Int("movie_sections", len(movies)),
		)
		targets = append(targets, movies...)
	}
	return r.refreshAll(ctx, "auto", targets)
}

// Custom refreshes the listed sections whose numbers appear in raw. Numbers
// are taken from every run of digits, so any separator works. Numbers the
// server does not know produce a configuration error once the known ones
// have been refreshed.
func (r *Refresher) Custom(ctx context.Context, raw string) error {
	requested := textutil.ExtractIntegers(raw)
	if len(requested) == 0 {
		r.logger.Info("no custom sections configured")
		return nil
	}

	sections, err := r.dir.ListSections(ctx)
	if err != nil {
		return err
	}

	pending := make(map[int]struct{}, len(requested))
	for _, id := range requested {
		pending[id] = struct{}{}
	}
	var targets []plex.Section
	for _, section := range sections {
		if _, ok := pending[section.ID]; !ok {
			continue
		}
		delete(pending, section.ID)
		targets = append(targets, section)
	}

	refreshErr := r.refreshAll(ctx, "custom", targets)
	if len(pending) > 0 {
		missing := make([]int, 0, len(pending))
		for id := range pending {
			missing = append(missing, id)
		}
		sort.Ints(missing)
		return services.Wrap(services.ErrConfiguration, "refresh", "custom",
			fmt.Sprintf("sections %s not found on the server, check CUSTOMPLEXSECTION", joinInts(missing)), nil)
	}
	return refreshErr
}

// Advanced refreshes the sections whose titles are mapped to category.
func (r *Refresher) Advanced(ctx context.Context, mapping, category string) error {
	entries, err := ParseMapping(mapping)
	if err != nil {
		return err
	}

	folded := textutil.Fold(category)
	wanted := make(map[string]string)
	var order []string
	for _, entry := range entries {
		if textutil.Fold(entry.Category) != folded {
			continue
		}
		key := textutil.Fold(entry.Title)
		if _, seen := wanted[key]; !seen {
			order = append(order, key)
		}
		wanted[key] = entry.Title
	}
	if folded == "" || len(wanted) == 0 {
		return services.Wrap(services.ErrConfiguration, "refresh", "advanced",
			fmt.Sprintf("category %q has no section mapping, check SECTIONMAPPING", category), nil)
	}

	sections, err := r.dir.ListSections(ctx)
	if err != nil {
		return err
	}

	var targets []plex.Section
	for _, section := range sections {
		key := textutil.Fold(section.Title)
		if _, ok := wanted[key]; !ok {
			continue
		}
		delete(wanted, key)
		targets = append(targets, section)
	}

	refreshErr := r.refreshAll(ctx, "advanced", targets)
	if len(wanted) > 0 {
		missing := make([]string, 0, len(wanted))
		for _, key := range order {
			if title, ok := wanted[key]; ok {
				missing = append(missing, title)
			}
		}
		return services.Wrap(services.ErrConfiguration, "refresh", "advanced",
			fmt.Sprintf("sections %s not found on the server, check SECTIONMAPPING", strings.Join(missing, ", ")), nil)
	}
	return refreshErr
}

// refreshAll refreshes every target even when some fail and returns the
// failures joined under services.ErrConnectivity.
func (r *Refresher) refreshAll(ctx context.Context, policy string, targets []plex.Section) error {
	var failures []error
	for _, section := range targets {
		if err := r.dir.RefreshSection(ctx, section); err != nil {
			attrs := []any{
				logging.Int(logging.FieldSectionID, section.ID),
				logging.String(logging.FieldSectionTitle, section.Title),
				logging.Error(err),
			}
			if r.silent {
				r.logger.Warn("section refresh failed", attrs...)
			} else {
				r.logger.Error("section refresh failed", attrs...)
			}
			failures = append(failures, err)
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return &refreshFailures{err: services.Wrap(services.ErrConnectivity, "refresh", policy,
		fmt.Sprintf("%d of %d section refreshes failed", len(failures), len(targets)), errors.Join(failures...))}
}

func filterKind(sections []plex.Section, kind plex.SectionKind) []plex.Section {
	var out []plex.Section
	for _, section := range sections {
		if section.Kind == kind {
			out = append(out, section)
		}
	}
	return out
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, value := range values {
		parts[i] = fmt.Sprint(value)
	}
	return strings.Join(parts, ", ")
}
