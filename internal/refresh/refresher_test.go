package refresh_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"notifyplex/internal/config"
	"notifyplex/internal/logging"
	"notifyplex/internal/refresh"
	"notifyplex/internal/services"
	"notifyplex/internal/services/plex"
)

type fakeDirectory struct {
	sections  []plex.Section
	listErr   error
	failing   map[int]error
	lists     int
	refreshed []int
}

func (d *fakeDirectory) ListSections(context.Context) ([]plex.Section, error) {
	d.lists++
	if d.listErr != nil {
		return nil, d.listErr
	}
	return d.sections, nil
}

func (d *fakeDirectory) RefreshSection(_ context.Context, section plex.Section) error {
	d.refreshed = append(d.refreshed, section.ID)
	return d.failing[section.ID]
}

func sections(ids ...int) []plex.Section {
	out := make([]plex.Section, 0, len(ids))
	for _, id := range ids {
		out = append(out, plex.Section{ID: id, Kind: plex.SectionOther, Title: "Section"})
	}
	return out
}

func movieAndShow() []plex.Section {
	return []plex.Section{
		{ID: 1, Kind: plex.SectionMovie, Title: "Movies"},
		{ID: 2, Kind: plex.SectionShow, Title: "TV Shows"},
	}
}

func TestAutoRefreshesMatchingKind(t *testing.T) {
	tests := []struct {
		category string
		want     []int
	}{
		{category: "Movies", want: []int{1}},
		{category: "MOVIES", want: []int{1}},
		{category: "tv", want: []int{2}},
		{category: "music", want: nil},
		{category: "", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			dir := &fakeDirectory{sections: movieAndShow()}
			err := refresh.New(dir, logging.NewNop(), false).Auto(context.Background(), tt.category, "movies", "tv")
			if err != nil {
				t.Fatalf("Auto: %v", err)
			}
			if !reflect.DeepEqual(dir.refreshed, tt.want) {
				t.Fatalf("refreshed %v, want %v", dir.refreshed, tt.want)
			}
		})
	}
}

func TestAutoCategoryListsAreTrimmedAndFolded(t *testing.T) {
	dir := &fakeDirectory{sections: []plex.Section{
		{ID: 3, Kind: plex.SectionShow, Title: "Anime"},
		{ID: 1, Kind: plex.SectionMovie, Title: "Movies"},
		{ID: 2, Kind: plex.SectionShow, Title: "TV Shows"},
	}}
	err := refresh.New(dir, logging.NewNop(), false).Auto(context.Background(), "Straße", "films", " TV , STRASSE ,,")
	if err != nil {
		t.Fatalf("Auto: %v", err)
	}
	if !reflect.DeepEqual(dir.refreshed, []int{3, 2}) {
		t.Fatalf("expected every show section, got %v", dir.refreshed)
	}
}

func TestAutoCategoryInBothLists(t *testing.T) {
	dir := &fakeDirectory{sections: movieAndShow()}
	if err := refresh.New(dir, logging.NewNop(), false).Auto(context.Background(), "media", "media", "media"); err != nil {
		t.Fatalf("Auto: %v", err)
	}
	if !reflect.DeepEqual(dir.refreshed, []int{2, 1}) {
		t.Fatalf("expected shows then movies, got %v", dir.refreshed)
	}
}

func TestAutoNoMatchSkipsListing(t *testing.T) {
	dir := &fakeDirectory{listErr: errors.New("must not be called")}
	if err := refresh.New(dir, logging.NewNop(), false).Auto(context.Background(), "music", "movies", "tv"); err != nil {
		t.Fatalf("Auto: %v", err)
	}
	if dir.lists != 0 {
		t.Fatalf("expected no listing, got %d", dir.lists)
	}
}

func TestCustomExtractsNumbers(t *testing.T) {
	dir := &fakeDirectory{sections: sections(1, 3, 5, 7)}
	if err := refresh.New(dir, logging.NewNop(), false).Custom(context.Background(), "1, 3,foo5"); err != nil {
		t.Fatalf("Custom: %v", err)
	}
	if !reflect.DeepEqual(dir.refreshed, []int{1, 3, 5}) {
		t.Fatalf("refreshed %v", dir.refreshed)
	}
}

func TestCustomMissingSectionsAfterRefreshing(t *testing.T) {
	dir := &fakeDirectory{sections: sections(1, 7)}
	err := refresh.New(dir, logging.NewNop(), false).Custom(context.Background(), "1, 3,foo5")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "3, 5") {
		t.Fatalf("expected missing ids in error, got %v", err)
	}
	if !reflect.DeepEqual(dir.refreshed, []int{1}) {
		t.Fatalf("expected section 1 refreshed first, got %v", dir.refreshed)
	}
}

func TestCustomDuplicatesCollapse(t *testing.T) {
	dir := &fakeDirectory{sections: sections(1, 2)}
	if err := refresh.New(dir, logging.NewNop(), false).Custom(context.Background(), "2 2 1 02"); err != nil {
		t.Fatalf("Custom: %v", err)
	}
	if !reflect.DeepEqual(dir.refreshed, []int{1, 2}) {
		t.Fatalf("refreshed %v", dir.refreshed)
	}
}

func TestAdvancedResolvesTitles(t *testing.T) {
	dir := &fakeDirectory{sections: []plex.Section{
		{ID: 1, Kind: plex.SectionMovie, Title: "Movies"},
		{ID: 2, Kind: plex.SectionShow, Title: "TV Shows"},
		{ID: 4, Kind: plex.SectionMovie, Title: "4K: Movies"},
	}}
	mapping := "movies:Movies, tv:TV Shows,MOVIES: 4k: movies"
	if err := refresh.New(dir, logging.NewNop(), false).Advanced(context.Background(), mapping, "Movies"); err != nil {
		t.Fatalf("Advanced: %v", err)
	}
	if !reflect.DeepEqual(dir.refreshed, []int{1, 4}) {
		t.Fatalf("refreshed %v", dir.refreshed)
	}
}

func TestAdvancedMissingTitleFailsAfterRefreshing(t *testing.T) {
	dir := &fakeDirectory{sections: []plex.Section{{ID: 2, Kind: plex.SectionShow, Title: "TV Shows"}}}
	mapping := "movies:Movies,movies:TV Shows"
	err := refresh.New(dir, logging.NewNop(), false).Advanced(context.Background(), mapping, "movies")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Movies") {
		t.Fatalf("expected missing title in error, got %v", err)
	}
	if !reflect.DeepEqual(dir.refreshed, []int{2}) {
		t.Fatalf("expected matched section refreshed, got %v", dir.refreshed)
	}
}

func TestAdvancedUnmappedCategoryFailsBeforeListing(t *testing.T) {
	dir := &fakeDirectory{sections: movieAndShow()}
	err := refresh.New(dir, logging.NewNop(), false).Advanced(context.Background(), "movies:Movies", "tv")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if dir.lists != 0 {
		t.Fatal("expected no listing for an unmapped category")
	}
}

func TestParseMapping(t *testing.T) {
	entries, err := refresh.ParseMapping(" movies : Movies ,, tv:TV: Shows ")
	if err != nil {
		t.Fatalf("ParseMapping: %v", err)
	}
	want := []refresh.MappingEntry{{Category: "movies", Title: "Movies"}, {Category: "tv", Title: "TV: Shows"}}
	if !reflect.DeepEqual(entries, want) {
		t.Fatalf("got %+v want %+v", entries, want)
	}

	_, err = refresh.ParseMapping("movies:Movies,tv")
	if !errors.Is(err, services.ErrConfiguration) || !strings.Contains(err.Error(), "malformed mapping entry") {
		t.Fatalf("expected malformed mapping error, got %v", err)
	}
}

func TestRefreshFailuresAggregateAsConnectivity(t *testing.T) {
	boom := services.Wrap(services.ErrConnectivity, "plex", "refresh", "section 1", errors.New("reset"))
	dir := &fakeDirectory{sections: movieAndShow(), failing: map[int]error{1: boom}}
	err := refresh.New(dir, logging.NewNop(), true).Custom(context.Background(), "1,2")
	if !errors.Is(err, services.ErrConnectivity) {
		t.Fatalf("expected connectivity aggregate, got %v", err)
	}
	if !reflect.DeepEqual(dir.refreshed, []int{1, 2}) {
		t.Fatalf("expected every section attempted, got %v", dir.refreshed)
	}
}

func TestConfigurationWinsOverRefreshFailures(t *testing.T) {
	boom := services.Wrap(services.ErrConnectivity, "plex", "refresh", "section 1", nil)
	dir := &fakeDirectory{sections: sections(1), failing: map[int]error{1: boom}}
	err := refresh.New(dir, logging.NewNop(), false).Custom(context.Background(), "1,9")
	if !errors.Is(err, services.ErrConfiguration) || services.Recoverable(err) {
		t.Fatalf("expected unrecoverable configuration error, got %v", err)
	}
}

func TestListingErrorPropagates(t *testing.T) {
	listErr := services.Wrap(services.ErrAuth, "plex", "list sections", "token rejected", nil)
	dir := &fakeDirectory{listErr: listErr}
	err := refresh.New(dir, logging.NewNop(), false).Auto(context.Background(), "tv", "movies", "tv")
	if !errors.Is(err, services.ErrAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestRunDispatch(t *testing.T) {
	settings := config.Refresh{
		MovieCategories: "movies",
		TVCategories:    "tv",
		CustomSections:  "2",
		SectionMapping:  "tv:TV Shows",
	}
	tests := []struct {
		mode string
		want []int
	}{
		{mode: "Auto", want: []int{2}},
		{mode: "custom", want: []int{2}},
		{mode: "Advanced", want: []int{2}},
		// Both does not deduplicate.
		{mode: "Both", want: []int{2, 2}},
		{mode: "", want: []int{2, 2}},
		{mode: "sometimes", want: []int{2, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			dir := &fakeDirectory{sections: movieAndShow()}
			s := settings
			s.Mode = tt.mode
			if err := refresh.New(dir, logging.NewNop(), false).Run(context.Background(), s, "TV"); err != nil {
				t.Fatalf("Run: %v", err)
			}
			if !reflect.DeepEqual(dir.refreshed, tt.want) {
				t.Fatalf("refreshed %v, want %v", dir.refreshed, tt.want)
			}
		})
	}
}

func TestBothStopsAfterCustomError(t *testing.T) {
	dir := &fakeDirectory{sections: movieAndShow()}
	settings := config.Refresh{Mode: "Both", CustomSections: "9", TVCategories: "tv"}
	err := refresh.New(dir, logging.NewNop(), false).Run(context.Background(), settings, "tv")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if len(dir.refreshed) != 0 {
		t.Fatalf("expected Auto to be skipped, got %v", dir.refreshed)
	}
}

func TestBothContinuesAfterFailedCustomRefreshInSilentMode(t *testing.T) {
	withOther := append(movieAndShow(), plex.Section{ID: 5, Kind: plex.SectionOther, Title: "Home Videos"})
	settings := config.Refresh{Mode: "Both", CustomSections: "5", TVCategories: "tv"}

	tests := []struct {
		name   string
		silent bool
		want   []int
	}{
		{name: "silent", silent: true, want: []int{5, 2}},
		{name: "loud", silent: false, want: []int{5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := &fakeDirectory{sections: withOther, failing: map[int]error{5: errors.New("boom")}}
			err := refresh.New(dir, logging.NewNop(), tt.silent).Run(context.Background(), settings, "tv")
			if !errors.Is(err, services.ErrConnectivity) || errors.Is(err, services.ErrConfiguration) {
				t.Fatalf("expected connectivity error, got %v", err)
			}
			if !services.Recoverable(err) {
				t.Fatalf("expected recoverable error, got %v", err)
			}
			if !reflect.DeepEqual(dir.refreshed, tt.want) {
				t.Fatalf("refreshed %v, want %v", dir.refreshed, tt.want)
			}
		})
	}
}

func TestBothStopsOnListingErrorInSilentMode(t *testing.T) {
	dir := &fakeDirectory{listErr: services.Wrap(services.ErrConnectivity, "plex", "list sections", "", errors.New("refused"))}
	settings := config.Refresh{Mode: "Both", CustomSections: "1", TVCategories: "tv"}
	err := refresh.New(dir, logging.NewNop(), true).Run(context.Background(), settings, "tv")
	if !errors.Is(err, services.ErrConnectivity) {
		t.Fatalf("expected connectivity error, got %v", err)
	}
	if dir.lists != 1 {
		t.Fatalf("expected Auto skipped after listing failure, got %d listings", dir.lists)
	}
}

func TestParseMode(t *testing.T) {
	for input, want := range map[string]refresh.Mode{
		"auto": refresh.ModeAuto, "CUSTOM": refresh.ModeCustom, " Both ": refresh.ModeBoth, "Advanced": refresh.ModeAdvanced,
	} {
		got, ok := refresh.ParseMode(input)
		if !ok || got != want {
			t.Fatalf("ParseMode(%q) = %q, %v", input, got, ok)
		}
	}
	if got, ok := refresh.ParseMode("weekly"); ok || got != refresh.ModeBoth {
		t.Fatalf("expected Both fallback, got %q, %v", got, ok)
	}
}
