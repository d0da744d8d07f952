package services

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"sync"
	"testing"

	"projector-server/internal/models"
)

type memorySlideStore struct {
	mu       sync.Mutex
	slide    models.ActiveSlide
	replaced int
	failNext error
}

func (s *memorySlideStore) Read(ctx context.Context) (models.ActiveSlide, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slide.Clone(), nil
}

func (s *memorySlideStore) Replace(ctx context.Context, slide models.ActiveSlide) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return err
	}
	s.slide = slide.Clone()
	s.replaced++
	return nil
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	slides []models.ActiveSlide
}

func (b *recordingBroadcaster) Notify(slide models.ActiveSlide) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.slides = append(b.slides, slide)
}

func (b *recordingBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.slides)
}

type panickingBroadcaster struct{}

func (panickingBroadcaster) Notify(models.ActiveSlide) { panic("viewer hub gone") }

var manager = models.Actor{ID: "chair", Role: models.RoleManager}

func page(n int) *int { return &n }

func newTestController(slide models.ActiveSlide) (*SlideController, *memorySlideStore, *recordingBroadcaster) {
	store := &memorySlideStore{slide: slide}
	broadcaster := &recordingBroadcaster{}
	return NewSlideController(store, broadcaster, NewRoleGate()), store, broadcaster
}

func mediafile(p *int) models.ActiveSlide {
	return models.ActiveSlide{CallbackKind: models.CallbackMediafile, ObjectID: "7", PageNumber: p}
}

func TestAdvancePage(t *testing.T) {
	cases := []struct {
		name    string
		slide   models.ActiveSlide
		want    int
		changed bool
	}{
		{name: "first page", slide: mediafile(nil), want: 2, changed: true},
		{name: "page one", slide: mediafile(page(1)), want: 2, changed: true},
		{name: "page five", slide: mediafile(page(5)), want: 6, changed: true},
		{name: "not a mediafile", slide: models.ActiveSlide{CallbackKind: "agenda"}, want: 0, changed: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			controller, store, broadcaster := newTestController(tc.slide)

			result, err := controller.AdvancePage(context.Background(), manager)
			if err != nil {
				t.Fatalf("AdvancePage() error = %v", err)
			}
			if result.Changed != tc.changed {
				t.Fatalf("Changed = %v, want %v", result.Changed, tc.changed)
			}
			if !tc.changed {
				if store.replaced != 0 || broadcaster.count() != 0 {
					t.Fatalf("no-op wrote %d times and broadcast %d times", store.replaced, broadcaster.count())
				}
				return
			}
			if result.Page != tc.want || *store.slide.PageNumber != tc.want {
				t.Fatalf("page = %d (stored %d), want %d", result.Page, *store.slide.PageNumber, tc.want)
			}
			if store.replaced != 1 || broadcaster.count() != 1 {
				t.Fatalf("wrote %d times and broadcast %d times, want 1 and 1", store.replaced, broadcaster.count())
			}
			if got := broadcaster.slides[0]; *got.PageNumber != tc.want || got.ObjectID != "7" {
				t.Fatalf("broadcast slide = %+v", got)
			}
		})
	}
}

func TestRetreatPage(t *testing.T) {
	cases := []struct {
		name    string
		slide   models.ActiveSlide
		want    int
		changed bool
	}{
		{name: "first page", slide: mediafile(nil), want: 1, changed: false},
		{name: "page one", slide: mediafile(page(1)), want: 1, changed: false},
		{name: "page two", slide: mediafile(page(2)), want: 1, changed: true},
		{name: "page nine", slide: mediafile(page(9)), want: 8, changed: true},
		{name: "not a mediafile", slide: models.ActiveSlide{CallbackKind: "motion", PageNumber: page(3)}, want: 0, changed: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			controller, store, broadcaster := newTestController(tc.slide)

			result, err := controller.RetreatPage(context.Background(), manager)
			if err != nil {
				t.Fatalf("RetreatPage() error = %v", err)
			}
			if result.Changed != tc.changed || result.Page != tc.want {
				t.Fatalf("result = %+v, want page %d changed %v", result, tc.want, tc.changed)
			}
			wantWrites := 0
			if tc.changed {
				wantWrites = 1
			}
			if store.replaced != wantWrites || broadcaster.count() != wantWrites {
				t.Fatalf("wrote %d times and broadcast %d times, want %d", store.replaced, broadcaster.count(), wantWrites)
			}
		})
	}
}

func TestGoToPage(t *testing.T) {
	cases := []struct {
		name    string
		slide   models.ActiveSlide
		target  int
		changed bool
	}{
		{name: "jump forward", slide: mediafile(nil), target: 4, changed: true},
		{name: "past the end", slide: mediafile(page(3)), target: 10000, changed: true},
		{name: "same page", slide: mediafile(page(3)), target: 3, changed: true},
		{name: "zero", slide: mediafile(page(3)), target: 0, changed: false},
		{name: "negative", slide: mediafile(page(3)), target: -2, changed: false},
		{name: "not a mediafile", slide: models.ActiveSlide{CallbackKind: "agenda"}, target: 2, changed: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			controller, store, broadcaster := newTestController(tc.slide)
			before := store.slide.Clone()

			result, err := controller.GoToPage(context.Background(), manager, tc.target)
			if err != nil {
				t.Fatalf("GoToPage() error = %v", err)
			}
			if result.Changed != tc.changed {
				t.Fatalf("Changed = %v, want %v", result.Changed, tc.changed)
			}
			if !tc.changed {
				if !reflect.DeepEqual(store.slide, before) || broadcaster.count() != 0 {
					t.Fatalf("no-op changed slide to %+v or broadcast", store.slide)
				}
				return
			}
			if result.Page != tc.target || *store.slide.PageNumber != tc.target || broadcaster.count() != 1 {
				t.Fatalf("result = %+v, stored %+v", result, store.slide)
			}
		})
	}
}

func TestParsePageTarget(t *testing.T) {
	cases := map[string]int{"3": 3, " 12 ": 12, "0": 0, "-1": -1, "abc": 0, "": 0, "2.5": 0}
	for value, want := range cases {
		if got := ParsePageTarget(value); got != want {
			t.Fatalf("ParsePageTarget(%q) = %d, want %d", value, got, want)
		}
	}
}

func TestToggleFullscreenTwiceRestores(t *testing.T) {
	for _, slide := range []models.ActiveSlide{mediafile(page(2)), {CallbackKind: "agenda"}} {
		controller, store, broadcaster := newTestController(slide)

		first, err := controller.ToggleFullscreen(context.Background(), manager)
		if err != nil {
			t.Fatalf("ToggleFullscreen() error = %v", err)
		}
		second, err := controller.ToggleFullscreen(context.Background(), manager)
		if err != nil {
			t.Fatalf("ToggleFullscreen() error = %v", err)
		}

		if !first || second || store.slide.Fullscreen != slide.Fullscreen {
			t.Fatalf("toggles = %v, %v; stored %v", first, second, store.slide.Fullscreen)
		}
		if broadcaster.count() != 2 {
			t.Fatalf("broadcast %d times, want 2", broadcaster.count())
		}
		if slide.PageNumber != nil && *store.slide.PageNumber != *slide.PageNumber {
			t.Fatalf("toggle changed page to %d", *store.slide.PageNumber)
		}
	}
}

func TestOperationsRequireManage(t *testing.T) {
	controller, store, broadcaster := newTestController(mediafile(page(2)))
	viewer := models.Actor{ID: "guest", Role: models.RoleViewer}
	ctx := context.Background()

	calls := map[string]func() error{
		"advance": func() error { _, err := controller.AdvancePage(ctx, viewer); return err },
		"retreat": func() error { _, err := controller.RetreatPage(ctx, viewer); return err },
		"goto":    func() error { _, err := controller.GoToPage(ctx, viewer, 5); return err },
		"toggle":  func() error { _, err := controller.ToggleFullscreen(ctx, viewer); return err },
		"activate": func() error {
			_, err := controller.Activate(ctx, viewer, models.ActiveSlide{CallbackKind: "agenda"})
			return err
		},
	}

	for name, call := range calls {
		err := call()
		var authErr *AuthorizationError
		if !errors.As(err, &authErr) || !errors.Is(err, ErrForbidden) {
			t.Fatalf("%s: expected AuthorizationError, got %v", name, err)
		}
	}
	if store.replaced != 0 || broadcaster.count() != 0 {
		t.Fatalf("denied calls wrote %d times and broadcast %d times", store.replaced, broadcaster.count())
	}

	if _, err := controller.Current(ctx, viewer); err != nil {
		t.Fatalf("viewer Current() error = %v", err)
	}
}

func TestConcurrentAdvanceLosesNoUpdate(t *testing.T) {
	const workers = 50
	controller, store, broadcaster := newTestController(mediafile(page(3)))

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		pages []int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := controller.AdvancePage(context.Background(), manager)
			if err != nil {
				t.Errorf("AdvancePage() error = %v", err)
				return
			}
			mu.Lock()
			pages = append(pages, result.Page)
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Ints(pages)
	for i, p := range pages {
		if p != 4+i {
			t.Fatalf("pages = %v, want 4..%d", pages, 3+workers)
		}
	}
	if *store.slide.PageNumber != 3+workers || broadcaster.count() != workers {
		t.Fatalf("final page %d, broadcasts %d", *store.slide.PageNumber, broadcaster.count())
	}
}

func TestBroadcastFailureKeepsState(t *testing.T) {
	store := &memorySlideStore{slide: mediafile(page(2))}
	controller := NewSlideController(store, panickingBroadcaster{}, NewRoleGate())

	result, err := controller.AdvancePage(context.Background(), manager)
	if err != nil {
		t.Fatalf("AdvancePage() error = %v", err)
	}
	if result.Page != 3 || *store.slide.PageNumber != 3 {
		t.Fatalf("result = %+v, stored %d", result, *store.slide.PageNumber)
	}
}

func TestStoreFailureSkipsBroadcast(t *testing.T) {
	controller, store, broadcaster := newTestController(mediafile(page(2)))
	store.failNext = errors.New("disk full")

	if _, err := controller.AdvancePage(context.Background(), manager); err == nil {
		t.Fatal("expected error")
	}
	if *store.slide.PageNumber != 2 || broadcaster.count() != 0 {
		t.Fatalf("stored page %d, broadcasts %d", *store.slide.PageNumber, broadcaster.count())
	}
}

func TestActivate(t *testing.T) {
	controller, store, broadcaster := newTestController(models.ActiveSlide{CallbackKind: "agenda", Fullscreen: true})
	ctx := context.Background()

	slide, err := controller.Activate(ctx, manager, models.ActiveSlide{CallbackKind: models.CallbackMediafile, ObjectID: "12"})
	if err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if !slide.Fullscreen || store.slide.ObjectID != "12" || store.slide.PageNumber != nil {
		t.Fatalf("stored slide = %+v", store.slide)
	}
	if broadcaster.count() != 1 {
		t.Fatalf("broadcast %d times, want 1", broadcaster.count())
	}

	for _, bad := range []models.ActiveSlide{{CallbackKind: ""}, {CallbackKind: models.CallbackMediafile, PageNumber: page(0)}} {
		if _, err := controller.Activate(ctx, manager, bad); !errors.Is(err, ErrInvalidSlide) {
			t.Fatalf("Activate(%+v) error = %v, want ErrInvalidSlide", bad, err)
		}
	}
}
