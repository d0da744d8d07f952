package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	"projector-server/internal/models"
)

// ErrInvalidSlide is returned when an activated slide breaks the record invariants
var ErrInvalidSlide = errors.New("invalid active slide")

// SlideController serializes navigation on the shared active slide.
// Each operation reads, updates, writes back and broadcasts under one lock,
// so concurrent requests never compute from a stale page. Stores that
// implement SlideUpdater extend that guarantee across processes.
type SlideController struct {
	mu          sync.Mutex
	store       ActiveSlideStore
	broadcaster Broadcaster
	gate        PermissionGate
}

// NewSlideController creates a controller over the given collaborators
func NewSlideController(store ActiveSlideStore, broadcaster Broadcaster, gate PermissionGate) *SlideController {
	return &SlideController{
		store:       store,
		broadcaster: broadcaster,
		gate:        gate,
	}
}

// AdvancePage moves a mediafile to the next page. The first page has no
// page number, so advancing from it lands on page 2.
func (c *SlideController) AdvancePage(ctx context.Context, actor models.Actor) (models.PageResult, error) {
	return c.navigate(ctx, actor, func(slide *models.ActiveSlide) bool {
		if !slide.IsMediafile() {
			return false
		}
		next := 2
		if slide.PageNumber != nil {
			next = *slide.PageNumber + 1
		}
		slide.PageNumber = &next
		return true
	})
}

// RetreatPage moves a mediafile back one page; nothing happens on the first page.
func (c *SlideController) RetreatPage(ctx context.Context, actor models.Actor) (models.PageResult, error) {
	return c.navigate(ctx, actor, func(slide *models.ActiveSlide) bool {
		if !slide.IsMediafile() || slide.PageNumber == nil || *slide.PageNumber <= 1 {
			return false
		}
		prev := *slide.PageNumber - 1
		slide.PageNumber = &prev
		return true
	})
}

// GoToPage jumps to target. Targets below 1 are ignored. The document length
// is not checked here; viewers clamp to what they can render.
func (c *SlideController) GoToPage(ctx context.Context, actor models.Actor, target int) (models.PageResult, error) {
	return c.navigate(ctx, actor, func(slide *models.ActiveSlide) bool {
		if target <= 0 || !slide.IsMediafile() {
			return false
		}
		page := target
		slide.PageNumber = &page
		return true
	})
}

// ToggleFullscreen flips the fullscreen flag for any active content
func (c *SlideController) ToggleFullscreen(ctx context.Context, actor models.Actor) (bool, error) {
	if err := c.gate.Authorize(ctx, actor, models.OperationManage); err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	slide, _, err := c.transition(ctx, func(slide *models.ActiveSlide) bool {
		slide.Fullscreen = !slide.Fullscreen
		return true
	})
	if err != nil {
		return false, err
	}
	log.Printf("Fullscreen set to %t by %s", slide.Fullscreen, actor.ID)
	return slide.Fullscreen, nil
}

// Activate replaces the active slide with new content. The fullscreen mode
// carries over from the current slide.
func (c *SlideController) Activate(ctx context.Context, actor models.Actor, slide models.ActiveSlide) (models.ActiveSlide, error) {
	if err := c.gate.Authorize(ctx, actor, models.OperationManage); err != nil {
		return models.ActiveSlide{}, err
	}
	if strings.TrimSpace(slide.CallbackKind) == "" {
		return models.ActiveSlide{}, fmt.Errorf("%w: callback is required", ErrInvalidSlide)
	}
	if slide.PageNumber != nil && *slide.PageNumber < 1 {
		return models.ActiveSlide{}, fmt.Errorf("%w: page_num must be at least 1", ErrInvalidSlide)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	next := slide.Clone()
	activated, _, err := c.transition(ctx, func(current *models.ActiveSlide) bool {
		fullscreen := current.Fullscreen
		*current = next.Clone()
		current.Fullscreen = fullscreen
		return true
	})
	if err != nil {
		return models.ActiveSlide{}, err
	}
	log.Printf("Active slide set to %q (pk=%s) by %s", activated.CallbackKind, activated.ObjectID, actor.ID)
	return activated, nil
}

// Current returns the active slide
func (c *SlideController) Current(ctx context.Context, actor models.Actor) (models.ActiveSlide, error) {
	if err := c.gate.Authorize(ctx, actor, models.OperationView); err != nil {
		return models.ActiveSlide{}, err
	}
	slide, err := c.store.Read(ctx)
	if err != nil {
		return models.ActiveSlide{}, fmt.Errorf("failed to read active slide: %w", err)
	}
	return slide, nil
}

// navigate runs one page transition. step mutates the slide and reports
// whether anything changed; unchanged slides are neither written nor broadcast.
func (c *SlideController) navigate(ctx context.Context, actor models.Actor, step func(*models.ActiveSlide) bool) (models.PageResult, error) {
	if err := c.gate.Authorize(ctx, actor, models.OperationManage); err != nil {
		return models.PageResult{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	slide, changed, err := c.transition(ctx, step)
	if err != nil {
		return models.PageResult{}, err
	}
	if !changed {
		return models.PageResult{Page: currentPage(slide), Changed: false}, nil
	}
	return models.PageResult{Page: *slide.PageNumber, Changed: true}, nil
}

// transition applies step to the stored slide, writes the result back and
// notifies viewers. Stores shared between processes run the read and the
// write as one atomic update; others rely on the controller lock.
// Must be called with lock held.
func (c *SlideController) transition(ctx context.Context, step func(*models.ActiveSlide) bool) (models.ActiveSlide, bool, error) {
	if updater, ok := c.store.(SlideUpdater); ok {
		slide, changed, err := updater.Update(ctx, step)
		if err != nil {
			return models.ActiveSlide{}, false, fmt.Errorf("failed to update active slide: %w", err)
		}
		if changed {
			c.notify(slide)
		}
		return slide, changed, nil
	}

	slide, err := c.store.Read(ctx)
	if err != nil {
		return models.ActiveSlide{}, false, fmt.Errorf("failed to read active slide: %w", err)
	}
	if !step(&slide) {
		return slide, false, nil
	}
	if err := c.store.Replace(ctx, slide); err != nil {
		return models.ActiveSlide{}, false, fmt.Errorf("failed to save active slide: %w", err)
	}
	c.notify(slide)
	return slide, true, nil
}

// notify never fails the caller; the new state is already persisted.
func (c *SlideController) notify(slide models.ActiveSlide) {
	if c.broadcaster == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Broadcast failed: %v", r)
		}
	}()
	c.broadcaster.Notify(slide.Clone())
}

func currentPage(slide models.ActiveSlide) int {
	if !slide.IsMediafile() {
		return 0
	}
	if slide.PageNumber == nil {
		return 1
	}
	return *slide.PageNumber
}

// ParsePageTarget reads a page number from a request value. Anything that
// is not an integer maps to 0, which GoToPage ignores.
func ParsePageTarget(value string) int {
	page, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return page
}
