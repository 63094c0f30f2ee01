package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/placefinder/server/internal/agent/grammar"
	"github.com/placefinder/server/internal/agent/mentions"
	"github.com/placefinder/server/internal/agent/model"
	"github.com/placefinder/server/internal/agent/search"
	errx "github.com/placefinder/server/internal/core/error"
)

var searchNoun = mentions.Noun{Singular: "search", Plural: "searches"}

// searchTitles loads the title of every search at indices.
func (a *Actions) searchTitles(ctx context.Context, h model.History, indices []int) ([]string, error) {
	titles := make([]string, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(h) {
			return nil, fmt.Errorf("search %d out of %d", i, len(h))
		}
		if h[i] == "" {
			return nil, fmt.Errorf("search %d is still being created", i)
		}
		s, err := a.store.GetSearch(ctx, h[i])
		if err != nil {
			return nil, err
		}
		titles = append(titles, search.SearchTitle(&s.Parameters))
	}
	return titles, nil
}

func (a *Actions) showSearchHistory(ctx context.Context, d *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	h, err := history(t, slotSearchHistory)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	n := 0
	for i, key := range h {
		if key == "" {
			continue
		}
		s, err := a.store.GetSearch(ctx, key)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			b.WriteString("Here is your search activity:\n")
		}
		n++
		fmt.Fprintf(&b, "%d. %s\n", i+1, search.SearchTitle(&s.Parameters))
	}
	if n == 0 {
		b.WriteString("You have not made any searches yet.")
	}

	d.Utter(b.String())
	return []model.Event{model.SlotSet(slotSelectedSearches, nil)}, nil
}

func (a *Actions) clearSearchHistory(ctx context.Context, _ *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	h, err := history(t, slotSearchHistory)
	if err != nil {
		return nil, err
	}
	for _, key := range h {
		if key == "" {
			continue
		}
		if err := a.store.DeleteSearch(ctx, key); err != nil && !errors.Is(err, errx.ErrNotFound) {
			return nil, err
		}
	}
	return []model.Event{
		model.SlotSet(slotSearchHistory, []string{}),
		model.SlotSet(slotSelectedSearches, nil),
		model.SlotSet(slotSelectedResults, nil),
	}, nil
}

func (a *Actions) setSelectedSearches(_ context.Context, d *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	refs := t.EntityValues("mention")
	if len(refs) == 0 {
		return []model.Event{model.SlotSet(slotSelectedSearchesError, "not_specified")}, nil
	}

	h, err := history(t, slotSearchHistory)
	if err != nil {
		return nil, err
	}
	current, err := selection(t, slotSelectedSearches)
	if err != nil {
		return nil, err
	}

	selected, errs := mentions.Resolve(refs, current, len(h), searchNoun)
	if len(errs) > 0 {
		d.Utter(selectionErrorMessage(errs))
		return []model.Event{model.SlotSet(slotSelectedSearchesError, "wrong_indices")}, nil
	}

	return []model.Event{
		model.SlotSet(slotSelectedSearches, selected),
		model.SlotSet(slotSelectedSearchesError, nil),
		model.SlotSet(slotSelectedResults, nil),
	}, nil
}

func (a *Actions) showSelectedSearches(ctx context.Context, d *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	h, selected, err := selectedSearches(t)
	if err != nil {
		return nil, err
	}
	titles, err := a.searchTitles(ctx, h, selected)
	if err != nil {
		return nil, err
	}

	if len(titles) == 1 {
		d.Utter(fmt.Sprintf("Okay, you have selected '%s'.", titles[0]))
		return nil, nil
	}
	d.Utter("Perfect! You have selected the following searches:\n" + bulleted(titles))
	return nil, nil
}

func (a *Actions) countSelectedSearches(_ context.Context, _ *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	selected, err := selection(t, slotSelectedSearches)
	if err != nil {
		return nil, err
	}
	return []model.Event{model.SlotSet(slotSelectedSearchesCount, countLabel(len(selected)))}, nil
}

func (a *Actions) confirmDeleteSelectedSearches(ctx context.Context, d *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	h, selected, err := selectedSearches(t)
	if err != nil {
		return nil, err
	}
	titles, err := a.searchTitles(ctx, h, selected)
	if err != nil {
		return nil, err
	}

	switch {
	case len(titles) == 1:
		d.Utter(fmt.Sprintf("Are you sure you want to delete the search '%s'?", titles[0]))
	case len(titles) == len(h):
		d.Utter("Are you sure you want to delete all your searches?")
	default:
		d.Utter("Are you sure you want to delete the following searches?\n" + bulleted(titles))
	}
	return nil, nil
}

func (a *Actions) deleteSelectedSearches(ctx context.Context, d *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	h, selected, err := selectedSearches(t)
	if err != nil {
		return nil, err
	}
	for _, i := range selected {
		if h[i] == "" {
			continue
		}
		if err := a.store.DeleteSearch(ctx, h[i]); err != nil && !errors.Is(err, errx.ErrNotFound) {
			return nil, err
		}
	}

	d.UtterResponse("utter_deleted_searches", map[string]any{"count": len(selected)})
	return []model.Event{
		model.SlotSet(slotSearchHistory, h.Without(selected)),
		model.SlotSet(slotSelectedSearches, nil),
		model.SlotSet(slotSelectedResults, nil),
	}, nil
}

// selectedSearches returns the history and a non-empty, in-range selection.
func selectedSearches(t *model.Tracker) (model.History, []int, error) {
	h, err := history(t, slotSearchHistory)
	if err != nil {
		return nil, nil, err
	}
	selected, err := selection(t, slotSelectedSearches)
	if err != nil {
		return nil, nil, err
	}
	if len(selected) == 0 {
		return nil, nil, fmt.Errorf("slot %s holds no selection", slotSelectedSearches)
	}
	for _, i := range selected {
		if i < 0 || i >= len(h) {
			return nil, nil, fmt.Errorf("slot %s selects %d out of %d searches", slotSelectedSearches, i, len(h))
		}
	}
	return h, selected, nil
}

// selectionErrorMessage phrases the errors of the mention resolver.
func selectionErrorMessage(errs []string) string {
	return "Sorry, but " + grammar.Join(errs, ", ", "and") + ".\n"
}

func bulleted(items []string) string {
	var b strings.Builder
	for _, it := range items {
		b.WriteString("- " + it + "\n")
	}
	return b.String()
}
