package selection

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// ErrEmptySelection rejects a bulk assign with nothing selected. Nothing is
// written.
var ErrEmptySelection = errors.New("selection is empty")

// Store performs the per-segment assignment writes. Implementations do not
// batch: the controller issues one write per identifier, in order.
type Store interface {
	// AssignZone sets or clears (nil) a segment's direct zone reference.
	AssignZone(ctx context.Context, segmentID uuid.UUID, zoneID *uuid.UUID) error
	// AssignCampaignZone sets or clears a segment's zone for one campaign
	// without touching the direct reference.
	AssignCampaignZone(ctx context.Context, campaignID, segmentID uuid.UUID, zoneID *uuid.UUID) error
}

// Controller owns the ephemeral per-session selection sets. Sets live only
// in memory: they are scoped to one browsing session and cleared after a
// successful bulk assignment or an explicit deselect-all.
type Controller struct {
	mu   sync.Mutex
	sets map[string]map[uuid.UUID]struct{}
}

func NewController() *Controller {
	return &Controller{sets: make(map[string]map[uuid.UUID]struct{})}
}

func (c *Controller) set(session string) map[uuid.UUID]struct{} {
	s, ok := c.sets[session]
	if !ok {
		s = make(map[uuid.UUID]struct{})
		c.sets[session] = s
	}
	return s
}

// Toggle applies the click semantics of the segment list and map:
// without the modifier key a click selects exclusively, except that clicking
// the sole selected identifier deselects it; with the modifier key the click
// flips just that identifier.
func (c *Controller) Toggle(session string, id uuid.UUID, multi bool) []uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.set(session)
	if multi {
		if _, ok := s[id]; ok {
			delete(s, id)
		} else {
			s[id] = struct{}{}
		}
		return sortedIDs(s)
	}

	_, sole := s[id]
	if sole && len(s) == 1 {
		delete(s, id)
		return sortedIDs(s)
	}
	clear(s)
	s[id] = struct{}{}
	return sortedIDs(s)
}

// Replace sets the selection to exactly ids (select-all-visible and
// select-by-zone flows).
func (c *Controller) Replace(session string, ids []uuid.UUID) []uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	c.sets[session] = s
	return sortedIDs(s)
}

// DeselectAll empties the session's selection.
func (c *Controller) DeselectAll(session string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sets, session)
}

// Current returns the session's selected identifiers in stable order.
func (c *Controller) Current(session string) []uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return sortedIDs(c.sets[session])
}

// IsSelected reports membership of id in the session's selection.
func (c *Controller) IsSelected(session string, id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.sets[session][id]
	return ok
}

// AssignResult reports what a bulk assign actually wrote. When Err is set,
// Assigned still lists the identifiers written before the failure; those
// writes are not rolled back and callers must re-fetch to observe true state.
type AssignResult struct {
	Assigned []uuid.UUID
	Failed   *uuid.UUID
}

// Assign writes the selected identifiers' zone reference one at a time, in
// sorted identifier order so partial failure is deterministic. A nil zoneID
// clears the assignment. With a campaignID the writes target the campaign
// join rows instead of the segments themselves. On full success the
// selection is cleared.
func (c *Controller) Assign(ctx context.Context, session string, store Store, zoneID, campaignID *uuid.UUID) (AssignResult, error) {
	ids := c.Current(session)
	if len(ids) == 0 {
		return AssignResult{}, ErrEmptySelection
	}

	var result AssignResult
	for _, id := range ids {
		var err error
		if campaignID != nil {
			err = store.AssignCampaignZone(ctx, *campaignID, id, zoneID)
		} else {
			err = store.AssignZone(ctx, id, zoneID)
		}
		if err != nil {
			failed := id
			result.Failed = &failed
			return result, fmt.Errorf("assign segment %s: %w", id, err)
		}
		result.Assigned = append(result.Assigned, id)
	}

	c.DeselectAll(session)
	return result, nil
}

func sortedIDs(s map[uuid.UUID]struct{}) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids
}
