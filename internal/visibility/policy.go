// Package visibility decides which photos a guest may see and download,
// given the session mode, the match set and the guest's filter toggle.
package visibility

import (
	"errors"
	"fmt"

	"github.com/kozaktomas/event-gallery/internal/catalog"
	"github.com/kozaktomas/event-gallery/internal/facematch"
	"github.com/kozaktomas/event-gallery/internal/matchrun"
)

// ErrPolicyViolation is returned when a session mode forbids the requested action.
var ErrPolicyViolation = errors.New("action not permitted in this session mode")

// Action is a download request from a guest.
type Action string

const (
	DownloadAll  Action = "all"
	DownloadMine Action = "mine"
)

// ParseAction validates a download scope.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case DownloadAll, DownloadMine:
		return Action(s), nil
	default:
		return "", fmt.Errorf("unknown download scope %q", s)
	}
}

// Input is everything the policy looks at.
type Input struct {
	Mode         catalog.Mode
	Catalog      []string // photo ids in catalog order
	Matches      *facematch.MatchSet
	ShowOnlyMine bool
	RunState     matchrun.State
}

// View is what the guest may see and do right now.
type View struct {
	Display           []string `json:"display"`
	PaginationEnabled bool     `json:"pagination_enabled"`
	ToggleEnabled     bool     `json:"toggle_enabled"`
	DownloadAll       bool     `json:"download_all"`
	DownloadMine      bool     `json:"download_mine"`
}

// Evaluate computes the view for in.
func Evaluate(in Input) (View, error) {
	hasMatches := in.Matches.Len() > 0

	switch in.Mode {
	case catalog.ModeBrowse:
		display := in.Catalog
		if in.ShowOnlyMine {
			display = filter(in.Catalog, in.Matches)
		}
		return View{
			Display:           nonNil(display),
			PaginationEnabled: true,
			ToggleEnabled:     hasMatches,
			DownloadAll:       true,
			DownloadMine:      hasMatches,
		}, nil

	case catalog.ModePrivacy:
		view := View{Display: []string{}}
		if in.RunState != matchrun.StateDone {
			return view, nil
		}
		view.Display = filter(in.Catalog, in.Matches)
		view.DownloadMine = hasMatches
		return view, nil

	default:
		return View{}, fmt.Errorf("unknown session mode %q", in.Mode)
	}
}

// Authorize turns a download action into the photo id list for the archive
// service. An empty list means every photo of the session. In privacy mode the
// matched photos are released only once the run is done.
func Authorize(mode catalog.Mode, action Action, matches *facematch.MatchSet, state matchrun.State) ([]string, error) {
	switch mode {
	case catalog.ModeBrowse, catalog.ModePrivacy:
	default:
		return nil, fmt.Errorf("unknown session mode %q", mode)
	}

	switch action {
	case DownloadAll:
		if mode == catalog.ModePrivacy {
			return nil, fmt.Errorf("%w: download all in %s mode", ErrPolicyViolation, mode)
		}
		return []string{}, nil
	case DownloadMine:
		if mode == catalog.ModePrivacy && state != matchrun.StateDone {
			return nil, fmt.Errorf("%w: run is %s", ErrPolicyViolation, state)
		}
		if matches.Len() == 0 {
			return nil, fmt.Errorf("%w: no matched photos", ErrPolicyViolation)
		}
		return matches.IDs(), nil
	default:
		return nil, fmt.Errorf("unknown download action %q", action)
	}
}

// filter keeps the catalog ids that are in matches, preserving catalog order.
func filter(ids []string, matches *facematch.MatchSet) []string {
	out := []string{}
	for _, id := range ids {
		if matches.Contains(id) {
			out = append(out, id)
		}
	}
	return out
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
