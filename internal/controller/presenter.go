package controller

import (
	"context"

	"github.com/mossy-p/arshare/internal/asset"
	"github.com/mossy-p/arshare/internal/models"
	"github.com/mossy-p/arshare/internal/tracking"
)

// Browser is the peer-discovery surface presented while joining.
type Browser interface {
	ServiceType() string
	Peers(ctx context.Context) ([]models.Advertisement, error)
	Invite(ctx context.Context, ad models.Advertisement) error
	CanFinish() bool
}

// BrowserDelegate is told when the user closes the presented browser.
type BrowserDelegate interface {
	BrowserDidFinish()
	BrowserWasCancelled()
}

// Presenter applies the controller's UI commands. Implementations must
// not call back into the controller synchronously.
type Presenter interface {
	SetIdleTimerDisabled(disabled bool)
	SetHostJoinHidden(hidden bool)
	SetShareHidden(hidden bool)
	SetShareEnabled(enabled bool)
	SetTapEnabled(enabled bool)
	SetMappingStatus(text string)
	// SetSessionInfo shows text, or hides the info view when text is empty.
	SetSessionInfo(text string)
	PresentBrowser(b Browser, d BrowserDelegate)
	DismissBrowser()
	PlaceModel(anchor tracking.Anchor, node *asset.Node)
	// ClearModels removes every placed model.
	ClearModels()
}
