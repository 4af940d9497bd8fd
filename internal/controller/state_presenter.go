package controller

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mossy-p/arshare/internal/asset"
	"github.com/mossy-p/arshare/internal/tracking"
)

// UIState is a snapshot of what a StatePresenter shows.
type UIState struct {
	IdleTimerDisabled bool     `json:"idleTimerDisabled"`
	HostJoinHidden    bool     `json:"hostJoinHidden"`
	ShareHidden       bool     `json:"shareHidden"`
	ShareEnabled      bool     `json:"shareEnabled"`
	TapEnabled        bool     `json:"tapEnabled"`
	MappingStatus     string   `json:"mappingStatus"`
	SessionInfo       string   `json:"sessionInfo"`
	SessionInfoHidden bool     `json:"sessionInfoHidden"`
	BrowserPresented  bool     `json:"browserPresented"`
	PlacedModels      []Placed `json:"placedModels"`
}

// Placed records a model placed on an anchor.
type Placed struct {
	AnchorID uuid.UUID        `json:"anchorId"`
	Name     string           `json:"name"`
	Position tracking.Vector3 `json:"position"`
}

// StatePresenter is a headless Presenter. It records UI state for the
// HTTP API and logs every change.
type StatePresenter struct {
	mu       sync.RWMutex
	state    UIState
	browser  Browser
	delegate BrowserDelegate
	log      zerolog.Logger
}

var _ Presenter = (*StatePresenter)(nil)

func NewStatePresenter(log zerolog.Logger) *StatePresenter {
	return &StatePresenter{
		state: UIState{SessionInfoHidden: true},
		log:   log.With().Str("component", "presenter").Logger(),
	}
}

// State returns a copy of the current UI state.
func (p *StatePresenter) State() UIState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s := p.state
	s.PlacedModels = append([]Placed(nil), p.state.PlacedModels...)
	return s
}

// Browser returns the presented browser and its delegate, if any.
func (p *StatePresenter) Browser() (Browser, BrowserDelegate, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.browser, p.delegate, p.browser != nil
}

func (p *StatePresenter) update(field string, fn func(*UIState)) {
	p.mu.Lock()
	fn(&p.state)
	p.mu.Unlock()
	p.log.Debug().Str("field", field).Msg("UI updated")
}

func (p *StatePresenter) SetIdleTimerDisabled(disabled bool) {
	p.update("idleTimerDisabled", func(s *UIState) { s.IdleTimerDisabled = disabled })
}

func (p *StatePresenter) SetHostJoinHidden(hidden bool) {
	p.update("hostJoinHidden", func(s *UIState) { s.HostJoinHidden = hidden })
}

func (p *StatePresenter) SetShareHidden(hidden bool) {
	p.update("shareHidden", func(s *UIState) { s.ShareHidden = hidden })
}

func (p *StatePresenter) SetShareEnabled(enabled bool) {
	p.update("shareEnabled", func(s *UIState) { s.ShareEnabled = enabled })
}

func (p *StatePresenter) SetTapEnabled(enabled bool) {
	p.update("tapEnabled", func(s *UIState) { s.TapEnabled = enabled })
}

func (p *StatePresenter) SetMappingStatus(text string) {
	p.update("mappingStatus", func(s *UIState) { s.MappingStatus = text })
}

func (p *StatePresenter) SetSessionInfo(text string) {
	p.mu.Lock()
	changed := p.state.SessionInfo != text
	p.state.SessionInfo = text
	p.state.SessionInfoHidden = text == ""
	p.mu.Unlock()

	if changed && text != "" {
		p.log.Info().Str("info", text).Msg("Session info")
	}
}

func (p *StatePresenter) PresentBrowser(b Browser, d BrowserDelegate) {
	p.mu.Lock()
	p.browser, p.delegate = b, d
	p.state.BrowserPresented = true
	p.mu.Unlock()
	p.log.Info().Str("service", b.ServiceType()).Msg("Browsing for peers")
}

func (p *StatePresenter) DismissBrowser() {
	p.mu.Lock()
	p.browser, p.delegate = nil, nil
	p.state.BrowserPresented = false
	p.mu.Unlock()
}

func (p *StatePresenter) PlaceModel(anchor tracking.Anchor, node *asset.Node) {
	p.update("placedModels", func(s *UIState) {
		s.PlacedModels = append(s.PlacedModels, Placed{
			AnchorID: anchor.ID,
			Name:     node.Name,
			Position: anchor.Transform.Position(),
		})
	})
}

func (p *StatePresenter) ClearModels() {
	p.update("placedModels", func(s *UIState) { s.PlacedModels = nil })
}
