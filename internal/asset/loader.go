// Package asset loads the player model placed on "hero" anchors and
// prepares its looping run animation.
package asset

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"

	"github.com/mossy-p/arshare/internal/tracking"
)

//go:embed assets
var embedded embed.FS

const (
	playerModelPath = "assets/theDude.json"
	playerNodeName  = "CATRigHub001"
	playerScale     = 0.1 / 100.0

	// RunAnimationKey names the player's only animation.
	RunAnimationKey = "run"
	runStartFrame   = 31
	runEndFrame     = 50
)

type boundingBox struct {
	Min tracking.Vector3 `json:"min"`
	Max tracking.Vector3 `json:"max"`
}

type sceneNode struct {
	Name        string      `json:"name"`
	BoundingBox boundingBox `json:"boundingBox"`
	Animations  []Animation `json:"animations"`
}

type scene struct {
	Source string      `json:"source"`
	Nodes  []sceneNode `json:"nodes"`
}

// Node is a placed model instance.
type Node struct {
	Name    string
	Source  string
	Pivot   tracking.Matrix4
	Scale   tracking.Vector3
	Players map[string]*Player
}

// Clone returns an independent instance with its own animation players.
func (n *Node) Clone() *Node {
	c := *n
	c.Players = make(map[string]*Player, len(n.Players))
	for k, p := range n.Players {
		cp := *p
		c.Players[k] = &cp
	}
	return &c
}

// LoadPlayerModel reads the player scene from fsys, recenters and scales
// the rig, and attaches the run animation already playing.
func LoadPlayerModel(fsys fs.FS) (*Node, error) {
	data, err := fs.ReadFile(fsys, playerModelPath)
	if err != nil {
		return nil, fmt.Errorf("read player model: %w", err)
	}

	var sc scene
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse player model: %w", err)
	}

	var rig *sceneNode
	for i := range sc.Nodes {
		if sc.Nodes[i].Name == playerNodeName {
			rig = &sc.Nodes[i]
			break
		}
	}
	if rig == nil {
		return nil, fmt.Errorf("player model has no %s node", playerNodeName)
	}
	if len(rig.Animations) == 0 {
		return nil, fmt.Errorf("%s has no animations", playerNodeName)
	}

	width := rig.BoundingBox.Max[0] - rig.BoundingBox.Min[0]

	clip, err := SubClip(rig.Animations[0], runStartFrame, runEndFrame)
	if err != nil {
		return nil, err
	}
	clip.RepeatForever = true
	clip.FadeIn = 0
	clip.FadeOut = 0

	run := &Player{Clip: clip}
	run.Play()

	return &Node{
		Name:    rig.Name,
		Source:  sc.Source,
		Pivot:   tracking.Translation(width*1.1, 0, 0),
		Scale:   tracking.Vector3{playerScale, playerScale, playerScale},
		Players: map[string]*Player{RunAnimationKey: run},
	}, nil
}

// MustLoadPlayerModel loads the bundled player model. A missing or broken
// bundle cannot be recovered from, so it panics.
func MustLoadPlayerModel() *Node {
	n, err := LoadPlayerModel(embedded)
	if err != nil {
		panic(err)
	}
	return n
}
