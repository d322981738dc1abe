package server

import (
	"time"

	"github.com/signalsfoundry/orbit-tracker/core"
	"github.com/signalsfoundry/orbit-tracker/model"
)

// wireObject is the JSON shape of one tracked object inside snapshot and
// delta responses.
type wireObject struct {
	NoradID   int                    `json:"norad_id"`
	Name      string                 `json:"name"`
	Position  model.GeodeticSample   `json:"position"`
	Track     []model.GeodeticSample `json:"track"`
	Footprint *model.Footprint       `json:"footprint,omitempty"`
}

// snapshotResponse is the envelope for GET /api/v1/satellites. Type is
// "full" (Objects populated), "delta" (Adds/Updates/Removes populated), or
// "resync" (full contents, sent when the client's sequence fell out of the
// retained history).
type snapshotResponse struct {
	Type     string       `json:"type"`
	Sequence uint64       `json:"sequence"`
	Objects  []wireObject `json:"objects,omitempty"`
	Adds     []wireObject `json:"adds,omitempty"`
	Updates  []wireObject `json:"updates,omitempty"`
	Removes  []int        `json:"removes,omitempty"`
}

// ingestRequest is the body of POST /api/v1/elements. The catalog number is
// taken from the element lines themselves; Name is optional display text.
type ingestRequest struct {
	Name  string `json:"name"`
	Line1 string `json:"line1"`
	Line2 string `json:"line2"`
}

type ingestResponse struct {
	NoradID int       `json:"norad_id"`
	Name    string    `json:"name"`
	Epoch   time.Time `json:"epoch"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toWire(s core.ObjectState) wireObject {
	return wireObject{
		NoradID:   s.ID,
		Name:      s.Name,
		Position:  s.Position,
		Track:     s.Samples,
		Footprint: s.Coverage,
	}
}

func toWireAll(states []core.ObjectState) []wireObject {
	out := make([]wireObject, len(states))
	for i, s := range states {
		out[i] = toWire(s)
	}
	return out
}
