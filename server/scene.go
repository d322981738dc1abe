package server

import (
	"net/http"

	"github.com/signalsfoundry/orbit-tracker/core"
	"github.com/signalsfoundry/orbit-tracker/model"
)

// sceneEntity is the wire shape of one renderable entity. Kind selects
// which payload field is present.
type sceneEntity struct {
	Kind      string                   `json:"kind"`
	Track     *wireObject              `json:"track,omitempty"`
	Station   *model.GroundStation     `json:"station,omitempty"`
	Footprint *model.CoverageFootprint `json:"footprint,omitempty"`
}

type sceneResponse struct {
	Sequence uint64        `json:"sequence"`
	Entities []sceneEntity `json:"entities"`
}

// sceneEntities flattens a snapshot plus the station reference list into
// one renderable entity list: a track per present object, a footprint per
// object with coverage, and every ground station.
func sceneEntities(snap *core.Snapshot, stations []model.GroundStation) []model.Entity {
	entities := make([]model.Entity, 0, 2*len(snap.Objects)+len(stations))
	for _, obj := range snap.Objects {
		entities = append(entities, model.TrackEntity(model.SatelliteTrack{
			Satellite: model.Satellite{NoradID: obj.ID, Name: obj.Name},
			Position:  obj.Position,
			Samples:   obj.Samples,
		}))
		if obj.Coverage != nil {
			entities = append(entities, model.FootprintEntity(model.CoverageFootprint{
				NoradID:  obj.ID,
				Lat:      obj.Position.Lat,
				Lon:      obj.Position.Lon,
				RadiusKm: obj.Coverage.RadiusKm,
			}))
		}
	}
	for _, st := range stations {
		entities = append(entities, model.StationEntity(st))
	}
	return entities
}

// handleScene serves the flattened entity view consumed by renderers that
// want a single list rather than the snapshot/delta protocol.
func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Snapshot()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no cycle has completed yet")
		return
	}

	entities := sceneEntities(snap, s.stations)
	out := make([]sceneEntity, 0, len(entities))
	for _, e := range entities {
		wire := sceneEntity{Kind: e.Kind.String()}
		switch e.Kind {
		case model.EntityKindSatelliteTrack:
			obj := wireObject{
				NoradID:  e.Track.Satellite.NoradID,
				Name:     e.Track.Satellite.Name,
				Position: e.Track.Position,
				Track:    e.Track.Samples,
			}
			wire.Track = &obj
		case model.EntityKindGroundStation:
			wire.Station = e.Station
		case model.EntityKindCoverageFootprint:
			wire.Footprint = e.Footprint
		default:
			// A new kind must be handled here before it can be emitted.
			continue
		}
		out = append(out, wire)
	}

	writeJSON(w, http.StatusOK, sceneResponse{Sequence: snap.Sequence, Entities: out})
}
