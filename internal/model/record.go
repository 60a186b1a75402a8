package model

import (
	"encoding/json"
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DatabaseModels lists every struct migrated as a table.
var DatabaseModels = []interface{}{
	&ReplayRecord{},
	&ReplayPlayerRecord{},
}

// ReplayRecord is one persisted decode result. Checksum is the SHA-256
// of the raw replay bytes and dedupes re-uploaded files.
type ReplayRecord struct {
	gorm.Model
	Filename          string `json:"filename" gorm:"size:255"`
	Checksum          string `json:"checksum" gorm:"size:64;uniqueIndex"`
	MapName           string `json:"mapName" gorm:"size:127"`
	StartTime         uint32 `json:"startTime"`
	EndTime           uint32 `json:"endTime"`
	Winner            string `json:"winner" gorm:"size:32"`
	GameCrashed       bool   `json:"gameCrashed"`
	DurationSecs      uint32 `json:"durationSecs"`
	DurationEstimated bool   `json:"durationEstimated"`

	// Spectators is a JSON array of names.
	Spectators datatypes.JSON `json:"spectators"`

	Players []ReplayPlayerRecord `json:"players" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:ReplayID"`
}

func (*ReplayRecord) TableName() string {
	return "replays"
}

// ReplayPlayerRecord is one roster entry of a persisted replay.
type ReplayPlayerRecord struct {
	gorm.Model
	ReplayID uint   `json:"replayId" gorm:"index:idx_replay_player_replay_id"`
	Name     string `json:"name" gorm:"size:64"`
	UID      string `json:"uid" gorm:"size:8"`
	Team     int8   `json:"team"`
	TeamRaw  int8   `json:"teamRaw"`
	Slot     uint8  `json:"slot"`
	Faction  string `json:"faction" gorm:"size:16"`
	ColorID  int8   `json:"colorId"`

	// Location is the first observed world coordinate, stored as WKB
	// so SQLite can round-trip it without spatial awareness.
	Location geom.Point `json:"location"`
}

func (*ReplayPlayerRecord) TableName() string {
	return "replay_players"
}

// NewReplayRecord converts a decode result into its persistence form.
func NewReplayRecord(info *ReplayInfo, filename, checksum string) (*ReplayRecord, error) {
	secs, estimated, _ := info.Duration()

	names := make([]string, 0, len(info.Spectators))
	for _, s := range info.Spectators {
		names = append(names, s.Name)
	}
	specJSON, err := json.Marshal(names)
	if err != nil {
		return nil, fmt.Errorf("error marshalling spectators: %w", err)
	}

	rec := &ReplayRecord{
		Filename:          filename,
		Checksum:          checksum,
		MapName:           info.MapName,
		StartTime:         info.StartTime,
		EndTime:           info.EndTime,
		Winner:            info.Winner.String(),
		GameCrashed:       info.GameCrashed,
		DurationSecs:      secs,
		DurationEstimated: estimated,
		Spectators:        datatypes.JSON(specJSON),
	}

	for i := range info.Players {
		p := &info.Players[i]
		pr := ReplayPlayerRecord{
			Name:    p.Name,
			UID:     p.UID,
			Team:    p.Team,
			TeamRaw: p.TeamRaw,
			Slot:    p.Slot,
			Faction: p.DisplayFaction().String(),
			ColorID: p.ColorID,
		}
		if p.MapPosition != nil {
			pr.Location = geom.NewPoint(geom.Coordinates{XY: *p.MapPosition})
		}
		rec.Players = append(rec.Players, pr)
	}

	return rec, nil
}
