package server

import (
	"context"
	"log/slog"

	"github.com/chasehq/geochase/internal/game"
)

// SeedDemo loads the demo case catalog if no cases exist. Idempotent:
// it does nothing on a populated database.
func SeedDemo(ctx context.Context, logger *slog.Logger, store *SQLiteStore) error {
	existing, err := store.ListCases(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	for _, l := range demoLocations {
		_, err := store.db.ExecContext(ctx, `
			INSERT INTO locations (id, name, latitude, longitude, country, region)
			VALUES (?, ?, ?, ?, ?, ?)
		`, l.ID, l.Name, l.Latitude, l.Longitude, l.Country, l.Region)
		if err != nil {
			return err
		}
	}

	c := demoCase
	_, err = store.db.ExecContext(ctx, `
		INSERT INTO cases (id, title, villain_id, target_location_id, difficulty_level, round_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.ID, c.Title, c.VillainID, c.TargetLocationID, c.DifficultyLevel, c.RoundCount)
	if err != nil {
		return err
	}

	for _, cl := range demoClues {
		_, err := store.db.ExecContext(ctx, `
			INSERT INTO clues (id, case_id, round_number, reveal_order, type, points_value, content)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, cl.ID, c.ID, cl.RoundNumber, cl.RevealOrder, string(cl.Type), cl.PointsValue, cl.Content)
		if err != nil {
			return err
		}
	}

	logger.Info("demo case seeded", "case_id", c.ID, "title", c.Title)
	return nil
}

var demoLocations = []game.Location{
	{ID: "loc-lisbon", Name: "Lisbon", Latitude: 38.7223, Longitude: -9.1393, Country: "Portugal", Region: "Southern Europe"},
	{ID: "loc-porto", Name: "Porto", Latitude: 41.1579, Longitude: -8.6291, Country: "Portugal", Region: "Southern Europe"},
	{ID: "loc-madrid", Name: "Madrid", Latitude: 40.4168, Longitude: -3.7038, Country: "Spain", Region: "Southern Europe"},
	{ID: "loc-casablanca", Name: "Casablanca", Latitude: 33.5731, Longitude: -7.5898, Country: "Morocco", Region: "North Africa"},
	{ID: "loc-istanbul", Name: "Istanbul", Latitude: 41.0082, Longitude: 28.9784, Country: "Turkey", Region: "Western Asia"},
	{ID: "loc-buenos-aires", Name: "Buenos Aires", Latitude: -34.6037, Longitude: -58.3816, Country: "Argentina", Region: "South America"},
	{ID: "loc-singapore", Name: "Singapore", Latitude: 1.3521, Longitude: 103.8198, Country: "Singapore", Region: "Southeast Asia"},
	{ID: "loc-reykjavik", Name: "Reykjavik", Latitude: 64.1466, Longitude: -21.9426, Country: "Iceland", Region: "Northern Europe"},
}

var demoCase = game.Case{
	ID:               "case-sapphire",
	Title:            "The Sapphire Cartographer",
	VillainID:        "villain-meridian",
	TargetLocationID: "loc-lisbon",
	DifficultyLevel:  3,
	RoundCount:       3,
}

var demoClues = []game.Clue{
	{ID: "clue-s-1-1", RoundNumber: 1, RevealOrder: 1, Type: game.ClueGeography, PointsValue: 100, Content: "The thief fled to a capital on the Atlantic, built across seven hills at a great river's mouth."},
	{ID: "clue-s-1-2", RoundNumber: 1, RevealOrder: 2, Type: game.ClueCulture, PointsValue: 75, Content: "Witnesses heard mournful songs called fado drifting from tiled taverns."},
	{ID: "clue-s-1-3", RoundNumber: 1, RevealOrder: 3, Type: game.ClueVisual, PointsValue: 50, Content: "A dropped photograph shows a yellow tram climbing a steep, narrow street."},
	{ID: "clue-s-2-1", RoundNumber: 2, RevealOrder: 1, Type: game.ClueHistorical, PointsValue: 100, Content: "The city launched caravels that charted the African coast in the age of discoveries."},
	{ID: "clue-s-2-2", RoundNumber: 2, RevealOrder: 2, Type: game.ClueEconomic, PointsValue: 75, Content: "Cork and port wine leave its docks for every continent."},
	{ID: "clue-s-2-3", RoundNumber: 2, RevealOrder: 3, Type: game.ClueGeography, PointsValue: 50, Content: "A suspension bridge the colour of rust spans the Tagus where it meets the sea."},
	{ID: "clue-s-3-1", RoundNumber: 3, RevealOrder: 1, Type: game.ClueCulture, PointsValue: 100, Content: "Locals queue for custard tarts dusted with cinnamon in a district called Belém."},
	{ID: "clue-s-3-2", RoundNumber: 3, RevealOrder: 2, Type: game.ClueHistorical, PointsValue: 75, Content: "An earthquake levelled the lower town in 1755; it was rebuilt on a grand grid."},
	{ID: "clue-s-3-3", RoundNumber: 3, RevealOrder: 3, Type: game.ClueVisual, PointsValue: 50, Content: "A hill-top castle of São Jorge overlooks red roofs tumbling to the waterfront."},
}
