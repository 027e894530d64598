// Package location is the destination store for synced locations and rooms.
package location

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new location repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// NameIDMap returns lowercased location name -> id for every location.
func (r *Repository) NameIDMap(ctx context.Context) (map[string]int64, error) {
	ctx, span := tracing.StartSpan(ctx, "LocationRepository.NameIDMap")
	defer span.End()

	var rows []struct {
		ID   int64  `db:"id"`
		Name string `db:"name"`
	}
	if err := r.db.SelectContext(ctx, &rows, "SELECT id, LOWER(name) AS name FROM locations"); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to map location names")
		return nil, fmt.Errorf("failed to map location names: %w", err)
	}

	result := make(map[string]int64, len(rows))
	for _, row := range rows {
		result[row.Name] = row.ID
	}

	return result, nil
}

const roomKeysQuery = `
SELECT LOWER(l.name) || '|' || LOWER(r.name) AS key
FROM rooms r
JOIN locations l ON l.id = r.location_id`

// ListRoomKeys returns "location|room" identity keys, lowercased, for every room.
func (r *Repository) ListRoomKeys(ctx context.Context) ([]string, error) {
	ctx, span := tracing.StartSpan(ctx, "LocationRepository.ListRoomKeys")
	defer span.End()

	var keys []string
	if err := r.db.SelectContext(ctx, &keys, roomKeysQuery); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list room keys")
		return nil, fmt.Errorf("failed to list room keys: %w", err)
	}

	return keys, nil
}

// BulkInsertLocations inserts the given locations in a single multi-row statement.
func (r *Repository) BulkInsertLocations(ctx context.Context, locations []models.Location) error {
	ctx, span := tracing.StartSpan(ctx, "LocationRepository.BulkInsertLocations")
	defer span.End()

	if len(locations) == 0 {
		return nil
	}

	builder := database.NewInsertBuilder()
	builder.InsertInto("locations")
	builder.Cols("name", "is_active")
	for _, location := range locations {
		builder.Values(location.Name, location.IsActive)
	}

	query, args := builder.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to insert locations")
		return fmt.Errorf("failed to insert locations: %w", err)
	}

	return nil
}

// BulkInsertRooms inserts the given rooms in a single multi-row statement.
func (r *Repository) BulkInsertRooms(ctx context.Context, rooms []models.Room) error {
	ctx, span := tracing.StartSpan(ctx, "LocationRepository.BulkInsertRooms")
	defer span.End()

	if len(rooms) == 0 {
		return nil
	}

	builder := database.NewInsertBuilder()
	builder.InsertInto("rooms")
	builder.Cols("name", "location_id", "capacity", "room_type", "is_active")
	for _, room := range rooms {
		builder.Values(room.Name, room.LocationID, room.Capacity, room.RoomType, room.IsActive)
	}

	query, args := builder.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to insert rooms")
		return fmt.Errorf("failed to insert rooms: %w", err)
	}

	return nil
}
