package syncer

import (
	"context"
	"fmt"
	"strings"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// syncLocations derives locations and rooms from the denormalized course view.
// The view repeats each location/room pair once per enrolled student, so both
// sets are reduced to distinct identity keys first. Identity checks are
// case-insensitive throughout, matching the email convention.
func (o *Orchestrator) syncLocations(ctx context.Context) (PhaseResult, error) {
	ctx, span := tracing.StartSpan(ctx, "syncer.Orchestrator.syncLocations")
	defer span.End()

	result := PhaseResult{Phase: PhaseLocations}

	details, err := o.source.ListCourseDetails(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list legacy course details: %w", err)
	}
	o.logger.WithContext(ctx).Infof("Found %d course detail rows in legacy", len(details))

	locationMap, err := o.locations.NameIDMap(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to map locations: %w", err)
	}

	seenLocations := newKeySet(nil)
	var newLocations []models.Location

	for _, detail := range details {
		name := strings.TrimSpace(detail.LocationName)
		if name == "" {
			continue
		}
		if _, ok := locationMap[strings.ToLower(name)]; ok {
			continue
		}
		if seenLocations.has(name) {
			continue
		}

		seenLocations.add(name)
		newLocations = append(newLocations, models.Location{
			Name:     name,
			IsActive: true,
		})
	}

	if err := writeInBatches(ctx, PhaseLocations, newLocations, o.config.BatchSize, o.locations.BulkInsertLocations); err != nil {
		return result, fmt.Errorf("failed to insert locations: %w", err)
	}

	// Room insertion needs the ids assigned to the locations committed above.
	locationMap, err = o.locations.NameIDMap(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to re-read location map: %w", err)
	}

	roomKeys, err := o.locations.ListRoomKeys(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list room keys: %w", err)
	}
	existingRooms := newKeySet(roomKeys)

	seenRooms := newKeySet(nil)
	var newRooms []models.Room

	for _, detail := range details {
		locationName := strings.TrimSpace(detail.LocationName)
		roomName := strings.TrimSpace(detail.RoomName)
		if locationName == "" || roomName == "" {
			result.Skipped++
			continue
		}

		key := locationName + "|" + roomName
		if existingRooms.has(key) || seenRooms.has(key) {
			continue
		}

		locationID, ok := locationMap[strings.ToLower(locationName)]
		if !ok {
			// Only possible if the location insert above partially failed;
			// a data-quality gap, not a fatal error.
			o.logger.WithContext(ctx).WithFields(map[string]any{
				"location": locationName,
				"room":     roomName,
			}).Warn("Skipping room: location not found in destination")
			result.Skipped++
			continue
		}

		seenRooms.add(key)
		newRooms = append(newRooms, models.Room{
			Name:       roomName,
			LocationID: locationID,
			Capacity:   detail.Capacity,
			RoomType:   "Classroom",
			IsActive:   true,
		})
	}

	if err := writeInBatches(ctx, PhaseLocations, newRooms, o.config.BatchSize, o.locations.BulkInsertRooms); err != nil {
		return result, fmt.Errorf("failed to insert rooms: %w", err)
	}

	result.Inserted = len(newLocations) + len(newRooms)
	return result, nil
}
