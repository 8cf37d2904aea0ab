package gtfs

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LoadFeedFromDB builds a Feed and Transfers by loading an entire GTFS feed
// out of Postgres into memory, grounded on the teacher's
// internal/graph/memory.go (InMemoryGraph.LoadFromDB): one bulk query per
// table, loaded once, served from memory afterward rather than hitting the
// database per lookup.
func LoadFeedFromDB(ctx context.Context, db *pgxpool.Pool, feedID string) (*StaticFeed, *StaticTransfers, error) {
	feed := &StaticFeed{id: feedID, calendar: newServiceCalendar()}

	stops, err := loadStops(ctx, db, feedID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load stops: %w", err)
	}
	feed.stops = stops
	log.Printf("loaded %d stops for feed %s", len(stops), feedID)

	routes, err := loadRoutes(ctx, db, feedID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load routes: %w", err)
	}
	feed.routes = routes

	trips, err := loadTrips(ctx, db, feedID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load trips: %w", err)
	}
	feed.trips = trips

	rawStopTimes, err := loadStopTimes(ctx, db, feedID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load stop_times: %w", err)
	}
	feed.stopTimes = groupAndInterpolate(rawStopTimes)

	agencies, err := loadAgencies(ctx, db, feedID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load agencies: %w", err)
	}
	feed.agencies = agencies

	freqs, err := loadFrequencies(ctx, db, feedID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load frequencies: %w", err)
	}
	feed.frequencies = freqs

	if err := loadCalendar(ctx, db, feedID, feed.calendar); err != nil {
		return nil, nil, fmt.Errorf("failed to load calendar: %w", err)
	}
	if err := loadCalendarDates(ctx, db, feedID, feed.calendar); err != nil {
		return nil, nil, fmt.Errorf("failed to load calendar_dates: %w", err)
	}
	feed.startDate, feed.endDate = feed.calendar.dateRange()

	transfers := &StaticTransfers{
		toStop:              make(map[string][]Transfer),
		fromStop:            make(map[string][]Transfer),
		routeSpecificAtStop: make(map[string]bool),
	}
	rows, err := loadTransfers(ctx, db, feedID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load transfers: %w", err)
	}
	for _, tr := range rows {
		transfers.toStop[tr.ToStopID] = append(transfers.toStop[tr.ToStopID], tr)
		transfers.fromStop[tr.FromStopID] = append(transfers.fromStop[tr.FromStopID], tr)
		if tr.ToRouteID != "" {
			transfers.routeSpecificAtStop[tr.ToStopID] = true
		}
	}

	log.Printf("loaded feed %s from database: %d routes, %d trips, %d transfers", feedID, len(routes), len(trips), len(rows))

	return feed, transfers, nil
}

func loadStops(ctx context.Context, db *pgxpool.Pool, feedID string) ([]Stop, error) {
	rows, err := db.Query(ctx, `SELECT stop_id, stop_lat, stop_lon, location_type FROM stop WHERE feed_id = $1`, feedID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Stop
	for rows.Next() {
		var s Stop
		if err := rows.Scan(&s.StopID, &s.StopLat, &s.StopLon, &s.LocationType); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func loadRoutes(ctx context.Context, db *pgxpool.Pool, feedID string) ([]Route, error) {
	rows, err := db.Query(ctx, `SELECT route_id, route_type, agency_id FROM route WHERE feed_id = $1`, feedID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Route
	for rows.Next() {
		var r Route
		if err := rows.Scan(&r.RouteID, &r.RouteType, &r.AgencyID); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func loadTrips(ctx context.Context, db *pgxpool.Pool, feedID string) ([]Trip, error) {
	rows, err := db.Query(ctx, `SELECT trip_id, route_id, block_id, service_id FROM trip WHERE feed_id = $1`, feedID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Trip
	for rows.Next() {
		var t Trip
		if err := rows.Scan(&t.TripID, &t.RouteID, &t.BlockID, &t.ServiceID); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func loadStopTimes(ctx context.Context, db *pgxpool.Pool, feedID string) ([]StopTime, error) {
	rows, err := db.Query(ctx, `
		SELECT trip_id, stop_sequence, stop_id, arrival_time, departure_time
		FROM stop_time WHERE feed_id = $1
		ORDER BY trip_id, stop_sequence
	`, feedID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StopTime
	for rows.Next() {
		var st StopTime
		if err := rows.Scan(&st.TripID, &st.StopSequence, &st.StopID, &st.ArrivalTime, &st.DepartureTime); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func loadAgencies(ctx context.Context, db *pgxpool.Pool, feedID string) ([]Agency, error) {
	rows, err := db.Query(ctx, `SELECT agency_id, agency_timezone FROM agency WHERE feed_id = $1`, feedID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Agency
	for rows.Next() {
		var a Agency
		if err := rows.Scan(&a.AgencyID, &a.Timezone); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func loadFrequencies(ctx context.Context, db *pgxpool.Pool, feedID string) ([]Frequency, error) {
	rows, err := db.Query(ctx, `
		SELECT trip_id, start_time, end_time, headway_secs, exact_times
		FROM frequency WHERE feed_id = $1
	`, feedID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Frequency
	for rows.Next() {
		var f Frequency
		if err := rows.Scan(&f.TripID, &f.StartTime, &f.EndTime, &f.HeadwaySecs, &f.ExactTimes); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func loadCalendar(ctx context.Context, db *pgxpool.Pool, feedID string, cal *serviceCalendar) error {
	rows, err := db.Query(ctx, `
		SELECT service_id, monday, tuesday, wednesday, thursday, friday, saturday, sunday, start_date, end_date
		FROM calendar WHERE feed_id = $1
	`, feedID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var r calendarRow
		if err := rows.Scan(&r.serviceID,
			&r.weekday[0], &r.weekday[1], &r.weekday[2], &r.weekday[3],
			&r.weekday[4], &r.weekday[5], &r.weekday[6],
			&r.startDate, &r.endDate); err != nil {
			return err
		}
		cal.addCalendarRow(r)
	}
	return rows.Err()
}

func loadCalendarDates(ctx context.Context, db *pgxpool.Pool, feedID string, cal *serviceCalendar) error {
	rows, err := db.Query(ctx, `
		SELECT service_id, date, exception_type = 1
		FROM calendar_date WHERE feed_id = $1
	`, feedID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var e calendarException
		if err := rows.Scan(&e.serviceID, &e.date, &e.added); err != nil {
			return err
		}
		cal.addException(e)
	}
	return rows.Err()
}

func loadTransfers(ctx context.Context, db *pgxpool.Pool, feedID string) ([]Transfer, error) {
	rows, err := db.Query(ctx, `
		SELECT from_stop_id, from_route_id, to_stop_id, to_route_id, min_transfer_time
		FROM transfer WHERE feed_id = $1
	`, feedID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transfer
	for rows.Next() {
		var t Transfer
		if err := rows.Scan(&t.FromStopID, &t.FromRouteID, &t.ToStopID, &t.ToRouteID, &t.MinTransferTimeS); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
