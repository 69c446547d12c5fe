// Package parse turns request parameters into store queries.
package parse

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"desal-monitor-backend/internal/model"
	"desal-monitor-backend/internal/store"
)

// DefaultLimit caps list queries that do not pass a limit.
const DefaultLimit = 100

// MaxLimit is the largest accepted limit.
const MaxLimit = 10000

const dateLayout = "2006-01-02"

// ListQuery is a parsed list request.
type ListQuery struct {
	Criteria store.Criteria
	Limit    int
}

// List parses the filters accepted by the sensor data listing:
// limit, compartment, sensor_id (repeated or comma separated), sensor_type,
// startDate and endDate.
func List(q url.Values, compartments int) (ListQuery, error) {
	out := ListQuery{Limit: DefaultLimit}

	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxLimit {
			return ListQuery{}, fmt.Errorf("invalid limit %q: must be between 1 and %d", raw, MaxLimit)
		}
		out.Limit = n
	}

	criteria, err := Filter(q, compartments)
	if err != nil {
		return ListQuery{}, err
	}
	out.Criteria = criteria
	return out, nil
}

// Filter parses the filters shared by list and bulk delete requests.
func Filter(q url.Values, compartments int) (store.Criteria, error) {
	var c store.Criteria

	if raw := q.Get("compartment"); raw != "" {
		id, err := Compartment(raw, compartments)
		if err != nil {
			return store.Criteria{}, err
		}
		c.CompartmentID = &id
	}

	c.SensorIDs = SensorIDs(q["sensor_id"])

	if raw := q.Get("sensor_type"); raw != "" {
		t := model.SensorType(raw)
		if !t.Valid() {
			return store.Criteria{}, fmt.Errorf("invalid sensor_type %q", raw)
		}
		c.SensorType = raw
	}

	if raw := q.Get("startDate"); raw != "" {
		start, err := Date(raw, false)
		if err != nil {
			return store.Criteria{}, err
		}
		c.Start = &start
	}
	if raw := q.Get("endDate"); raw != "" {
		end, err := Date(raw, true)
		if err != nil {
			return store.Criteria{}, err
		}
		c.End = &end
	}
	if c.Start != nil && c.End != nil && c.End.Before(*c.Start) {
		return store.Criteria{}, fmt.Errorf("endDate must not be before startDate")
	}
	return c, nil
}

// SensorIDs flattens repeated and comma separated values, dropping blanks and duplicates.
func SensorIDs(values []string) []string {
	var ids []string
	seen := make(map[string]struct{})
	for _, v := range values {
		for _, id := range strings.Split(v, ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

// Date accepts RFC 3339 or a bare date. A bare end date covers the whole day.
func Date(raw string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC 3339", raw)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

// Compartment parses a compartment number in 1..max.
func Compartment(raw string, max int) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id < 1 || id > max {
		return 0, fmt.Errorf("Invalid compartment ID. Must be between 1-%d", max)
	}
	return id, nil
}

// Interval parses a logging interval in seconds. Zero is allowed.
func Interval(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("Invalid interval")
	}
	return n, nil
}

// ID parses a positive row id.
func ID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
