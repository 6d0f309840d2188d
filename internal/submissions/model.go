package submissions

import "time"

// Record is one submission row.
type Record struct {
	ID        int64
	Name      string
	Email     string
	Message   string
	Timestamp time.Time
	IsRead    bool
}

// NewSubmission carries the fields a producer supplies when inserting.
type NewSubmission struct {
	Name      string
	Email     string
	Message   string
	Timestamp time.Time
}

// CountUnread returns the number of records whose read flag is clear.
func CountUnread(records []Record) int {
	count := 0
	for _, rec := range records {
		if !rec.IsRead {
			count++
		}
	}
	return count
}

// MaxID returns the largest identifier in records, or 0 when empty.
func MaxID(records []Record) int64 {
	var maxID int64
	for _, rec := range records {
		if rec.ID > maxID {
			maxID = rec.ID
		}
	}
	return maxID
}

// Find returns the record with id, if present.
func Find(records []Record, id int64) (Record, bool) {
	for _, rec := range records {
		if rec.ID == id {
			return rec, true
		}
	}
	return Record{}, false
}
