package submissions

import "strings"

// Columns names the submission table columns.
type Columns struct {
	ID        string
	Name      string
	Email     string
	Message   string
	Timestamp string
	IsRead    string
}

// DefaultColumns are the snake_case names created by EnsureSchema.
var DefaultColumns = Columns{
	ID:        "id",
	Name:      "name",
	Email:     "email",
	Message:   "message",
	Timestamp: "timestamp",
	IsRead:    "is_read",
}

// LegacyColumns match stores created by the original form backend.
var LegacyColumns = Columns{
	ID:        "Id",
	Name:      "Name",
	Email:     "Email",
	Message:   "Message",
	Timestamp: "TimeStamp",
	IsRead:    "IsRead",
}

func (c Columns) selectList() string {
	cols := []string{c.ID, c.Name, c.Email, c.Message, c.Timestamp, c.IsRead}
	quoted := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = quoteIdent(col)
	}
	return strings.Join(quoted, ", ")
}
