package store

import (
	"strings"

	log "github.com/go-pkgz/lgr"
)

const selectJobs = `SELECT id, title, description, date FROM jobs`

// Filter holds optional search constraints. Empty fields impose no constraint.
// Title and Description match as substrings, case-insensitive for ASCII letters
// (sqlite LIKE collation). Date is an exact dd-mm-yyyy day.
type Filter struct {
	Title       string
	Description string
	Date        string
}

// IsEmpty reports whether no constraint is set
func (f Filter) IsEmpty() bool {
	return f.Title == "" && f.Description == "" && f.Date == ""
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// buildSearch makes the read query for the filter. Values go to args only,
// the query text is made of constant fragments. An unparsable date drops the date
// constraint with a warning.
func buildSearch(f Filter) (query string, args []any) {
	var conds []string

	if f.Title != "" {
		conds = append(conds, `title LIKE ? ESCAPE '\'`)
		args = append(args, "%"+likeEscaper.Replace(f.Title)+"%")
	}

	if f.Description != "" {
		conds = append(conds, `description LIKE ? ESCAPE '\'`)
		args = append(args, "%"+likeEscaper.Replace(f.Description)+"%")
	}

	if f.Date != "" {
		d, err := ParseDate(f.Date)
		if err != nil {
			log.Printf("[WARN] date filter ignored, %v", err)
		} else {
			conds = append(conds, `date = ?`)
			args = append(args, d)
		}
	}

	var sb strings.Builder
	sb.WriteString(selectJobs)
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY date ASC, id ASC")
	return sb.String(), args
}
