package table

import (
	"sort"
	"strings"
	"time"

	"github.com/tOgg1/visitwatch/internal/schedule"
)

func sortRows(rows []Row, specs []SortSpec) {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, spec := range specs {
			c := compareRows(rows[i], rows[j], spec)
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
}

// compareRows orders a before b for spec. Rows whose value is missing sort
// last in both directions.
func compareRows(a, b Row, spec SortSpec) int {
	var c int
	switch spec.Column {
	case ColumnName:
		c = strings.Compare(strings.ToLower(a.Subject.Name), strings.ToLower(b.Subject.Name))
	case ColumnCPF:
		c = strings.Compare(a.Subject.CPF, b.Subject.CPF)
	case ColumnFrequency:
		c = compareInt(a.Subject.VerifyFrequencyInDays, b.Subject.VerifyFrequencyInDays)
	case ColumnStatus:
		c = compareInt(activeRank(a), activeRank(b))
	case ColumnLastVerified:
		at, aok := lastVerified(a)
		bt, bok := lastVerified(b)
		if m, done := missingLast(aok, bok); done {
			return m
		}
		c = at.Compare(bt)
	case ColumnNextVisit:
		if m, done := missingLast(a.Classified(), b.Classified()); done {
			return m
		}
		c = a.Info.NextDueDate.Compare(b.Info.NextDueDate)
	}
	if spec.Desc {
		c = -c
	}
	return c
}

func missingLast(aok, bok bool) (int, bool) {
	switch {
	case aok && bok:
		return 0, false
	case aok:
		return -1, true
	case bok:
		return 1, true
	default:
		return 0, true
	}
}

func lastVerified(r Row) (time.Time, bool) {
	d, err := schedule.Parse(r.Subject.LastVerifiedDate, nil)
	if err != nil {
		return time.Time{}, false
	}
	return d.Time, true
}

func activeRank(r Row) int {
	if r.Subject.Active {
		return 0
	}
	return 1
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// applyManualOrder puts rows named in order first, in that order, followed by
// the rest in their current order.
func applyManualOrder(rows []Row, order []string) []Row {
	if len(order) == 0 || len(rows) == 0 {
		return rows
	}
	rank := make(map[string]int, len(order))
	for i, id := range order {
		rank[id] = i
	}
	out := append([]Row(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		ri, iok := rank[out[i].ID()]
		rj, jok := rank[out[j].ID()]
		switch {
		case iok && jok:
			return ri < rj
		case iok:
			return true
		default:
			return false
		}
	})
	return out
}

// spliceOrder writes moved into the positions its members occupy in full,
// leaving every other id where it was.
func spliceOrder(full, moved []string) []string {
	members := make(map[string]bool, len(moved))
	for _, id := range moved {
		members[id] = true
	}
	out := make([]string, len(full))
	next := 0
	for i, id := range full {
		if members[id] {
			out[i] = moved[next]
			next++
			continue
		}
		out[i] = id
	}
	return out
}
