package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/finsim/finsim/internal/analytics"
)

// MaxScreenCriteria bounds the joins a single screen may add
const MaxScreenCriteria = 8

// two-character operators first so ">=" is not read as ">"
var screenOperators = []string{">=", "<=", "!=", "==", ">", "<", "="}

// Criterion is one "metric op threshold" condition of a screen
type Criterion struct {
	Metric    string  `json:"metric"`
	Op        string  `json:"op"`
	Threshold float64 `json:"threshold"`
}

// ScreenMatch is a (ticker, period) pair satisfying every criterion
type ScreenMatch struct {
	Ticker string `json:"ticker"`
	Period int    `json:"period"`
}

// ParseCriterion reads "revenue > 1000", "net_income>=5" and similar.
// "==" is accepted as a synonym for "=".
func ParseCriterion(s string) (Criterion, error) {
	invalid := func(reason string) error {
		return &analytics.InvalidParameterError{Field: "criteria", Value: s, Reason: reason}
	}

	i := strings.IndexAny(s, "<>=!")
	if i < 0 {
		return Criterion{}, invalid("expected metric, operator and threshold")
	}
	metric := strings.TrimSpace(s[:i])
	if metric == "" {
		return Criterion{}, invalid("missing metric")
	}

	rest := s[i:]
	op := ""
	for _, candidate := range screenOperators {
		if strings.HasPrefix(rest, candidate) {
			op = candidate
			break
		}
	}
	if op == "" {
		return Criterion{}, invalid("unknown operator")
	}

	threshold, err := strconv.ParseFloat(strings.TrimSpace(rest[len(op):]), 64)
	if err != nil {
		return Criterion{}, invalid("threshold must be a number")
	}
	if op == "==" {
		op = "="
	}
	return Criterion{Metric: metric, Op: op, Threshold: threshold}, nil
}

// buildScreenQuery ANDs the criteria with one join per criterion. Only
// numeric values take part, so placeholders such as "N/A" never match.
func buildScreenQuery(criteria []Criterion, period int) (string, []interface{}, error) {
	if len(criteria) == 0 {
		return "", nil, &analytics.InvalidParameterError{Field: "criteria", Value: 0, Reason: "at least one criterion is required"}
	}
	if len(criteria) > MaxScreenCriteria {
		return "", nil, &analytics.InvalidParameterError{Field: "criteria", Value: len(criteria),
			Reason: fmt.Sprintf("at most %d criteria are allowed", MaxScreenCriteria)}
	}

	for _, c := range criteria {
		if !validOperator(c.Op) {
			return "", nil, &analytics.InvalidParameterError{Field: "criteria", Value: c.Op, Reason: "unknown operator"}
		}
	}

	var b strings.Builder
	args := make([]interface{}, 0, 2*len(criteria)+1)
	b.WriteString("SELECT o0.ticker, o0.period FROM observations o0")
	for i := 1; i < len(criteria); i++ {
		c := criteria[i]
		fmt.Fprintf(&b, " JOIN observations o%[1]d ON o%[1]d.ticker = o0.ticker AND o%[1]d.period = o0.period"+
			" AND o%[1]d.metric = ? AND typeof(o%[1]d.value) IN ('integer', 'real') AND o%[1]d.value %[2]s ?", i, c.Op)
		args = append(args, c.Metric, c.Threshold)
	}
	b.WriteString(" WHERE o0.metric = ? AND typeof(o0.value) IN ('integer', 'real') AND o0.value " + criteria[0].Op + " ?")
	args = append(args, criteria[0].Metric, criteria[0].Threshold)
	if period > 0 {
		b.WriteString(" AND o0.period = ?")
		args = append(args, period)
	}
	b.WriteString(" ORDER BY o0.ticker ASC, o0.period ASC")
	return b.String(), args, nil
}

func validOperator(op string) bool {
	for _, candidate := range screenOperators {
		if op == candidate && op != "==" {
			return true
		}
	}
	return false
}

// Screen returns the (ticker, period) pairs whose values satisfy every
// criterion. period <= 0 screens all periods.
func (r *SQLiteRepository) Screen(ctx context.Context, criteria []Criterion, period int) ([]ScreenMatch, error) {
	query, args, err := buildScreenQuery(criteria, period)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to run screen: %w", err)
	}
	defer rows.Close()

	matches := []ScreenMatch{}
	for rows.Next() {
		var m ScreenMatch
		if err := rows.Scan(&m.Ticker, &m.Period); err != nil {
			return nil, fmt.Errorf("failed to scan screen match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read screen matches: %w", err)
	}
	return matches, nil
}
