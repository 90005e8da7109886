package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jengzang/popquery-backend-go/internal/engine"
	"github.com/jengzang/popquery-backend-go/internal/grid"
	"github.com/jengzang/popquery-backend-go/internal/models"
)

const queryPrompt = "Query? (west south east north | quit) "

// queryConsumer answers "west south east north" lines against an engine
type queryConsumer struct {
	engine     *engine.Engine
	rows, cols int
	out        io.Writer
}

func (q *queryConsumer) Prompt() string {
	return queryPrompt
}

func (q *queryConsumer) Consume(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	if fields[0] == "quit" || fields[0] == "exit" {
		return true
	}

	rect, err := parseQuery(fields)
	if err == nil {
		var res models.QueryResult
		res, err = q.engine.Query(rect)
		if err == nil {
			fmt.Fprintf(q.out, "Query population: %10d\n", res.Population)
			fmt.Fprintf(q.out, "Percent of total: %10.2f%%\n", res.Percentage)
			return false
		}
		if !errors.Is(err, grid.ErrInvalidQuery) {
			fmt.Fprintf(q.out, "Query failed: %v\n", err)
			return false
		}
	}
	fmt.Fprintln(q.out, "Bad input. Please enter four integers separated by spaces.")
	fmt.Fprintf(q.out, "1 <= west <= east <= %d\n", q.cols)
	fmt.Fprintf(q.out, "1 <= south <= north <= %d\n", q.rows)
	return false
}

func parseQuery(fields []string) (models.QueryRect, error) {
	if len(fields) != 4 {
		return models.QueryRect{}, fmt.Errorf("want 4 integers, got %d fields", len(fields))
	}
	var v [4]int
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return models.QueryRect{}, err
		}
		v[i] = n
	}
	return models.QueryRect{West: v[0], South: v[1], East: v[2], North: v[3]}, nil
}
