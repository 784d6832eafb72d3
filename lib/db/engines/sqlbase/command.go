package sqlbase

import (
	"context"
	"database/sql"
	"sort"
)

// Conn is the connection protocol the relational dictionaries are driven through.
// It is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Command is one parameterized statement. Parameters are referenced as @name in Text.
type Command struct {
	Text string
	Args map[string]any
}

// NewCommand creates a command with the given arguments given as name, value pairs
func NewCommand(text string, args ...any) Command {
	cmd := Command{Text: text}
	if len(args) > 0 {
		cmd.Args = make(map[string]any, len(args)/2)
		for i := 0; i+1 < len(args); i += 2 {
			cmd.Args[args[i].(string)] = args[i+1]
		}
	}
	return cmd
}

// NamedArgs converts the arguments to sql.Named values ordered by name
func (c Command) NamedArgs() []any {
	names := make([]string, 0, len(c.Args))
	for name := range c.Args {
		names = append(names, name)
	}
	sort.Strings(names)

	args := make([]any, len(names))
	for i, name := range names {
		args[i] = sql.Named(name, c.Args[name])
	}
	return args
}

// exec runs a command that does not return rows
func exec(ctx context.Context, conn Conn, cmd Command) (sql.Result, error) {
	return conn.ExecContext(ctx, cmd.Text, cmd.NamedArgs()...)
}

// query runs a command that returns rows
func query(ctx context.Context, conn Conn, cmd Command) (*sql.Rows, error) {
	return conn.QueryContext(ctx, cmd.Text, cmd.NamedArgs()...)
}

// queryRow runs a command that returns at most one row
func queryRow(ctx context.Context, conn Conn, cmd Command) *sql.Row {
	return conn.QueryRowContext(ctx, cmd.Text, cmd.NamedArgs()...)
}
