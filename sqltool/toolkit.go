package sqltool

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alanpramil7/agent-v1/agent"
)

// PolicyViolationResult is what the model sees when it tries to run a
// write statement. It is a tool result, not an error: the loop keeps going
// and the model can retry with a read-only query.
const PolicyViolationResult = "Error: data-modifying statements (INSERT, UPDATE, DELETE, DROP, ALTER, ...) are not permitted. Only read-only queries can be executed."

// MultiStatementResult is the tool result for batched input. Rejected the
// same way as write statements: before anything reaches the database.
const MultiStatementResult = "Error: multiple SQL statements are not permitted. Submit a single read-only query."

// Toolkit builds the SQL tool adapters over one database.
type Toolkit struct {
	db *Database
}

// NewToolkit creates a toolkit for the given database.
func NewToolkit(db *Database) *Toolkit {
	return &Toolkit{db: db}
}

// Tools returns the three SQL adapters: list tables, table schema and
// guarded query execution.
func (t *Toolkit) Tools() []agent.Tool {
	return []agent.Tool{t.listTablesTool(), t.schemaTool(), t.queryTool()}
}

func (t *Toolkit) listTablesTool() agent.Tool {
	return &agent.FuncTool{
		ToolName: "sql_db_list_tables",
		ToolDesc: "List all tables in the database. Input is ignored. Output is a comma-separated list of table names.",
		ToolParams: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			tables, err := t.db.ListTables(ctx)
			if err != nil {
				return "", err
			}
			if len(tables) == 0 {
				return "(no tables)", nil
			}
			return strings.Join(tables, ", "), nil
		},
	}
}

func (t *Toolkit) schemaTool() agent.Tool {
	return &agent.FuncTool{
		ToolName: "sql_db_schema",
		ToolDesc: "Get the schema and sample rows for the given tables. Input is a comma-separated list of table names obtained from sql_db_list_tables.",
		ToolParams: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"table_names": map[string]any{
					"type":        "string",
					"description": "Comma-separated list of table names",
				},
			},
			"required": []string{"table_names"},
		},
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			raw, _ := args["table_names"].(string)
			if strings.TrimSpace(raw) == "" {
				return "", fmt.Errorf("table_names argument is required")
			}
			var tables []string
			for _, name := range strings.Split(raw, ",") {
				if name = strings.TrimSpace(name); name != "" {
					tables = append(tables, name)
				}
			}
			return t.db.TableInfo(ctx, tables)
		},
	}
}

func (t *Toolkit) queryTool() agent.Tool {
	return &agent.FuncTool{
		ToolName: "sql_db_query",
		ToolDesc: "Execute a read-only SQL query against the database and return the result. Data-modifying statements are rejected. If an error is returned, rewrite the query and try again.",
		ToolParams: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "A syntactically correct read-only SQL query",
				},
			},
			"required": []string{"query"},
		},
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			query, _ := args["query"].(string)
			if strings.TrimSpace(query) == "" {
				return "", fmt.Errorf("query argument is required")
			}
			out, err := t.db.Query(ctx, query)
			if errors.Is(err, ErrWriteStatement) {
				return PolicyViolationResult, nil
			}
			if errors.Is(err, ErrMultipleStatements) {
				return MultiStatementResult, nil
			}
			if err != nil {
				return "", err
			}
			return out, nil
		},
	}
}
