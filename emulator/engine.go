package emulator

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"

	"github.com/sokcuri/mysql-emulator/memory"
	"github.com/sokcuri/mysql-emulator/parse"
	"github.com/sokcuri/mysql-emulator/rowexec"
	"github.com/sokcuri/mysql-emulator/sql"
)

// Engine is the single entry point for running SQL text against an
// in-process, connection-less server (spec §1, §5). It owns the
// storage collaborator and dispatches a parsed sql.Query to the Select
// Pipeline, Insert Processor, or the minimal DDL/transaction handling
// described there.
type Engine struct {
	server  sql.Server
	log     *logrus.Logger
	tracer  opentracing.Tracer
	maxRows int
}

// NewEngine builds an Engine from cfg, creating and selecting its
// default database.
func NewEngine(cfg *Config) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	log := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	server := memory.NewServer()
	if cfg.DefaultDatabase != "" {
		if _, err := server.CreateDatabase(cfg.DefaultDatabase); err != nil {
			return nil, err
		}
		server.SetCurrentDatabase(cfg.DefaultDatabase)
	}

	return &Engine{
		server:  server,
		log:     log,
		tracer:  opentracing.GlobalTracer(),
		maxRows: cfg.MaxRows,
	}, nil
}

// Execute parses and runs sqlText against the engine's server, binding
// params to any `?` placeholders in source order (spec §5). Every call
// is tagged with its own correlation id and traced as a single span, in
// an audit-trail idiom for structured query logging.
func (e *Engine) Execute(ctx context.Context, sqlText string, params []sql.Value) (*Result, error) {
	correlationID := uuid.NewV4().String()

	span, _ := opentracing.StartSpanFromContextWithTracer(ctx, e.tracer, "emulator.Execute")
	span.SetTag("correlation_id", correlationID)
	defer span.Finish()

	start := time.Now()
	entry := e.log.WithFields(logrus.Fields{
		"correlation_id": correlationID,
		"query":          sqlText,
	})

	result, err := e.execute(sqlText, params)

	fields := logrus.Fields{"duration": time.Since(start)}
	if err != nil {
		fields["success"] = false
		fields["err"] = err
		entry.WithFields(fields).Warn("query failed")
		return nil, err
	}
	fields["success"] = true
	entry.WithFields(fields).Info("query executed")

	return result, nil
}

func (e *Engine) execute(sqlText string, params []sql.Value) (*Result, error) {
	query, err := parse.Parse(sqlText, params)
	if err != nil {
		return nil, err
	}

	switch q := query.(type) {
	case *sql.SelectQuery:
		res, err := rowexec.NewPipeline(e.server).Execute(q)
		if err != nil {
			return nil, err
		}
		if e.maxRows > 0 && len(res.Rows) > e.maxRows {
			return nil, sql.ErrResultSetTooLarge.New(e.maxRows)
		}
		return &Result{Columns: res.Columns, Rows: res.Rows}, nil

	case *sql.InsertQuery:
		res, err := rowexec.NewInsertProcessor(e.server).Execute(q)
		if err != nil {
			return nil, err
		}
		return &Result{RowsAffected: res.RowsAffected, LastInsertID: res.InsertID}, nil

	case *sql.CreateTableQuery:
		if err := e.executeCreateTable(q); err != nil {
			return nil, err
		}
		return &Result{}, nil

	case *sql.TransactionQuery:
		// No MVCC: transaction control statements are acknowledged and
		// otherwise ignored (spec §3, §5).
		return &Result{}, nil

	default:
		return nil, sql.NewProcessorError("unsupported query type %T", query)
	}
}
