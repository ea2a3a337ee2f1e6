package studio

import (
	"context"
	"fmt"
	"io"

	"github.com/Rana718/injectdb/internal/config"
	"github.com/Rana718/injectdb/internal/frame"
	"github.com/Rana718/injectdb/internal/importer"
	"github.com/Rana718/injectdb/internal/logging"
	"github.com/Rana718/injectdb/internal/session"
	"github.com/Rana718/injectdb/internal/studio/common"
)

type Service struct {
	cfg    *config.Config
	logger logging.Logger
}

func NewService(cfg *config.Config, logger logging.Logger) *Service {
	return &Service{cfg: cfg, logger: logger}
}

// Upload parses an uploaded file into the session and returns its preview.
func (s *Service) Upload(sess *session.Session, name, format string, r io.Reader) (*common.Preview, error) {
	f, err := frame.Load(format, name, r)
	if err != nil {
		return nil, err
	}
	sess.SetFrame(name, f)
	s.logger.Info("📄 Loaded %s: %d rows, %d columns", name, f.Len(), len(f.Columns))
	return s.preview(name, f), nil
}

func (s *Service) preview(name string, f *frame.Frame) *common.Preview {
	head := f.Head(s.cfg.Import.PreviewRows)
	return &common.Preview{
		File:    name,
		Columns: f.Columns,
		Rows:    head.Rows,
		Total:   f.Len(),
	}
}

func (s *Service) Connect(ctx context.Context, sess *session.Session, role session.Role, url string) (*ConnectResponse, error) {
	if err := sess.Connect(ctx, role, url); err != nil {
		return nil, err
	}
	tables, err := s.Tables(ctx, sess, role)
	if err != nil {
		return nil, err
	}
	masked := sess.ConnectionURL(role)
	s.logger.Success("Connected %s database %s", role, masked)
	return &ConnectResponse{Role: string(role), URL: masked, Tables: tables}, nil
}

func (s *Service) Tables(ctx context.Context, sess *session.Session, role session.Role) ([]string, error) {
	adapter, err := sess.Adapter(ctx, role)
	if err != nil {
		return nil, err
	}
	tables, err := adapter.GetAllTableNames(ctx)
	if err != nil {
		return nil, err
	}
	if tables == nil {
		tables = []string{}
	}
	return tables, nil
}

func (s *Service) Columns(ctx context.Context, sess *session.Session, role session.Role, table string) ([]common.ColumnInfo, error) {
	adapter, err := sess.Adapter(ctx, role)
	if err != nil {
		return nil, err
	}
	columns, err := adapter.GetTableColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s", importer.ErrTableNotFound, table)
	}
	return common.ColumnsFromSchema(columns), nil
}

// Insert runs the session's mappings against its uploaded file.
func (s *Service) Insert(ctx context.Context, sess *session.Session) (*InsertResponse, error) {
	f, _, err := sess.Frame()
	if err != nil {
		return nil, err
	}
	dest, err := sess.Adapter(ctx, session.RoleDestination)
	if err != nil {
		return nil, err
	}

	im := importer.New(dest, s.cfg.Import.IDColumn, s.logger)
	results, err := im.ImportFrame(ctx, f, sess.Mappings(), sess.Relationships())
	if err != nil {
		return nil, err
	}

	resp := &InsertResponse{Tables: results, Failed: importer.Failed(results)}
	for _, r := range results {
		resp.Rows += r.Rows
	}
	return resp, nil
}

// Transfer copies between the session's source and destination databases.
// The session's relationships apply when the request carries none.
func (s *Service) Transfer(ctx context.Context, sess *session.Session, req importer.TransferRequest) (*importer.TransferResult, error) {
	src, err := sess.Adapter(ctx, session.RoleSource)
	if err != nil {
		return nil, err
	}
	dest, err := sess.Adapter(ctx, session.RoleDestination)
	if err != nil {
		return nil, err
	}
	if req.Relationships == nil {
		req.Relationships = sess.Relationships()
	}

	return importer.New(dest, s.cfg.Import.IDColumn, s.logger).Transfer(ctx, src, req)
}

func (s *Service) State(sess *session.Session) *State {
	state := &State{
		Destination:   sess.ConnectionURL(session.RoleDestination),
		Source:        sess.ConnectionURL(session.RoleSource),
		Mappings:      sess.Mappings(),
		Relationships: sess.Relationships(),
	}
	if f, name, err := sess.Frame(); err == nil {
		state.Preview = s.preview(name, f)
	}
	return state
}
