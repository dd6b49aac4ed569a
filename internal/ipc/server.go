package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"log/slog"

	"backlog/internal/daemon"
	"backlog/internal/features"
	"backlog/internal/logging"
	"backlog/internal/scheduler"
)

// Server exposes the backlog scheduler via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Backlog", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually before the next start"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String("component", "ipc"))
}

func notFoundMessage(id int64) string {
	return fmt.Sprintf("feature with id %d not found", id)
}

func (s *service) Ping(_ PingRequest, resp *PingResponse) error {
	resp.RunID = s.daemon.RunID()
	return nil
}

func (s *service) Stats(_ StatsRequest, resp *StatsResponse) error {
	stats, err := s.daemon.Scheduler().Stats(s.ctx)
	if err != nil {
		return err
	}
	resp.Passing = stats.Passing
	resp.Total = stats.Total
	resp.Percentage = stats.Percentage
	return nil
}

func (s *service) FetchNext(_ FetchNextRequest, resp *FetchNextResponse) error {
	result, err := s.daemon.Scheduler().FetchNext(s.ctx)
	if err != nil {
		return err
	}

	mapped, err := FetchNextResponseFrom(result)
	if err != nil {
		return err
	}
	*resp = *mapped
	return nil
}

func (s *service) Regression(req RegressionRequest, resp *RegressionResponse) error {
	sample, err := s.daemon.Scheduler().Regression(s.ctx, req.Limit)
	if err != nil {
		return err
	}
	resp.Features = make([]Feature, 0, len(sample))
	for _, feature := range sample {
		if dto := FromFeature(feature); dto != nil {
			resp.Features = append(resp.Features, *dto)
		}
	}
	resp.Count = len(resp.Features)
	return nil
}

func (s *service) MarkPassing(req MarkPassingRequest, resp *MarkPassingResponse) error {
	feature, err := s.daemon.Scheduler().MarkPassing(s.ctx, req.ID)
	if errors.Is(err, features.ErrNotFound) {
		resp.Error = notFoundMessage(req.ID)
		return nil
	}
	if err != nil {
		return err
	}
	resp.Feature = FromFeature(feature)
	return nil
}

func (s *service) Skip(req SkipRequest, resp *SkipResponse) error {
	result, err := s.daemon.Scheduler().Skip(s.ctx, req.ID)
	if errors.Is(err, features.ErrNotFound) {
		resp.Error = notFoundMessage(req.ID)
		return nil
	}
	if errors.Is(err, scheduler.ErrAlreadyPassing) {
		resp.Error = fmt.Sprintf("feature %d is already passing and cannot be skipped", req.ID)
		return nil
	}
	if err != nil {
		return err
	}
	resp.ID = result.ID
	resp.Name = result.Name
	resp.OldPriority = result.OldPriority
	resp.NewPriority = result.NewPriority
	resp.Message = "feature moved to back of queue"
	return nil
}

func (s *service) RecordFailure(req RecordFailureRequest, resp *RecordFailureResponse) error {
	result, err := s.daemon.Scheduler().RecordFailure(s.ctx, req.ID, req.Message)
	if errors.Is(err, features.ErrNotFound) {
		resp.Error = notFoundMessage(req.ID)
		return nil
	}
	if err != nil {
		return err
	}
	resp.FeatureID = result.FeatureID
	resp.FeatureName = result.FeatureName
	resp.FailureCount = result.FailureCount
	resp.MaxFailures = result.MaxFailures
	resp.ThresholdExceeded = result.ThresholdExceeded
	resp.Warning = result.Warning
	resp.Message = fmt.Sprintf("failure recorded (%d of %d)", result.FailureCount, result.MaxFailures)
	return nil
}

func (s *service) CreateBulk(req CreateBulkRequest, resp *CreateBulkResponse) error {
	created, err := s.daemon.Scheduler().CreateBulk(s.ctx, req.Features)
	var invalid *scheduler.ValidationError
	if errors.As(err, &invalid) {
		resp.Error = invalid.Error()
		resp.InvalidIndex = invalid.Index
		resp.MissingFields = append(resp.MissingFields, invalid.Missing...)
		return nil
	}
	if err != nil {
		return err
	}
	resp.Created = created
	return nil
}

func (s *service) List(_ ListRequest, resp *ListResponse) error {
	items, err := s.daemon.Store().List(s.ctx)
	if err != nil {
		return err
	}
	resp.Features = make([]Feature, 0, len(items))
	for _, feature := range items {
		if dto := FromFeature(feature); dto != nil {
			resp.Features = append(resp.Features, *dto)
		}
	}
	return nil
}

func (s *service) Get(req GetRequest, resp *GetResponse) error {
	feature, err := s.daemon.Store().GetByID(s.ctx, req.ID)
	if errors.Is(err, features.ErrNotFound) {
		resp.Error = notFoundMessage(req.ID)
		return nil
	}
	if err != nil {
		return err
	}
	resp.Feature = FromFeature(feature)
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.RunID = status.RunID
	if !status.StartedAt.IsZero() {
		resp.StartedAt = status.StartedAt.UTC().Format(time.RFC3339)
	}
	resp.DBPath = status.DBPath
	resp.LockPath = status.LockPath
	resp.SocketPath = status.SocketPath
	resp.StopRequested = status.StopRequested
	resp.Passing = status.Stats.Passing
	resp.Total = status.Stats.Total
	resp.Percentage = status.Stats.Percentage
	resp.DatabaseExists = status.Database.DatabaseExists
	resp.DatabaseReadable = status.Database.DatabaseReadable
	resp.TableExists = status.Database.TableExists
	resp.IntegrityCheck = status.Database.IntegrityCheck
	resp.DatabaseError = status.Database.Error
	return nil
}

func (s *service) RequestStop(_ RequestStopRequest, resp *RequestStopResponse) error {
	if err := s.daemon.RequestStop(); err != nil {
		return err
	}
	resp.Requested = true
	return nil
}

func (s *service) ClearStop(_ ClearStopRequest, resp *ClearStopResponse) error {
	if err := s.daemon.ClearStopRequest(); err != nil {
		return err
	}
	resp.Cleared = true
	return nil
}
