package grpcapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/psaab/nocterm/pkg/cli"
	"github.com/psaab/nocterm/pkg/cmdtree"
	"github.com/psaab/nocterm/pkg/editor"
	"github.com/psaab/nocterm/pkg/jobs"
	"github.com/psaab/nocterm/pkg/output"
)

// Runner runs fn on the interpreter's goroutine and waits for it.
type Runner interface {
	Do(fn func()) bool
}

var errStopped = status.Error(codes.Unavailable, "interpreter stopped")

// capture forwards output to the console sink and, while an Execute call
// is in flight, records it for the caller. Only touched on the loop.
type capture struct {
	base output.Sink
	rec  *output.Recorder
}

func (c *capture) Print(style output.Style, text string) {
	c.base.Print(style, text)
	if c.rec != nil {
		c.rec.Print(style, text)
	}
}

func (c *capture) Clear() {
	c.base.Clear()
	if c.rec != nil {
		c.rec.Clear()
	}
}

// Server implements ConsoleServer over one shared interpreter.
type Server struct {
	cli  *cli.CLI
	ed   *editor.Editor
	loop Runner
	cap  *capture
	addr string

	// execMu serialises Execute so captures do not interleave.
	execMu sync.Mutex
}

// NewServer wraps c. Remote lines go through ed like typed ones. It
// installs an output capture on c and ed, so call it before the loop
// starts running.
func NewServer(addr string, c *cli.CLI, ed *editor.Editor, loop Runner) *Server {
	cp := &capture{base: c.Output()}
	c.SetOutput(cp)
	ed.SetOutput(cp)
	return &Server{cli: c, ed: ed, loop: loop, cap: cp, addr: addr}
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("gRPC listen: %w", err)
	}
	return s.Serve(ctx, lis)
}

// Serve serves on lis until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer()
	RegisterConsoleServer(srv, s)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("gRPC server listening", "addr", lis.Addr().String())
		if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	srv.GracefulStop()
	return nil
}

func (s *Server) Execute(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	s.execMu.Lock()
	defer s.execMu.Unlock()

	rec := &output.Recorder{}
	var job *jobs.Job
	if !s.loop.Do(func() {
		s.cap.rec = rec
		before := s.cli.Jobs().Active()
		s.ed.SubmitLine(req.GetValue())
		if j := s.cli.Jobs().Active(); j != nil && j != before {
			job = j
		}
	}) {
		return nil, errStopped
	}

	if job != nil {
		select {
		case <-job.Done():
		case <-ctx.Done():
			s.loop.Do(func() { s.cli.InterruptJob(job) })
		}
	}

	var (
		prompt string
		closed bool
	)
	if !s.loop.Do(func() {
		s.cap.rec = nil
		prompt = s.cli.Prompt()
		closed = s.cli.Hidden()
		if closed {
			s.cli.Show()
		}
	}) {
		return nil, errStopped
	}

	lines := make([]any, 0, len(rec.Lines))
	for _, l := range rec.Lines {
		lines = append(lines, map[string]any{"style": string(l.Style), "text": l.Text})
	}
	out, err := structpb.NewStruct(map[string]any{
		"lines":   lines,
		"prompt":  prompt,
		"closed":  closed,
		"cleared": rec.Clears > 0,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode result: %v", err)
	}
	return out, nil
}

func (s *Server) Complete(_ context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	text := req.GetValue()
	var cands []string
	if !s.loop.Do(func() { cands = s.cli.CompleteLine(text) }) {
		return nil, errStopped
	}

	items := make([]any, len(cands))
	for i, c := range cands {
		items[i] = c
	}
	out, err := structpb.NewStruct(map[string]any{
		"candidates": items,
		"line":       completeLine(text, cands),
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode result: %v", err)
	}
	return out, nil
}

// completeLine applies candidates to the partial word at the end of text:
// a unique candidate is inserted with a trailing space, several extend
// the word to their common prefix.
func completeLine(text string, cands []string) string {
	if len(cands) == 0 {
		return text
	}
	_, partial := cmdtree.SplitLine(text)
	base := strings.TrimSuffix(text, partial)
	if len(cands) == 1 {
		return base + cands[0] + " "
	}
	if p := cmdtree.CommonPrefix(cands); len(p) > len(partial) {
		return base + p
	}
	return text
}

func (s *Server) Help(_ context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	var (
		cands []cmdtree.Candidate
		ok    bool
	)
	if !s.loop.Do(func() { cands, ok = s.cli.HelpCandidates(req.GetValue()) }) {
		return nil, errStopped
	}

	items := make([]any, len(cands))
	for i, c := range cands {
		items[i] = map[string]any{"name": c.Name, "desc": c.Desc}
	}
	out, err := structpb.NewStruct(map[string]any{"candidates": items, "ok": ok})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode result: %v", err)
	}
	return out, nil
}

func (s *Server) Interrupt(_ context.Context, _ *emptypb.Empty) (*wrapperspb.BoolValue, error) {
	var cancelled bool
	if !s.loop.Do(func() { cancelled = s.cli.Interrupt() }) {
		return nil, errStopped
	}
	return wrapperspb.Bool(cancelled), nil
}

func (s *Server) Prompt(_ context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	var p string
	if !s.loop.Do(func() { p = s.cli.Prompt() }) {
		return nil, errStopped
	}
	return wrapperspb.String(p), nil
}
