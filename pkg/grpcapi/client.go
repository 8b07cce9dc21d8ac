package grpcapi

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/psaab/nocterm/pkg/cmdtree"
	"github.com/psaab/nocterm/pkg/output"
)

// Result is the decoded reply of Execute.
type Result struct {
	Lines   []output.Line
	Prompt  string
	Closed  bool
	Cleared bool
}

// Client calls the Console service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an existing connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Dial opens an insecure connection to addr.
func Dial(addr string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", addr, err)
	}
	return conn, nil
}

// Execute runs line on the server.
func (c *Client) Execute(ctx context.Context, line string) (*Result, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodExecute, wrapperspb.String(line), out); err != nil {
		return nil, err
	}
	fields := out.GetFields()
	res := &Result{
		Prompt:  fields["prompt"].GetStringValue(),
		Closed:  fields["closed"].GetBoolValue(),
		Cleared: fields["cleared"].GetBoolValue(),
	}
	for _, v := range fields["lines"].GetListValue().GetValues() {
		f := v.GetStructValue().GetFields()
		res.Lines = append(res.Lines, output.Line{
			Style: output.ParseStyle(f["style"].GetStringValue()),
			Text:  f["text"].GetStringValue(),
		})
	}
	return res, nil
}

// Complete returns the candidates for the last word of line and the
// line with the completion applied.
func (c *Client) Complete(ctx context.Context, line string) ([]string, string, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodComplete, wrapperspb.String(line), out); err != nil {
		return nil, "", err
	}
	var cands []string
	for _, v := range out.GetFields()["candidates"].GetListValue().GetValues() {
		cands = append(cands, v.GetStringValue())
	}
	return cands, out.GetFields()["line"].GetStringValue(), nil
}

// Help returns the "?" candidates for line. ok is false when the server
// has no help for it.
func (c *Client) Help(ctx context.Context, line string) ([]cmdtree.Candidate, bool, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodHelp, wrapperspb.String(line), out); err != nil {
		return nil, false, err
	}
	var cands []cmdtree.Candidate
	for _, v := range out.GetFields()["candidates"].GetListValue().GetValues() {
		f := v.GetStructValue().GetFields()
		cands = append(cands, cmdtree.Candidate{Name: f["name"].GetStringValue(), Desc: f["desc"].GetStringValue()})
	}
	return cands, out.GetFields()["ok"].GetBoolValue(), nil
}

// Interrupt sends Ctrl-C and reports whether a job was cancelled.
func (c *Client) Interrupt(ctx context.Context) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, MethodInterrupt, &emptypb.Empty{}, out); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

// Prompt returns the active prompt.
func (c *Client) Prompt(ctx context.Context) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, MethodPrompt, &emptypb.Empty{}, out); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}
