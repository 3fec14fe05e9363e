// Package chat answers free-text questions about a manager's squad. Every
// answer it returns has passed the grounding validator or is the
// deterministic fallback built from the same analysis.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/frosttechequities/FPL-chips-optimizer/internal/analysis"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/fplsource"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/grounding"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/llm"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/logger"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/recommend"
)

var ErrEmptyMessage = errors.New("message is required")

// Generator produces a free-text answer from a system and a user prompt.
type Generator interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Loader fetches everything one analysis needs for a team.
type Loader interface {
	Load(ctx context.Context, teamID string, force bool) (*fplsource.Bundle, error)
}

type Options struct {
	// Timeout bounds the generation call only; loading is bounded by ctx.
	Timeout  time.Duration
	Lookback int
	Horizon  int
	Policy   recommend.Policy
}

type Request struct {
	Message   string `json:"message"`
	TeamID    string `json:"teamId"`
	SessionID string `json:"sessionId,omitempty"`
	Refresh   bool   `json:"refresh,omitempty"`
}

type Response struct {
	Success    bool                  `json:"success"`
	Message    string                `json:"message"`
	SessionID  string                `json:"sessionId"`
	Analysis   *analysis.Result      `json:"analysis,omitempty"`
	Violations []grounding.Violation `json:"violations,omitempty"`
	Warnings   []string              `json:"warnings,omitempty"`
	// Degraded is set when the fallback was served instead of a generated answer.
	Degraded bool   `json:"degraded,omitempty"`
	Error    string `json:"error,omitempty"`

	err error
}

// Err is the failure behind an unsuccessful response.
func (r Response) Err() error { return r.err }

// Report is one analysis together with the gameweek frame it was built in.
type Report struct {
	Outcome analysis.Outcome
	Meta    fplsource.Meta
	Window  grounding.Window

	validator *grounding.Validator
}

type Service struct {
	loader Loader
	gen    Generator
	opts   Options
}

// NewService wires a service. gen may be nil, in which case every answer is
// the fallback.
func NewService(loader Loader, gen Generator, opts Options) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	return &Service{loader: loader, gen: gen, opts: opts}
}

// Analyze loads the team and runs the analysis. Data-source warnings are
// merged into the result.
func (s *Service) Analyze(ctx context.Context, teamID string, force bool) (*Report, error) {
	bundle, err := s.loader.Load(ctx, teamID, force)
	if err != nil {
		return nil, err
	}
	out := analysis.Analyze(bundle.Snapshot, bundle.Catalog, s.opts.Policy)
	out.Result.Warnings = append(out.Result.Warnings, bundle.Warnings...)

	current := bundle.Meta.CurrentGW
	if current == 0 {
		current = bundle.Meta.NextGW
	}
	w := grounding.WindowAround(current, s.opts.Lookback, s.opts.Horizon, bundle.Meta.Season)
	return &Report{
		Outcome:   out,
		Meta:      bundle.Meta,
		Window:    w,
		validator: grounding.NewValidator(bundle.Catalog, w),
	}, nil
}

// Validate checks an externally produced answer against the team's analysis.
func (s *Service) Validate(ctx context.Context, teamID, answer, question string) (grounding.Verdict, error) {
	rep, err := s.Analyze(ctx, teamID, false)
	if err != nil {
		return grounding.Verdict{}, err
	}
	return rep.validator.Validate(answer, question, rep.Outcome.Result), nil
}

// Answer runs one chat exchange. Failures are reported in the response.
func (s *Service) Answer(ctx context.Context, req Request) Response {
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	question := strings.TrimSpace(req.Message)
	if question == "" {
		return failure(sessionID, ErrEmptyMessage)
	}

	rep, err := s.Analyze(ctx, req.TeamID, req.Refresh)
	if err != nil {
		logger.Errorf("[chat] session %s team %s: %v", sessionID, req.TeamID, err)
		return failure(sessionID, err)
	}
	res := rep.Outcome.Result
	resp := Response{
		Success:   true,
		SessionID: sessionID,
		Analysis:  res,
		Warnings:  warningMessages(res),
	}

	if rep.Outcome.Kind == analysis.Insufficient || s.gen == nil {
		resp.Message = grounding.Fallback(res)
		resp.Degraded = true
		return resp
	}

	frame := llm.Context{Season: rep.Meta.Season, CurrentGW: rep.Meta.CurrentGW, NextGW: rep.Meta.NextGW}
	system, user := llm.Prompt(res, frame, question)

	gctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	answer, err := s.gen.Complete(gctx, system, user)
	if err != nil {
		logger.Warnf("[chat] session %s: generation failed, serving fallback: %v", sessionID, err)
		resp.Message = grounding.Fallback(res)
		resp.Degraded = true
		return resp
	}

	verdict := rep.validator.Validate(answer, question, res)
	if !verdict.Accepted {
		logger.Infof("[chat] session %s: answer rejected with %d violations", sessionID, len(verdict.Violations))
		resp.Message = grounding.Fallback(res)
		resp.Violations = verdict.Violations
		resp.Degraded = true
		return resp
	}
	resp.Message = strings.TrimSpace(answer)
	return resp
}

func failure(sessionID string, err error) Response {
	msg := "I couldn't load your FPL data right now. Please try again shortly."
	switch {
	case errors.Is(err, ErrEmptyMessage):
		msg = "Please ask a question about your squad."
	case errors.Is(err, fplsource.ErrInvalidTeamID):
		msg = "That doesn't look like a valid FPL team id."
	}
	return Response{
		Success:   false,
		Message:   msg,
		SessionID: sessionID,
		Error:     err.Error(),
		err:       err,
	}
}

func warningMessages(res *analysis.Result) []string {
	if res == nil || len(res.Warnings) == 0 {
		return nil
	}
	out := make([]string, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		out = append(out, w.Message)
	}
	return out
}

// Describe is a one-line summary of a response for logs and the CLI.
func (r Response) Describe() string {
	state := "answered"
	switch {
	case !r.Success:
		state = "failed"
	case r.Degraded:
		state = "fallback"
	}
	return fmt.Sprintf("session %s %s (%d violations, %d warnings)", r.SessionID, state, len(r.Violations), len(r.Warnings))
}
