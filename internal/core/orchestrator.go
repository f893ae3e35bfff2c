package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"francechallenges.com/sales-assistant/internal/ledger"
	"francechallenges.com/sales-assistant/internal/llm"
	"francechallenges.com/sales-assistant/internal/store"
)

var (
	// ErrValidation marks a request rejected before any provider call.
	ErrValidation = errors.New("invalid request")
	// ErrCompletion marks a failure of the responder chosen for the turn.
	ErrCompletion = errors.New("completion failed")
)

type Router interface {
	Route(ctx context.Context, turn ledger.Turn, message string) SimilarityResult
}

type Classifier interface {
	Classify(ctx context.Context, turn ledger.Turn, message string) Verdict
}

type KnowledgeResponder interface {
	Respond(ctx context.Context, turn ledger.Turn, history []llm.Message, passages, question string) (*Answer, error)
}

type WebResponder interface {
	Respond(ctx context.Context, turn ledger.Turn, history []llm.Message) (*Answer, error)
}

type State string

const (
	StateStart    State = "start"
	StateRouted   State = "routed"
	StateRefused  State = "refused"
	StateAnswered State = "answered"
)

// Outcome describes how a turn was handled.
type Outcome struct {
	GroupID   string
	State     State
	Branch    store.Operation // empty for refusals
	MaxScore  float64
	Fallbacks []Fallback
}

type Orchestrator struct {
	router       Router
	classifier   Classifier
	knowledge    KnowledgeResponder
	web          WebResponder
	refusalModel string
	now          func() time.Time
}

// NewOrchestrator wires the pipeline. refusalModel names the model reported on refusals.
func NewOrchestrator(router Router, classifier Classifier, kb KnowledgeResponder, web WebResponder, refusalModel string) *Orchestrator {
	return &Orchestrator{
		router:       router,
		classifier:   classifier,
		knowledge:    kb,
		web:          web,
		refusalModel: refusalModel,
		now:          time.Now,
	}
}

// Handle answers the last message of a conversation. Errors wrap ErrValidation or
// ErrCompletion.
func (o *Orchestrator) Handle(ctx context.Context, messages []llm.Message) (*CompletionResponse, *Outcome, error) {
	if err := validate(messages); err != nil {
		return nil, nil, err
	}

	question := messages[len(messages)-1].Content
	turn := ledger.Turn{GroupID: uuid.NewString(), Question: question}
	outcome := &Outcome{GroupID: turn.GroupID, State: StateStart}
	start := time.Now()

	routed := o.router.Route(ctx, turn, question)
	outcome.State = StateRouted
	outcome.MaxScore = routed.MaxScore
	if routed.Fallback.Triggered() {
		outcome.Fallbacks = append(outcome.Fallbacks, routed.Fallback)
	} else {
		score := routed.MaxScore
		turn.SimilarityScore = &score
	}

	var (
		answer *Answer
		err    error
	)
	if !routed.UseWebSearch {
		outcome.Branch = store.OperationKnowledgeBase
		answer, err = o.knowledge.Respond(ctx, turn, messages, routed.Context, question)
	} else {
		verdict := o.classifier.Classify(ctx, turn, question)
		if verdict.Fallback.Triggered() {
			outcome.Fallbacks = append(outcome.Fallbacks, verdict.Fallback)
		}
		if !verdict.IsRelevant {
			outcome.State = StateRefused
			logOutcome(outcome, start)
			return newCompletionResponse(o.refusalModel, RefusalMessage, llm.Usage{}, o.now()), outcome, nil
		}
		outcome.Branch = store.OperationWebSearch
		answer, err = o.web.Respond(ctx, turn, messages)
	}
	if err != nil {
		log.Error().Err(err).Str("group_id", turn.GroupID).Str("branch", string(outcome.Branch)).Msg("responder failed")
		return nil, outcome, fmt.Errorf("%w: %w", ErrCompletion, err)
	}

	outcome.State = StateAnswered
	logOutcome(outcome, start)
	return newCompletionResponse(answer.Model, answer.Text, answer.Usage, o.now()), outcome, nil
}

func validate(messages []llm.Message) error {
	if len(messages) == 0 {
		return fmt.Errorf("%w: messages must not be empty", ErrValidation)
	}
	for i, m := range messages {
		if !m.Role.Valid() {
			return fmt.Errorf("%w: message %d has unknown role %q", ErrValidation, i, m.Role)
		}
	}
	if strings.TrimSpace(messages[len(messages)-1].Content) == "" {
		return fmt.Errorf("%w: last message content must not be empty", ErrValidation)
	}
	return nil
}

func logOutcome(o *Outcome, start time.Time) {
	event := log.Info().
		Str("group_id", o.GroupID).
		Str("state", string(o.State)).
		Str("branch", string(o.Branch)).
		Float64("max_score", o.MaxScore).
		Dur("latency", time.Since(start))
	for _, f := range o.Fallbacks {
		event = event.Str("fallback", string(f.Reason))
	}
	event.Msg("turn handled")
}
