package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mimrai-org/mimrai-sub004/internal/clients/redis"
	"github.com/mimrai-org/mimrai-sub004/internal/pkg/logger"
	"github.com/mimrai-org/mimrai-sub004/internal/repos"
	"github.com/mimrai-org/mimrai-sub004/internal/types"
)

// ReplyFallbackText is posted when the agent's final message carries no text
// part at all.
const ReplyFallbackText = "Sorry, I could not process your message."

// BridgeConfig carries the bridge tunables. The comment windows default to
// 20 top-level and 10 reply comments for parity with the product behavior.
type BridgeConfig struct {
	TaskCommentLimit  int
	ReplyCommentLimit int
	MaxRounds         int
	MaxSteps          int
	DrainTimeout      time.Duration
	LeaseTTL          time.Duration
}

func DefaultBridgeConfig() BridgeConfig {
	return BridgeConfig{
		TaskCommentLimit:  20,
		ReplyCommentLimit: 10,
		MaxRounds:         8,
		MaxSteps:          6,
		DrainTimeout:      120 * time.Second,
		LeaseTTL:          2 * time.Minute,
	}
}

// CommentBridgeService turns a mention in a task comment into a full agent
// conversation and posts the streamed response back as a threaded reply.
type CommentBridgeService interface {
	// HandleTaskComment processes one comment event. Comments that do not
	// mention the agent return immediately with no writes. Failures are not
	// retried here; the activity pipeline that invoked the bridge owns
	// retry policy.
	HandleTaskComment(ctx context.Context, taskID uuid.UUID, incoming *types.Activity) error
}

type commentBridgeService struct {
	log          *logger.Logger
	cfg          BridgeConfig
	kv           redis.KV
	userRepo     repos.UserRepo
	chatRepo     repos.ChatRepo
	activityRepo repos.ActivityRepo
	contextSvc   ContextService
	activitySvc  ActivityService
	agent        AgentRunner
}

func NewCommentBridgeService(
	log *logger.Logger,
	cfg BridgeConfig,
	kv redis.KV,
	userRepo repos.UserRepo,
	chatRepo repos.ChatRepo,
	activityRepo repos.ActivityRepo,
	contextSvc ContextService,
	activitySvc ActivityService,
	agent AgentRunner,
) CommentBridgeService {
	return &commentBridgeService{
		log:          log.With("service", "CommentBridgeService"),
		cfg:          cfg,
		kv:           kv,
		userRepo:     userRepo,
		chatRepo:     chatRepo,
		activityRepo: activityRepo,
		contextSvc:   contextSvc,
		activitySvc:  activitySvc,
		agent:        agent,
	}
}

// containsMention is deliberately a literal substring check, matching the
// shipped behavior including false positives like "@MimirBot2" matching
// "@MimirBot". Changing it to a word-boundary match is a product decision,
// not a refactor.
func containsMention(text string, systemName string) bool {
	return strings.Contains(text, "@"+systemName)
}

func (s *commentBridgeService) HandleTaskComment(ctx context.Context, taskID uuid.UUID, incoming *types.Activity) error {
	if incoming == nil || incoming.Type != types.ActivityTypeTaskComment {
		return nil
	}

	systemUser, err := s.userRepo.GetSystemUser(ctx, nil)
	if err != nil {
		return fmt.Errorf("load system user: %w", err)
	}

	text := incoming.CommentText()
	if !containsMention(text, systemUser.FullName) {
		return nil
	}

	threadID := types.ThreadIDForTask(taskID)
	log := s.log.With("task_id", taskID, "thread_id", threadID, "comment_id", incoming.ID)

	// Best-effort lease so two near-simultaneous mentions on one task do
	// not both invoke the agent and both post replies. Idempotent message
	// ids already protect the log; the lease protects the reply.
	if s.kv != nil {
		leaseKey := "bridge-lease:" + threadID
		acquired, leaseErr := s.kv.AcquireLease(ctx, leaseKey, s.cfg.LeaseTTL)
		if leaseErr != nil {
			log.Warn("thread lease unavailable, proceeding without it", "error", leaseErr)
		} else if !acquired {
			log.Info("thread lease held elsewhere, skipping comment event")
			return nil
		} else {
			defer func() {
				rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := s.kv.ReleaseLease(rctx, leaseKey); err != nil {
					log.Warn("thread lease release failed", "error", err)
				}
			}()
		}
	}

	// Context snapshot and persisted thread are independent; load both in
	// parallel.
	var (
		convCtx ConversationContext
		history []*types.ChatMessage
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cc, err := s.contextSvc.Get(gctx, incoming.UserID, incoming.TeamID, RequestGeo{})
		if err != nil {
			return fmt.Errorf("load conversation context: %w", err)
		}
		convCtx = cc
		return nil
	})
	g.Go(func() error {
		if _, err := s.chatRepo.EnsureThread(gctx, nil, threadID, incoming.TeamID); err != nil {
			return fmt.Errorf("ensure thread: %w", err)
		}
		msgs, err := s.chatRepo.ListMessages(gctx, nil, threadID)
		if err != nil {
			return fmt.Errorf("load thread messages: %w", err)
		}
		history = msgs
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	working, unsaved, incomingMsg, err := s.reconcile(ctx, taskID, incoming, text, history)
	if err != nil {
		return err
	}

	for _, entry := range unsaved {
		if err := s.chatRepo.SaveMessage(ctx, nil, entry); err != nil {
			return fmt.Errorf("persist reconciled message %s: %w", entry.ID, err)
		}
	}

	instructions := BuildAgentInstructions(convCtx, nil, false) + taskCommentDirective

	final, err := s.invokeAgent(ctx, AgentRun{
		Message:      incomingMsg,
		History:      working,
		Instructions: instructions,
		MaxRounds:    s.cfg.MaxRounds,
		MaxSteps:     s.cfg.MaxSteps,
	})
	if err != nil {
		return err
	}

	replyText, ok := final.LastText()
	if !ok {
		replyText = ReplyFallbackText
	}

	if _, err := s.activitySvc.CreateTaskComment(ctx, CreateTaskCommentInput{
		TaskID:  taskID,
		Comment: replyText,
		ReplyTo: &incoming.ID,
		UserID:  systemUser.ID,
		TeamID:  incoming.TeamID,
	}); err != nil {
		return fmt.Errorf("post reply comment: %w", err)
	}

	log.Info("posted agent reply", "reply_to", incoming.ID)
	return nil
}

// reconcile merges the persisted thread with freshly fetched task comments
// into one ordered, de-duplicated message sequence. The union is stable and
// keyed by message id (== comment id): the persisted thread is already
// ordered and new entries append at their fetch position, carrying the
// comment's original timestamp for persistence. Running it twice on the same
// inputs appends nothing the second time.
func (s *commentBridgeService) reconcile(
	ctx context.Context,
	taskID uuid.UUID,
	incoming *types.Activity,
	incomingText string,
	persisted []*types.ChatMessage,
) (working []*types.ChatMessage, unsaved []*types.ChatMessage, incomingMsg types.ChatMessage, err error) {
	working = append(working, persisted...)
	present := make(map[string]bool, len(persisted)+1)
	for _, m := range persisted {
		present[m.ID] = true
	}
	// The incoming comment is appended last, never at its fetch position.
	present[incoming.ID.String()] = true

	topLevel, err := s.activityRepo.ListByGroup(ctx, nil, taskID, incoming.TeamID, types.ActivityTypeTaskComment, s.cfg.TaskCommentLimit)
	if err != nil {
		return nil, nil, types.ChatMessage{}, fmt.Errorf("fetch task comments: %w", err)
	}
	replies, err := s.activityRepo.ListByGroup(ctx, nil, incoming.ID, incoming.TeamID, types.ActivityTypeTaskComment, s.cfg.ReplyCommentLimit)
	if err != nil {
		return nil, nil, types.ChatMessage{}, fmt.Errorf("fetch reply comments: %w", err)
	}

	for _, comment := range append(topLevel, replies...) {
		id := comment.ID.String()
		if present[id] {
			continue
		}
		body := comment.CommentText()
		if body == "" {
			continue
		}
		present[id] = true

		// Every merged comment carries role "user", including the agent's
		// own prior replies. That is the shipped transcript behavior and is
		// preserved pending product clarification.
		msg := types.TextMessage(id, types.RoleUser, body)
		msg.ThreadID = types.ThreadIDForTask(taskID)
		msg.UserID = comment.UserID
		msg.CreatedAt = comment.CreatedAt
		working = append(working, &msg)
		unsaved = append(unsaved, &msg)
	}

	incomingMsg = types.TextMessage(incoming.ID.String(), types.RoleUser, incomingText)
	incomingMsg.ThreadID = types.ThreadIDForTask(taskID)
	incomingMsg.UserID = incoming.UserID
	incomingMsg.CreatedAt = incoming.CreatedAt
	working = append(working, &incomingMsg)
	unsaved = append(unsaved, &incomingMsg)

	return working, unsaved, incomingMsg, nil
}

// invokeAgent runs the agent, drains its stream to exhaustion under the
// configured deadline, and returns the final assembled message captured by
// the finish callback. A drain failure or timeout rejects the whole
// invocation; a partial result is never accepted.
func (s *commentBridgeService) invokeAgent(ctx context.Context, run AgentRun) (types.ChatMessage, error) {
	finalCh := make(chan types.ChatMessage, 1)
	run.OnFinish = func(final types.ChatMessage) {
		finalCh <- final
	}

	stream, err := s.agent.Run(ctx, run)
	if err != nil {
		return types.ChatMessage{}, fmt.Errorf("invoke agent: %w", err)
	}

	dctx := ctx
	var cancel context.CancelFunc
	if s.cfg.DrainTimeout > 0 {
		dctx, cancel = context.WithTimeout(ctx, s.cfg.DrainTimeout)
		defer cancel()
	}

	drainErrCh := make(chan error, 1)
	go func() {
		drainErrCh <- stream.Drain(dctx)
	}()

	select {
	case err := <-drainErrCh:
		if err != nil {
			return types.ChatMessage{}, fmt.Errorf("drain agent stream: %w", err)
		}
	case <-dctx.Done():
		// The drain goroutine sees the same context and releases the
		// underlying resource on its way out.
		return types.ChatMessage{}, fmt.Errorf("drain agent stream: %w", dctx.Err())
	}

	select {
	case final := <-finalCh:
		return final, nil
	case <-dctx.Done():
		return types.ChatMessage{}, fmt.Errorf("agent stream drained without a final message: %w", dctx.Err())
	}
}
