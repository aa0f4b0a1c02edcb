// internal/agents/router/router.go
package router

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"returns-insights/internal/agents/classifier"
	commonerrors "returns-insights/internal/common/errors"
	"returns-insights/internal/common/logger"
	"returns-insights/internal/common/metrics"
	"returns-insights/internal/common/observability"
	"returns-insights/internal/models"
	"returns-insights/internal/session"
)

const AgentName = "router"

// casAttempts bounds the history-append retry loop.
const casAttempts = 5

// ReturnsAgent drives the slot-filling conversation for a return.
type ReturnsAgent interface {
	Advance(ctx context.Context, sessionID string, cl models.Classification, utterance string) *models.AgentResponse
}

// InsightsAgent answers analysis questions and renders reports.
type InsightsAgent interface {
	Run(ctx context.Context, utterance string) *models.AgentResponse
	RunReport(ctx context.Context, utterance string) *models.AgentResponse
}

// Router classifies each utterance and dispatches it to the agent that
// owns the intent. It appends the exchange to the session history but
// never touches the draft itself; all slot mutation happens in the
// returns agent.
type Router struct {
	classifier   *classifier.Classifier
	returns      ReturnsAgent
	insights     InsightsAgent
	sessions     session.Store
	obs          *observability.Observability
	historyLimit int
	logger       logger.Logger
	now          func() time.Time
}

func New(
	cl *classifier.Classifier,
	returns ReturnsAgent,
	insights InsightsAgent,
	sessions session.Store,
	obs *observability.Observability,
	historyLimit int,
	log logger.Logger,
) *Router {
	return &Router{
		classifier:   cl,
		returns:      returns,
		insights:     insights,
		sessions:     sessions,
		obs:          obs,
		historyLimit: historyLimit,
		logger:       log.WithFields(map[string]interface{}{"agent": AgentName}),
		now:          time.Now,
	}
}

// Route handles one chat message end to end and returns the response
// envelope. An empty session id starts a fresh conversation.
func (r *Router) Route(ctx context.Context, sessionID, utterance string) (*models.AgentResponse, string) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	start := r.now()

	sctx := r.sessionContext(ctx, sessionID)
	cl := r.classifier.Classify(utterance, sctx)

	resp := r.dispatch(ctx, sessionID, cl, utterance)

	r.appendHistory(ctx, sessionID, utterance, resp)
	r.record(ctx, resp, r.now().Sub(start))

	return resp, sessionID
}

func (r *Router) dispatch(ctx context.Context, sessionID string, cl models.Classification, utterance string) *models.AgentResponse {
	switch {
	case cl.Intent == models.IntentReturnSubmission && !r.classifier.IsAmbiguous(cl):
		return r.returns.Advance(ctx, sessionID, cl, utterance)

	case cl.Intent == models.IntentDataAnalysis:
		return r.insights.Run(ctx, utterance)

	case cl.Intent == models.IntentReportGeneration:
		return r.insights.RunReport(ctx, utterance)

	case cl.Intent == models.IntentGreeting:
		return greetingResponse(utterance)

	default:
		return clarifyResponse(cl)
	}
}

func (r *Router) sessionContext(ctx context.Context, sessionID string) classifier.Context {
	sess, err := r.sessions.Get(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			r.logger.Warn("session read failed, classifying without context", map[string]interface{}{
				"sessionID": sessionID,
				"error":     err.Error(),
			})
		}
		return classifier.Context{}
	}
	return classifier.Context{HasOpenDraft: sess.HasDraft(), LastIntent: sess.LastIntent}
}

// appendHistory records the user and agent turns on the freshest copy
// of the session. The returns agent may have rewritten the session
// during dispatch, so each attempt re-reads before swapping.
func (r *Router) appendHistory(ctx context.Context, sessionID, utterance string, resp *models.AgentResponse) {
	now := r.now()
	for attempt := 0; attempt < casAttempts; attempt++ {
		sess, err := r.sessions.Get(ctx, sessionID)
		if errors.Is(err, session.ErrNotFound) {
			sess = models.NewSession(sessionID, now)
		} else if err != nil {
			r.logger.Warn("history append skipped", map[string]interface{}{
				"sessionID": sessionID,
				"error":     err.Error(),
			})
			return
		}

		sess.AppendTurn(models.Turn{
			Role:      "user",
			Message:   utterance,
			Intent:    resp.Intent,
			Timestamp: now,
		}, r.historyLimit)
		sess.AppendTurn(models.Turn{
			Role:      "agent",
			Message:   resp.Message,
			Intent:    resp.Intent,
			AgentName: resp.AgentName,
			Timestamp: now,
		}, r.historyLimit)
		sess.LastIntent = resp.Intent
		sess.UpdatedAt = now

		err = r.sessions.CompareAndSwap(ctx, sess)
		if err == nil {
			return
		}
		if !errors.Is(err, session.ErrVersionConflict) {
			r.logger.Warn("history append failed", map[string]interface{}{
				"sessionID": sessionID,
				"error":     err.Error(),
			})
			return
		}
	}
	r.logger.Warn("history append gave up after version conflicts", map[string]interface{}{
		"sessionID": sessionID,
	})
}

func (r *Router) record(ctx context.Context, resp *models.AgentResponse, elapsed time.Duration) {
	intent := string(resp.Intent)
	metrics.MessagesProcessed.WithLabelValues(intent).Inc()
	metrics.MessageDuration.WithLabelValues(intent).Observe(elapsed.Seconds())
	if !resp.Success {
		metrics.MessagesFailed.WithLabelValues(intent, failureCode(resp)).Inc()
	}
	if r.obs != nil {
		r.obs.RecordMessageProcessed(ctx, intent)
		r.obs.RecordMessageDuration(ctx, elapsed, intent)
	}
}

func failureCode(resp *models.AgentResponse) string {
	if resp.Data != nil {
		if code, ok := resp.Data["error"].(string); ok && code != "" {
			return code
		}
	}
	return "UNKNOWN"
}

// greetingResponse tailors the welcome to what the greeting already
// hints at wanting.
func greetingResponse(utterance string) *models.AgentResponse {
	lower := strings.ToLower(utterance)

	message := "Hello! I can help you submit a product return or answer questions about past returns. What would you like to do?"
	switch {
	case strings.Contains(lower, "return") || strings.Contains(lower, "refund"):
		message = "Hello! I can help you with your return. What product would you like to return?"
	case strings.Contains(lower, "report") || strings.Contains(lower, "analysis") || strings.Contains(lower, "data"):
		message = "Hello! I can answer questions about return data or generate a report. What would you like to know?"
	}

	return &models.AgentResponse{
		Success:   true,
		Message:   message,
		Intent:    models.IntentGreeting,
		AgentName: AgentName,
	}
}

func clarifyResponse(cl models.Classification) *models.AgentResponse {
	stdErr := commonerrors.NewClassificationAmbiguousError(cl.Confidence)
	return &models.AgentResponse{
		Success:        false,
		Message:        "I'm not sure what you'd like to do. You can submit a product return, ask about return data, or request a report.",
		Intent:         models.IntentUnknown,
		AgentName:      AgentName,
		FollowUpNeeded: true,
		Data:           map[string]interface{}{"error": string(stdErr.Code)},
	}
}
