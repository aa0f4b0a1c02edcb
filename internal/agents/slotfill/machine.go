// internal/agents/slotfill/machine.go
package slotfill

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"returns-insights/internal/agents/normalizer"
	"returns-insights/internal/common/config"
	commonerrors "returns-insights/internal/common/errors"
	"returns-insights/internal/common/logger"
	"returns-insights/internal/common/metrics"
	"returns-insights/internal/common/validation"
	"returns-insights/internal/models"
	"returns-insights/internal/session"
	"returns-insights/internal/storage"
)

const AgentName = "returns_agent"

// casAttempts bounds the read-merge-write retry loop when concurrent
// requests race on the same session.
const casAttempts = 5

// Machine owns the in-flight return draft of each session. It merges
// incoming slot candidates, asks for the first missing slot, and hands
// completed drafts to the storage collaborator.
type Machine struct {
	sessions session.Store
	store    storage.Store
	cfg      config.SlotfillConfig
	logger   logger.Logger

	now   func() time.Time
	newID func() string
}

func New(sessions session.Store, store storage.Store, cfg config.SlotfillConfig, log logger.Logger) *Machine {
	return &Machine{
		sessions: sessions,
		store:    store,
		cfg:      cfg,
		logger:   log.WithFields(map[string]interface{}{"agent": AgentName}),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// Advance processes one return-submission turn: merge the extracted
// slots into the session's draft, then either ask for the next missing
// slot or finalize and persist the record. The merged draft survives a
// failed insert so the user never re-enters what they already gave.
func (m *Machine) Advance(ctx context.Context, sessionID string, cl models.Classification, utterance string) *models.AgentResponse {
	sess, err := m.mergeWithRetry(ctx, sessionID, cl.Slots, utterance)
	if err != nil {
		m.logger.Error("session merge failed", map[string]interface{}{
			"sessionId": sessionID,
			"error":     err.Error(),
		})
		return failureResponse(err)
	}

	if !sess.Draft.IsComplete() {
		missing := sess.Draft.MissingSlots()
		return &models.AgentResponse{
			Success:        true,
			Message:        questionFor(missing[0]),
			Intent:         models.IntentReturnSubmission,
			AgentName:      AgentName,
			FollowUpNeeded: true,
			Data: map[string]interface{}{
				"missing_fields": missing,
				"draft":          sess.Draft,
			},
		}
	}

	return m.finalize(ctx, sess)
}

// mergeWithRetry runs the read-merge-write cycle under compare-and-swap
// so concurrent turns for the same session cannot lose slot updates.
func (m *Machine) mergeWithRetry(ctx context.Context, sessionID string, slots []models.SlotCandidate, utterance string) (*models.Session, error) {
	for attempt := 0; attempt < casAttempts; attempt++ {
		sess, err := m.sessions.Get(ctx, sessionID)
		if errors.Is(err, session.ErrNotFound) {
			// A lost session restarts collection rather than failing.
			sess = models.NewSession(sessionID, m.now())
		} else if err != nil {
			return nil, commonerrors.NewSessionStoreFailedError(err)
		}

		if sess.Draft == nil {
			sess.Draft = &models.ReturnDraft{}
			metrics.SessionsActive.Inc()
		}

		mergeSlots(sess.Draft, slots)
		m.captureAnswer(sess, slots, utterance)
		sess.PendingSlot = nextPendingSlot(sess.Draft)
		sess.LastIntent = models.IntentReturnSubmission
		sess.UpdatedAt = m.now()

		err = m.sessions.CompareAndSwap(ctx, sess)
		if err == nil {
			return sess, nil
		}
		// ErrNotFound here means the session expired between the read
		// and the write; the next attempt restarts collection fresh.
		if !errors.Is(err, session.ErrVersionConflict) && !errors.Is(err, session.ErrNotFound) {
			return nil, commonerrors.NewSessionStoreFailedError(err)
		}
	}
	return nil, commonerrors.NewSessionConflictError(sessionID)
}

// mergeSlots applies first-write-wins: a slot already filled is never
// overwritten by a later extraction.
func mergeSlots(draft *models.ReturnDraft, slots []models.SlotCandidate) {
	for _, s := range slots {
		switch s.Slot {
		case models.SlotProductName:
			if draft.ProductName == nil && s.Text != "" {
				v := s.Text
				draft.ProductName = &v
			}
		case models.SlotPurchaseLocation:
			if draft.PurchaseLocation == nil && s.Text != "" {
				v := s.Text
				draft.PurchaseLocation = &v
			}
		case models.SlotPurchasePrice:
			if draft.PurchasePrice == nil && s.Number > 0 {
				v := s.Number
				draft.PurchasePrice = &v
			}
		case models.SlotReturnReason:
			if draft.ReturnReason == nil && s.Text != "" {
				v := s.Text
				draft.ReturnReason = &v
			}
		case models.SlotOriginalPrice:
			if draft.OriginalPrice == nil && s.Number > 0 {
				v := s.Number
				draft.OriginalPrice = &v
			}
		case models.SlotDiscountPercent:
			if draft.DiscountPercent == nil && s.Number > 0 {
				v := s.Number
				draft.DiscountPercent = &v
			}
		}
	}
}

// captureAnswer fills the pending slot from a free-form reply when the
// extraction pass produced no candidate for it. Only the slot that was
// asked about is filled this way.
func (m *Machine) captureAnswer(sess *models.Session, slots []models.SlotCandidate, utterance string) {
	pending := sess.PendingSlot
	if pending == "" || sess.Draft.Has(pending) {
		return
	}
	for _, s := range slots {
		if s.Slot == pending {
			return
		}
	}

	// A reply that produced candidates for other slots is a full
	// sentence, not a bare answer; treating it as one would stuff the
	// pending slot with unrelated text. The product slot is the
	// exception: its answer may legitimately lead such a sentence.
	bareAnswer := len(slots) == 0

	switch pending {
	case models.SlotProductName:
		phrase := leadingProductPhrase(utterance)
		if !bareAnswer && !looksLikeProductPhrase(phrase) {
			return
		}
		if name := normalizer.NormalizeProduct(phrase); name != "" {
			sess.Draft.ProductName = &name
		}
	case models.SlotPurchaseLocation:
		if !bareAnswer {
			return
		}
		if loc := normalizer.NormalizeLocation(utterance); loc != "" {
			sess.Draft.PurchaseLocation = &loc
		}
	case models.SlotPurchasePrice:
		if !bareAnswer {
			return
		}
		if p, ok := normalizer.NormalizePrice(utterance); ok {
			sess.Draft.PurchasePrice = &p.Amount
			if p.DiscountPercent > 0 {
				sess.Draft.OriginalPrice = &p.OriginalPrice
				sess.Draft.DiscountPercent = &p.DiscountPercent
			}
		}
	case models.SlotReturnReason:
		if !bareAnswer {
			return
		}
		if reason := normalizer.NormalizeReason(utterance); reason != "" {
			sess.Draft.ReturnReason = &reason
		}
	}
}

func looksLikeProductPhrase(s string) bool {
	if s == "" || strings.ContainsAny(s, "0123456789$") {
		return false
	}
	return len(strings.Fields(s)) <= 4
}

// answerStopWords end the product phrase in replies like
// "Coffee maker bought at Walmart for $80".
var answerStopWords = map[string]bool{
	"bought": true, "purchased": true, "from": true,
	"at": true, "for": true, "that": true, "which": true,
}

func leadingProductPhrase(utterance string) string {
	cleaned := strings.TrimSpace(utterance)
	if i := strings.IndexAny(cleaned, ",."); i >= 0 {
		cleaned = cleaned[:i]
	}

	var kept []string
	for _, w := range strings.Fields(cleaned) {
		if answerStopWords[strings.ToLower(w)] {
			break
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

func nextPendingSlot(draft *models.ReturnDraft) string {
	missing := draft.MissingSlots()
	if len(missing) == 0 {
		return ""
	}
	return missing[0]
}

// finalize derives the system fields, persists the record, and clears
// the session's draft. A storage failure keeps the draft intact and
// surfaces a retryable error response.
func (m *Machine) finalize(ctx context.Context, sess *models.Session) *models.AgentResponse {
	now := m.now()
	rec := sess.Draft.ToRecord(m.newID(), sess.ID, now)
	rec.CustomerID = "CUST_" + now.Format("20060102150405")
	rec.WarrantyStatus = m.warrantyStatus(rec.PurchaseDate, now)
	if rec.Category == "" {
		rec.Category = "Electronics"
	}
	if rec.Brand == "" {
		rec.Brand = inferBrand(rec.ProductName)
	}

	if err := validation.ValidateRecord(rec); err != nil {
		m.logger.Error("finalized record failed validation", map[string]interface{}{
			"sessionId": sess.ID,
			"error":     err.Error(),
		})
		return failureResponse(err)
	}

	id, err := m.store.Insert(ctx, rec)
	if err != nil {
		metrics.StorageFailures.WithLabelValues("insert").Inc()
		m.logger.Error("record insert failed", map[string]interface{}{
			"sessionId": sess.ID,
			"error":     err.Error(),
		})
		return failureResponse(commonerrors.NewStorageUnavailableError(err))
	}
	rec.ID = id

	metrics.ReturnsFinalized.Inc()
	m.clearDraft(ctx, sess.ID)

	return &models.AgentResponse{
		Success:   true,
		Message:   buildConfirmation(rec),
		Intent:    models.IntentReturnSubmission,
		AgentName: AgentName,
		Data: map[string]interface{}{
			"record_id": rec.ID,
			"record":    rec,
		},
	}
}

func (m *Machine) warrantyStatus(purchaseDate *time.Time, now time.Time) string {
	if purchaseDate == nil {
		return "Under Warranty"
	}
	window := time.Duration(m.cfg.WarrantyWindowDays) * 24 * time.Hour
	if now.Sub(*purchaseDate) <= window {
		return "Under Warranty"
	}
	return "Unknown"
}

// clearDraft removes the finalized draft under its own retry loop; the
// insert already succeeded so a conflict here must not fail the turn.
func (m *Machine) clearDraft(ctx context.Context, sessionID string) {
	for attempt := 0; attempt < casAttempts; attempt++ {
		sess, err := m.sessions.Get(ctx, sessionID)
		if err != nil {
			return
		}
		if sess.Draft == nil {
			return
		}
		sess.ClearDraft()
		sess.UpdatedAt = m.now()

		err = m.sessions.CompareAndSwap(ctx, sess)
		if err == nil {
			metrics.SessionsActive.Dec()
			return
		}
		if !errors.Is(err, session.ErrVersionConflict) {
			m.logger.Warn("draft cleanup failed", map[string]interface{}{
				"sessionId": sessionID,
				"error":     err.Error(),
			})
			return
		}
	}
}

var appleProducts = []string{"iphone", "ipad", "macbook", "apple tv", "airpods", "apple watch"}

func inferBrand(product string) string {
	lower := strings.ToLower(product)
	for _, p := range appleProducts {
		if strings.Contains(lower, p) {
			return "Apple"
		}
	}
	return "Unknown"
}

func failureResponse(err error) *models.AgentResponse {
	message := "Something went wrong while handling your return. Please try again."
	var stdErr *commonerrors.StandardError
	if errors.As(err, &stdErr) {
		message = stdErr.UserMessage()
	}
	return &models.AgentResponse{
		Success:   false,
		Message:   message,
		Intent:    models.IntentReturnSubmission,
		AgentName: AgentName,
		Data: map[string]interface{}{
			"error": string(errorCode(err)),
		},
	}
}

func errorCode(err error) commonerrors.ErrorCode {
	var stdErr *commonerrors.StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return "INTERNAL"
}
