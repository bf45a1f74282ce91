package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"formbox/internal/db"
	"formbox/internal/pubsub"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

type JobServer struct {
	server *asynq.Server
	client *asynq.Client
	db     *db.Pool
	bus    *pubsub.Bus
	log    *zap.Logger
	http   *http.Client
}

func NewJobServer(redisAddr string, dbPool *db.Pool, bus *pubsub.Bus, log *zap.Logger) (*JobServer, *asynq.Client) {
	redisOpt := asynq.RedisClientOpt{Addr: redisAddr}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	client := asynq.NewClient(redisOpt)

	return &JobServer{
		server: server,
		client: client,
		db:     dbPool,
		bus:    bus,
		log:    log,
		http:   &http.Client{Timeout: 15 * time.Second},
	}, client
}

func (js *JobServer) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc("submission:deliver", js.handleSubmissionDelivery)
	mux.HandleFunc("session:expire", js.handleSessionExpiry)
	return js.server.Start(mux)
}

func (js *JobServer) Stop() {
	js.server.Shutdown()
	js.client.Close()
}

// handleSubmissionDelivery posts a submission snapshot to the form's
// callback URL. Returning an error hands the task back to asynq for retry;
// delivery never affects the session that produced the submission.
func (js *JobServer) handleSubmissionDelivery(ctx context.Context, t *asynq.Task) error {
	submissionID := string(t.Payload())

	sub, err := js.db.Queries.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return fmt.Errorf("failed to get submission: %w", err)
	}
	if sub.DeliveredAt != nil {
		return nil // Already delivered
	}

	form, err := js.db.Queries.GetFormByID(ctx, sub.FormID)
	if err != nil {
		return fmt.Errorf("failed to get form: %w", err)
	}
	if form.CallbackURL == nil || *form.CallbackURL == "" {
		return nil
	}

	payload, err := json.Marshal(map[string]interface{}{
		"formId":      sub.FormID,
		"formTitle":   sub.FormTitle,
		"responses":   sub.Responses,
		"submittedAt": sub.SubmittedAt.Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal submission payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, *form.CallbackURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := js.http.Do(req)
	if err != nil {
		return fmt.Errorf("callback request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("callback returned status %d", resp.StatusCode)
	}

	if err := js.db.Queries.MarkSubmissionDelivered(ctx, submissionID); err != nil {
		return fmt.Errorf("failed to mark delivered: %w", err)
	}

	_ = js.bus.PublishForm(sub.FormID, map[string]interface{}{
		"type":         "submission.delivered",
		"submissionId": submissionID,
	})

	js.log.Info("Submission delivered", zap.String("submission_id", submissionID))
	return nil
}

func (js *JobServer) handleSessionExpiry(ctx context.Context, t *asynq.Task) error {
	sessionID := string(t.Payload())

	sess, err := js.db.Queries.GetSessionByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	// Only expire sessions still in progress
	if sess.Status != "ACTIVE" {
		return nil
	}

	if err := js.db.Queries.UpdateSessionStatus(ctx, sessionID, "EXPIRED"); err != nil {
		return fmt.Errorf("failed to expire session: %w", err)
	}

	_ = js.bus.PublishSession(sessionID, map[string]interface{}{
		"type":      "session.expired",
		"sessionId": sessionID,
	})

	js.log.Info("Session expired", zap.String("session_id", sessionID))
	return nil
}

// Schedule jobs

func ScheduleSubmissionDelivery(client *asynq.Client, submissionID string) error {
	task := asynq.NewTask("submission:deliver", []byte(submissionID))
	_, err := client.Enqueue(task, asynq.Queue("critical"), asynq.MaxRetry(10))
	return err
}

func ScheduleSessionExpiry(client *asynq.Client, sessionID string, expiresAt time.Time) error {
	if expiresAt.Before(time.Now()) {
		return nil // Already past expiry
	}
	task := asynq.NewTask("session:expire", []byte(sessionID))
	_, err := client.Enqueue(task, asynq.ProcessIn(time.Until(expiresAt)), asynq.Queue("low"))
	return err
}
