package service

import (
	"time"

	"formbox/internal/jobs"

	"github.com/hibiken/asynq"
)

// JobClient abstracts background job scheduling.
type JobClient interface {
	ScheduleSubmissionDelivery(submissionID string) error
	ScheduleSessionExpiry(sessionID string, expiresAt time.Time) error
}

// AsynqJobClient implements JobClient using asynq.
type AsynqJobClient struct {
	client *asynq.Client
}

func NewAsynqJobClient(client *asynq.Client) *AsynqJobClient {
	return &AsynqJobClient{client: client}
}

func (c *AsynqJobClient) ScheduleSubmissionDelivery(submissionID string) error {
	return jobs.ScheduleSubmissionDelivery(c.client, submissionID)
}

func (c *AsynqJobClient) ScheduleSessionExpiry(sessionID string, expiresAt time.Time) error {
	return jobs.ScheduleSessionExpiry(c.client, sessionID, expiresAt)
}
