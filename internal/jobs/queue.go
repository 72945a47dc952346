package jobs

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

const TaskProcessVideo = "process:video"

type Queue struct {
	client    *asynq.Client
	server    *asynq.Server
	mux       *asynq.ServeMux
	inspector *asynq.Inspector
	log       zerolog.Logger
}

func NewQueue(redisAddr, redisPassword string, concurrency int, logger zerolog.Logger) *Queue {
	redisOpt := asynq.RedisClientOpt{Addr: redisAddr, Password: redisPassword}
	client := asynq.NewClient(redisOpt)
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)
	return &Queue{
		client:    client,
		server:    server,
		mux:       asynq.NewServeMux(),
		inspector: asynq.NewInspector(redisOpt),
		log:       logger,
	}
}

// isTaskConflict checks whether the error indicates a task ID conflict,
// using errors.Is for unwrapped sentinel values and a string fallback.
func isTaskConflict(err error) bool {
	if errors.Is(err, asynq.ErrDuplicateTask) || errors.Is(err, asynq.ErrTaskIDConflict) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "task ID conflicts") || strings.Contains(msg, "duplicate task")
}

// EnqueueUnique enqueues a task with a deterministic TaskID so one job never
// runs twice at once. A lingering completed task with the same ID is cleared
// and the enqueue retried; an actively running task is left alone.
func (q *Queue) EnqueueUnique(taskType string, payload any, uniqueID string, opts ...asynq.Option) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	opts = append(opts, asynq.TaskID(uniqueID))
	task := asynq.NewTask(taskType, data, opts...)
	info, err := q.client.Enqueue(task)
	if err == nil {
		return info.ID, nil
	}
	if !isTaskConflict(err) {
		return "", fmt.Errorf("enqueue: %w", err)
	}

	if delErr := q.inspector.DeleteTask("default", uniqueID); delErr == nil {
		q.log.Info().Str("task_id", uniqueID).Msg("cleared stale task")
		info, err = q.client.Enqueue(task)
		if err == nil {
			return info.ID, nil
		}
	}

	if isTaskConflict(err) {
		q.log.Info().Str("task_type", taskType).Str("task_id", uniqueID).
			Msg("task already active, skipping enqueue")
		return uniqueID, nil
	}
	return "", fmt.Errorf("enqueue: %w", err)
}

func (q *Queue) RegisterHandler(taskType string, handler asynq.Handler) {
	q.mux.Handle(taskType, handler)
}

func (q *Queue) Start() error {
	q.log.Info().Msg("job queue worker starting")
	return q.server.Start(q.mux)
}

func (q *Queue) Stop() {
	q.server.Shutdown()
	q.client.Close()
	q.inspector.Close()
}
