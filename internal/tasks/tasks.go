package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/MihaiVoinica/AdminBloc/internal/config"
	"github.com/MihaiVoinica/AdminBloc/internal/email"
)

// Task types.
const (
	TypeEmailDelivery = "email:deliver"
)

// --- Task Client (Enqueuing tasks) ---

func NewClient(rdb *redis.Client) *asynq.Client {
	clientOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}
	return asynq.NewClient(clientOpt)
}

// EmailTaskPayload is a self-contained email: the handler only adds
// headers and hands it to the configured sender.
type EmailTaskPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Kind    string `json:"kind,omitempty"`
}

// Enqueuer is the subset of asynq.Client used to queue tasks. An
// interface so handlers can be tested without Redis.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// EnqueueActivationEmail queues the account-activation email for a
// freshly registered user.
func EnqueueActivationEmail(ctx context.Context, client Enqueuer, cfg *config.Config, name, to, token, pin string) error {
	payload := EmailTaskPayload{
		To:      to,
		Subject: fmt.Sprintf("Activate your %s account", cfg.AppName),
		Kind:    "activation",
		Body: fmt.Sprintf(
			"Hello %s,\r\n\r\n"+
				"An account has been created for you. Open the link below and enter your PIN to choose a password:\r\n\r\n"+
				"%s/%s\r\n\r\n"+
				"PIN: %s\r\n\r\n"+
				"If you were not expecting this email you can ignore it.\r\n",
			name, cfg.ActivationBaseURL, token, pin),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal activation email payload: %w", err)
	}
	task := asynq.NewTask(TypeEmailDelivery, data)
	if _, err := client.EnqueueContext(ctx, task, asynq.Queue("critical"), asynq.MaxRetry(5)); err != nil {
		return fmt.Errorf("failed to enqueue activation email for %s: %w", to, err)
	}
	return nil
}

// --- Task Server (Processing tasks) ---

// TaskProcessor holds the dependencies task handlers need.
type TaskProcessor struct {
	cfg         *config.Config
	emailSender email.Sender
}

func NewTaskProcessor(cfg *config.Config, emailSender email.Sender) *TaskProcessor {
	return &TaskProcessor{
		cfg:         cfg,
		emailSender: emailSender,
	}
}

// SetupServer configures and starts an Asynq server instance. The
// caller is responsible for Shutdown.
func SetupServer(rdb *redis.Client, processor *TaskProcessor) (*asynq.Server, error) {
	serverOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}

	srv := asynq.NewServer(
		serverOpt,
		asynq.Config{
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("[Asynq Error] Task Type: %s, Payload: %s, Error: %v", task.Type(), string(task.Payload()), err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeEmailDelivery, processor.HandleEmailDeliveryTask)

	if err := srv.Start(mux); err != nil {
		return nil, fmt.Errorf("failed to start task server: %w", err)
	}
	return srv, nil
}

// HandleEmailDeliveryTask renders the headers around a self-contained
// payload and sends it.
func (p *TaskProcessor) HandleEmailDeliveryTask(ctx context.Context, t *asynq.Task) error {
	var payload EmailTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal email task payload: %v: %w", err, asynq.SkipRetry)
	}

	fromAddress := p.cfg.SmtpFromAddress
	if fromAddress == "" {
		fromAddress = "noreply@example.com"
		log.Printf("Warning: SMTP_FROM_ADDRESS not configured, using fallback %s for email to %s", fromAddress, payload.To)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("To: %s\r\n", payload.To))
	sb.WriteString(fmt.Sprintf("From: %s\r\n", fromAddress))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", payload.Subject))
	sb.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(payload.Body)
	sb.WriteString("\r\n")

	if err := p.emailSender.Send(ctx, []string{payload.To}, payload.Subject, []byte(sb.String())); err != nil {
		log.Printf("Email sending failed for %s: %v", payload.To, err)
		return err
	}
	return nil
}
