package alerts

import (
	"context"
	"encoding/json"
	"log"

	"github.com/hibiken/asynq"

	"github.com/hourbank-app/hourbank/internal/config"
)

var (
	client *asynq.Client
	server *asynq.Server
)

// Init starts the Asynq server and initializes a shared client. The
// broker address comes from the config; REDIS_ADDR and friends are
// already folded in there.
func Init(cfg config.Config) {
	opts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	client = asynq.NewClient(opts)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskVerificationEmail, handleVerificationEmail)
	mux.HandleFunc(TaskPasswordReset, handlePasswordReset)
	mux.HandleFunc(TaskRequestReceived, handleRequestReceived)
	mux.HandleFunc(TaskRequestAccepted, handleRequestAccepted)
	mux.HandleFunc(TaskRequestCompleted, handleRequestCompleted)

	server = asynq.NewServer(opts, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			"emails": 10,
		},
	})
	go func() {
		if err := server.Run(mux); err != nil {
			log.Printf("Asynq server stopped: %v", err)
		}
	}()

	log.Printf("Asynq initialized (addr=%s)", cfg.RedisAddr)
}

// Close releases client and stops server.
func Close() {
	if client != nil {
		_ = client.Close()
	}
	if server != nil {
		server.Shutdown()
	}
}

// Handlers below parse payloads and hand them to the mailer.

func handleVerificationEmail(_ context.Context, t *asynq.Task) error {
	var p VerificationEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := SendEmail(p.Email, p.Envelope.Subject, p.Envelope.Body); err != nil {
		log.Printf("[notify][ERROR] VerificationEmail send failed: %v", err)
		return err
	}
	log.Printf("[notify] VerificationEmail sent -> to=%s user=%s", p.Email, p.UserID)
	return nil
}

func handlePasswordReset(_ context.Context, t *asynq.Task) error {
	var p PasswordResetPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := SendEmail(p.Email, p.Envelope.Subject, p.Envelope.Body); err != nil {
		log.Printf("[notify][ERROR] PasswordReset send failed: %v", err)
		return err
	}
	log.Printf("[notify] PasswordReset sent -> to=%s", p.Email)
	return nil
}

func handleRequestReceived(_ context.Context, t *asynq.Task) error {
	var p RequestReceivedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := SendEmail(p.Email, p.Envelope.Subject, p.Envelope.Body); err != nil {
		log.Printf("[notify][ERROR] RequestReceived send failed: %v", err)
		return err
	}
	log.Printf("[notify] RequestReceived sent -> request=%s to=%s", p.RequestID, p.Email)
	return nil
}

func handleRequestAccepted(_ context.Context, t *asynq.Task) error {
	var p RequestAcceptedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := SendEmail(p.Email, p.Envelope.Subject, p.Envelope.Body); err != nil {
		log.Printf("[notify][ERROR] RequestAccepted send failed: %v", err)
		return err
	}
	log.Printf("[notify] RequestAccepted sent -> request=%s to=%s", p.RequestID, p.Email)
	return nil
}

func handleRequestCompleted(_ context.Context, t *asynq.Task) error {
	var p RequestCompletedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := SendEmail(p.Email, p.Envelope.Subject, p.Envelope.Body); err != nil {
		log.Printf("[notify][ERROR] RequestCompleted send failed: %v", err)
		return err
	}
	log.Printf("[notify] RequestCompleted sent -> request=%s hours=%d", p.RequestID, p.Hours)
	return nil
}
